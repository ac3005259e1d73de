package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newPreferenceServer 伪造网关的创建偏好接口
func newPreferenceServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "pref-test-1",
			"init_point":         "https://mp.test/init",
			"external_reference": payload["external_reference"],
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newOrderService(db *gorm.DB, cfg *config.Config) *OrderService {
	return NewOrderService(
		cfg,
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewCartRepository(db),
		repository.NewUserRepository(db),
		nil,
		nil,
	)
}

func checkoutConfig(gatewayURL string) *config.Config {
	return &config.Config{
		MercadoPago: config.MercadoPagoConfig{
			AccessToken: "APP_USR-test",
			BaseURL:     gatewayURL,
			Currency:    "ARS",
		},
		Shipping: config.ShippingConfig{
			OriginPostalCode: "1000",
			NearCost:         "800",
			NearDays:         2,
			MidCost:          "1500",
			MidDays:          4,
			FarCost:          "2600",
			FarDays:          7,
		},
	}
}

// seedCheckoutCart 造一个可结账的购物车：单价 1000、成本 600、数量 2
func seedCheckoutCart(t *testing.T, db *gorm.DB, userID uint, slug string) (*models.Cart, *models.Variant) {
	t.Helper()
	variant := createTestVariant(t, db, slug, 1000, 600, 5)
	cart := &models.Cart{
		CartNo: uuid.NewString(),
		UserID: userID,
		Status: constants.CartStatusActive,
	}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	item := models.CartItem{
		CartID:     cart.ID,
		ProductID:  variant.ProductID,
		VariantID:  variant.ID,
		Quantity:   2,
		UnitPrice:  models.NewMoneyFromInt(1000),
		FinalPrice: models.NewMoneyFromInt(1000),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
	return cart, variant
}

func TestCreateOrderFromCartComputesTotals(t *testing.T) {
	db := newTestDB(t)
	server := newPreferenceServer(t)
	svc := newOrderService(db, checkoutConfig(server.URL))
	user := createTestUser(t, db, "checkout1@test.com", 0)
	address := createTestAddress(t, db, user.ID, "1425")
	cart, _ := seedCheckoutCart(t, db, user.ID, "zapatilla-checkout")

	result, err := svc.CreateOrderFromCart(context.Background(), CheckoutInput{
		CartID:                cart.ID,
		UserID:                user.ID,
		AddressID:             address.ID,
		ShippingCost:          models.NewMoneyFromInt(1500),
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, 4),
	})
	if err != nil {
		t.Fatalf("CreateOrderFromCart failed: %v", err)
	}

	order := result.Order
	if !moneyEquals(order.Subtotal, "2000") {
		t.Fatalf("expected subtotal 2000.00, got %s", order.Subtotal.String())
	}
	if !moneyEquals(order.Total, "3500") {
		t.Fatalf("expected total 3500.00, got %s", order.Total.String())
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if match, _ := regexp.MatchString(`^ORD-\d{8}-[0-9A-Z]{8}$`, order.OrderNo); !match {
		t.Fatalf("unexpected order number format: %s", order.OrderNo)
	}
	if order.ShippingInfo == nil {
		t.Fatalf("expected shipping info on order")
	}
	if order.ShippingInfo.City != "Buenos Aires" || order.ShippingInfo.PostalCode != "1425" {
		t.Fatalf("shipping info should snapshot the address, got %+v", order.ShippingInfo)
	}
	if order.ShippingInfo.TrackingNumber == "" || order.ShippingInfo.Status != constants.ShippingStatusPreparando {
		t.Fatalf("unexpected shipping state: %+v", order.ShippingInfo)
	}
	if order.Payment == nil || order.Payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending payment attached to order")
	}
	if order.Payment.MpPreferenceID != "pref-test-1" {
		t.Fatalf("expected gateway preference id, got %s", order.Payment.MpPreferenceID)
	}
	if result.PreferenceURL != "https://mp.test/init" {
		t.Fatalf("unexpected preference url: %s", result.PreferenceURL)
	}

	var reloaded models.Cart
	if err := db.First(&reloaded, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloaded.Status != constants.CartStatusPendingPayment {
		t.Fatalf("expected pending_payment cart, got %s", reloaded.Status)
	}
}

func TestCreateOrderFromCartRollsBackOnGatewayFailure(t *testing.T) {
	db := newTestDB(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	svc := newOrderService(db, checkoutConfig(server.URL))
	user := createTestUser(t, db, "checkout6@test.com", 0)
	address := createTestAddress(t, db, user.ID, "1425")
	cart, _ := seedCheckoutCart(t, db, user.ID, "short-checkout")

	_, err := svc.CreateOrderFromCart(context.Background(), CheckoutInput{
		CartID:       cart.ID,
		UserID:       user.ID,
		AddressID:    address.ID,
		ShippingCost: models.NewMoneyFromInt(1500),
	})
	if err == nil {
		t.Fatalf("expected error when gateway rejects the preference")
	}

	var orders int64
	if err := db.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orders != 0 {
		t.Fatalf("expected no persisted order after rollback, got %d", orders)
	}
	var payments int64
	if err := db.Model(&models.Payment{}).Count(&payments).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if payments != 0 {
		t.Fatalf("expected no persisted payment after rollback, got %d", payments)
	}
	var reloaded models.Cart
	if err := db.First(&reloaded, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloaded.Status != constants.CartStatusActive {
		t.Fatalf("expected cart restored to active, got %s", reloaded.Status)
	}
}

func TestCreateOrderFromCartRejectsForeignCart(t *testing.T) {
	db := newTestDB(t)
	server := newPreferenceServer(t)
	svc := newOrderService(db, checkoutConfig(server.URL))
	owner := createTestUser(t, db, "checkout2@test.com", 0)
	intruder := createTestUser(t, db, "checkout3@test.com", 0)
	address := createTestAddress(t, db, intruder.ID, "1425")
	cart, _ := seedCheckoutCart(t, db, owner.ID, "remera-checkout")

	_, err := svc.CreateOrderFromCart(context.Background(), CheckoutInput{
		CartID:       cart.ID,
		UserID:       intruder.ID,
		AddressID:    address.ID,
		ShippingCost: models.NewMoneyFromInt(1000),
	})
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got: %v", err)
	}
}

func TestCreateOrderFromCartRejectsUnknownAddress(t *testing.T) {
	db := newTestDB(t)
	server := newPreferenceServer(t)
	svc := newOrderService(db, checkoutConfig(server.URL))
	user := createTestUser(t, db, "checkout4@test.com", 0)
	cart, _ := seedCheckoutCart(t, db, user.ID, "gorra-checkout")

	_, err := svc.CreateOrderFromCart(context.Background(), CheckoutInput{
		CartID:       cart.ID,
		UserID:       user.ID,
		AddressID:    999,
		ShippingCost: models.NewMoneyFromInt(1000),
	})
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got: %v", err)
	}
}

func TestCreateOrderFromCartRejectsOrderedCart(t *testing.T) {
	db := newTestDB(t)
	server := newPreferenceServer(t)
	svc := newOrderService(db, checkoutConfig(server.URL))
	user := createTestUser(t, db, "checkout5@test.com", 0)
	address := createTestAddress(t, db, user.ID, "1425")
	cart, _ := seedCheckoutCart(t, db, user.ID, "campera-checkout")
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).Update("status", constants.CartStatusOrdered).Error; err != nil {
		t.Fatalf("mark cart ordered failed: %v", err)
	}

	_, err := svc.CreateOrderFromCart(context.Background(), CheckoutInput{
		CartID:       cart.ID,
		UserID:       user.ID,
		AddressID:    address.ID,
		ShippingCost: models.NewMoneyFromInt(1000),
	})
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound for ordered cart, got: %v", err)
	}
}

func TestCalculateShippingTiers(t *testing.T) {
	svc := NewOrderService(checkoutConfig("http://unused"), nil, nil, nil, nil, nil, nil)

	cases := []struct {
		name     string
		zip      string
		cost     string
		days     int
	}{
		{"same first digit uses near tier", "1425", "800", 2},
		{"small numeric gap uses mid tier", "950", "1500", 4},
		{"large gap uses far tier", "9000", "2600", 7},
		{"cpa format extracts digits", "C1425ABC", "800", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := svc.CalculateShipping(tc.zip)
			if err != nil {
				t.Fatalf("CalculateShipping(%q) failed: %v", tc.zip, err)
			}
			if !moneyEquals(quote.ShippingCost, tc.cost) {
				t.Fatalf("expected cost %s, got %s", tc.cost, quote.ShippingCost.String())
			}
			if quote.EstimatedDays != tc.days {
				t.Fatalf("expected %d days, got %d", tc.days, quote.EstimatedDays)
			}
		})
	}
}

func TestCalculateShippingRejectsInvalidPostalCode(t *testing.T) {
	svc := NewOrderService(checkoutConfig("http://unused"), nil, nil, nil, nil, nil, nil)
	for _, zip := range []string{"", "   ", "ABC"} {
		if _, err := svc.CalculateShipping(zip); !errors.Is(err, ErrInvalidPostalCode) {
			t.Fatalf("expected ErrInvalidPostalCode for %q, got: %v", zip, err)
		}
	}
}

func TestGenerateTrackingNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	tracking := generateTrackingNumber("123e4567-e89b-12d3-a456-426614174000", now)
	if match, _ := regexp.MatchString(`^TRK-20260315-123E45-[0-9A-Z]{4}$`, tracking); !match {
		t.Fatalf("unexpected tracking number format: %s", tracking)
	}
}

func TestParsePostalCode(t *testing.T) {
	value, err := parsePostalCode("C1425ABC")
	if err != nil || value != 1425 {
		t.Fatalf("expected 1425, got %d (err: %v)", value, err)
	}
	value, err = parsePostalCode(" 5000 ")
	if err != nil || value != 5000 {
		t.Fatalf("expected 5000, got %d (err: %v)", value, err)
	}
	if _, err := parsePostalCode("sin-numeros"); !errors.Is(err, ErrInvalidPostalCode) {
		t.Fatalf("expected ErrInvalidPostalCode, got: %v", err)
	}
}
