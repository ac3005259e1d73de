package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gatewayPaymentResponse 伪造网关支付详情接口的返回体
type gatewayPaymentResponse struct {
	Status            string
	TransactionAmount float64
	OrderID           uint
}

func newPaymentDetailServer(t *testing.T, response *gatewayPaymentResponse) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "mp-pay-1",
			"status":             response.Status,
			"status_detail":      response.Status,
			"transaction_amount": response.TransactionAmount,
			"metadata":           map[string]interface{}{"order_id": response.OrderID},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newPaymentService(db *gorm.DB, gatewayURL string) *PaymentService {
	cfg := &config.Config{
		MercadoPago: config.MercadoPagoConfig{
			AccessToken: "APP_USR-test",
			BaseURL:     gatewayURL,
			Currency:    "ARS",
		},
	}
	return NewPaymentService(
		cfg,
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewCartRepository(db),
		repository.NewVariantRepository(db),
		repository.NewCouponRepository(db),
		repository.NewUserCouponRepository(db),
		repository.NewUserRepository(db),
		repository.NewWebhookEventRepository(db),
		nil,
		nil,
	)
}

// seedPendingOrder 造一笔待支付订单：单价 1000、成本 600、数量 2、运费 1500、总额 3500
func seedPendingOrder(t *testing.T, db *gorm.DB, userID uint, slug string, couponID *uint) (*models.Order, *models.Variant, *models.Cart) {
	t.Helper()
	variant := createTestVariant(t, db, slug, 1000, 600, 5)
	cart := &models.Cart{
		CartNo:   uuid.NewString(),
		UserID:   userID,
		Status:   constants.CartStatusPendingPayment,
		CouponID: couponID,
	}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	order := &models.Order{
		OrderNo:      "ORD-TEST-" + slug,
		UserID:       userID,
		CartID:       cart.ID,
		CouponID:     couponID,
		Subtotal:     models.NewMoneyFromInt(2000),
		ShippingCost: models.NewMoneyFromInt(1500),
		Total:        models.NewMoneyFromInt(3500),
		Status:       constants.OrderStatusPending,
		Items: []models.OrderItem{{
			ProductID:   variant.ProductID,
			VariantID:   variant.ID,
			ProductName: "Producto " + slug,
			Quantity:    2,
			UnitPrice:   models.NewMoneyFromInt(1000),
			FinalPrice:  models.NewMoneyFromInt(1000),
			PriceList:   models.NewMoneyFromInt(600),
		}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	payment := &models.Payment{
		OrderID:  order.ID,
		Method:   constants.PaymentMethodMercadoPago,
		Status:   constants.PaymentStatusPending,
		Amount:   models.NewMoneyFromInt(3500),
		Currency: "ARS",
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return order, variant, cart
}

func webhookEvents(t *testing.T, db *gorm.DB) []models.WebhookEvent {
	t.Helper()
	var events []models.WebhookEvent
	if err := db.Order("id ASC").Find(&events).Error; err != nil {
		t.Fatalf("list webhook events failed: %v", err)
	}
	return events
}

func TestHandleWebhookApprovedAppliesAllEffects(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago1@test.com", 0)
	order, variant, cart := seedPendingOrder(t, db, user.ID, "pago-aprobado", nil)
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusApproved,
		TransactionAmount: 3500,
		OrderID:           order.ID,
	})
	svc := newPaymentService(db, server.URL)

	message, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
		RawPayload: `{"type":"payment","data":{"id":"mp-pay-1"}}`,
	})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if message != "pago aprobado" {
		t.Fatalf("unexpected message: %s", message)
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPaid || reloadedOrder.PaidAt == nil {
		t.Fatalf("expected paid order, got status=%s paid_at=%v", reloadedOrder.Status, reloadedOrder.PaidAt)
	}

	var reloadedPayment models.Payment
	if err := db.Where("order_id = ?", order.ID).First(&reloadedPayment).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloadedPayment.Status != constants.PaymentStatusApproved || reloadedPayment.MpPaymentID != "mp-pay-1" {
		t.Fatalf("unexpected payment state: %+v", reloadedPayment)
	}

	if stock := variantStock(t, db, variant.ID); stock != 3 {
		t.Fatalf("expected stock 3 after decrement, got %d", stock)
	}
	// 5% de 3500
	if points := userPoints(t, db, user.ID); points != 175 {
		t.Fatalf("expected 175 loyalty points, got %d", points)
	}

	var reloadedCart models.Cart
	if err := db.First(&reloadedCart, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloadedCart.Status != constants.CartStatusOrdered {
		t.Fatalf("expected ordered cart, got %s", reloadedCart.Status)
	}

	events := webhookEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	if events[0].Classification != constants.WebhookProcessed || events[0].OrderID == nil || *events[0].OrderID != order.ID {
		t.Fatalf("unexpected audit event: %+v", events[0])
	}
}

func TestHandleWebhookIgnoresOtherEventTypes(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(db, "http://unused")

	message, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       "merchant_order",
		ResourceID: "123",
	})
	if err != nil {
		t.Fatalf("webhook should not fail for unsupported type: %v", err)
	}
	if message != "evento ignorado" {
		t.Fatalf("unexpected message: %s", message)
	}
	events := webhookEvents(t, db)
	if len(events) != 1 || events[0].Classification != constants.WebhookIgnored {
		t.Fatalf("expected 1 ignored audit event, got %+v", events)
	}
}

func TestHandleWebhookCancelledReleasesCart(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago2@test.com", 0)
	order, variant, cart := seedPendingOrder(t, db, user.ID, "pago-cancelado", nil)
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusCancelled,
		TransactionAmount: 3500,
		OrderID:           order.ID,
	})
	svc := newPaymentService(db, server.URL)

	message, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
	})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if message != "pago cancelado" {
		t.Fatalf("unexpected message: %s", message)
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %s", reloadedOrder.Status)
	}
	var reloadedPayment models.Payment
	if err := db.Where("order_id = ?", order.ID).First(&reloadedPayment).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloadedPayment.Status != constants.PaymentStatusRejected {
		t.Fatalf("expected rejected payment, got %s", reloadedPayment.Status)
	}
	var reloadedCart models.Cart
	if err := db.First(&reloadedCart, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloadedCart.Status != constants.CartStatusCancelled {
		t.Fatalf("expected cancelled cart, got %s", reloadedCart.Status)
	}
	// la cancelación no toca el stock
	if stock := variantStock(t, db, variant.ID); stock != 5 {
		t.Fatalf("expected untouched stock 5, got %d", stock)
	}
}

func TestHandleWebhookPendingStatusIsIgnored(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago3@test.com", 0)
	order, variant, _ := seedPendingOrder(t, db, user.ID, "pago-pendiente", nil)
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusPending,
		TransactionAmount: 3500,
		OrderID:           order.ID,
	})
	svc := newPaymentService(db, server.URL)

	message, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
	})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if message != "estado pending ignorado" {
		t.Fatalf("unexpected message: %s", message)
	}
	if stock := variantStock(t, db, variant.ID); stock != 5 {
		t.Fatalf("expected untouched stock 5, got %d", stock)
	}
	events := webhookEvents(t, db)
	if len(events) != 1 || events[0].Classification != constants.WebhookIgnored {
		t.Fatalf("expected 1 ignored audit event, got %+v", events)
	}
}

// recordingUserRepo registra los lookups que dispara la notificación de estado
type recordingUserRepo struct {
	repository.UserRepository
	lookups []uint
}

func (r *recordingUserRepo) GetByID(id uint) (*models.User, error) {
	r.lookups = append(r.lookups, id)
	return r.UserRepository.GetByID(id)
}

func TestHandleWebhookPendingStatusSendsNotification(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago8@test.com", 0)
	order, _, _ := seedPendingOrder(t, db, user.ID, "pago-notificacion", nil)
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusPending,
		TransactionAmount: 3500,
		OrderID:           order.ID,
	})
	userRepo := &recordingUserRepo{UserRepository: repository.NewUserRepository(db)}
	cfg := &config.Config{
		MercadoPago: config.MercadoPagoConfig{
			AccessToken: "APP_USR-test",
			BaseURL:     server.URL,
			Currency:    "ARS",
		},
	}
	svc := NewPaymentService(
		cfg,
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewCartRepository(db),
		repository.NewVariantRepository(db),
		repository.NewCouponRepository(db),
		repository.NewUserCouponRepository(db),
		userRepo,
		repository.NewWebhookEventRepository(db),
		nil,
		NewEmailService(&config.EmailConfig{Enabled: false}),
	)

	message, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
	})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if message != "estado pending ignorado" {
		t.Fatalf("unexpected message: %s", message)
	}
	// el correo de estado se dispara aunque no haya transición
	found := false
	for _, id := range userRepo.lookups {
		if id == user.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a status notification lookup for user %d, got %v", user.ID, userRepo.lookups)
	}
}

func TestHandleWebhookApprovedSkipsInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago9@test.com", 0)
	order, variant, cart := seedPendingOrder(t, db, user.ID, "pago-sin-stock", nil)
	if err := db.Model(&models.Variant{}).Where("id = ?", variant.ID).Update("stock", 1).Error; err != nil {
		t.Fatalf("reduce stock failed: %v", err)
	}
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusApproved,
		TransactionAmount: 3500,
		OrderID:           order.ID,
	})
	svc := newPaymentService(db, server.URL)

	message, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
	})
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if message != "pago aprobado" {
		t.Fatalf("unexpected message: %s", message)
	}

	// stock 1 < cantidad 2: el descuento se salta sin abortar el pago
	if stock := variantStock(t, db, variant.ID); stock != 1 {
		t.Fatalf("expected untouched stock 1, got %d", stock)
	}
	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", reloadedOrder.Status)
	}
	var reloadedCart models.Cart
	if err := db.First(&reloadedCart, cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if reloadedCart.Status != constants.CartStatusOrdered {
		t.Fatalf("expected ordered cart, got %s", reloadedCart.Status)
	}
	if points := userPoints(t, db, user.ID); points != 175 {
		t.Fatalf("expected 175 loyalty points, got %d", points)
	}
}

func TestHandleWebhookRejectsAmountMismatch(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago4@test.com", 0)
	order, _, _ := seedPendingOrder(t, db, user.ID, "pago-monto", nil)
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusApproved,
		TransactionAmount: 999,
		OrderID:           order.ID,
	})
	svc := newPaymentService(db, server.URL)

	_, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
	})
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got: %v", err)
	}
	events := webhookEvents(t, db)
	if len(events) != 1 || events[0].Classification != constants.WebhookError {
		t.Fatalf("expected 1 error audit event, got %+v", events)
	}
	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending {
		t.Fatalf("mismatch must not transition the order, got %s", reloadedOrder.Status)
	}
}

func TestHandleWebhookDuplicateDelivery(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago5@test.com", 0)
	order, variant, _ := seedPendingOrder(t, db, user.ID, "pago-duplicado", nil)
	if err := db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Updates(map[string]interface{}{
		"status":    constants.PaymentStatusApproved,
		"mp_status": constants.MpPaymentStatusApproved,
	}).Error; err != nil {
		t.Fatalf("mark payment approved failed: %v", err)
	}
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusApproved,
		TransactionAmount: 3500,
		OrderID:           order.ID,
	})
	svc := newPaymentService(db, server.URL)

	message, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
	})
	if err != nil {
		t.Fatalf("duplicate delivery should not fail: %v", err)
	}
	if message != "pago ya procesado" {
		t.Fatalf("unexpected message: %s", message)
	}
	// la segunda entrega no repite efectos
	if stock := variantStock(t, db, variant.ID); stock != 5 {
		t.Fatalf("expected untouched stock 5, got %d", stock)
	}
	if points := userPoints(t, db, user.ID); points != 0 {
		t.Fatalf("expected no extra points, got %d", points)
	}
}

func TestHandleWebhookApprovedConsumesCoupon(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago6@test.com", 0)
	coupon := createTestCoupon(t, db, models.Coupon{
		Code:  "PROMOPAGO",
		Value: 10,
		Type:  constants.CouponTypePromotion,
	})
	order, _, _ := seedPendingOrder(t, db, user.ID, "pago-cupon", &coupon.ID)
	server := newPaymentDetailServer(t, &gatewayPaymentResponse{
		Status:            constants.MpPaymentStatusApproved,
		TransactionAmount: 3500,
		OrderID:           order.ID,
	})
	svc := newPaymentService(db, server.URL)

	if _, err := svc.HandleMercadoPagoWebhook(context.Background(), WebhookNotification{
		Type:       constants.MpEventTypePayment,
		ResourceID: "mp-pay-1",
	}); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}

	var claim models.UserCoupon
	if err := db.Where("user_id = ? AND coupon_id = ?", user.ID, coupon.ID).First(&claim).Error; err != nil {
		t.Fatalf("expected a consumed coupon claim: %v", err)
	}
	if claim.Enabled {
		t.Fatalf("claim should be disabled after payment")
	}
}

func TestGetPaymentByOrder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pago7@test.com", 0)
	order, _, _ := seedPendingOrder(t, db, user.ID, "pago-consulta", nil)
	svc := newPaymentService(db, "http://unused")

	payment, err := svc.GetPaymentByOrder(order.ID)
	if err != nil {
		t.Fatalf("GetPaymentByOrder failed: %v", err)
	}
	if payment.OrderID != order.ID {
		t.Fatalf("unexpected payment order id: %d", payment.OrderID)
	}
	if _, err := svc.GetPaymentByOrder(9999); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got: %v", err)
	}
}
