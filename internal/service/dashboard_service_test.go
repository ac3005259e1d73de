package service

import (
	"testing"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newDashboardService(db *gorm.DB) *DashboardService {
	return NewDashboardService(
		repository.NewDashboardRepository(db),
		repository.NewProductRepository(db),
		repository.NewCouponRepository(db),
		repository.NewUserCouponRepository(db),
		repository.NewPaymentRepository(db),
	)
}

// seedPaidOrder 造一笔已支付订单，单条订单项按给定单价/成本/数量
func seedPaidOrder(t *testing.T, db *gorm.DB, userID uint, variant *models.Variant, unitPrice, priceList int64, quantity int) *models.Order {
	t.Helper()
	cart := &models.Cart{CartNo: uuid.NewString(), UserID: userID, Status: constants.CartStatusOrdered}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	total := unitPrice * int64(quantity)
	order := &models.Order{
		OrderNo:  "ORD-PANEL-" + uuid.NewString()[:8],
		UserID:   userID,
		CartID:   cart.ID,
		Subtotal: models.NewMoneyFromInt(total),
		Total:    models.NewMoneyFromInt(total),
		Status:   constants.OrderStatusPaid,
		Items: []models.OrderItem{{
			ProductID:   variant.ProductID,
			VariantID:   variant.ID,
			ProductName: "panel",
			Quantity:    quantity,
			UnitPrice:   models.NewMoneyFromInt(unitPrice),
			FinalPrice:  models.NewMoneyFromInt(unitPrice),
			PriceList:   models.NewMoneyFromInt(priceList),
		}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create paid order failed: %v", err)
	}
	payment := &models.Payment{
		OrderID: order.ID,
		Method:  constants.PaymentMethodMercadoPago,
		Status:  constants.PaymentStatusApproved,
		Amount:  models.NewMoneyFromInt(total),
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return order
}

func TestGetPanelSummaryAggregatesSales(t *testing.T) {
	db := newTestDB(t)
	svc := newDashboardService(db)

	buyer := createTestUser(t, db, "panel1@test.com", 0)
	repeatBuyer := createTestUser(t, db, "panel2@test.com", 0)
	productA := createTestVariant(t, db, "panel-producto-a", 1000, 600, 10)
	productB := createTestVariant(t, db, "panel-producto-b", 1000, 600, 10)

	// repeatBuyer: dos órdenes pagadas; buyer: una
	seedPaidOrder(t, db, repeatBuyer.ID, productA, 1000, 600, 2)
	seedPaidOrder(t, db, repeatBuyer.ID, productB, 1000, 600, 1)
	seedPaidOrder(t, db, buyer.ID, productA, 1000, 600, 1)

	// una orden pendiente no cuenta para el panel
	pendingCart := &models.Cart{CartNo: uuid.NewString(), UserID: buyer.ID, Status: constants.CartStatusPendingPayment}
	if err := db.Create(pendingCart).Error; err != nil {
		t.Fatalf("create pending cart failed: %v", err)
	}
	pendingOrder := &models.Order{
		OrderNo: "ORD-PANEL-PENDIENTE",
		UserID:  buyer.ID,
		CartID:  pendingCart.ID,
		Total:   models.NewMoneyFromInt(9999),
		Status:  constants.OrderStatusPending,
		Items: []models.OrderItem{{
			ProductID:  productA.ProductID,
			VariantID:  productA.ID,
			Quantity:   1,
			UnitPrice:  models.NewMoneyFromInt(9999),
			FinalPrice: models.NewMoneyFromInt(9999),
			PriceList:  models.NewMoneyFromInt(1),
		}},
	}
	if err := db.Create(pendingOrder).Error; err != nil {
		t.Fatalf("create pending order failed: %v", err)
	}

	summary, err := svc.GetPanelSummary()
	if err != nil {
		t.Fatalf("GetPanelSummary failed: %v", err)
	}

	if !moneyEquals(summary.Revenue, "4000") {
		t.Fatalf("expected revenue 4000.00, got %s", summary.Revenue.String())
	}
	if !moneyEquals(summary.Cost, "2400") {
		t.Fatalf("expected cost 2400.00, got %s", summary.Cost.String())
	}
	if !moneyEquals(summary.Profit, "1600") {
		t.Fatalf("expected profit 1600.00, got %s", summary.Profit.String())
	}
	if summary.PaidOrders != 3 {
		t.Fatalf("expected 3 paid orders, got %d", summary.PaidOrders)
	}
	if !moneyEquals(summary.AverageOrderValue, "1333.33") {
		t.Fatalf("expected AOV 1333.33, got %s", summary.AverageOrderValue.String())
	}
	if summary.Buyers != 2 {
		t.Fatalf("expected 2 buyers, got %d", summary.Buyers)
	}
	if summary.RepeatPurchaseRate != 0.5 {
		t.Fatalf("expected repeat rate 0.5, got %f", summary.RepeatPurchaseRate)
	}
	if !moneyEquals(summary.CustomerLifetimeValue, "2000") {
		t.Fatalf("expected CLV 2000.00, got %s", summary.CustomerLifetimeValue.String())
	}

	if len(summary.TopSoldProducts) == 0 {
		t.Fatalf("expected top sold products")
	}
	top := summary.TopSoldProducts[0]
	if top.ProductID != productA.ProductID || top.Total != 3 {
		t.Fatalf("unexpected top sold product: %+v", top)
	}
	if top.Name == "" {
		t.Fatalf("top sold product should resolve its name")
	}

	if summary.PaymentStatuses[constants.PaymentStatusApproved] != 3 {
		t.Fatalf("expected 3 approved payments, got %d", summary.PaymentStatuses[constants.PaymentStatusApproved])
	}
	if len(summary.PaidOrdersByDay) == 0 {
		t.Fatalf("expected daily paid order counts")
	}
	if len(summary.CartStatuses) == 0 {
		t.Fatalf("expected cart status histogram")
	}
}

func TestGetPanelSummaryRanksRedeemedCoupons(t *testing.T) {
	db := newTestDB(t)
	svc := newDashboardService(db)

	userA := createTestUser(t, db, "panel3@test.com", 1000)
	userB := createTestUser(t, db, "panel4@test.com", 1000)
	popular := createTestCoupon(t, db, models.Coupon{
		Code:        "POPULAR",
		Description: "el más canjeado",
		Value:       15,
		Price:       100,
		Type:        constants.CouponTypeExchangePoint,
	})
	rare := createTestCoupon(t, db, models.Coupon{
		Code:  "RARO",
		Value: 10,
		Price: 100,
		Type:  constants.CouponTypeExchangePoint,
	})

	couponSvc := newCouponService(db)
	if _, err := couponSvc.ExchangeCoupon("POPULAR", userA.ID); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if _, err := couponSvc.ExchangeCoupon("POPULAR", userB.ID); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if _, err := couponSvc.ExchangeCoupon("RARO", userA.ID); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	summary, err := svc.GetPanelSummary()
	if err != nil {
		t.Fatalf("GetPanelSummary failed: %v", err)
	}
	if len(summary.TopRedeemedCoupons) != 2 {
		t.Fatalf("expected 2 redeemed templates, got %d", len(summary.TopRedeemedCoupons))
	}
	first := summary.TopRedeemedCoupons[0]
	if first.CouponID != popular.ID || first.Total != 2 {
		t.Fatalf("unexpected top redeemed coupon: %+v", first)
	}
	if first.Code != "POPULAR" || first.Description != "el más canjeado" {
		t.Fatalf("top coupon should resolve code and description: %+v", first)
	}
	second := summary.TopRedeemedCoupons[1]
	if second.CouponID != rare.ID || second.Total != 1 {
		t.Fatalf("unexpected second redeemed coupon: %+v", second)
	}
}
