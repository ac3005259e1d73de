package service

import (
	"errors"
	"testing"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedOrderWithShipping(t *testing.T, db *gorm.DB, userID uint, status string) *models.Order {
	t.Helper()
	cart := &models.Cart{CartNo: uuid.NewString(), UserID: userID, Status: constants.CartStatusOrdered}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	order := &models.Order{
		OrderNo: "ORD-QUERY-" + uuid.NewString()[:8],
		UserID:  userID,
		CartID:  cart.ID,
		Total:   models.NewMoneyFromInt(1000),
		Status:  status,
		ShippingInfo: &models.ShippingInfo{
			Street:                "Calle Falsa 123",
			City:                  "Rosario",
			Province:              "Santa Fe",
			PostalCode:            "2000",
			Type:                  constants.ShippingTypeCorreo,
			Status:                constants.ShippingStatusPreparando,
			TrackingNumber:        "TRK-TEST-" + uuid.NewString()[:6],
			EstimatedDeliveryDate: time.Now().AddDate(0, 0, 3),
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestUpdateShippingStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db, nil)
	user := createTestUser(t, db, "envio1@test.com", 0)
	order := seedOrderWithShipping(t, db, user.ID, constants.OrderStatusPaid)

	updated, err := svc.UpdateShippingStatus(order.ID, constants.ShippingStatusEnviado)
	if err != nil {
		t.Fatalf("UpdateShippingStatus failed: %v", err)
	}
	if updated.ShippingInfo == nil || updated.ShippingInfo.Status != constants.ShippingStatusEnviado {
		t.Fatalf("expected enviado shipping status, got %+v", updated.ShippingInfo)
	}

	if _, err := svc.UpdateShippingStatus(order.ID, "volando"); !errors.Is(err, ErrInvalidShippingStatus) {
		t.Fatalf("expected ErrInvalidShippingStatus, got: %v", err)
	}
	if _, err := svc.UpdateShippingStatus(9999, constants.ShippingStatusEnviado); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestGetUserOrderChecksOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db, nil)
	owner := createTestUser(t, db, "envio2@test.com", 0)
	intruder := createTestUser(t, db, "envio3@test.com", 0)
	order := seedOrderWithShipping(t, db, owner.ID, constants.OrderStatusPaid)

	found, err := svc.GetUserOrder(order.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetUserOrder failed: %v", err)
	}
	if found.ID != order.ID {
		t.Fatalf("unexpected order: %d", found.ID)
	}
	if _, err := svc.GetUserOrder(order.ID, intruder.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign user, got: %v", err)
	}
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db, nil)
	user := createTestUser(t, db, "envio4@test.com", 0)
	seedOrderWithShipping(t, db, user.ID, constants.OrderStatusPaid)
	seedOrderWithShipping(t, db, user.ID, constants.OrderStatusPending)

	orders, total, err := svc.ListOrders(repository.OrderListFilter{
		Page:     1,
		PageSize: 10,
		Status:   constants.OrderStatusPaid,
	})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected 1 paid order, got total=%d len=%d", total, len(orders))
	}
	if orders[0].Status != constants.OrderStatusPaid {
		t.Fatalf("unexpected status: %s", orders[0].Status)
	}
}
