package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"gorm.io/gorm"
)

func newCouponService(db *gorm.DB) *CouponService {
	return NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewUserCouponRepository(db),
		repository.NewUserRepository(db),
	)
}

var exchangeCodePattern = regexp.MustCompile(`^CUPON(-[A-Z0-9]{4}){4}$`)

func TestExchangeCouponCreatesInstanceAndDeductsPoints(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(db)
	user := createTestUser(t, db, "canje1@test.com", 600)
	template := createTestCoupon(t, db, models.Coupon{
		Code:        "PUNTOS15",
		Description: "15% por puntos",
		Value:       15,
		Price:       500,
		Type:        constants.CouponTypeExchangePoint,
	})

	instance, err := svc.ExchangeCoupon("PUNTOS15", user.ID)
	if err != nil {
		t.Fatalf("ExchangeCoupon failed: %v", err)
	}
	if !exchangeCodePattern.MatchString(instance.Code) {
		t.Fatalf("unexpected exchange code format: %s", instance.Code)
	}
	if instance.Status != constants.CouponStatusRedeemed {
		t.Fatalf("expected redeemed instance, got %s", instance.Status)
	}
	if instance.ParentCouponID == nil || *instance.ParentCouponID != template.ID {
		t.Fatalf("instance should reference the template coupon")
	}
	if instance.Value != 15 {
		t.Fatalf("instance should copy the template value, got %d", instance.Value)
	}
	if points := userPoints(t, db, user.ID); points != 100 {
		t.Fatalf("expected 100 remaining points, got %d", points)
	}

	var claim models.UserCoupon
	if err := db.Where("user_id = ? AND coupon_id = ?", user.ID, instance.ID).First(&claim).Error; err != nil {
		t.Fatalf("expected a claim for the new instance: %v", err)
	}
	if !claim.Enabled {
		t.Fatalf("fresh claim should be enabled")
	}
	if claim.ParentCouponID == nil || *claim.ParentCouponID != template.ID {
		t.Fatalf("claim should carry the template id for redemption stats")
	}

	// la plantilla no se modifica
	var reloadedTemplate models.Coupon
	if err := db.First(&reloadedTemplate, template.ID).Error; err != nil {
		t.Fatalf("reload template failed: %v", err)
	}
	if reloadedTemplate.Status != constants.CouponStatusActive {
		t.Fatalf("template must stay active, got %s", reloadedTemplate.Status)
	}
}

func TestExchangeCouponRejectsInsufficientPoints(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(db)
	user := createTestUser(t, db, "canje2@test.com", 100)
	createTestCoupon(t, db, models.Coupon{
		Code:  "PUNTOS20",
		Value: 20,
		Price: 500,
		Type:  constants.CouponTypeExchangePoint,
	})

	_, err := svc.ExchangeCoupon("PUNTOS20", user.ID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got: %v", err)
	}
	if points := userPoints(t, db, user.ID); points != 100 {
		t.Fatalf("points must remain untouched, got %d", points)
	}
}

func TestExchangeCouponRejectsExpiredTemplate(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(db)
	user := createTestUser(t, db, "canje3@test.com", 600)
	expired := time.Now().Add(-time.Hour)
	createTestCoupon(t, db, models.Coupon{
		Code:      "VIEJO",
		Value:     10,
		Price:     100,
		Type:      constants.CouponTypeExchangePoint,
		ExpiresAt: &expired,
	})

	if _, err := svc.ExchangeCoupon("VIEJO", user.ID); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got: %v", err)
	}
}

func TestExchangeCouponRejectsInactiveTemplate(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(db)
	user := createTestUser(t, db, "canje4@test.com", 600)
	createTestCoupon(t, db, models.Coupon{
		Code:   "PAUSADO",
		Value:  10,
		Price:  100,
		Type:   constants.CouponTypeExchangePoint,
		Status: constants.CouponStatusInactive,
	})

	if _, err := svc.ExchangeCoupon("PAUSADO", user.ID); !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected ErrCouponInactive, got: %v", err)
	}
}

func TestListGeneralByTypeValidatesType(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(db)
	createTestCoupon(t, db, models.Coupon{Code: "PROMOLISTA", Value: 10, Type: constants.CouponTypePromotion})

	coupons, err := svc.ListGeneralByType("promotion")
	if err != nil {
		t.Fatalf("ListGeneralByType failed: %v", err)
	}
	if len(coupons) != 1 || coupons[0].Code != "PROMOLISTA" {
		t.Fatalf("unexpected coupons: %+v", coupons)
	}
	if _, err := svc.ListGeneralByType("desconocido"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound for unknown type, got: %v", err)
	}
}

func TestListUserCouponsResolvesDetails(t *testing.T) {
	db := newTestDB(t)
	svc := newCouponService(db)
	user := createTestUser(t, db, "canje5@test.com", 600)
	createTestCoupon(t, db, models.Coupon{
		Code:  "PUNTOS10",
		Value: 10,
		Price: 200,
		Type:  constants.CouponTypeExchangePoint,
	})

	instance, err := svc.ExchangeCoupon("PUNTOS10", user.ID)
	if err != nil {
		t.Fatalf("ExchangeCoupon failed: %v", err)
	}

	details, err := svc.ListUserCoupons(user.ID)
	if err != nil {
		t.Fatalf("ListUserCoupons failed: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected 1 user coupon, got %d", len(details))
	}
	if details[0].Coupon == nil || details[0].Coupon.ID != instance.ID {
		t.Fatalf("detail should resolve the coupon instance")
	}
}
