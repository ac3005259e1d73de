package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"gorm.io/gorm"
)

const exchangeCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CouponService 优惠券与积分兑换服务
type CouponService struct {
	couponRepo     repository.CouponRepository
	userCouponRepo repository.UserCouponRepository
	userRepo       repository.UserRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, userCouponRepo repository.UserCouponRepository, userRepo repository.UserRepository) *CouponService {
	return &CouponService{
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
		userRepo:       userRepo,
	}
}

// ListGeneralByType 获取指定类型的可用模板券（不含兑换实例）
func (s *CouponService) ListGeneralByType(couponType string) ([]models.Coupon, error) {
	couponType = strings.ToLower(strings.TrimSpace(couponType))
	switch couponType {
	case constants.CouponTypePromotion, constants.CouponTypeExchangePoint:
	default:
		return nil, ErrCouponNotFound
	}
	return s.couponRepo.ListActiveByType(couponType)
}

// GetByCode 按券码获取优惠券
func (s *CouponService) GetByCode(code string) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// UserCouponDetail 用户持券详情
type UserCouponDetail struct {
	UserCoupon models.UserCoupon `json:"user_coupon"`
	Coupon     *models.Coupon    `json:"coupon"`
}

// ListUserCoupons 获取用户名下的优惠券（含兑换实例）
func (s *CouponService) ListUserCoupons(userID uint) ([]UserCouponDetail, error) {
	claims, err := s.userCouponRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(claims))
	for _, claim := range claims {
		ids = append(ids, claim.CouponID)
	}
	coupons, err := s.couponRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Coupon, len(coupons))
	for i := range coupons {
		byID[coupons[i].ID] = &coupons[i]
	}

	details := make([]UserCouponDetail, 0, len(claims))
	for _, claim := range claims {
		details = append(details, UserCouponDetail{UserCoupon: claim, Coupon: byID[claim.CouponID]})
	}
	return details, nil
}

// ExchangeCoupon 用积分兑换优惠券
// 模板券不被修改；兑换生成状态为 redeemed 的新券实例并扣减积分
func (s *CouponService) ExchangeCoupon(code string, userID uint) (*models.Coupon, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	template, err := s.couponRepo.GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrCouponNotFound
	}
	if template.IsExpired(time.Now()) {
		return nil, ErrCouponExpired
	}
	if template.Status != constants.CouponStatusActive {
		return nil, ErrCouponInactive
	}
	if user.Points < template.Price {
		return nil, fmt.Errorf("%w: se requieren %d puntos y hay %d", ErrInsufficientPoints, template.Price, user.Points)
	}

	newCode, err := generateExchangeCode()
	if err != nil {
		return nil, err
	}

	instance := &models.Coupon{
		Code:           newCode,
		Description:    template.Description,
		Value:          template.Value,
		Price:          template.Price,
		Type:           template.Type,
		Status:         constants.CouponStatusRedeemed,
		ParentCouponID: &template.ID,
		ExpiresAt:      template.ExpiresAt,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		couponRepo := s.couponRepo.WithTx(tx)
		userCouponRepo := s.userCouponRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		if err := couponRepo.Create(instance); err != nil {
			return err
		}
		claim := &models.UserCoupon{
			UserID:         userID,
			CouponID:       instance.ID,
			ParentCouponID: &template.ID,
			Enabled:        true,
		}
		if err := userCouponRepo.Create(claim); err != nil {
			return err
		}
		if template.Price > 0 {
			affected, err := userRepo.DeductPoints(userID, template.Price)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrInsufficientPoints
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("coupon_exchanged", "user_id", userID, "template_id", template.ID, "coupon_id", instance.ID, "points", template.Price)
	return instance, nil
}

// generateExchangeCode 生成兑换券码：前缀 + 4 组 4 位随机字母数字
func generateExchangeCode() (string, error) {
	blocks := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		var b strings.Builder
		for j := 0; j < 4; j++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(exchangeCodeAlphabet))))
			if err != nil {
				return "", err
			}
			b.WriteByte(exchangeCodeAlphabet[n.Int64()])
		}
		blocks = append(blocks, b.String())
	}
	return constants.ExchangeCodePrefix + "-" + strings.Join(blocks, "-"), nil
}
