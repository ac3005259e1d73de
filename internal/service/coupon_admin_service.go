package service

import (
	"strings"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo repository.CouponRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository) *CouponAdminService {
	return &CouponAdminService{repo: repo}
}

// CouponInput 创建/更新优惠券输入
type CouponInput struct {
	Code        string
	Description string
	Value       int
	Price       int64
	Type        string
	Status      string
	ExpiresAt   *time.Time
}

// List 分页查询优惠券
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.repo.List(filter)
}

// Get 获取优惠券详情
func (s *CouponAdminService) Get(id uint) (*models.Coupon, error) {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Create 创建模板优惠券
func (s *CouponAdminService) Create(input CouponInput) (*models.Coupon, error) {
	normalized, err := normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	exist, err := s.repo.GetByCode(normalized.Code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	coupon := &models.Coupon{
		Code:        normalized.Code,
		Description: normalized.Description,
		Value:       normalized.Value,
		Price:       normalized.Price,
		Type:        normalized.Type,
		Status:      normalized.Status,
		ExpiresAt:   normalized.ExpiresAt,
	}
	if err := s.repo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新模板优惠券
func (s *CouponAdminService) Update(id uint, input CouponInput) (*models.Coupon, error) {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	normalized, err := normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	exist, err := s.repo.GetByCode(normalized.Code)
	if err != nil {
		return nil, err
	}
	if exist != nil && exist.ID != id {
		return nil, ErrCouponCodeExists
	}

	coupon.Code = normalized.Code
	coupon.Description = normalized.Description
	coupon.Value = normalized.Value
	coupon.Price = normalized.Price
	coupon.Type = normalized.Type
	coupon.Status = normalized.Status
	coupon.ExpiresAt = normalized.ExpiresAt
	if err := s.repo.Update(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(id uint) error {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	return s.repo.Delete(id)
}

func normalizeCouponInput(input CouponInput) (CouponInput, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if input.Code == "" {
		return input, ErrCouponCodeInvalid
	}
	if input.Value < 0 || input.Value > 100 {
		return input, ErrCouponValueInvalid
	}
	if input.Price < 0 {
		return input, ErrCouponValueInvalid
	}

	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	switch input.Type {
	case constants.CouponTypePromotion, constants.CouponTypeExchangePoint:
	default:
		return input, ErrCouponTypeInvalid
	}

	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	switch input.Status {
	case "":
		input.Status = constants.CouponStatusActive
	case constants.CouponStatusActive, constants.CouponStatusInactive:
	default:
		return input, ErrCouponStatusInvalid
	}

	input.Description = strings.TrimSpace(input.Description)
	return input, nil
}
