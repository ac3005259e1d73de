package repository

import (
	"errors"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// UserCouponRepository 用户优惠券关联数据访问接口
type UserCouponRepository interface {
	GetByUserAndCoupon(userID, couponID uint) (*models.UserCoupon, error)
	ListByUser(userID uint) ([]models.UserCoupon, error)
	Create(item *models.UserCoupon) error
	Update(item *models.UserCoupon) error
	Disable(id uint) error
	TopRedeemedParents(limit int) ([]ParentCouponCount, error)
	WithTx(tx *gorm.DB) UserCouponRepository
}

// ParentCouponCount 模板券兑换次数统计
type ParentCouponCount struct {
	ParentCouponID uint  `json:"parent_coupon_id"`
	Total          int64 `json:"total"`
}

// GormUserCouponRepository GORM 实现
type GormUserCouponRepository struct {
	db *gorm.DB
}

// NewUserCouponRepository 创建用户优惠券仓库
func NewUserCouponRepository(db *gorm.DB) *GormUserCouponRepository {
	return &GormUserCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserCouponRepository) WithTx(tx *gorm.DB) UserCouponRepository {
	if tx == nil {
		return r
	}
	return &GormUserCouponRepository{db: tx}
}

// GetByUserAndCoupon 获取用户与指定券的关联记录
func (r *GormUserCouponRepository) GetByUserAndCoupon(userID, couponID uint) (*models.UserCoupon, error) {
	if userID == 0 || couponID == 0 {
		return nil, errors.New("invalid user coupon params")
	}
	var item models.UserCoupon
	err := r.db.Where("user_id = ? AND coupon_id = ?", userID, couponID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByUser 获取用户持有的优惠券关联（带券信息）
func (r *GormUserCouponRepository) ListByUser(userID uint) ([]models.UserCoupon, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	var items []models.UserCoupon
	err := r.db.Preload("Coupon").Where("user_id = ?", userID).Order("id DESC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建关联记录
func (r *GormUserCouponRepository) Create(item *models.UserCoupon) error {
	if item == nil {
		return errors.New("user coupon is nil")
	}
	return r.db.Create(item).Error
}

// Update 保存关联记录
func (r *GormUserCouponRepository) Update(item *models.UserCoupon) error {
	if item == nil {
		return errors.New("user coupon is nil")
	}
	return r.db.Omit("User", "Coupon").Save(item).Error
}

// Disable 置为不可用（支付成功后防止重复使用）
func (r *GormUserCouponRepository) Disable(id uint) error {
	if id == 0 {
		return errors.New("invalid user coupon id")
	}
	return r.db.Model(&models.UserCoupon{}).Where("id = ?", id).Update("enabled", false).Error
}

// TopRedeemedParents 统计兑换次数最多的模板券
func (r *GormUserCouponRepository) TopRedeemedParents(limit int) ([]ParentCouponCount, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []ParentCouponCount
	err := r.db.Model(&models.UserCoupon{}).
		Select("parent_coupon_id, COUNT(*) AS total").
		Where("parent_coupon_id IS NOT NULL").
		Group("parent_coupon_id").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
