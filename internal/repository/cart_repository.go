package repository

import (
	"errors"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByID(id uint) (*models.Cart, error)
	GetActiveByUser(userID uint) (*models.Cart, error)
	GetByIDInStatuses(id uint, statuses []string) (*models.Cart, error)
	Create(cart *models.Cart) error
	Update(cart *models.Cart) error
	UpdateStatus(id uint, status string) error
	ListActiveOlderThan(cutoff time.Time) ([]models.Cart, error)
	ExpireActiveOlderThan(cutoff time.Time) (int64, error)
	CreateItems(items []models.CartItem) error
	UpdateItem(item *models.CartItem) error
	DeleteItems(cartID uint, itemIDs []uint) error
	GetItem(cartID, itemID uint) (*models.CartItem, error)
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func (r *GormCartRepository) preloadCart(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("Coupon")
}

// GetByID 根据 ID 获取购物车（带条目/商品/规格/优惠券）
func (r *GormCartRepository) GetByID(id uint) (*models.Cart, error) {
	if id == 0 {
		return nil, errors.New("invalid cart id")
	}
	var cart models.Cart
	if err := r.preloadCart(r.db).First(&cart, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetActiveByUser 获取用户当前 active 购物车
func (r *GormCartRepository) GetActiveByUser(userID uint) (*models.Cart, error) {
	if userID == 0 {
		return nil, errors.New("invalid user id")
	}
	var cart models.Cart
	err := r.preloadCart(r.db).
		Where("user_id = ? AND status = ?", userID, constants.CartStatusActive).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetByIDInStatuses 按状态集合获取购物车（用于下单前的状态校验）
func (r *GormCartRepository) GetByIDInStatuses(id uint, statuses []string) (*models.Cart, error) {
	if id == 0 {
		return nil, errors.New("invalid cart id")
	}
	if len(statuses) == 0 {
		return r.GetByID(id)
	}
	var cart models.Cart
	err := r.preloadCart(r.db).
		Where("id = ? AND status IN ?", id, statuses).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	if cart == nil {
		return errors.New("cart is nil")
	}
	return r.db.Create(cart).Error
}

// Update 保存购物车
func (r *GormCartRepository) Update(cart *models.Cart) error {
	if cart == nil {
		return errors.New("cart is nil")
	}
	return r.db.Omit("Items", "Coupon", "User").Save(cart).Error
}

// UpdateStatus 更新购物车状态
func (r *GormCartRepository) UpdateStatus(id uint, status string) error {
	if id == 0 {
		return errors.New("invalid cart id")
	}
	return r.db.Model(&models.Cart{}).Where("id = ?", id).Update("status", status).Error
}

// ListActiveOlderThan 查询在给定时间前创建且仍 active 的购物车（带用户，用于提醒邮件）
func (r *GormCartRepository) ListActiveOlderThan(cutoff time.Time) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.Preload("User").Preload("User.Person").
		Where("status = ? AND created_at < ?", constants.CartStatusActive, cutoff).
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

// ExpireActiveOlderThan 将超时的 active 购物车批量置为 expired，返回受影响行数
func (r *GormCartRepository) ExpireActiveOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Model(&models.Cart{}).
		Where("status = ? AND created_at < ?", constants.CartStatusActive, cutoff).
		Update("status", constants.CartStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreateItems 批量创建购物车条目
func (r *GormCartRepository) CreateItems(items []models.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// UpdateItem 保存购物车条目
func (r *GormCartRepository) UpdateItem(item *models.CartItem) error {
	if item == nil {
		return errors.New("cart item is nil")
	}
	return r.db.Omit("Product", "Variant").Save(item).Error
}

// DeleteItems 删除购物车内指定条目
func (r *GormCartRepository) DeleteItems(cartID uint, itemIDs []uint) error {
	if cartID == 0 || len(itemIDs) == 0 {
		return nil
	}
	return r.db.Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&models.CartItem{}).Error
}

// GetItem 获取购物车内单个条目
func (r *GormCartRepository) GetItem(cartID, itemID uint) (*models.CartItem, error) {
	if cartID == 0 || itemID == 0 {
		return nil, errors.New("invalid cart item id")
	}
	var item models.CartItem
	err := r.db.Preload("Variant").Preload("Product").
		Where("cart_id = ? AND id = ?", cartID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}
