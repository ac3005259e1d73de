package repository

import (
	"errors"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// VariantRepository 商品规格数据访问接口
type VariantRepository interface {
	ListByProduct(productID uint) ([]models.Variant, error)
	GetByID(id uint) (*models.Variant, error)
	ListByIDs(ids []uint) ([]models.Variant, error)
	Create(item *models.Variant) error
	CreateBatch(items []models.Variant) error
	Update(item *models.Variant) error
	Delete(id uint) error
	DeleteByProduct(productID uint) error
	DecrementStock(variantID uint, quantity int) (int64, error)
	IncrementStock(variantID uint, quantity int) error
	ListRecommendations(categoryID uint, size, color string, excludeProductIDs []uint, limit int) ([]models.Variant, error)
	WithTx(tx *gorm.DB) VariantRepository
}

// GormVariantRepository GORM 实现
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建规格仓库
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// ListByProduct 获取商品的全部规格
func (r *GormVariantRepository) ListByProduct(productID uint) ([]models.Variant, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	var items []models.Variant
	if err := r.db.Where("product_id = ?", productID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取规格
func (r *GormVariantRepository) GetByID(id uint) (*models.Variant, error) {
	if id == 0 {
		return nil, errors.New("invalid variant id")
	}
	var item models.Variant
	if err := r.db.Preload("Product").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByIDs 批量获取规格
func (r *GormVariantRepository) ListByIDs(ids []uint) ([]models.Variant, error) {
	if len(ids) == 0 {
		return []models.Variant{}, nil
	}
	var items []models.Variant
	if err := r.db.Preload("Product").Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建规格
func (r *GormVariantRepository) Create(item *models.Variant) error {
	if item == nil {
		return errors.New("variant is nil")
	}
	return r.db.Create(item).Error
}

// CreateBatch 批量创建规格
func (r *GormVariantRepository) CreateBatch(items []models.Variant) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// Update 更新规格
func (r *GormVariantRepository) Update(item *models.Variant) error {
	if item == nil {
		return errors.New("variant is nil")
	}
	return r.db.Save(item).Error
}

// Delete 删除规格
func (r *GormVariantRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid variant id")
	}
	return r.db.Delete(&models.Variant{}, id).Error
}

// DeleteByProduct 删除指定商品下的规格
func (r *GormVariantRepository) DeleteByProduct(productID uint) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Where("product_id = ?", productID).Delete(&models.Variant{}).Error
}

// DecrementStock 条件扣减库存，仅当剩余库存足够时生效，返回受影响行数
func (r *GormVariantRepository) DecrementStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock decrement params")
	}
	result := r.db.Model(&models.Variant{}).
		Where("id = ? AND stock >= ?", variantID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementStock 回补库存
func (r *GormVariantRepository) IncrementStock(variantID uint, quantity int) error {
	if variantID == 0 || quantity <= 0 {
		return errors.New("invalid stock increment params")
	}
	return r.db.Model(&models.Variant{}).
		Where("id = ?", variantID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}

// ListRecommendations 查询同分类下尺码或颜色匹配的其他商品规格
func (r *GormVariantRepository) ListRecommendations(categoryID uint, size, color string, excludeProductIDs []uint, limit int) ([]models.Variant, error) {
	if categoryID == 0 {
		return []models.Variant{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	query := r.db.Model(&models.Variant{}).
		Joins("JOIN products ON products.id = variants.product_id AND products.deleted_at IS NULL").
		Where("products.category_id = ? AND products.is_active = ?", categoryID, true).
		Where("variants.stock > 0").
		Where("variants.size = ? OR variants.color = ?", size, color)
	if len(excludeProductIDs) > 0 {
		query = query.Where("variants.product_id NOT IN ?", excludeProductIDs)
	}
	var items []models.Variant
	if err := query.Preload("Product").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
