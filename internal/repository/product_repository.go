package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	List(filter ProductListFilter) ([]models.Product, int64, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Count() (int64, error)
	CountByCategory(categoryID uint) (int64, error)
	CountByBrand(brandID uint) (int64, error)
	Create(item *models.Product) error
	Update(item *models.Product) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 根据 ID 获取商品（带分类/品牌/规格）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, errors.New("invalid product id")
	}
	var item models.Product
	err := r.db.Preload("Category").Preload("Brand").Preload("Variants").First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("invalid product slug")
	}
	var item models.Product
	err := r.db.Preload("Category").Preload("Brand").Preload("Variants").
		Where("slug = ?", slug).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List 分页查询商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})

	if filter.OnlyActive {
		query = query.Where("products.is_active = ?", true)
	}
	if filter.CategoryID > 0 {
		query = query.Where("products.category_id = ?", filter.CategoryID)
	}
	if filter.BrandID > 0 {
		query = query.Where("products.brand_id = ?", filter.BrandID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		op := likeOperator(r.db)
		query = query.Where(fmt.Sprintf("products.name %s ? OR products.description %s ?", op, op), like, like)
	}
	if filter.PriceMin != "" {
		query = query.Where("products.price >= ?", filter.PriceMin)
	}
	if filter.PriceMax != "" {
		query = query.Where("products.price <= ?", filter.PriceMax)
	}
	if filter.Size != "" || filter.Color != "" {
		sub := r.db.Model(&models.Variant{}).Select("variants.product_id")
		if filter.Size != "" {
			sub = sub.Where("variants.size = ?", filter.Size)
		}
		if filter.Color != "" {
			sub = sub.Where("variants.color = ?", filter.Color)
		}
		query = query.Where("products.id IN (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Category").Preload("Brand")
	if filter.WithVariants {
		query = query.Preload("Variants")
	}
	query = query.Order("products.sort_order DESC, products.id DESC")
	query = applyPagination(query, filter.Page, filter.PageSize)

	var items []models.Product
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var items []models.Product
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count 统计商品总数
func (r *GormProductRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountByCategory 统计分类下的商品数
func (r *GormProductRepository) CountByCategory(categoryID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// CountByBrand 统计品牌下的商品数
func (r *GormProductRepository) CountByBrand(brandID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Product{}).Where("brand_id = ?", brandID).Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(item *models.Product) error {
	if item == nil {
		return errors.New("product is nil")
	}
	return r.db.Create(item).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(item *models.Product) error {
	if item == nil {
		return errors.New("product is nil")
	}
	return r.db.Save(item).Error
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Delete(&models.Product{}, id).Error
}
