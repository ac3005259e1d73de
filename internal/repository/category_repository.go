package repository

import (
	"errors"
	"strings"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	List() ([]models.Category, error)
	ListRoots() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	Create(item *models.Category) error
	Update(item *models.Category) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) CategoryRepository
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCategoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	if tx == nil {
		return r
	}
	return &GormCategoryRepository{db: tx}
}

// List 获取全部分类
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	var items []models.Category
	if err := r.db.Order("sort_order DESC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListRoots 获取顶级分类及其子分类
func (r *GormCategoryRepository) ListRoots() ([]models.Category, error) {
	var items []models.Category
	err := r.db.Where("parent_id IS NULL").
		Preload("Children").
		Order("sort_order DESC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取分类
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, errors.New("invalid category id")
	}
	var item models.Category
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetBySlug 根据 slug 获取分类
func (r *GormCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("invalid category slug")
	}
	var item models.Category
	if err := r.db.Where("slug = ?", slug).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建分类
func (r *GormCategoryRepository) Create(item *models.Category) error {
	if item == nil {
		return errors.New("category is nil")
	}
	return r.db.Create(item).Error
}

// Update 更新分类
func (r *GormCategoryRepository) Update(item *models.Category) error {
	if item == nil {
		return errors.New("category is nil")
	}
	return r.db.Save(item).Error
}

// Delete 删除分类
func (r *GormCategoryRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid category id")
	}
	return r.db.Delete(&models.Category{}, id).Error
}

// BrandRepository 品牌数据访问接口
type BrandRepository interface {
	List() ([]models.Brand, error)
	GetByID(id uint) (*models.Brand, error)
	Create(item *models.Brand) error
	Update(item *models.Brand) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) BrandRepository
}

// GormBrandRepository GORM 实现
type GormBrandRepository struct {
	db *gorm.DB
}

// NewBrandRepository 创建品牌仓库
func NewBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBrandRepository) WithTx(tx *gorm.DB) BrandRepository {
	if tx == nil {
		return r
	}
	return &GormBrandRepository{db: tx}
}

// List 获取全部品牌
func (r *GormBrandRepository) List() ([]models.Brand, error) {
	var items []models.Brand
	if err := r.db.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取品牌
func (r *GormBrandRepository) GetByID(id uint) (*models.Brand, error) {
	if id == 0 {
		return nil, errors.New("invalid brand id")
	}
	var item models.Brand
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建品牌
func (r *GormBrandRepository) Create(item *models.Brand) error {
	if item == nil {
		return errors.New("brand is nil")
	}
	return r.db.Create(item).Error
}

// Update 更新品牌
func (r *GormBrandRepository) Update(item *models.Brand) error {
	if item == nil {
		return errors.New("brand is nil")
	}
	return r.db.Save(item).Error
}

// Delete 删除品牌
func (r *GormBrandRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid brand id")
	}
	return r.db.Delete(&models.Brand{}, id).Error
}
