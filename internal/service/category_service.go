package service

import (
	"strings"

	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
)

// CategoryService 分类与品牌业务服务
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	productRepo  repository.ProductRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(categoryRepo repository.CategoryRepository, brandRepo repository.BrandRepository, productRepo repository.ProductRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		productRepo:  productRepo,
	}
}

// CategoryInput 创建/更新分类输入
type CategoryInput struct {
	Slug      string
	Name      string
	ParentID  *uint
	SortOrder int
}

// List 获取分类列表
func (s *CategoryService) List() ([]models.Category, error) {
	return s.categoryRepo.List()
}

// Tree 获取顶级分类及其子分类
func (s *CategoryService) Tree() ([]models.Category, error) {
	return s.categoryRepo.ListRoots()
}

// Get 获取分类详情
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Create 创建分类
func (s *CategoryService) Create(input CategoryInput) (*models.Category, error) {
	slug := strings.TrimSpace(input.Slug)
	exist, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrSlugExists
	}
	if input.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(*input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrCategoryNotFound
		}
	}

	category := models.Category{
		Slug:      slug,
		Name:      strings.TrimSpace(input.Name),
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
	}
	if err := s.categoryRepo.Create(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 更新分类
func (s *CategoryService) Update(id uint, input CategoryInput) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	slug := strings.TrimSpace(input.Slug)
	exist, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if exist != nil && exist.ID != id {
		return nil, ErrSlugExists
	}
	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, ErrCategoryNotFound
		}
		parent, err := s.categoryRepo.GetByID(*input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrCategoryNotFound
		}
	}

	category.Slug = slug
	category.Name = strings.TrimSpace(input.Name)
	category.ParentID = input.ParentID
	category.SortOrder = input.SortOrder

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete 删除分类（分类下还有商品时拒绝）
func (s *CategoryService) Delete(id uint) error {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	count, err := s.productRepo.CountByCategory(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	return s.categoryRepo.Delete(id)
}

// BrandInput 创建/更新品牌输入
type BrandInput struct {
	Slug string
	Name string
	Logo string
}

// ListBrands 获取品牌列表
func (s *CategoryService) ListBrands() ([]models.Brand, error) {
	return s.brandRepo.List()
}

// GetBrand 获取品牌详情
func (s *CategoryService) GetBrand(id uint) (*models.Brand, error) {
	brand, err := s.brandRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, ErrBrandNotFound
	}
	return brand, nil
}

// CreateBrand 创建品牌
func (s *CategoryService) CreateBrand(input BrandInput) (*models.Brand, error) {
	brand := models.Brand{
		Slug: strings.TrimSpace(input.Slug),
		Name: strings.TrimSpace(input.Name),
		Logo: strings.TrimSpace(input.Logo),
	}
	if err := s.brandRepo.Create(&brand); err != nil {
		return nil, err
	}
	return &brand, nil
}

// UpdateBrand 更新品牌
func (s *CategoryService) UpdateBrand(id uint, input BrandInput) (*models.Brand, error) {
	brand, err := s.brandRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, ErrBrandNotFound
	}
	brand.Slug = strings.TrimSpace(input.Slug)
	brand.Name = strings.TrimSpace(input.Name)
	brand.Logo = strings.TrimSpace(input.Logo)
	if err := s.brandRepo.Update(brand); err != nil {
		return nil, err
	}
	return brand, nil
}

// DeleteBrand 删除品牌（品牌下还有商品时拒绝）
func (s *CategoryService) DeleteBrand(id uint) error {
	brand, err := s.brandRepo.GetByID(id)
	if err != nil {
		return err
	}
	if brand == nil {
		return ErrBrandNotFound
	}
	count, err := s.productRepo.CountByBrand(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrBrandInUse
	}
	return s.brandRepo.Delete(id)
}
