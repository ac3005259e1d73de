package service

import (
	"strings"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品业务服务
type ProductService struct {
	productRepo  repository.ProductRepository
	variantRepo  repository.VariantRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, variantRepo repository.VariantRepository, categoryRepo repository.CategoryRepository, brandRepo repository.BrandRepository) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
	}
}

// VariantInput 商品规格输入
type VariantInput struct {
	ID     uint
	Size   string
	Color  string
	Gender string
	Stock  int
	Images []string
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	CategoryID  uint
	BrandID     *uint
	Slug        string
	Name        string
	Description string
	Price       decimal.Decimal
	PriceList   decimal.Decimal
	SalePrice   *decimal.Decimal
	Images      []string
	IsActive    *bool
	IsService   bool
	HasDelivery bool
	SortOrder   int
	Variants    []VariantInput
}

// ListPublic 获取公开商品列表（仅上架商品）
func (s *ProductService) ListPublic(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = true
	filter.WithVariants = true
	return s.productRepo.List(filter)
}

// GetPublicBySlug 获取公开商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Recommendations 按分类与规格匹配推荐商品（排除给定商品）
func (s *ProductService) Recommendations(categoryID uint, size, color string, excludeProductIDs []uint, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	variants, err := s.variantRepo.ListRecommendations(categoryID, size, color, excludeProductIDs, limit*4)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	ids := make([]uint, 0, limit)
	for _, v := range variants {
		if seen[v.ProductID] {
			continue
		}
		seen[v.ProductID] = true
		ids = append(ids, v.ProductID)
		if len(ids) >= limit {
			break
		}
	}
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return s.productRepo.ListByIDs(ids)
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.WithVariants = true
	return s.productRepo.List(filter)
}

// GetByID 获取商品详情
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品（级联创建规格）
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}
	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if input.BrandID != nil {
		brand, err := s.brandRepo.GetByID(*input.BrandID)
		if err != nil {
			return nil, err
		}
		if brand == nil {
			return nil, ErrBrandNotFound
		}
	}

	slug := strings.TrimSpace(input.Slug)
	exist, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := models.Product{
		CategoryID:  input.CategoryID,
		BrandID:     input.BrandID,
		Slug:        slug,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       models.NewMoneyFromDecimal(input.Price),
		PriceList:   models.NewMoneyFromDecimal(input.PriceList),
		Images:      models.StringArray(input.Images),
		IsActive:    isActive,
		IsService:   input.IsService,
		HasDelivery: input.HasDelivery,
		SortOrder:   input.SortOrder,
	}
	if input.SalePrice != nil && input.SalePrice.GreaterThan(decimal.Zero) {
		sale := models.NewMoneyFromDecimal(*input.SalePrice)
		product.SalePrice = &sale
	}

	if err := s.productRepo.Create(&product); err != nil {
		return nil, err
	}

	if len(input.Variants) > 0 {
		variants := make([]models.Variant, 0, len(input.Variants))
		for _, v := range input.Variants {
			variant, err := buildVariant(product.ID, v)
			if err != nil {
				return nil, err
			}
			variants = append(variants, *variant)
		}
		if err := s.variantRepo.CreateBatch(variants); err != nil {
			return nil, err
		}
		product.Variants = variants
	}
	return &product, nil
}

// Update 更新商品（规格按 ID 对齐：有 ID 更新、无 ID 新建、缺失删除）
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if input.BrandID != nil {
		brand, err := s.brandRepo.GetByID(*input.BrandID)
		if err != nil {
			return nil, err
		}
		if brand == nil {
			return nil, ErrBrandNotFound
		}
	}

	slug := strings.TrimSpace(input.Slug)
	exist, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if exist != nil && exist.ID != id {
		return nil, ErrSlugExists
	}

	product.CategoryID = input.CategoryID
	product.BrandID = input.BrandID
	product.Slug = slug
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = models.NewMoneyFromDecimal(input.Price)
	product.PriceList = models.NewMoneyFromDecimal(input.PriceList)
	product.Images = models.StringArray(input.Images)
	product.IsService = input.IsService
	product.HasDelivery = input.HasDelivery
	product.SortOrder = input.SortOrder
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.SalePrice = nil
	if input.SalePrice != nil && input.SalePrice.GreaterThan(decimal.Zero) {
		sale := models.NewMoneyFromDecimal(*input.SalePrice)
		product.SalePrice = &sale
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	if input.Variants != nil {
		if err := s.syncVariants(product, input.Variants); err != nil {
			return nil, err
		}
	}
	return s.productRepo.GetByID(id)
}

func (s *ProductService) syncVariants(product *models.Product, inputs []VariantInput) error {
	existing, err := s.variantRepo.ListByProduct(product.ID)
	if err != nil {
		return err
	}
	existingByID := make(map[uint]*models.Variant, len(existing))
	for i := range existing {
		existingByID[existing[i].ID] = &existing[i]
	}

	keep := make(map[uint]bool, len(inputs))
	for _, in := range inputs {
		if in.ID != 0 {
			current, ok := existingByID[in.ID]
			if !ok {
				return ErrVariantNotFound
			}
			updated, err := buildVariant(product.ID, in)
			if err != nil {
				return err
			}
			updated.ID = current.ID
			updated.CreatedAt = current.CreatedAt
			if err := s.variantRepo.Update(updated); err != nil {
				return err
			}
			keep[in.ID] = true
			continue
		}
		created, err := buildVariant(product.ID, in)
		if err != nil {
			return err
		}
		if err := s.variantRepo.Create(created); err != nil {
			return err
		}
	}

	for _, v := range existing {
		if !keep[v.ID] {
			if err := s.variantRepo.Delete(v.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildVariant(productID uint, input VariantInput) (*models.Variant, error) {
	if input.Stock < 0 {
		return nil, ErrVariantStockInvalid
	}
	gender := strings.ToLower(strings.TrimSpace(input.Gender))
	switch gender {
	case constants.VariantGenderMale, constants.VariantGenderFemale, constants.VariantGenderUnisex:
	case "":
		gender = constants.VariantGenderUnisex
	default:
		return nil, ErrVariantGenderInvalid
	}
	return &models.Variant{
		ProductID: productID,
		Size:      strings.ToUpper(strings.TrimSpace(input.Size)),
		Color:     strings.ToLower(strings.TrimSpace(input.Color)),
		Gender:    gender,
		Stock:     input.Stock,
		Images:    models.StringArray(input.Images),
	}, nil
}

// Delete 删除商品（级联删除规格）
func (s *ProductService) Delete(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.variantRepo.DeleteByProduct(id); err != nil {
		return err
	}
	return s.productRepo.Delete(id)
}
