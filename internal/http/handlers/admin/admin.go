package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// LoginResponse 管理员登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	if h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(req.CaptchaID, req.CaptchaCode); err != nil {
			switch {
			case errors.Is(err, service.ErrCaptchaRequired):
				respondError(c, response.CodeBadRequest, "captcha requerido", nil)
			case errors.Is(err, service.ErrCaptchaInvalid):
				respondError(c, response.CodeBadRequest, "captcha inválido", nil)
			default:
				respondError(c, response.CodeInternal, "no se pudo verificar el captcha", err)
			}
			return
		}
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLog(c).Infow("admin_login_failed", "username", req.Username)
			respondError(c, response.CodeUnauthorized, "usuario o contraseña incorrectos", nil)
			return
		}
		respondError(c, response.CodeInternal, "no se pudo iniciar sesión", err)
		return
	}
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
		},
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// UpdatePasswordRequest 修改密码请求
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateAdminPassword 修改管理员密码
func (h *Handler) UpdateAdminPassword(c *gin.Context) {
	id, ok := getAdminID(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	if err := h.AuthService.ChangePassword(id, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeBadRequest, "la contraseña actual no coincide", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, "la contraseña nueva es demasiado débil", nil)
		case errors.Is(err, service.ErrAdminNotFound):
			respondError(c, response.CodeNotFound, "administrador no encontrado", nil)
		default:
			respondError(c, response.CodeInternal, "no se pudo cambiar la contraseña", err)
		}
		return
	}

	response.Success(c, nil)
}

// ====================  商品管理  ====================

// VariantRequest 商品规格请求
type VariantRequest struct {
	ID     uint     `json:"id"`
	Size   string   `json:"size"`
	Color  string   `json:"color"`
	Gender string   `json:"gender"`
	Stock  int      `json:"stock"`
	Images []string `json:"images"`
}

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	CategoryID  uint             `json:"category_id" binding:"required"`
	BrandID     *uint            `json:"brand_id"`
	Slug        string           `json:"slug" binding:"required"`
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       string           `json:"price" binding:"required"`
	PriceList   string           `json:"price_list"`
	SalePrice   *string          `json:"sale_price"`
	Images      []string         `json:"images"`
	IsActive    *bool            `json:"is_active"`
	IsService   bool             `json:"is_service"`
	HasDelivery bool             `json:"has_delivery"`
	SortOrder   int              `json:"sort_order"`
	Variants    []VariantRequest `json:"variants"`
}

func (r ProductRequest) toInput() (service.ProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return service.ProductInput{}, service.ErrProductPriceInvalid
	}
	priceList := price
	if strings.TrimSpace(r.PriceList) != "" {
		priceList, err = decimal.NewFromString(strings.TrimSpace(r.PriceList))
		if err != nil {
			return service.ProductInput{}, service.ErrProductPriceInvalid
		}
	}
	var salePrice *decimal.Decimal
	if r.SalePrice != nil && strings.TrimSpace(*r.SalePrice) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(*r.SalePrice))
		if err != nil {
			return service.ProductInput{}, service.ErrProductPriceInvalid
		}
		salePrice = &parsed
	}

	variants := make([]service.VariantInput, 0, len(r.Variants))
	for _, v := range r.Variants {
		variants = append(variants, service.VariantInput{
			ID:     v.ID,
			Size:   v.Size,
			Color:  v.Color,
			Gender: v.Gender,
			Stock:  v.Stock,
			Images: v.Images,
		})
	}

	return service.ProductInput{
		CategoryID:  r.CategoryID,
		BrandID:     r.BrandID,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		PriceList:   priceList,
		SalePrice:   salePrice,
		Images:      r.Images,
		IsActive:    r.IsActive,
		IsService:   r.IsService,
		HasDelivery: r.HasDelivery,
		SortOrder:   r.SortOrder,
		Variants:    variants,
	}, nil
}

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		Search:       strings.TrimSpace(c.Query("search")),
		WithVariants: true,
	}
	if categoryID, err := strconv.ParseUint(c.Query("category_id"), 10, 64); err == nil {
		filter.CategoryID = uint(categoryID)
	}
	if brandID, err := strconv.ParseUint(c.Query("brand_id"), 10, 64); err == nil {
		filter.BrandID = uint(brandID)
	}

	products, total, err := h.ProductService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener los productos", err)
		return
	}
	response.SuccessWithPage(c, products, buildPagination(page, pageSize, total))
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetByID(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	product, err := h.ProductService.Create(input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	product, err := h.ProductService.Update(id, input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// ====================  分类管理  ====================

// CategoryRequest 创建/更新分类请求
type CategoryRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Name      string `json:"name" binding:"required"`
	ParentID  *uint  `json:"parent_id"`
	SortOrder int    `json:"sort_order"`
}

// GetAdminCategories 获取分类列表 (Admin)
func (h *Handler) GetAdminCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener las categorías", err)
		return
	}
	response.Success(c, categories)
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	category, err := h.CategoryService.Create(service.CategoryInput{
		Slug:      req.Slug,
		Name:      req.Name,
		ParentID:  req.ParentID,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, category)
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	category, err := h.CategoryService.Update(id, service.CategoryInput{
		Slug:      req.Slug,
		Name:      req.Name,
		ParentID:  req.ParentID,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类（软删除）
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CategoryService.Delete(id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

// ====================  品牌管理  ====================

// BrandRequest 创建/更新品牌请求
type BrandRequest struct {
	Slug string `json:"slug" binding:"required"`
	Name string `json:"name" binding:"required"`
	Logo string `json:"logo"`
}

// GetAdminBrands 获取品牌列表 (Admin)
func (h *Handler) GetAdminBrands(c *gin.Context) {
	brands, err := h.CategoryService.ListBrands()
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener las marcas", err)
		return
	}
	response.Success(c, brands)
}

// CreateBrand 创建品牌
func (h *Handler) CreateBrand(c *gin.Context) {
	var req BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	brand, err := h.CategoryService.CreateBrand(service.BrandInput{
		Slug: req.Slug,
		Name: req.Name,
		Logo: req.Logo,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, brand)
}

// UpdateBrand 更新品牌
func (h *Handler) UpdateBrand(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	brand, err := h.CategoryService.UpdateBrand(id, service.BrandInput{
		Slug: req.Slug,
		Name: req.Name,
		Logo: req.Logo,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, brand)
}

// DeleteBrand 删除品牌
func (h *Handler) DeleteBrand(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CategoryService.DeleteBrand(id); err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, nil)
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}
