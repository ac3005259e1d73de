package public

import (
	"strconv"
	"strings"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表（仅上架商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
		Size:     strings.TrimSpace(c.Query("size")),
		Color:    strings.TrimSpace(c.Query("color")),
		PriceMin: strings.TrimSpace(c.Query("price_min")),
		PriceMax: strings.TrimSpace(c.Query("price_max")),
	}
	if categoryID, err := strconv.ParseUint(c.Query("category_id"), 10, 64); err == nil {
		filter.CategoryID = uint(categoryID)
	}
	if brandID, err := strconv.ParseUint(c.Query("brand_id"), 10, 64); err == nil {
		filter.BrandID = uint(brandID)
	}

	products, total, err := h.ProductService.ListPublic(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudo obtener el catálogo", err)
		return
	}
	response.SuccessWithPage(c, products, buildPagination(page, pageSize, total))
}

// GetProduct 商品详情（按 slug）
func (h *Handler) GetProduct(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "slug inválido", nil)
		return
	}
	product, err := h.ProductService.GetPublicBySlug(slug)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "producto no encontrado"},
		}, response.CodeInternal, "error interno")
		return
	}
	response.Success(c, product)
}

// ListCategories 分类树
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.Tree()
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener las categorías", err)
		return
	}
	response.Success(c, categories)
}

// ListBrands 品牌列表
func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.CategoryService.ListBrands()
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener las marcas", err)
		return
	}
	response.Success(c, brands)
}

// ListCoupons 按类型获取通用优惠券（promotion / exchange_point）
func (h *Handler) ListCoupons(c *gin.Context) {
	couponType := strings.TrimSpace(c.DefaultQuery("type", "promotion"))
	coupons, err := h.CouponService.ListGeneralByType(couponType)
	if err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, coupons)
}

// ExchangeCouponRequest 积分兑换请求
type ExchangeCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ExchangeCoupon 用积分兑换优惠券
func (h *Handler) ExchangeCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ExchangeCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	coupon, err := h.CouponService.ExchangeCoupon(req.Code, userID)
	if err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, coupon)
}

// ListMyCoupons 获取当前用户的优惠券
func (h *Handler) ListMyCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	coupons, err := h.CouponService.ListUserCoupons(userID)
	if err != nil {
		respondCouponError(c, err)
		return
	}
	response.Success(c, coupons)
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
