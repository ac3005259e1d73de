package public

import (
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车条目请求
type CartItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CreateCartRequest 创建购物车请求
type CreateCartRequest struct {
	Items      []CartItemRequest `json:"items" binding:"required"`
	CouponCode string            `json:"coupon_code"`
}

// CreateCart 创建购物车
func (h *Handler) CreateCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	items := make([]service.CartItemAdd, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CartItemAdd{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	result, err := h.CartService.CreateCart(userID, items, req.CouponCode)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, result)
}

// GetActiveCart 获取当前 active 购物车
func (h *Handler) GetActiveCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.GetActiveCart(userID)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// GetCart 获取指定购物车
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	cart, err := h.CartService.GetCart(cartID, userID)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, cart)
}

// UpdateCartRequest 更新购物车请求
// coupon_code 为 "null" 或空串表示移除优惠券；字段缺省表示不变
type UpdateCartRequest struct {
	ItemsToAdd    []CartItemRequest `json:"items_to_add"`
	ItemsToUpdate []struct {
		ItemID   uint `json:"item_id" binding:"required"`
		Quantity int  `json:"quantity"`
	} `json:"items_to_update"`
	ItemsToDelete []uint  `json:"items_to_delete"`
	CouponCode    *string `json:"coupon_code"`
}

// UpdateCart 更新购物车
func (h *Handler) UpdateCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	input := service.CartUpdateInput{
		ItemsToDelete: req.ItemsToDelete,
		CouponCode:    req.CouponCode,
	}
	for _, item := range req.ItemsToAdd {
		input.ItemsToAdd = append(input.ItemsToAdd, service.CartItemAdd{VariantID: item.VariantID, Quantity: item.Quantity})
	}
	for _, item := range req.ItemsToUpdate {
		input.ItemsToUpdate = append(input.ItemsToUpdate, service.CartItemQuantityUpdate{ItemID: item.ItemID, Quantity: item.Quantity})
	}

	result, err := h.CartService.UpdateCart(cartID, userID, input)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, result)
}

// VerifyCart 校验购物车库存并返回推荐商品
func (h *Handler) VerifyCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	// 先做归属校验，避免越权查看他人购物车
	if _, err := h.CartService.GetCart(cartID, userID); err != nil {
		respondCartError(c, err)
		return
	}

	verified, err := h.CartService.GetVerifyStockCart(cartID)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, verified)
}
