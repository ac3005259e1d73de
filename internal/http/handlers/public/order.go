package public

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"

	"github.com/shopspring/decimal"
	"github.com/gin-gonic/gin"
)

// CalculateShipping 按目的地邮编估算运费与送达日期
func (h *Handler) CalculateShipping(c *gin.Context) {
	destination := strings.TrimSpace(c.Query("postal_code"))
	quote, err := h.OrderService.CalculateShipping(destination)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, quote)
}

// CheckoutRequest 下单请求
// shipping_cost 与 estimated_delivery_date 取自运费估算接口的返回
type CheckoutRequest struct {
	AddressID             uint      `json:"address_id" binding:"required"`
	ShippingCost          string    `json:"shipping_cost" binding:"required"`
	EstimatedDeliveryDate time.Time `json:"estimated_delivery_date" binding:"required"`
}

// CreateOrder 从购物车生成订单并返回支付跳转链接
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	shippingCost, err := decimal.NewFromString(strings.TrimSpace(req.ShippingCost))
	if err != nil || shippingCost.IsNegative() {
		respondError(c, response.CodeBadRequest, "costo de envío inválido", nil)
		return
	}

	result, err := h.OrderService.CreateOrderFromCart(c.Request.Context(), service.CheckoutInput{
		CartID:                cartID,
		UserID:                userID,
		AddressID:             req.AddressID,
		ShippingCost:          models.NewMoneyFromDecimal(shippingCost),
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, result)
}

// ListMyOrders 获取当前用户的订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	orders, total, err := h.OrderService.ListUserOrders(userID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener las órdenes", err)
		return
	}
	response.SuccessWithPage(c, orders, buildPagination(page, pageSize, total))
}

// GetMyOrder 获取当前用户的订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetUserOrder(orderID, userID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, order)
}
