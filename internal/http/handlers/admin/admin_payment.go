package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminGetOrderPayment 获取订单的支付详情
func (h *Handler) AdminGetOrderPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.PaymentService.GetPaymentByOrder(id)
	if err != nil {
		respondOrderAdminError(c, err)
		return
	}
	response.Success(c, payment)
}

// AdminListWebhookEvents 获取支付回调审计记录
func (h *Handler) AdminListWebhookEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "fecha created_from inválida", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "fecha created_to inválida", err)
		return
	}

	events, total, err := h.PaymentService.ListWebhookEvents(repository.WebhookEventListFilter{
		Page:           page,
		PageSize:       pageSize,
		Provider:       strings.TrimSpace(c.Query("provider")),
		Classification: strings.TrimSpace(c.Query("classification")),
		ResourceID:     strings.TrimSpace(c.Query("resource_id")),
		CreatedFrom:    createdFrom,
		CreatedTo:      createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener los eventos de webhook", err)
		return
	}
	response.SuccessWithPage(c, events, buildPagination(page, pageSize, total))
}
