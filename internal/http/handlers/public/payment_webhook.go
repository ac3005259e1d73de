package public

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mercadoPagoNotification MercadoPago 回调的通知体
type mercadoPagoNotification struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook 接收 MercadoPago 支付回调
// 无论处理结果如何始终返回 200, 避免网关无限重试
func (h *Handler) MercadoPagoWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		requestLog(c).Warnw("webhook_body_read_failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"message": "cuerpo inválido"})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var notification mercadoPagoNotification
	if err := json.Unmarshal(raw, &notification); err != nil {
		requestLog(c).Warnw("webhook_payload_invalid", "error", err)
		c.JSON(http.StatusOK, gin.H{"message": "payload inválido"})
		return
	}

	resourceID := notification.Data.ID.String()
	if resourceID == "" {
		resourceID = c.Query("data.id")
	}
	if notification.Type == "" {
		notification.Type = c.Query("type")
	}

	message, err := h.PaymentService.HandleMercadoPagoWebhook(c.Request.Context(), service.WebhookNotification{
		Type:       notification.Type,
		ResourceID: resourceID,
		RawPayload: string(raw),
	})
	if err != nil {
		logger.Warnw("webhook_processing_failed",
			"type", notification.Type,
			"resource_id", resourceID,
			"error", err,
		)
		c.JSON(http.StatusOK, gin.H{"message": "no se pudo procesar la notificación", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
