package admin

import (
	"github.com/tienda-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboardPanel 获取后台面板汇总指标
func (h *Handler) GetDashboardPanel(c *gin.Context) {
	summary, err := h.DashboardService.GetPanelSummary()
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudo generar el panel", err)
		return
	}
	response.Success(c, summary)
}
