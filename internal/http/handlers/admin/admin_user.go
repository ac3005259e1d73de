package admin

import (
	"strconv"
	"strings"

	"github.com/tienda-next/internal/cache"
	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
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

	users, total, err := h.UserAdminService.List(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		Role:        strings.TrimSpace(c.Query("role")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudieron obtener los usuarios", err)
		return
	}
	response.SuccessWithPage(c, users, buildPagination(page, pageSize, total))
}

// GetAdminUser 获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserAdminService.Get(id)
	if err != nil {
		respondUserAdminError(c, err)
		return
	}
	response.Success(c, user)
}

// SetUserRoleRequest 调整用户角色请求
type SetUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetUserRole 调整用户角色
func (h *Handler) SetUserRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	user, err := h.UserAdminService.SetRole(id, req.Role)
	if err != nil {
		respondUserAdminError(c, err)
		return
	}
	// 角色变化后使缓存的认证状态失效
	_ = cache.DelUserAuthState(c.Request.Context(), id)
	response.Success(c, user)
}

// AdjustPointsRequest 人工调整积分请求
type AdjustPointsRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// AdjustUserPoints 人工调整用户积分
func (h *Handler) AdjustUserPoints(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	user, err := h.UserAdminService.AdjustPoints(id, req.Delta)
	if err != nil {
		respondUserAdminError(c, err)
		return
	}
	requestLog(c).Infow("user_points_adjusted", "user_id", id, "delta", req.Delta)
	response.Success(c, user)
}

// DeleteUser 删除用户（软删除）
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserAdminService.Delete(id); err != nil {
		respondUserAdminError(c, err)
		return
	}
	_ = cache.DelUserAuthState(c.Request.Context(), id)
	response.Success(c, gin.H{"deleted": true})
}
