package admin

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/tienda-next/internal/cache"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"

	"github.com/gin-gonic/gin"
)

var adminUsernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

type createAdminPayload struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Roles    []string `json:"roles"`
}

type updateAdminPayload struct {
	Password *string   `json:"password"`
	Roles    *[]string `json:"roles"`
}

// CreateAuthzAdmin 创建管理员账号
func (h *Handler) CreateAuthzAdmin(c *gin.Context) {
	var req createAdminPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	username, err := normalizeAdminUsername(req.Username)
	if err != nil {
		respondError(c, response.CodeBadRequest, "nombre de usuario inválido", nil)
		return
	}
	if err := h.AuthService.ValidatePassword(req.Password); err != nil {
		respondError(c, response.CodeBadRequest, "la contraseña es demasiado débil", nil)
		return
	}

	existing, err := h.AdminRepo.GetByUsername(username)
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudo crear el administrador", err)
		return
	}
	if existing != nil {
		respondError(c, response.CodeConflict, "el nombre de usuario ya existe", nil)
		return
	}

	hashed, err := h.AuthService.HashPassword(req.Password)
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudo crear el administrador", err)
		return
	}

	admin := &models.Admin{
		Username:     username,
		PasswordHash: hashed,
	}
	if err := h.AdminRepo.Create(admin); err != nil {
		respondError(c, response.CodeInternal, "no se pudo crear el administrador", err)
		return
	}
	if len(req.Roles) > 0 {
		if err := h.AuthzService.SetAdminRoles(admin.ID, req.Roles); err != nil {
			respondError(c, response.CodeBadRequest, "no se pudieron asignar los roles", err)
			return
		}
	}

	logger.Infow("admin_account_created",
		"operator_admin_id", currentAdminID(c),
		"admin_id", admin.ID,
		"username", admin.Username,
	)
	response.Success(c, gin.H{
		"id":       admin.ID,
		"username": admin.Username,
		"roles":    req.Roles,
	})
}

// UpdateAuthzAdmin 更新管理员账号（重置密码、调整角色）
func (h *Handler) UpdateAuthzAdmin(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudo obtener el administrador", err)
		return
	}
	if admin == nil {
		respondError(c, response.CodeNotFound, "administrador no encontrado", nil)
		return
	}

	var req updateAdminPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}
	if req.Password == nil && req.Roles == nil {
		respondError(c, response.CodeBadRequest, "nada para actualizar", nil)
		return
	}

	if req.Password != nil {
		if err := h.AuthService.ValidatePassword(*req.Password); err != nil {
			respondError(c, response.CodeBadRequest, "la contraseña es demasiado débil", nil)
			return
		}
		hashed, err := h.AuthService.HashPassword(*req.Password)
		if err != nil {
			respondError(c, response.CodeInternal, "no se pudo actualizar el administrador", err)
			return
		}
		now := time.Now()
		admin.PasswordHash = hashed
		admin.TokenVersion++
		admin.TokenInvalidBefore = &now
		if err := h.AdminRepo.Update(admin); err != nil {
			respondError(c, response.CodeInternal, "no se pudo actualizar el administrador", err)
			return
		}
		_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))
	}

	if req.Roles != nil {
		if err := h.AuthzService.SetAdminRoles(adminID, *req.Roles); err != nil {
			respondError(c, response.CodeBadRequest, "no se pudieron asignar los roles", err)
			return
		}
	}

	logger.Infow("admin_account_updated",
		"operator_admin_id", currentAdminID(c),
		"admin_id", adminID,
		"password_reset", req.Password != nil,
		"roles_updated", req.Roles != nil,
	)
	response.Success(c, nil)
}

// DeleteAuthzAdmin 删除管理员账号
func (h *Handler) DeleteAuthzAdmin(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if adminID == currentAdminID(c) {
		respondError(c, response.CodeBadRequest, "no se puede eliminar la cuenta propia", nil)
		return
	}
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "no se pudo obtener el administrador", err)
		return
	}
	if admin == nil {
		respondError(c, response.CodeNotFound, "administrador no encontrado", nil)
		return
	}
	if admin.IsSuper {
		respondError(c, response.CodeForbidden, "no se puede eliminar a un superadministrador", nil)
		return
	}

	if err := h.AuthzService.SetAdminRoles(adminID, nil); err != nil {
		respondError(c, response.CodeInternal, "no se pudo eliminar el administrador", err)
		return
	}
	if err := h.AdminRepo.Delete(adminID); err != nil {
		respondError(c, response.CodeInternal, "no se pudo eliminar el administrador", err)
		return
	}
	_ = cache.DelAdminAuthState(c.Request.Context(), adminID)

	logger.Infow("admin_account_deleted",
		"operator_admin_id", currentAdminID(c),
		"admin_id", adminID,
		"username", admin.Username,
	)
	response.Success(c, gin.H{"deleted": true})
}

func normalizeAdminUsername(username string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(username))
	if !adminUsernamePattern.MatchString(normalized) {
		return "", errors.New("invalid username")
	}
	return normalized, nil
}
