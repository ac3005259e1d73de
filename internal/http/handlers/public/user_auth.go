package public

import (
	"errors"
	"time"

	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Name        string `json:"name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	if h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(req.CaptchaID, req.CaptchaCode); err != nil {
			respondAuthError(c, err)
			return
		}
	}

	user, token, expiresAt, err := h.UserAuthService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
		Phone:    req.Phone,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user":       buildUserView(user),
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.LoginWithRememberMe(req.Email, req.Password, req.RememberMe)
	if err != nil {
		requestLog(c).Infow("user_login_failed", "email", req.Email, "error", err)
		respondAuthError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user":       buildUserView(user),
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// RecoverPasswordRequest 找回密码请求
type RecoverPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	RedirectURL string `json:"redirect_url"`
}

// RecoverPassword 发送找回密码邮件
// 邮箱不存在时也返回成功，避免探测已注册邮箱
func (h *Handler) RecoverPassword(c *gin.Context) {
	var req RecoverPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	if err := h.UserAuthService.RequestPasswordReset(req.Email, req.RedirectURL); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Success(c, gin.H{"sent": true})
			return
		}
		if errors.Is(err, service.ErrInvalidEmail) {
			respondAuthError(c, err)
			return
		}
		requestLog(c).Warnw("recover_password_failed", "email", req.Email, "error", err)
		respondError(c, response.CodeInternal, "no se pudo enviar el correo de recuperación", err)
		return
	}

	response.Success(c, gin.H{"sent": true})
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ResetPassword 使用找回令牌重置密码
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	if err := h.UserAuthService.ResetPassword(req.Token, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, gin.H{"reset": true})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 登录态修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	if err := h.UserAuthService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, gin.H{"changed": true})
}

// GetMe 获取当前用户信息
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, buildUserView(user))
}

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Name      *string    `json:"name"`
	LastName  *string    `json:"last_name"`
	Phone     *string    `json:"phone"`
	BirthDate *time.Time `json:"birth_date"`
}

// UpdateProfile 更新个人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	user, err := h.UserAuthService.UpdateProfile(userID, service.ProfileUpdateInput{
		Name:      req.Name,
		LastName:  req.LastName,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, buildUserView(user))
}

// AddressRequest 收货地址请求
type AddressRequest struct {
	Street     string  `json:"street" binding:"required"`
	City       string  `json:"city" binding:"required"`
	Province   string  `json:"province" binding:"required"`
	PostalCode string  `json:"postal_code" binding:"required"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

func (r AddressRequest) toInput() service.AddressInput {
	return service.AddressInput{
		Street:     r.Street,
		City:       r.City,
		Province:   r.Province,
		PostalCode: r.PostalCode,
		Lat:        r.Lat,
		Lng:        r.Lng,
	}
}

// CreateAddress 新增收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	address, err := h.UserAuthService.CreateAddress(userID, req.toInput())
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, address)
}

// ListAddresses 获取收货地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	addresses, err := h.UserAuthService.ListAddresses(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, addresses)
}

// UpdateAddress 更新收货地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "solicitud inválida", err)
		return
	}

	address, err := h.UserAuthService.UpdateAddress(userID, addressID, req.toInput())
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, address)
}

// DeleteAddress 删除收货地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserAuthService.DeleteAddress(userID, addressID); err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// buildUserView 用户信息脱敏视图
func buildUserView(user *models.User) gin.H {
	if user == nil {
		return gin.H{}
	}
	view := gin.H{
		"id":     user.ID,
		"email":  user.Email,
		"role":   user.Role,
		"points": user.Points,
	}
	if user.Person != nil {
		view["person"] = gin.H{
			"name":       user.Person.Name,
			"last_name":  user.Person.LastName,
			"phone":      user.Person.Phone,
			"birth_date": user.Person.BirthDate,
		}
	}
	if user.Addresses != nil {
		view["addresses"] = user.Addresses
	}
	return view
}
