package public

import (
	"errors"

	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrEmailExists, code: response.CodeConflict, msg: "el email ya está registrado"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "la contraseña no cumple la política"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "email inválido"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "credenciales inválidas"},
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, msg: "captcha requerido"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, msg: "captcha inválido"},
	{target: service.ErrResetTokenInvalid, code: response.CodeBadRequest, msg: "token de recuperación inválido o vencido"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "usuario no encontrado"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, msg: "dirección no encontrada"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "el carrito está vacío"},
	{target: service.ErrActiveCartExists, code: response.CodeConflict, msg: "ya existe un carrito activo"},
	{target: service.ErrAllItemsUnavailable, code: response.CodeBadRequest, msg: "ningún producto tiene stock disponible"},
	{target: service.ErrCartNotFound, code: response.CodeNotFound, msg: "carrito no encontrado"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "ítem de carrito no encontrado"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, msg: "variante no encontrada"},
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeNotFound, msg: "cupón no encontrado"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "cupón vencido"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "cupón inactivo"},
	{target: service.ErrCouponAlreadyClaimed, code: response.CodeConflict, msg: "cupón ya utilizado"},
	{target: service.ErrCouponTypeInvalid, code: response.CodeBadRequest, msg: "tipo de cupón inválido"},
	{target: service.ErrInsufficientPoints, code: response.CodeBadRequest, msg: "puntos insuficientes"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "usuario no encontrado"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrCartNotFound, code: response.CodeNotFound, msg: "carrito no disponible para generar la orden"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "el carrito está vacío"},
	{target: service.ErrAllItemsUnavailable, code: response.CodeBadRequest, msg: "ningún producto tiene stock disponible"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, msg: "dirección no encontrada"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "orden no encontrada"},
	{target: service.ErrInvalidPostalCode, code: response.CodeBadRequest, msg: "código postal inválido"},
}

func respondAuthError(c *gin.Context, err error) {
	respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "error interno")
}

func respondCartError(c *gin.Context, err error) {
	cartRules := append([]mappedHandlerError{}, cartErrorRules...)
	cartRules = append(cartRules, couponErrorRules...)
	respondWithMappedError(c, err, cartRules, response.CodeInternal, "error interno")
}

func respondCouponError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponErrorRules, response.CodeInternal, "error interno")
}

func respondOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error interno")
}
