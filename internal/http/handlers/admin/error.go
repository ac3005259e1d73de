package admin

import (
	"errors"

	handlershared "github.com/tienda-next/internal/http/handlers/shared"
	"github.com/tienda-next/internal/http/response"
	"github.com/tienda-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 业务错误到响应码与提示语的映射
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, fallbackMsg, err)
}

var catalogErrorRules = []mappedHandlerError{
	{service.ErrProductNotFound, response.CodeNotFound, "producto no encontrado"},
	{service.ErrCategoryNotFound, response.CodeNotFound, "categoría no encontrada"},
	{service.ErrBrandNotFound, response.CodeNotFound, "marca no encontrada"},
	{service.ErrVariantNotFound, response.CodeNotFound, "variante no encontrada"},
	{service.ErrSlugExists, response.CodeConflict, "el slug ya está en uso"},
	{service.ErrProductPriceInvalid, response.CodeBadRequest, "precio inválido"},
	{service.ErrVariantStockInvalid, response.CodeBadRequest, "stock de variante inválido"},
	{service.ErrVariantGenderInvalid, response.CodeBadRequest, "género de variante inválido"},
	{service.ErrCategoryInUse, response.CodeConflict, "la categoría todavía tiene productos"},
	{service.ErrBrandInUse, response.CodeConflict, "la marca todavía tiene productos"},
}

var couponAdminErrorRules = []mappedHandlerError{
	{service.ErrCouponNotFound, response.CodeNotFound, "cupón no encontrado"},
	{service.ErrCouponCodeExists, response.CodeConflict, "el código de cupón ya existe"},
	{service.ErrCouponCodeInvalid, response.CodeBadRequest, "código de cupón inválido"},
	{service.ErrCouponValueInvalid, response.CodeBadRequest, "valor de cupón inválido"},
	{service.ErrCouponTypeInvalid, response.CodeBadRequest, "tipo de cupón inválido"},
	{service.ErrCouponStatusInvalid, response.CodeBadRequest, "estado de cupón inválido"},
}

var userAdminErrorRules = []mappedHandlerError{
	{service.ErrUserNotFound, response.CodeNotFound, "usuario no encontrado"},
	{service.ErrInvalidRole, response.CodeBadRequest, "rol inválido"},
	{service.ErrInsufficientPoints, response.CodeBadRequest, "puntos insuficientes"},
}

var orderAdminErrorRules = []mappedHandlerError{
	{service.ErrOrderNotFound, response.CodeNotFound, "orden no encontrada"},
	{service.ErrPaymentNotFound, response.CodeNotFound, "pago no encontrado"},
	{service.ErrInvalidShippingStatus, response.CodeBadRequest, "estado de envío inválido"},
}

func respondCatalogError(c *gin.Context, err error) {
	respondWithMappedError(c, err, catalogErrorRules, "error interno")
}

func respondCouponAdminError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponAdminErrorRules, "error interno")
}

func respondUserAdminError(c *gin.Context, err error) {
	respondWithMappedError(c, err, userAdminErrorRules, "error interno")
}

func respondOrderAdminError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderAdminErrorRules, "error interno")
}
