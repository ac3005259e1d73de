package service

import "errors"

// 认证与用户
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password too weak")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrCaptchaRequired    = errors.New("captcha required")
	ErrCaptchaInvalid     = errors.New("captcha invalid")
	ErrAddressNotFound    = errors.New("address not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("forbidden")
)

// 商品目录
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrBrandNotFound        = errors.New("brand not found")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrProductPriceInvalid  = errors.New("product price invalid")
	ErrVariantStockInvalid  = errors.New("variant stock invalid")
	ErrVariantGenderInvalid = errors.New("variant gender invalid")
	ErrSlugExists           = errors.New("slug already exists")
	ErrCategoryInUse        = errors.New("category still has products")
	ErrBrandInUse           = errors.New("brand still has products")
)

// 购物车
var (
	ErrCartNotFound        = errors.New("cart not found")
	ErrActiveCartExists    = errors.New("active cart already exists")
	ErrCartEmpty           = errors.New("cart has no items")
	ErrAllItemsUnavailable = errors.New("no items with sufficient stock")
	ErrCartItemNotFound    = errors.New("cart item not found")
)

// 优惠券与积分
var (
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrCouponExpired        = errors.New("coupon expired")
	ErrCouponAlreadyClaimed = errors.New("coupon already claimed by user")
	ErrCouponInactive       = errors.New("coupon not active")
	ErrCouponCodeExists     = errors.New("coupon code already exists")
	ErrCouponCodeInvalid    = errors.New("coupon code invalid")
	ErrCouponValueInvalid   = errors.New("coupon value invalid")
	ErrCouponTypeInvalid    = errors.New("coupon type invalid")
	ErrCouponStatusInvalid  = errors.New("coupon status invalid")
	ErrInsufficientPoints   = errors.New("insufficient loyalty points")
)

// 订单与支付
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrAmountMismatch        = errors.New("payment amount mismatch")
	ErrInvalidPostalCode     = errors.New("invalid postal code")
	ErrInvalidShippingStatus = errors.New("invalid shipping status")
)

// 邮件
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
