package constants

// 购物车状态常量
const (
	CartStatusActive         = "active"
	CartStatusPendingPayment = "pending_payment"
	CartStatusPaymentFailed  = "payment_failed"
	CartStatusAbandoned      = "abandoned"
	CartStatusOrdered        = "ordered"
	CartStatusCancelled      = "cancelled"
	CartStatusExpired        = "expired"
)

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// 支付方式常量
const (
	PaymentMethodMercadoPago = "mercadopago"
)

// MercadoPago 回调常量
const (
	MpEventTypePayment       = "payment"
	MpPaymentStatusApproved  = "approved"
	MpPaymentStatusCancelled = "cancelled"
	MpPaymentStatusPending   = "pending"
	MpPaymentStatusRejected  = "rejected"
)

// 回调审计结论常量
const (
	WebhookProcessed = "processed"
	WebhookIgnored   = "ignored"
	WebhookError     = "error"
)

// 优惠券类型常量
const (
	CouponTypePromotion     = "promotion"
	CouponTypeExchangePoint = "exchange_point"
)

// 优惠券状态常量
const (
	CouponStatusActive   = "active"
	CouponStatusRedeemed = "redeemed"
	CouponStatusInactive = "inactive"
)

// 配送方式与状态常量
const (
	ShippingTypeCorreo       = "correo"
	ShippingStatusPreparando = "preparando"
	ShippingStatusEnviado    = "enviado"
	ShippingStatusEntregado  = "entregado"
)

// 用户角色常量
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleClient     = "client"
)

// 规格性别常量
const (
	VariantGenderMale   = "male"
	VariantGenderFemale = "female"
	VariantGenderUnisex = "unisex"
)

// 队列与任务常量
const (
	QueueDefault           = "default"
	TaskPaymentStatusEmail = "payment:status_email"
	TaskCartReminderEmail  = "cart:reminder_email"
	TaskUserRegisterEmail  = "user:register_email"
)

// 积分与优惠券默认参数
const (
	// LoyaltyAccrualPercent 支付成功后按订单总额返积分的默认百分比
	LoyaltyAccrualPercent = 5
	// ExchangeCodePrefix 兑换券码前缀
	ExchangeCodePrefix = "CUPON"
)
