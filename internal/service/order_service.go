package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/payment/mercadopago"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const trackingAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// checkoutableCartStatuses 允许下单的购物车状态集合
var checkoutableCartStatuses = []string{
	constants.CartStatusActive,
	constants.CartStatusPendingPayment,
	constants.CartStatusPaymentFailed,
	constants.CartStatusAbandoned,
}

// OrderService 订单服务
type OrderService struct {
	cfg          *config.Config
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	cartRepo     repository.CartRepository
	userRepo     repository.UserRepository
	queueClient  *queue.Client
	emailService *EmailService
}

// NewOrderService 创建订单服务
func NewOrderService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	queueClient *queue.Client,
	emailService *EmailService,
) *OrderService {
	return &OrderService{
		cfg:          cfg,
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		cartRepo:     cartRepo,
		userRepo:     userRepo,
		queueClient:  queueClient,
		emailService: emailService,
	}
}

// CheckoutInput 下单输入
// ShippingCost 与 EstimatedDeliveryDate 来自前一步运费估算
type CheckoutInput struct {
	CartID                uint
	UserID                uint
	AddressID             uint
	ShippingCost          models.Money
	EstimatedDeliveryDate time.Time
}

// CheckoutResult 下单结果
type CheckoutResult struct {
	Order         *models.Order `json:"order"`
	PreferenceURL string        `json:"preference_url"`
}

// ShippingQuote 运费估算结果
type ShippingQuote struct {
	ShippingCost          models.Money `json:"shipping_cost"`
	EstimatedDays         int          `json:"estimated_days"`
	EstimatedDeliveryDate time.Time    `json:"estimated_delivery_date"`
}

// CreateOrderFromCart 从购物车生成订单并创建支付偏好
// 购物车置为 pending_payment 后阻止同一购物车重复下单
func (s *OrderService) CreateOrderFromCart(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	cart, err := s.cartRepo.GetByIDInStatuses(input.CartID, checkoutableCartStatuses)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.UserID != input.UserID {
		return nil, ErrCartNotFound
	}

	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	address, err := s.userRepo.GetAddress(input.UserID, input.AddressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}

	percent := 0
	if cart.Coupon != nil {
		percent = cart.Coupon.Value
	}

	var (
		orderItems  []models.OrderItem
		unavailable []string
		subtotal    models.Money
	)
	for _, item := range cart.Items {
		if item.Variant == nil || item.Variant.Stock < item.Quantity {
			unavailable = append(unavailable, cartItemDisplayName(&item))
			continue
		}
		snapshot := buildOrderItem(&item, percent)
		subtotal = subtotal.AddMoney(snapshot.FinalPrice.MulInt(snapshot.Quantity))
		orderItems = append(orderItems, snapshot)
	}
	if len(orderItems) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAllItemsUnavailable, strings.Join(unavailable, ", "))
	}

	total := subtotal.AddMoney(input.ShippingCost)
	trackingNumber := generateTrackingNumber(cart.CartNo, time.Now())

	order := &models.Order{
		OrderNo:      generateOrderNo(time.Now()),
		UserID:       input.UserID,
		CartID:       cart.ID,
		CouponID:     cart.CouponID,
		Subtotal:     subtotal,
		ShippingCost: input.ShippingCost,
		Total:        total,
		Status:       constants.OrderStatusPending,
		Items:        orderItems,
		ShippingInfo: &models.ShippingInfo{
			Street:                address.Street,
			City:                  address.City,
			Province:              address.Province,
			PostalCode:            address.PostalCode,
			Type:                  constants.ShippingTypeCorreo,
			Status:                constants.ShippingStatusPreparando,
			TrackingNumber:        trackingNumber,
			TrackingURL:           s.buildTrackingURL(trackingNumber),
			EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		},
	}

	// 状态翻转、订单与支付落库同一事务；网关失败整体回滚，购物车状态还原
	var preference *mercadopago.CreateResult
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.cartRepo.WithTx(tx).UpdateStatus(cart.ID, constants.CartStatusPendingPayment); err != nil {
			return err
		}
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}

		pref, err := mercadopago.CreatePreference(ctx, s.gatewayConfig(), mercadopago.CreateInput{
			OrderNo: order.OrderNo,
			OrderID: order.ID,
			UserID:  order.UserID,
			CartID:  cart.ID,
			Total:   total.String(),
			Items:   buildPreferenceItems(orderItems),
		})
		if err != nil {
			logger.Errorw("checkout_preference_failed", "order_no", order.OrderNo, "error", err)
			return err
		}
		preference = pref

		payment := &models.Payment{
			OrderID:             order.ID,
			Method:              constants.PaymentMethodMercadoPago,
			Status:              constants.PaymentStatusPending,
			Amount:              total,
			Currency:            s.currency(),
			MpPreferenceID:      preference.PreferenceID,
			MpExternalReference: preference.ExternalReference,
		}
		return s.paymentRepo.WithTx(tx).Create(payment)
	})
	if err != nil {
		return nil, err
	}

	s.notifyPaymentStatus(order, constants.PaymentStatusPending)

	created, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"cart_id", cart.ID,
		"user_id", input.UserID,
		"total", total.String(),
		"unavailable_items", len(unavailable),
	)

	preferenceURL := preference.InitPoint
	if preferenceURL == "" {
		preferenceURL = preference.SandboxInitPoint
	}
	return &CheckoutResult{Order: created, PreferenceURL: preferenceURL}, nil
}

// CalculateShipping 按邮编距离粗估运费与送达日期
// 首位相同走近距档，数值差小于 1000 走中距档，其余走远距档
func (s *OrderService) CalculateShipping(destinationZip string) (*ShippingQuote, error) {
	destination, err := parsePostalCode(destinationZip)
	if err != nil {
		return nil, err
	}
	origin, err := parsePostalCode(s.shippingConfig().OriginPostalCode)
	if err != nil {
		origin = 1000
	}

	cost, days := s.shippingTier(origin, destination)
	return &ShippingQuote{
		ShippingCost:          cost,
		EstimatedDays:         days,
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, days),
	}, nil
}

func (s *OrderService) shippingTier(origin, destination int) (models.Money, int) {
	cfg := s.shippingConfig()

	diff := origin - destination
	if diff < 0 {
		diff = -diff
	}
	switch {
	case firstDigit(origin) == firstDigit(destination):
		return parseMoneyOrDefault(cfg.NearCost, 1000), defaultInt(cfg.NearDays, 2)
	case diff < 1000:
		return parseMoneyOrDefault(cfg.MidCost, 1500), defaultInt(cfg.MidDays, 4)
	default:
		return parseMoneyOrDefault(cfg.FarCost, 2000), defaultInt(cfg.FarDays, 7)
	}
}

// notifyPaymentStatus 发送支付状态邮件，失败仅记日志
func (s *OrderService) notifyPaymentStatus(order *models.Order, status string) {
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueuePaymentStatusEmail(queue.PaymentStatusEmailPayload{OrderID: order.ID, Status: status})
		if err != nil {
			logger.Warnw("payment_status_enqueue_failed", "order_id", order.ID, "status", status, "error", err)
		}
		return
	}
	if s.emailService == nil {
		return
	}
	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil || user == nil {
		logger.Warnw("payment_status_user_lookup_failed", "order_id", order.ID, "error", err)
		return
	}
	name := ""
	if user.Person != nil {
		name = user.Person.Name
	}
	err = s.emailService.SendPaymentStatusEmail(user.Email, PaymentStatusEmailInput{
		Status:   status,
		Name:     name,
		OrderNo:  order.OrderNo,
		Total:    order.Total,
		Currency: s.currency(),
		Items:    order.Items,
	})
	if err != nil {
		logger.Warnw("payment_status_send_failed", "order_id", order.ID, "status", status, "error", err)
	}
}

func (s *OrderService) gatewayConfig() *mercadopago.Config {
	mp := s.mercadoPagoConfig()
	return &mercadopago.Config{
		AccessToken:     mp.AccessToken,
		BaseURL:         mp.BaseURL,
		NotificationURL: mp.WebhookURL,
		Currency:        mp.Currency,
		TimeoutMS:       mp.TimeoutMS,
	}
}

func (s *OrderService) mercadoPagoConfig() config.MercadoPagoConfig {
	if s.cfg == nil {
		return config.MercadoPagoConfig{}
	}
	return s.cfg.MercadoPago
}

func (s *OrderService) shippingConfig() config.ShippingConfig {
	if s.cfg == nil {
		return config.ShippingConfig{}
	}
	return s.cfg.Shipping
}

func (s *OrderService) currency() string {
	currency := strings.ToUpper(strings.TrimSpace(s.mercadoPagoConfig().Currency))
	if currency == "" {
		currency = "ARS"
	}
	return currency
}

func (s *OrderService) buildTrackingURL(trackingNumber string) string {
	base := strings.TrimSpace(s.shippingConfig().TrackingBaseURL)
	if base == "" {
		base = "https://www.correoargentino.com.ar/formularios/e?id="
	}
	return base + trackingNumber
}

// buildOrderItem 由购物车条目冻结定价快照，折扣按当前优惠券百分比重算
func buildOrderItem(item *models.CartItem, percent int) models.OrderItem {
	unitPrice := item.UnitPrice
	priceList := models.Money{}
	name := ""
	if item.Product != nil {
		unitPrice = item.Product.EffectivePrice()
		priceList = item.Product.PriceList
		name = item.Product.Name
	}
	discount := unitPrice.Percent(percent)
	return models.OrderItem{
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		ProductName: name,
		Quantity:    item.Quantity,
		UnitPrice:   unitPrice,
		Discount:    discount,
		FinalPrice:  unitPrice.SubMoney(discount),
		PriceList:   priceList,
	}
}

func buildPreferenceItems(items []models.OrderItem) []mercadopago.PreferenceItem {
	result := make([]mercadopago.PreferenceItem, 0, len(items))
	for _, item := range items {
		result = append(result, mercadopago.PreferenceItem{
			Title:     item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.FinalPrice.String(),
		})
	}
	return result
}

func cartItemDisplayName(item *models.CartItem) string {
	if item.Variant != nil {
		return variantDisplayName(item.Variant)
	}
	if item.Product != nil && item.Product.Name != "" {
		return item.Product.Name
	}
	return fmt.Sprintf("producto #%d", item.ProductID)
}

// generateOrderNo 生成订单号：ORD-日期-8位随机base36
func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), randomBase36(8))
}

// generateTrackingNumber 生成追踪号：TRK-日期-购物车号前6位-4位随机base36
func generateTrackingNumber(cartNo string, now time.Time) string {
	prefix := strings.ToUpper(strings.ReplaceAll(cartNo, "-", ""))
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return fmt.Sprintf("TRK-%s-%s-%s", now.Format("20060102"), prefix, randomBase36(4))
}

func randomBase36(length int) string {
	var builder strings.Builder
	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := 0; i < length; i++ {
		index, err := rand.Int(rand.Reader, max)
		if err != nil {
			builder.WriteByte(trackingAlphabet[0])
			continue
		}
		builder.WriteByte(trackingAlphabet[index.Int64()])
	}
	return builder.String()
}

func parsePostalCode(raw string) (int, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return 0, ErrInvalidPostalCode
	}
	// 阿根廷 CPA 格式（如 C1425ABC）取中间 4 位数字
	digits := strings.Builder{}
	for _, ch := range normalized {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	value, err := strconv.Atoi(digits.String())
	if err != nil || value <= 0 {
		return 0, ErrInvalidPostalCode
	}
	return value, nil
}

func firstDigit(value int) int {
	for value >= 10 {
		value /= 10
	}
	return value
}

func parseMoneyOrDefault(raw string, fallback int64) models.Money {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || amount.IsNegative() {
		return models.NewMoneyFromInt(fallback)
	}
	return models.NewMoneyFromDecimal(amount)
}

func defaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
