package service

import (
	"context"
	"fmt"
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

// PaymentService 支付对账服务：消费网关回调并推进订单/支付/购物车/库存/积分状态
type PaymentService struct {
	cfg              *config.Config
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	cartRepo         repository.CartRepository
	variantRepo      repository.VariantRepository
	couponRepo       repository.CouponRepository
	userCouponRepo   repository.UserCouponRepository
	userRepo         repository.UserRepository
	webhookEventRepo repository.WebhookEventRepository
	queueClient      *queue.Client
	emailService     *EmailService
}

// NewPaymentService 创建支付对账服务
func NewPaymentService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	cartRepo repository.CartRepository,
	variantRepo repository.VariantRepository,
	couponRepo repository.CouponRepository,
	userCouponRepo repository.UserCouponRepository,
	userRepo repository.UserRepository,
	webhookEventRepo repository.WebhookEventRepository,
	queueClient *queue.Client,
	emailService *EmailService,
) *PaymentService {
	return &PaymentService{
		cfg:              cfg,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		cartRepo:         cartRepo,
		variantRepo:      variantRepo,
		couponRepo:       couponRepo,
		userCouponRepo:   userCouponRepo,
		userRepo:         userRepo,
		webhookEventRepo: webhookEventRepo,
		queueClient:      queueClient,
		emailService:     emailService,
	}
}

// WebhookNotification 网关回调通知（{type, data: {id}}）
type WebhookNotification struct {
	Type       string
	ResourceID string
	RawPayload string
}

// HandleMercadoPagoWebhook 处理一次回调投递
// 每次投递都落一条审计记录；返回的错误由 handler 吞掉并转为 200 响应，
// 避免网关重试重复施加副作用
func (s *PaymentService) HandleMercadoPagoWebhook(ctx context.Context, notification WebhookNotification) (string, error) {
	if notification.Type != constants.MpEventTypePayment {
		detail := fmt.Sprintf("tipo de evento no soportado: %s", notification.Type)
		s.audit(notification, nil, constants.WebhookIgnored, detail)
		return "evento ignorado", nil
	}

	gatewayDetail, err := mercadopago.GetPayment(ctx, s.gatewayConfig(), notification.ResourceID)
	if err != nil {
		s.audit(notification, nil, constants.WebhookError, err.Error())
		return "", err
	}
	if gatewayDetail.OrderID == 0 {
		err := fmt.Errorf("%w: metadata sin order_id", ErrOrderNotFound)
		s.audit(notification, nil, constants.WebhookError, err.Error())
		return "", err
	}

	order, err := s.orderRepo.GetByID(gatewayDetail.OrderID)
	if err != nil {
		s.audit(notification, &gatewayDetail.OrderID, constants.WebhookError, err.Error())
		return "", err
	}
	if order == nil {
		s.audit(notification, &gatewayDetail.OrderID, constants.WebhookError, ErrOrderNotFound.Error())
		return "", ErrOrderNotFound
	}
	payment := order.Payment
	if payment == nil {
		s.audit(notification, &order.ID, constants.WebhookError, ErrPaymentNotFound.Error())
		return "", ErrPaymentNotFound
	}

	if err := s.checkAmount(payment, gatewayDetail); err != nil {
		s.audit(notification, &order.ID, constants.WebhookError, err.Error())
		return "", err
	}

	// 重复投递：支付单已进入终态且状态一致时直接确认
	if payment.Status != constants.PaymentStatusPending && payment.MpStatus == gatewayDetail.Status {
		s.audit(notification, &order.ID, constants.WebhookIgnored, "entrega duplicada, ya procesada")
		return "pago ya procesado", nil
	}

	// 状态邮件对任何新投递都发，包括不触发状态迁移的中间态
	s.notifyPaymentStatus(order, gatewayDetail.Status)

	var message string
	switch gatewayDetail.Status {
	case constants.MpPaymentStatusApproved:
		if err := s.applyApproved(order, gatewayDetail); err != nil {
			s.audit(notification, &order.ID, constants.WebhookError, err.Error())
			return "", err
		}
		s.audit(notification, &order.ID, constants.WebhookProcessed, "pago aprobado")
		message = "pago aprobado"
	case constants.MpPaymentStatusCancelled:
		if err := s.applyCancelled(order, gatewayDetail); err != nil {
			s.audit(notification, &order.ID, constants.WebhookError, err.Error())
			return "", err
		}
		s.audit(notification, &order.ID, constants.WebhookProcessed, "pago cancelado")
		message = "pago cancelado"
	default:
		detail := fmt.Sprintf("estado %s sin transición", gatewayDetail.Status)
		s.audit(notification, &order.ID, constants.WebhookIgnored, detail)
		return fmt.Sprintf("estado %s ignorado", gatewayDetail.Status), nil
	}

	return message, nil
}

// applyApproved 支付成功终态：禁用优惠券、购物车置 ordered、订单置 paid、
// 逐项条件扣减库存（不足则跳过）、按订单总额返积分。整体在一个事务内完成
func (s *PaymentService) applyApproved(order *models.Order, detail *mercadopago.PaymentDetail) error {
	now := time.Now()
	return models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, err := cartRepo.GetByID(order.CartID)
		if err != nil {
			return err
		}

		if cart != nil && cart.CouponID != nil {
			if err := s.consumeCoupon(tx, order.UserID, *cart.CouponID); err != nil {
				return err
			}
		}
		if cart != nil {
			if err := cartRepo.UpdateStatus(cart.ID, constants.CartStatusOrdered); err != nil {
				return err
			}
		}

		order.Status = constants.OrderStatusPaid
		order.PaidAt = &now
		if err := s.orderRepo.WithTx(tx).Update(order); err != nil {
			return err
		}

		payment := order.Payment
		payment.Status = constants.PaymentStatusApproved
		payment.MpPaymentID = detail.ID
		payment.MpStatus = detail.Status
		payment.MpStatusDetail = detail.StatusDetail
		payment.PaidAt = &now
		if err := s.paymentRepo.WithTx(tx).Update(payment); err != nil {
			return err
		}

		variantRepo := s.variantRepo.WithTx(tx)
		for _, item := range order.Items {
			affected, err := variantRepo.DecrementStock(item.VariantID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				logger.Warnw("stock_decrement_skipped",
					"order_id", order.ID,
					"variant_id", item.VariantID,
					"quantity", item.Quantity,
				)
			}
		}

		points := s.loyaltyPoints(order.Total)
		if points > 0 {
			if err := s.userRepo.WithTx(tx).AddPoints(order.UserID, points); err != nil {
				return err
			}
		}

		logger.Infow("payment_approved",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"mp_payment_id", detail.ID,
			"points_credited", points,
		)
		return nil
	})
}

// applyCancelled 支付取消：购物车/订单置 cancelled，支付单置 rejected
func (s *PaymentService) applyCancelled(order *models.Order, detail *mercadopago.PaymentDetail) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, err := cartRepo.GetByID(order.CartID)
		if err != nil {
			return err
		}
		if cart != nil {
			if err := cartRepo.UpdateStatus(cart.ID, constants.CartStatusCancelled); err != nil {
				return err
			}
		}

		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, constants.OrderStatusCancelled); err != nil {
			return err
		}

		payment := order.Payment
		payment.Status = constants.PaymentStatusRejected
		payment.MpPaymentID = detail.ID
		payment.MpStatus = detail.Status
		payment.MpStatusDetail = detail.StatusDetail
		if err := s.paymentRepo.WithTx(tx).Update(payment); err != nil {
			return err
		}

		logger.Infow("payment_cancelled", "order_id", order.ID, "mp_payment_id", detail.ID)
		return nil
	})
}

// consumeCoupon 标记优惠券已消费：已有关联记录则禁用；
// 无记录且为 promotion 模板时补一条禁用记录，防止同券复用
func (s *PaymentService) consumeCoupon(tx *gorm.DB, userID, couponID uint) error {
	userCouponRepo := s.userCouponRepo.WithTx(tx)
	claim, err := userCouponRepo.GetByUserAndCoupon(userID, couponID)
	if err != nil {
		return err
	}
	if claim != nil {
		return userCouponRepo.Disable(claim.ID)
	}

	coupon, err := s.couponRepo.WithTx(tx).GetByID(couponID)
	if err != nil {
		return err
	}
	if coupon == nil || coupon.Type != constants.CouponTypePromotion {
		return nil
	}
	return userCouponRepo.Create(&models.UserCoupon{
		UserID:   userID,
		CouponID: couponID,
		Enabled:  false,
	})
}

// checkAmount 校验网关回报金额与本地支付单金额一致
func (s *PaymentService) checkAmount(payment *models.Payment, detail *mercadopago.PaymentDetail) error {
	if detail.TransactionAmount == "" {
		return nil
	}
	reported, err := decimal.NewFromString(detail.TransactionAmount)
	if err != nil {
		return nil
	}
	if !reported.Equal(payment.Amount.Decimal) {
		return fmt.Errorf("%w: esperado %s, informado %s", ErrAmountMismatch, payment.Amount.String(), reported.StringFixed(2))
	}
	return nil
}

// loyaltyPoints 按订单总额计算返还积分（取整数部分）
func (s *PaymentService) loyaltyPoints(total models.Money) int64 {
	percent := constants.LoyaltyAccrualPercent
	if s.cfg != nil && s.cfg.Loyalty.AccrualPercent > 0 {
		percent = s.cfg.Loyalty.AccrualPercent
	}
	return total.Percent(percent).IntPart()
}

// notifyPaymentStatus 发送支付状态邮件，失败仅记日志
func (s *PaymentService) notifyPaymentStatus(order *models.Order, status string) {
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
		Currency: resolveCurrency(s.cfg),
		Items:    order.Items,
	})
	if err != nil {
		logger.Warnw("payment_status_send_failed", "order_id", order.ID, "status", status, "error", err)
	}
}

// audit 落一条回调审计记录（失败仅记日志，不影响主流程）
func (s *PaymentService) audit(notification WebhookNotification, orderID *uint, classification, detail string) {
	event := &models.WebhookEvent{
		Provider:       constants.PaymentMethodMercadoPago,
		EventType:      notification.Type,
		ResourceID:     notification.ResourceID,
		OrderID:        orderID,
		Payload:        notification.RawPayload,
		Classification: classification,
		Detail:         detail,
	}
	if err := s.webhookEventRepo.Create(event); err != nil {
		logger.Errorw("webhook_audit_failed", "resource_id", notification.ResourceID, "error", err)
	}
}

// ListWebhookEvents 后台分页查询回调审计记录
func (s *PaymentService) ListWebhookEvents(filter repository.WebhookEventListFilter) ([]models.WebhookEvent, int64, error) {
	return s.webhookEventRepo.List(filter)
}

// GetPaymentByOrder 获取订单支付单
func (s *PaymentService) GetPaymentByOrder(orderID uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) gatewayConfig() *mercadopago.Config {
	mp := config.MercadoPagoConfig{}
	if s.cfg != nil {
		mp = s.cfg.MercadoPago
	}
	return &mercadopago.Config{
		AccessToken:     mp.AccessToken,
		BaseURL:         mp.BaseURL,
		NotificationURL: mp.WebhookURL,
		Currency:        mp.Currency,
		TimeoutMS:       mp.TimeoutMS,
	}
}

func resolveCurrency(cfg *config.Config) string {
	if cfg == nil || cfg.MercadoPago.Currency == "" {
		return "ARS"
	}
	return cfg.MercadoPago.Currency
}
