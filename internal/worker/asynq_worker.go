package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/provider"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentStatusEmail, c.handlePaymentStatusEmail)
	mux.HandleFunc(queue.TaskCartReminderEmail, c.handleCartReminderEmail)
	mux.HandleFunc(queue.TaskUserRegisterEmail, c.handleUserRegisterEmail)
}

func (c *Consumer) handlePaymentStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_payment_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_payment_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_payment_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		logger.Warnw("worker_payment_status_email_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Debugw("worker_payment_status_email_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_payment_status_email_skip_email_service_nil", "order_id", order.ID)
		return nil
	}

	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = constants.MpPaymentStatusPending
	}
	name := ""
	if user.Person != nil {
		name = user.Person.Name
	}
	currency := "ARS"
	if order.Payment != nil && order.Payment.Currency != "" {
		currency = order.Payment.Currency
	}
	input := service.PaymentStatusEmailInput{
		Status:   status,
		Name:     name,
		OrderNo:  order.OrderNo,
		Total:    order.Total,
		Currency: currency,
		Items:    order.Items,
	}
	if err := c.EmailService.SendPaymentStatusEmail(user.Email, input); err != nil {
		logger.Warnw("worker_payment_status_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleCartReminderEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_cart_reminder_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartReminderEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_reminder_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_cart_reminder_email_skip_invalid_payload", "cart_id", payload.CartID)
		return nil
	}
	user, err := c.UserRepo.GetByID(payload.UserID)
	if err != nil {
		logger.Warnw("worker_cart_reminder_email_fetch_user_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Debugw("worker_cart_reminder_email_skip_empty_receiver", "user_id", payload.UserID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_cart_reminder_email_skip_email_service_nil", "user_id", payload.UserID)
		return nil
	}
	name := ""
	if user.Person != nil {
		name = user.Person.Name
	}
	if err := c.EmailService.SendCartReminderEmail(user.Email, name); err != nil {
		logger.Warnw("worker_cart_reminder_email_send_failed", "cart_id", payload.CartID, "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleUserRegisterEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_user_register_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.UserRegisterEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_user_register_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_user_register_email_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	user, err := c.UserRepo.GetByID(payload.UserID)
	if err != nil {
		logger.Warnw("worker_user_register_email_fetch_user_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Debugw("worker_user_register_email_skip_empty_receiver", "user_id", payload.UserID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_user_register_email_skip_email_service_nil", "user_id", payload.UserID)
		return nil
	}
	name := ""
	if user.Person != nil {
		name = user.Person.Name
	}
	if err := c.EmailService.SendRegisterEmail(user.Email, name); err != nil {
		logger.Warnw("worker_user_register_email_send_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}
