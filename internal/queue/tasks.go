package queue

import (
	"encoding/json"

	"github.com/tienda-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentStatusEmail 支付状态邮件通知任务
	TaskPaymentStatusEmail = constants.TaskPaymentStatusEmail
	// TaskCartReminderEmail 购物车超时提醒邮件任务
	TaskCartReminderEmail = constants.TaskCartReminderEmail
	// TaskUserRegisterEmail 注册欢迎邮件任务
	TaskUserRegisterEmail = constants.TaskUserRegisterEmail
)

// PaymentStatusEmailPayload 支付状态邮件任务载荷
type PaymentStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// CartReminderEmailPayload 购物车提醒邮件任务载荷
type CartReminderEmailPayload struct {
	CartID uint `json:"cart_id"`
	UserID uint `json:"user_id"`
}

// UserRegisterEmailPayload 注册欢迎邮件任务载荷
type UserRegisterEmailPayload struct {
	UserID uint `json:"user_id"`
}

// NewPaymentStatusEmailTask 创建支付状态邮件任务
func NewPaymentStatusEmailTask(payload PaymentStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentStatusEmail, body), nil
}

// NewCartReminderEmailTask 创建购物车提醒邮件任务
func NewCartReminderEmailTask(payload CartReminderEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartReminderEmail, body), nil
}

// NewUserRegisterEmailTask 创建注册欢迎邮件任务
func NewUserRegisterEmailTask(payload UserRegisterEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUserRegisterEmail, body), nil
}
