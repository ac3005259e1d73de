package models

import "time"

// WebhookEvent 支付网关回调审计表（每次投递落库，便于人工对账）
type WebhookEvent struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                  // 主键
	Provider       string    `gorm:"type:varchar(30);not null;index" json:"provider"`       // 网关标识（mercadopago）
	EventType      string    `gorm:"type:varchar(40);not null" json:"event_type"`           // 事件类型（payment/...）
	ResourceID     string    `gorm:"type:varchar(100);index" json:"resource_id"`            // 网关资源ID（支付流水号）
	OrderID        *uint     `gorm:"index" json:"order_id"`                                 // 解析出的订单ID（可空）
	Payload        string    `gorm:"type:text" json:"payload"`                              // 原始报文
	Classification string    `gorm:"type:varchar(20);not null;index" json:"classification"` // 处理结论（processed/ignored/error）
	Detail         string    `gorm:"type:varchar(500)" json:"detail"`                       // 结论说明
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                               // 接收时间
}

// TableName 指定表名
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
