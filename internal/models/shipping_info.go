package models

import "time"

// ShippingInfo 配送信息表（与订单一对一）
type ShippingInfo struct {
	ID                    uint      `gorm:"primarykey" json:"id"`                            // 主键
	OrderID               uint      `gorm:"uniqueIndex;not null" json:"order_id"`            // 订单ID
	Street                string    `gorm:"type:varchar(200)" json:"street"`                 // 街道快照
	City                  string    `gorm:"type:varchar(100)" json:"city"`                   // 城市快照
	Province              string    `gorm:"type:varchar(100)" json:"province"`               // 省份快照
	PostalCode            string    `gorm:"type:varchar(20)" json:"postal_code"`             // 邮编快照
	Type                  string    `gorm:"type:varchar(20);not null" json:"type"`           // 配送方式（correo）
	Status                string    `gorm:"type:varchar(20);not null" json:"status"`         // 配送状态（preparando/...）
	TrackingNumber        string    `gorm:"type:varchar(40);index" json:"tracking_number"`   // 物流追踪号
	TrackingURL           string    `gorm:"type:varchar(200)" json:"tracking_url"`           // 物流查询链接
	EstimatedDeliveryDate time.Time `json:"estimated_delivery_date"`                         // 预计送达日期
	CreatedAt             time.Time `json:"created_at"`                                      // 创建时间
	UpdatedAt             time.Time `json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (ShippingInfo) TableName() string {
	return "shipping_infos"
}
