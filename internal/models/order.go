package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（从购物车生成的不可变快照）
type Order struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                        // 主键
	OrderNo      string         `gorm:"uniqueIndex;not null" json:"order_no"`                        // 订单号
	UserID       uint           `gorm:"not null;index" json:"user_id"`                               // 用户ID
	CartID       uint           `gorm:"not null;index" json:"cart_id"`                               // 来源购物车ID
	CouponID     *uint          `gorm:"index" json:"coupon_id"`                                      // 使用的优惠券ID（可空）
	Subtotal     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`       // 商品小计
	ShippingCost Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`  // 运费
	Total        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`          // 订单总额（小计+运费）
	Status       string         `gorm:"type:varchar(20);not null;index" json:"status"`               // 状态（pending/paid/cancelled）
	PaidAt       *time.Time     `json:"paid_at"`                                                     // 支付时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	// 关联
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`           // 用户信息
	Coupon       *Coupon       `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`       // 优惠券信息
	Items        []OrderItem   `gorm:"foreignKey:OrderID" json:"items,omitempty"`         // 订单项列表
	ShippingInfo *ShippingInfo `gorm:"foreignKey:OrderID" json:"shipping_info,omitempty"` // 配送信息
	Payment      *Payment      `gorm:"foreignKey:OrderID" json:"payment,omitempty"`       // 支付单
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
