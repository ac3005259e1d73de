package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付单表（与订单一对一）
type Payment struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                 // 主键
	OrderID             uint           `gorm:"uniqueIndex;not null" json:"order_id"`                 // 订单ID
	Method              string         `gorm:"type:varchar(30);not null" json:"method"`              // 支付方式（mercadopago）
	Status              string         `gorm:"type:varchar(20);not null;index" json:"status"`        // 状态（pending/approved/rejected）
	Amount              Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`  // 支付金额
	Currency            string         `gorm:"type:varchar(10);not null;default:'ARS'" json:"currency"` // 币种
	MpPreferenceID      string         `gorm:"type:varchar(100);index" json:"mp_preference_id"`      // 网关偏好单ID
	MpExternalReference string         `gorm:"type:varchar(100);index" json:"mp_external_reference"` // 网关外部引用
	MpPaymentID         string         `gorm:"type:varchar(100);index" json:"mp_payment_id"`         // 网关支付流水号
	MpStatus            string         `gorm:"type:varchar(40)" json:"mp_status"`                    // 网关原始状态
	MpStatusDetail      string         `gorm:"type:varchar(100)" json:"mp_status_detail"`            // 网关状态明细
	PaidAt              *time.Time     `json:"paid_at"`                                              // 支付完成时间
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 关联订单
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
