package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券表（模板券与兑换实例共用一张表，实例通过 parent_coupon_id 回指模板）
type Coupon struct {
	ID             uint           `gorm:"primarykey" json:"id"`                          // 主键
	Code           string         `gorm:"uniqueIndex;not null" json:"code"`              // 券码（全局唯一）
	Description    string         `gorm:"type:varchar(255)" json:"description"`          // 描述
	Value          int            `gorm:"not null;default:0" json:"value"`               // 折扣百分比（0-100）
	Price          int64          `gorm:"not null;default:0" json:"price"`               // 兑换所需积分
	Type           string         `gorm:"type:varchar(20);not null;index" json:"type"`   // 类型（promotion/exchange_point）
	Status         string         `gorm:"type:varchar(20);not null;index" json:"status"` // 状态（active/redeemed/inactive）
	ParentCouponID *uint          `gorm:"index" json:"parent_coupon_id"`                 // 模板券ID（兑换实例回指，可空）
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                       // 过期时间（可空）
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// IsExpired 判断券在给定时间是否已过期
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
