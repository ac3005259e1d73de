package models

import (
	"time"

	"gorm.io/gorm"
)

// Cart 购物车表（每个用户至多一个 active 购物车）
type Cart struct {
	ID        uint           `gorm:"primarykey" json:"id"`                            // 主键
	CartNo    string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"cart_no"` // 购物车编号（UUID）
	UserID    uint           `gorm:"not null;index;uniqueIndex:uniq_carts_user_active,where:status = 'active'" json:"user_id"` // 用户ID；部分唯一索引保证至多一个 active 购物车
	Status    string         `gorm:"type:varchar(20);not null;index" json:"status"`   // 状态（active/pending_payment/payment_failed/abandoned/ordered/cancelled/expired）
	CouponID  *uint          `gorm:"index" json:"coupon_id"`                          // 已应用的优惠券ID（可空）
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间

	// 关联
	User   *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`     // 用户信息
	Coupon *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"` // 优惠券信息
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`    // 购物车项列表
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}
