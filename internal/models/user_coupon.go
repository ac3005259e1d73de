package models

import "time"

// UserCoupon 用户优惠券关联表（enabled=false 表示该券已随支付成功被消耗）
type UserCoupon struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                          // 主键
	UserID         uint      `gorm:"not null;index;uniqueIndex:idx_user_coupon" json:"user_id"`     // 用户ID
	CouponID       uint      `gorm:"not null;index;uniqueIndex:idx_user_coupon" json:"coupon_id"`   // 优惠券ID（兑换实例或模板）
	ParentCouponID *uint     `gorm:"index" json:"parent_coupon_id"`                                 // 模板券ID（统计兑换次数用，可空）
	Enabled        bool      `gorm:"not null" json:"enabled"`                                       // 是否可用
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                    // 更新时间

	// 关联
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`     // 用户信息
	Coupon *Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"` // 优惠券信息
}

// TableName 指定表名
func (UserCoupon) TableName() string {
	return "user_coupons"
}
