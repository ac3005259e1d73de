package models

import "time"

// CartItem 购物车项表（定价快照在加入/改价时写入）
type CartItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                     // 主键
	CartID     uint      `gorm:"not null;index" json:"cart_id"`                            // 购物车ID
	ProductID  uint      `gorm:"not null;index" json:"product_id"`                         // 商品ID
	VariantID  uint      `gorm:"not null;index" json:"variant_id"`                         // 商品规格ID
	Quantity   int       `gorm:"not null" json:"quantity"`                                 // 数量（>=1）
	UnitPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价
	Discount   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`    // 单件折扣金额
	FinalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"final_price"` // 折后单价
	CreatedAt  time.Time `json:"created_at"`                                               // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                               // 更新时间

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 商品信息
	Variant *Variant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 规格信息
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
