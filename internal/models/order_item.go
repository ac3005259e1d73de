package models

import "time"

// OrderItem 订单项表（下单时冻结的定价快照）
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID     uint      `gorm:"not null;index" json:"order_id"`                           // 订单ID
	ProductID   uint      `gorm:"not null;index" json:"product_id"`                         // 商品ID
	VariantID   uint      `gorm:"not null;index" json:"variant_id"`                         // 商品规格ID
	ProductName string    `gorm:"not null" json:"product_name"`                             // 商品名称快照
	Quantity    int       `gorm:"not null" json:"quantity"`                                 // 数量
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	Discount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`    // 单件折扣金额快照
	FinalPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"final_price"` // 折后单价快照
	PriceList   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price_list"`  // 成本价快照（用于利润统计）
	CreatedAt   time.Time `json:"created_at"`                                               // 创建时间

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 商品信息
	Variant *Variant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 规格信息
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
