package models

import (
	"time"

	"gorm.io/gorm"
)

// Variant 商品规格表（尺码/颜色/性别组合，各自独立库存）
type Variant struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                               // 主键
	ProductID uint           `gorm:"not null;index;uniqueIndex:idx_variant_combo" json:"product_id"`     // 商品ID
	Size      string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_variant_combo" json:"size"`   // 尺码
	Color     string         `gorm:"type:varchar(40);not null;uniqueIndex:idx_variant_combo" json:"color"`  // 颜色
	Gender    string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_variant_combo" json:"gender"` // 性别（male/female/unisex）
	Stock     int            `gorm:"not null;default:0" json:"stock"`                                    // 库存数量（仅支付成功后扣减）
	Images    StringArray    `gorm:"type:json" json:"images"`                                            // 图片数组
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                            // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                            // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                                     // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (Variant) TableName() string {
	return "variants"
}
