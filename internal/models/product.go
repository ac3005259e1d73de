package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                // 主键
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`                   // 分类ID
	BrandID     *uint          `gorm:"index" json:"brand_id"`                               // 品牌ID（可空）
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                    // 唯一标识
	Name        string         `gorm:"not null" json:"name"`                                // 商品名称
	Description string         `gorm:"type:text" json:"description"`                        // 商品描述
	Price       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`  // 销售价
	PriceList   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_list"` // 成本/进货价
	SalePrice   *Money         `gorm:"type:decimal(20,2)" json:"sale_price"`                // 促销价（可空）
	Images      StringArray    `gorm:"type:json" json:"images"`                             // 图片数组
	IsActive    bool           `gorm:"not null;index" json:"is_active"`                     // 是否上架
	IsService   bool           `gorm:"not null;default:false" json:"is_service"`            // 是否服务类商品（无库存概念）
	HasDelivery bool           `gorm:"not null" json:"has_delivery"`                        // 是否支持配送
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                   // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                          // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	// 关联
	Category Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	Brand    *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`       // 品牌信息
	Variants []Variant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`  // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 返回实际销售价（有促销价时取促销价）
func (p *Product) EffectivePrice() Money {
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.Price
}
