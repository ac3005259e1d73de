package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	BrandID      uint
	Search       string
	Size         string
	Color        string
	PriceMin     string
	PriceMax     string
	OnlyActive   bool
	WithVariants bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page     int
	PageSize int
	Type     string
	Status   string
	Search   string
}

// WebhookEventListFilter 查询回调审计列表的过滤条件
type WebhookEventListFilter struct {
	Page           int
	PageSize       int
	Provider       string
	Classification string
	ResourceID     string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}
