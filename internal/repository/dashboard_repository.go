package repository

import (
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// SalesTotals 已支付订单的销售汇总
type SalesTotals struct {
	Revenue models.Money `json:"revenue"`
	Cost    models.Money `json:"cost"`
	Orders  int64        `json:"orders"`
}

// ProductQuantity 商品销量统计行
type ProductQuantity struct {
	ProductID uint  `json:"product_id"`
	Total     int64 `json:"total"`
}

// ProductProfit 商品利润统计行
type ProductProfit struct {
	ProductID uint         `json:"product_id"`
	Profit    models.Money `json:"profit"`
}

// DailyOrderCount 按日订单量统计行
type DailyOrderCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// StatusCount 状态直方图统计行
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DashboardRepository 报表聚合查询接口
type DashboardRepository interface {
	SalesTotals() (*SalesTotals, error)
	TopSoldProducts(limit int) ([]ProductQuantity, error)
	TopProfitProducts(limit int) ([]ProductProfit, error)
	BuyerCount() (int64, error)
	RepeatBuyerCount() (int64, error)
	PaidOrdersByDay() ([]DailyOrderCount, error)
	CartStatusHistogram() ([]StatusCount, error)
	WithTx(tx *gorm.DB) DashboardRepository
}

// GormDashboardRepository GORM 实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建报表仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDashboardRepository) WithTx(tx *gorm.DB) DashboardRepository {
	if tx == nil {
		return r
	}
	return &GormDashboardRepository{db: tx}
}

func (r *GormDashboardRepository) paidOrderItems() *gorm.DB {
	return r.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("orders.status = ?", constants.OrderStatusPaid)
}

// SalesTotals 汇总已支付订单的收入/成本/单量
func (r *GormDashboardRepository) SalesTotals() (*SalesTotals, error) {
	var row struct {
		Revenue models.Money
		Cost    models.Money
	}
	err := r.paidOrderItems().
		Select("COALESCE(SUM(order_items.unit_price * order_items.quantity), 0) AS revenue, COALESCE(SUM(order_items.price_list * order_items.quantity), 0) AS cost").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	var orders int64
	err = r.db.Model(&models.Order{}).
		Where("status = ?", constants.OrderStatusPaid).
		Count(&orders).Error
	if err != nil {
		return nil, err
	}

	return &SalesTotals{Revenue: row.Revenue, Cost: row.Cost, Orders: orders}, nil
}

// TopSoldProducts 销量前 N 的商品
func (r *GormDashboardRepository) TopSoldProducts(limit int) ([]ProductQuantity, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []ProductQuantity
	err := r.paidOrderItems().
		Select("order_items.product_id AS product_id, SUM(order_items.quantity) AS total").
		Group("order_items.product_id").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopProfitProducts 利润前 N 的商品
func (r *GormDashboardRepository) TopProfitProducts(limit int) ([]ProductProfit, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []ProductProfit
	err := r.paidOrderItems().
		Select("order_items.product_id AS product_id, COALESCE(SUM((order_items.unit_price - order_items.price_list) * order_items.quantity), 0) AS profit").
		Group("order_items.product_id").
		Order("profit DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BuyerCount 统计至少有一笔已支付订单的用户数
func (r *GormDashboardRepository) BuyerCount() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("status = ?", constants.OrderStatusPaid).
		Distinct("user_id").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RepeatBuyerCount 统计拥有多笔已支付订单的用户数
func (r *GormDashboardRepository) RepeatBuyerCount() (int64, error) {
	sub := r.db.Model(&models.Order{}).
		Select("user_id").
		Where("status = ?", constants.OrderStatusPaid).
		Group("user_id").
		Having("COUNT(*) > 1")
	var count int64
	err := r.db.Table("(?) AS repeat_buyers", sub).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PaidOrdersByDay 按日统计已支付订单量
func (r *GormDashboardRepository) PaidOrdersByDay() ([]DailyOrderCount, error) {
	expr := dateExpr(r.db, "orders.created_at")
	var rows []DailyOrderCount
	err := r.db.Model(&models.Order{}).
		Select(expr + " AS date, COUNT(*) AS count").
		Where("orders.status = ?", constants.OrderStatusPaid).
		Group(expr).
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CartStatusHistogram 按状态统计购物车数量
func (r *GormDashboardRepository) CartStatusHistogram() ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.Model(&models.Cart{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
