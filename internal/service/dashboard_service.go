package service

import (
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/shopspring/decimal"
)

// DashboardService 后台报表服务（纯聚合读取）
type DashboardService struct {
	dashboardRepo  repository.DashboardRepository
	productRepo    repository.ProductRepository
	couponRepo     repository.CouponRepository
	userCouponRepo repository.UserCouponRepository
	paymentRepo    repository.PaymentRepository
}

// NewDashboardService 创建报表服务
func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	userCouponRepo repository.UserCouponRepository,
	paymentRepo repository.PaymentRepository,
) *DashboardService {
	return &DashboardService{
		dashboardRepo:  dashboardRepo,
		productRepo:    productRepo,
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
		paymentRepo:    paymentRepo,
	}
}

// TopSoldProduct 销量榜条目
type TopSoldProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Total     int64  `json:"total"`
}

// TopProfitProduct 利润榜条目
type TopProfitProduct struct {
	ProductID uint         `json:"product_id"`
	Name      string       `json:"name"`
	Profit    models.Money `json:"profit"`
}

// TopRedeemedCoupon 兑换榜条目
type TopRedeemedCoupon struct {
	CouponID    uint   `json:"coupon_id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Total       int64  `json:"total"`
}

// PanelSummary 后台面板汇总数据
type PanelSummary struct {
	Revenue               models.Money                 `json:"revenue"`
	Cost                  models.Money                 `json:"cost"`
	Profit                models.Money                 `json:"profit"`
	PaidOrders            int64                        `json:"paid_orders"`
	AverageOrderValue     models.Money                 `json:"average_order_value"`
	Buyers                int64                        `json:"buyers"`
	RepeatPurchaseRate    float64                      `json:"repeat_purchase_rate"`
	CustomerLifetimeValue models.Money                 `json:"customer_lifetime_value"`
	TopSoldProducts       []TopSoldProduct             `json:"top_sold_products"`
	TopProfitProducts     []TopProfitProduct           `json:"top_profit_products"`
	TopRedeemedCoupons    []TopRedeemedCoupon          `json:"top_redeemed_coupons"`
	PaidOrdersByDay       []repository.DailyOrderCount `json:"paid_orders_by_day"`
	CartStatuses          []repository.StatusCount     `json:"cart_statuses"`
	PaymentStatuses       map[string]int64             `json:"payment_statuses"`
}

// GetPanelSummary 汇总面板全部指标
func (s *DashboardService) GetPanelSummary() (*PanelSummary, error) {
	totals, err := s.dashboardRepo.SalesTotals()
	if err != nil {
		return nil, err
	}

	buyers, err := s.dashboardRepo.BuyerCount()
	if err != nil {
		return nil, err
	}
	repeatBuyers, err := s.dashboardRepo.RepeatBuyerCount()
	if err != nil {
		return nil, err
	}

	summary := &PanelSummary{
		Revenue:    totals.Revenue,
		Cost:       totals.Cost,
		Profit:     totals.Revenue.SubMoney(totals.Cost),
		PaidOrders: totals.Orders,
		Buyers:     buyers,
	}
	if totals.Orders > 0 {
		avg := totals.Revenue.Decimal.Div(decimal.NewFromInt(totals.Orders)).Round(2)
		summary.AverageOrderValue = models.NewMoneyFromDecimal(avg)
	}
	if buyers > 0 {
		summary.RepeatPurchaseRate = float64(repeatBuyers) / float64(buyers)
		clv := totals.Revenue.Decimal.Div(decimal.NewFromInt(buyers)).Round(2)
		summary.CustomerLifetimeValue = models.NewMoneyFromDecimal(clv)
	}

	if summary.TopSoldProducts, err = s.topSoldProducts(); err != nil {
		return nil, err
	}
	if summary.TopProfitProducts, err = s.topProfitProducts(); err != nil {
		return nil, err
	}
	if summary.TopRedeemedCoupons, err = s.topRedeemedCoupons(); err != nil {
		return nil, err
	}
	if summary.PaidOrdersByDay, err = s.dashboardRepo.PaidOrdersByDay(); err != nil {
		return nil, err
	}
	if summary.CartStatuses, err = s.dashboardRepo.CartStatusHistogram(); err != nil {
		return nil, err
	}
	if summary.PaymentStatuses, err = s.paymentRepo.CountByStatus(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *DashboardService) topSoldProducts() ([]TopSoldProduct, error) {
	rows, err := s.dashboardRepo.TopSoldProducts(5)
	if err != nil {
		return nil, err
	}
	names, err := s.productNames(productIDsFromQuantities(rows))
	if err != nil {
		return nil, err
	}
	result := make([]TopSoldProduct, 0, len(rows))
	for _, row := range rows {
		result = append(result, TopSoldProduct{
			ProductID: row.ProductID,
			Name:      names[row.ProductID],
			Total:     row.Total,
		})
	}
	return result, nil
}

func (s *DashboardService) topProfitProducts() ([]TopProfitProduct, error) {
	rows, err := s.dashboardRepo.TopProfitProducts(5)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	names, err := s.productNames(ids)
	if err != nil {
		return nil, err
	}
	result := make([]TopProfitProduct, 0, len(rows))
	for _, row := range rows {
		result = append(result, TopProfitProduct{
			ProductID: row.ProductID,
			Name:      names[row.ProductID],
			Profit:    row.Profit,
		})
	}
	return result, nil
}

func (s *DashboardService) topRedeemedCoupons() ([]TopRedeemedCoupon, error) {
	rows, err := s.userCouponRepo.TopRedeemedParents(5)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ParentCouponID)
	}
	coupons, err := s.couponRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Coupon, len(coupons))
	for _, coupon := range coupons {
		byID[coupon.ID] = coupon
	}
	result := make([]TopRedeemedCoupon, 0, len(rows))
	for _, row := range rows {
		entry := TopRedeemedCoupon{CouponID: row.ParentCouponID, Total: row.Total}
		if coupon, ok := byID[row.ParentCouponID]; ok {
			entry.Code = coupon.Code
			entry.Description = coupon.Description
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *DashboardService) productNames(ids []uint) (map[uint]string, error) {
	if len(ids) == 0 {
		return map[uint]string{}, nil
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(products))
	for _, product := range products {
		names[product.ID] = product.Name
	}
	return names, nil
}

func productIDsFromQuantities(rows []repository.ProductQuantity) []uint {
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	return ids
}
