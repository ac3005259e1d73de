package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartService 购物车服务
type CartService struct {
	cartRepo       repository.CartRepository
	variantRepo    repository.VariantRepository
	productRepo    repository.ProductRepository
	couponRepo     repository.CouponRepository
	userCouponRepo repository.UserCouponRepository
	queueClient    *queue.Client
	emailService   *EmailService
}

// NewCartService 创建购物车服务
func NewCartService(
	cartRepo repository.CartRepository,
	variantRepo repository.VariantRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	userCouponRepo repository.UserCouponRepository,
	queueClient *queue.Client,
	emailService *EmailService,
) *CartService {
	return &CartService{
		cartRepo:       cartRepo,
		variantRepo:    variantRepo,
		productRepo:    productRepo,
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
		queueClient:    queueClient,
		emailService:   emailService,
	}
}

// CartItemAdd 加入购物车条目
type CartItemAdd struct {
	VariantID uint
	Quantity  int
}

// CartItemQuantityUpdate 修改购物车条目数量
type CartItemQuantityUpdate struct {
	ItemID   uint
	Quantity int
}

// CartUpdateInput 购物车更新输入
// CouponCode 为 nil 表示不变，"null" 或空串表示移除优惠券
type CartUpdateInput struct {
	ItemsToAdd    []CartItemAdd
	ItemsToUpdate []CartItemQuantityUpdate
	ItemsToDelete []uint
	CouponCode    *string
}

// CartResult 购物车操作结果（含未能加入的商品名列表）
type CartResult struct {
	Cart     *models.Cart `json:"cart"`
	NotAdded []string     `json:"not_added"`
}

// VerifiedCartItem 库存校验结果条目
type VerifiedCartItem struct {
	Item       models.CartItem `json:"item"`
	StockError string          `json:"stock_error,omitempty"`
}

// VerifiedCart 购物车库存校验结果
type VerifiedCart struct {
	Cart            *models.Cart       `json:"cart"`
	Items           []VerifiedCartItem `json:"items"`
	Recommendations []models.Product   `json:"recommendations"`
}

// CreateCart 创建购物车
// 库存不足的条目不会中断整体流程，而是跳过并记录商品名；全部不可用时返回错误
func (s *CartService) CreateCart(userID uint, items []CartItemAdd, couponCode string) (*CartResult, error) {
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	existing, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrActiveCartExists
	}

	var coupon *models.Coupon
	if couponCode != "" && couponCode != "null" {
		coupon, err = s.resolveCouponForUser(userID, couponCode)
		if err != nil {
			return nil, err
		}
	}

	percent := 0
	if coupon != nil {
		percent = coupon.Value
	}

	var (
		cartItems []models.CartItem
		notAdded  []string
	)
	for _, in := range items {
		if in.Quantity <= 0 {
			continue
		}
		variant, err := s.variantRepo.GetByID(in.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil {
			notAdded = append(notAdded, fmt.Sprintf("variante #%d", in.VariantID))
			continue
		}
		if variant.Stock < in.Quantity {
			notAdded = append(notAdded, variantDisplayName(variant))
			continue
		}
		cartItems = append(cartItems, buildCartItem(variant, in.Quantity, percent))
	}
	if len(cartItems) == 0 {
		return nil, ErrAllItemsUnavailable
	}

	cart := &models.Cart{
		CartNo: uuid.NewString(),
		UserID: userID,
		Status: constants.CartStatusActive,
	}
	if coupon != nil {
		cart.CouponID = &coupon.ID
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		if err := cartRepo.Create(cart); err != nil {
			return err
		}
		for i := range cartItems {
			cartItems[i].CartID = cart.ID
		}
		return cartRepo.CreateItems(cartItems)
	})
	if err != nil {
		// 并发创建时由 (user_id) WHERE status='active' 部分唯一索引兜底
		if isUniqueViolation(err) {
			return nil, ErrActiveCartExists
		}
		return nil, err
	}

	created, err := s.cartRepo.GetByID(cart.ID)
	if err != nil {
		return nil, err
	}
	logger.Infow("cart_created", "cart_id", cart.ID, "user_id", userID, "items", len(cartItems), "not_added", len(notAdded))
	return &CartResult{Cart: created, NotAdded: notAdded}, nil
}

// GetCart 获取购物车（校验归属）
func (s *CartService) GetCart(cartID, userID uint) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.UserID != userID {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// GetActiveCart 获取用户当前 active 购物车
func (s *CartService) GetActiveCart(userID uint) (*models.Cart, error) {
	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// UpdateCart 更新购物车：先删除、再改量、再新增、最后处理优惠券变更
// 仅优惠券变更时对全部既有条目重新定价
func (s *CartService) UpdateCart(cartID, userID uint, input CartUpdateInput) (*CartResult, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.UserID != userID {
		return nil, ErrCartNotFound
	}

	percent, err := s.currentCouponPercent(cart)
	if err != nil {
		return nil, err
	}

	var notAdded []string
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		if len(input.ItemsToDelete) > 0 {
			if err := cartRepo.DeleteItems(cart.ID, input.ItemsToDelete); err != nil {
				return err
			}
		}

		for _, upd := range input.ItemsToUpdate {
			item, err := cartRepo.GetItem(cart.ID, upd.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return ErrCartItemNotFound
			}
			if upd.Quantity <= 0 {
				if err := cartRepo.DeleteItems(cart.ID, []uint{item.ID}); err != nil {
					return err
				}
				continue
			}
			item.Quantity = upd.Quantity
			repriceCartItem(item, percent)
			if err := cartRepo.UpdateItem(item); err != nil {
				return err
			}
		}

		variantRepo := s.variantRepo.WithTx(tx)
		for _, add := range input.ItemsToAdd {
			if add.Quantity <= 0 {
				continue
			}
			variant, err := variantRepo.GetByID(add.VariantID)
			if err != nil {
				return err
			}
			if variant == nil {
				return ErrVariantNotFound
			}
			if variant.Stock < add.Quantity {
				notAdded = append(notAdded, variantDisplayName(variant))
				continue
			}
			item := buildCartItem(variant, add.Quantity, percent)
			item.CartID = cart.ID
			if err := cartRepo.CreateItems([]models.CartItem{item}); err != nil {
				return err
			}
		}

		if input.CouponCode != nil {
			newPercent, err := s.applyCouponChange(tx, cart, *input.CouponCode)
			if err != nil {
				return err
			}
			if err := s.repriceAllItems(tx, cart.ID, newPercent); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.cartRepo.GetByID(cart.ID)
	if err != nil {
		return nil, err
	}
	return &CartResult{Cart: updated, NotAdded: notAdded}, nil
}

// GetVerifyStockCart 校验购物车库存并给出推荐商品
// 推荐覆盖每个条目所在分类，不只取第一个条目
// 库存不足的条目以内联错误标记而不是移除
func (s *CartService) GetVerifyStockCart(cartID uint) (*VerifiedCart, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	result := &VerifiedCart{Cart: cart, Items: make([]VerifiedCartItem, 0, len(cart.Items))}
	excludeProducts := make([]uint, 0, len(cart.Items))
	for _, item := range cart.Items {
		verified := VerifiedCartItem{Item: item}
		if item.Variant == nil {
			verified.StockError = "variante no disponible"
		} else if item.Variant.Stock < item.Quantity {
			verified.StockError = fmt.Sprintf("stock insuficiente: quedan %d unidades", item.Variant.Stock)
		}
		result.Items = append(result.Items, verified)
		excludeProducts = append(excludeProducts, item.ProductID)
	}

	result.Recommendations = s.buildRecommendations(cart, excludeProducts)
	return result, nil
}

// buildRecommendations 汇总每个条目的同类商品推荐，按商品去重
func (s *CartService) buildRecommendations(cart *models.Cart, excludeProducts []uint) []models.Product {
	seen := make(map[uint]bool)
	ids := make([]uint, 0, 5)
	for _, item := range cart.Items {
		if item.Product == nil || item.Variant == nil {
			continue
		}
		variants, err := s.variantRepo.ListRecommendations(item.Product.CategoryID, item.Variant.Size, item.Variant.Color, excludeProducts, 20)
		if err != nil {
			logger.Warnw("cart_recommendations_failed", "cart_id", cart.ID, "error", err)
			continue
		}
		for _, v := range variants {
			if seen[v.ProductID] {
				continue
			}
			seen[v.ProductID] = true
			ids = append(ids, v.ProductID)
		}
	}
	if len(ids) > 5 {
		ids = ids[:5]
	}
	if len(ids) == 0 {
		return []models.Product{}
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		logger.Warnw("cart_recommendations_failed", "cart_id", cart.ID, "error", err)
		return []models.Product{}
	}
	return products
}

// RemindStaleCarts 给长时间未结账的 active 购物车用户发提醒邮件
func (s *CartService) RemindStaleCarts(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	carts, err := s.cartRepo.ListActiveOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	reminded := 0
	for _, cart := range carts {
		if cart.User == nil {
			continue
		}
		if s.queueClient != nil && s.queueClient.Enabled() {
			if err := s.queueClient.EnqueueCartReminderEmail(queue.CartReminderEmailPayload{CartID: cart.ID, UserID: cart.UserID}); err != nil {
				logger.Warnw("cart_reminder_enqueue_failed", "cart_id", cart.ID, "error", err)
				continue
			}
		} else if s.emailService != nil {
			name := ""
			if cart.User.Person != nil {
				name = cart.User.Person.Name
			}
			if err := s.emailService.SendCartReminderEmail(cart.User.Email, name); err != nil {
				logger.Warnw("cart_reminder_send_failed", "cart_id", cart.ID, "error", err)
				continue
			}
		}
		reminded++
	}
	return reminded, nil
}

// ExpireStaleCarts 将超时未结账的 active 购物车批量置为过期
func (s *CartService) ExpireStaleCarts(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	expired, err := s.cartRepo.ExpireActiveOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		logger.Infow("carts_expired", "count", expired, "cutoff", cutoff)
	}
	return expired, nil
}

// resolveCouponForUser 按券码解析优惠券，校验过期与该用户的占用状态
func (s *CartService) resolveCouponForUser(userID uint, code string) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if coupon.IsExpired(time.Now()) {
		return nil, ErrCouponExpired
	}
	if coupon.Status == constants.CouponStatusInactive {
		return nil, ErrCouponInactive
	}
	claim, err := s.userCouponRepo.GetByUserAndCoupon(userID, coupon.ID)
	if err != nil {
		return nil, err
	}
	if claim != nil && !claim.Enabled {
		return nil, ErrCouponAlreadyClaimed
	}
	return coupon, nil
}

// applyCouponChange 处理优惠券的挂载/移除，返回新的折扣百分比
func (s *CartService) applyCouponChange(tx *gorm.DB, cart *models.Cart, couponCode string) (int, error) {
	cartRepo := s.cartRepo.WithTx(tx)
	if couponCode == "" || couponCode == "null" {
		cart.CouponID = nil
		return 0, cartRepo.Update(cart)
	}
	coupon, err := s.resolveCouponForUser(cart.UserID, couponCode)
	if err != nil {
		return 0, err
	}
	cart.CouponID = &coupon.ID
	if err := cartRepo.Update(cart); err != nil {
		return 0, err
	}
	return coupon.Value, nil
}

// repriceAllItems 按给定折扣百分比重算全部条目价格
func (s *CartService) repriceAllItems(tx *gorm.DB, cartID uint, percent int) error {
	cartRepo := s.cartRepo.WithTx(tx)
	cart, err := cartRepo.GetByID(cartID)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartNotFound
	}
	for i := range cart.Items {
		item := cart.Items[i]
		repriceCartItem(&item, percent)
		if err := cartRepo.UpdateItem(&item); err != nil {
			return err
		}
	}
	return nil
}

func (s *CartService) currentCouponPercent(cart *models.Cart) (int, error) {
	if cart.CouponID == nil {
		return 0, nil
	}
	coupon, err := s.couponRepo.GetByID(*cart.CouponID)
	if err != nil {
		return 0, err
	}
	if coupon == nil {
		return 0, nil
	}
	return coupon.Value, nil
}

// buildCartItem 生成定价快照：discount = 单价 × 折扣百分比，finalPrice = 单价 − discount
func buildCartItem(variant *models.Variant, quantity, percent int) models.CartItem {
	unitPrice := models.Money{}
	if variant.Product != nil {
		unitPrice = variant.Product.EffectivePrice()
	}
	discount := unitPrice.Percent(percent)
	return models.CartItem{
		ProductID:  variant.ProductID,
		VariantID:  variant.ID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Discount:   discount,
		FinalPrice: unitPrice.SubMoney(discount),
	}
}

func repriceCartItem(item *models.CartItem, percent int) {
	unitPrice := item.UnitPrice
	if item.Product != nil {
		unitPrice = item.Product.EffectivePrice()
	}
	discount := unitPrice.Percent(percent)
	item.UnitPrice = unitPrice
	item.Discount = discount
	item.FinalPrice = unitPrice.SubMoney(discount)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func variantDisplayName(variant *models.Variant) string {
	if variant.Product != nil && variant.Product.Name != "" {
		return fmt.Sprintf("%s (%s/%s)", variant.Product.Name, variant.Size, variant.Color)
	}
	return fmt.Sprintf("variante #%d", variant.ID)
}
