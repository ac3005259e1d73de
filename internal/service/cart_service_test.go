package service

import (
	"errors"
	"testing"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"gorm.io/gorm"
)

func newCartService(db *gorm.DB) *CartService {
	return NewCartService(
		repository.NewCartRepository(db),
		repository.NewVariantRepository(db),
		repository.NewProductRepository(db),
		repository.NewCouponRepository(db),
		repository.NewUserCouponRepository(db),
		nil,
		nil,
	)
}

func TestCreateCartSkipsOutOfStockItems(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart1@test.com", 0)
	inStock := createTestVariant(t, db, "zapatilla-a", 1000, 600, 5)
	outOfStock := createTestVariant(t, db, "zapatilla-b", 2000, 1200, 0)

	result, err := svc.CreateCart(user.ID, []CartItemAdd{
		{VariantID: inStock.ID, Quantity: 2},
		{VariantID: outOfStock.ID, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}
	if len(result.Cart.Items) != 1 {
		t.Fatalf("expected 1 cart item, got %d", len(result.Cart.Items))
	}
	if len(result.NotAdded) != 1 {
		t.Fatalf("expected 1 not-added entry, got %d", len(result.NotAdded))
	}
	item := result.Cart.Items[0]
	if item.VariantID != inStock.ID || item.Quantity != 2 {
		t.Fatalf("unexpected item: variant=%d quantity=%d", item.VariantID, item.Quantity)
	}
	if !moneyEquals(item.FinalPrice, "1000") {
		t.Fatalf("expected final price 1000.00, got %s", item.FinalPrice.String())
	}
	if result.Cart.Status != constants.CartStatusActive {
		t.Fatalf("expected active cart, got %s", result.Cart.Status)
	}
	if result.Cart.CartNo == "" {
		t.Fatalf("cart number should not be empty")
	}
}

func TestCreateCartRejectsSecondActiveCart(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart2@test.com", 0)
	variant := createTestVariant(t, db, "remera-a", 500, 300, 10)

	if _, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 1}}, ""); err != nil {
		t.Fatalf("first CreateCart failed: %v", err)
	}
	_, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 1}}, "")
	if !errors.Is(err, ErrActiveCartExists) {
		t.Fatalf("expected ErrActiveCartExists, got: %v", err)
	}
}

func TestCreateCartAllItemsUnavailable(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart3@test.com", 0)
	variant := createTestVariant(t, db, "gorra-a", 800, 400, 1)

	_, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 3}}, "")
	if !errors.Is(err, ErrAllItemsUnavailable) {
		t.Fatalf("expected ErrAllItemsUnavailable, got: %v", err)
	}
}

func TestCreateCartWithCouponAppliesDiscount(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart4@test.com", 0)
	variant := createTestVariant(t, db, "campera-a", 1000, 500, 5)
	coupon := createTestCoupon(t, db, models.Coupon{
		Code:  "PROMO10",
		Value: 10,
		Type:  constants.CouponTypePromotion,
	})

	result, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 1}}, "PROMO10")
	if err != nil {
		t.Fatalf("CreateCart with coupon failed: %v", err)
	}
	if result.Cart.CouponID == nil || *result.Cart.CouponID != coupon.ID {
		t.Fatalf("expected coupon %d applied to cart", coupon.ID)
	}
	item := result.Cart.Items[0]
	if !moneyEquals(item.Discount, "100") {
		t.Fatalf("expected discount 100.00, got %s", item.Discount.String())
	}
	if !moneyEquals(item.FinalPrice, "900") {
		t.Fatalf("expected final price 900.00, got %s", item.FinalPrice.String())
	}
}

func TestCreateCartRejectsExpiredCoupon(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart5@test.com", 0)
	variant := createTestVariant(t, db, "short-a", 700, 300, 5)
	expired := time.Now().Add(-time.Hour)
	createTestCoupon(t, db, models.Coupon{
		Code:      "VENCIDO",
		Value:     10,
		Type:      constants.CouponTypePromotion,
		ExpiresAt: &expired,
	})

	_, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 1}}, "VENCIDO")
	if !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got: %v", err)
	}
}

func TestUpdateCartCouponChangeReprices(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart6@test.com", 0)
	variant := createTestVariant(t, db, "buzo-a", 2000, 900, 5)
	createTestCoupon(t, db, models.Coupon{
		Code:  "PROMO25",
		Value: 25,
		Type:  constants.CouponTypePromotion,
	})

	created, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 1}}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}

	code := "PROMO25"
	updated, err := svc.UpdateCart(created.Cart.ID, user.ID, CartUpdateInput{CouponCode: &code})
	if err != nil {
		t.Fatalf("UpdateCart apply coupon failed: %v", err)
	}
	if !moneyEquals(updated.Cart.Items[0].FinalPrice, "1500") {
		t.Fatalf("expected final price 1500.00, got %s", updated.Cart.Items[0].FinalPrice.String())
	}

	removal := "null"
	updated, err = svc.UpdateCart(created.Cart.ID, user.ID, CartUpdateInput{CouponCode: &removal})
	if err != nil {
		t.Fatalf("UpdateCart remove coupon failed: %v", err)
	}
	if updated.Cart.CouponID != nil {
		t.Fatalf("expected coupon removed from cart")
	}
	if !moneyEquals(updated.Cart.Items[0].FinalPrice, "2000") {
		t.Fatalf("expected final price 2000.00 after removal, got %s", updated.Cart.Items[0].FinalPrice.String())
	}
}

func TestUpdateCartQuantityAndDeletion(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart7@test.com", 0)
	first := createTestVariant(t, db, "media-a", 300, 100, 10)
	second := createTestVariant(t, db, "media-b", 400, 150, 10)

	created, err := svc.CreateCart(user.ID, []CartItemAdd{
		{VariantID: first.ID, Quantity: 1},
		{VariantID: second.ID, Quantity: 2},
	}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}

	updated, err := svc.UpdateCart(created.Cart.ID, user.ID, CartUpdateInput{
		ItemsToUpdate: []CartItemQuantityUpdate{{ItemID: created.Cart.Items[0].ID, Quantity: 3}},
		ItemsToDelete: []uint{created.Cart.Items[1].ID},
	})
	if err != nil {
		t.Fatalf("UpdateCart failed: %v", err)
	}
	if len(updated.Cart.Items) != 1 {
		t.Fatalf("expected 1 item after deletion, got %d", len(updated.Cart.Items))
	}
	if updated.Cart.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", updated.Cart.Items[0].Quantity)
	}
}

func TestUpdateCartRejectsForeignCart(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	owner := createTestUser(t, db, "cart8@test.com", 0)
	intruder := createTestUser(t, db, "cart9@test.com", 0)
	variant := createTestVariant(t, db, "bermuda-a", 900, 500, 5)

	created, err := svc.CreateCart(owner.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 1}}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}
	_, err = svc.UpdateCart(created.Cart.ID, intruder.ID, CartUpdateInput{})
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got: %v", err)
	}
}

func TestGetVerifyStockCartFlagsInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart10@test.com", 0)
	variant := createTestVariant(t, db, "pantalon-a", 1200, 700, 5)

	created, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 3}}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}
	if err := db.Model(&models.Variant{}).Where("id = ?", variant.ID).Update("stock", 1).Error; err != nil {
		t.Fatalf("reduce stock failed: %v", err)
	}

	verified, err := svc.GetVerifyStockCart(created.Cart.ID)
	if err != nil {
		t.Fatalf("GetVerifyStockCart failed: %v", err)
	}
	if len(verified.Items) != 1 {
		t.Fatalf("expected 1 verified item, got %d", len(verified.Items))
	}
	if verified.Items[0].StockError == "" {
		t.Fatalf("expected stock error on verified item")
	}
}

// createCategoryProduct 在指定分类下造一个带单规格的商品
func createCategoryProduct(t *testing.T, db *gorm.DB, categoryID uint, slug, size, color string) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID: categoryID,
		Slug:       slug,
		Name:       "Producto " + slug,
		Price:      models.NewMoneyFromInt(1000),
		PriceList:  models.NewMoneyFromInt(500),
		IsActive:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.Variant{
		ProductID: product.ID,
		Size:      size,
		Color:     color,
		Gender:    constants.VariantGenderUnisex,
		Stock:     5,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return product
}

func TestGetVerifyStockCartMergesRecommendationsAcrossItems(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart13@test.com", 0)
	itemA := createTestVariant(t, db, "reco-item-a", 1000, 600, 5)
	itemB := createTestVariant(t, db, "reco-item-b", 2000, 1200, 5)
	// mismo talle que el item A, misma categoría
	recA := createCategoryProduct(t, db, itemA.Product.CategoryID, "reco-sugerido-a", "42", "blanco")
	// mismo color que el item B, misma categoría
	recB := createCategoryProduct(t, db, itemB.Product.CategoryID, "reco-sugerido-b", "38", "negro")

	created, err := svc.CreateCart(user.ID, []CartItemAdd{
		{VariantID: itemA.ID, Quantity: 1},
		{VariantID: itemB.ID, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}

	verified, err := svc.GetVerifyStockCart(created.Cart.ID)
	if err != nil {
		t.Fatalf("GetVerifyStockCart failed: %v", err)
	}
	found := map[uint]bool{}
	for _, product := range verified.Recommendations {
		if product.ID == itemA.ProductID || product.ID == itemB.ProductID {
			t.Fatalf("recommendations must exclude cart products, got %s", product.Slug)
		}
		found[product.ID] = true
	}
	if !found[recA.ID] {
		t.Fatalf("expected recommendation from the first item's category")
	}
	if !found[recB.ID] {
		t.Fatalf("expected recommendation from the second item's category")
	}
}

func TestCreateCartSkipsUnknownVariant(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart14@test.com", 0)
	variant := createTestVariant(t, db, "musculosa-a", 600, 300, 5)

	result, err := svc.CreateCart(user.ID, []CartItemAdd{
		{VariantID: variant.ID, Quantity: 1},
		{VariantID: 9999, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}
	if len(result.Cart.Items) != 1 {
		t.Fatalf("expected 1 cart item, got %d", len(result.Cart.Items))
	}
	if len(result.NotAdded) != 1 || result.NotAdded[0] != "variante #9999" {
		t.Fatalf("expected not-added entry for the unknown variant, got %v", result.NotAdded)
	}
}

func TestActiveCartUniqueIndexBlocksDuplicates(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "cart15@test.com", 0)

	first := &models.Cart{CartNo: "cart-no-idx-1", UserID: user.ID, Status: constants.CartStatusActive}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("create first active cart failed: %v", err)
	}
	second := &models.Cart{CartNo: "cart-no-idx-2", UserID: user.ID, Status: constants.CartStatusActive}
	err := db.Create(second).Error
	if err == nil {
		t.Fatalf("expected unique violation for a second active cart")
	}
	if !isUniqueViolation(err) {
		t.Fatalf("expected a unique violation, got: %v", err)
	}
	// otros estados no entran en el índice parcial
	ordered := &models.Cart{CartNo: "cart-no-idx-3", UserID: user.ID, Status: constants.CartStatusOrdered}
	if err := db.Create(ordered).Error; err != nil {
		t.Fatalf("non-active cart should not collide: %v", err)
	}
}

func TestExpireStaleCarts(t *testing.T) {
	db := newTestDB(t)
	svc := newCartService(db)
	user := createTestUser(t, db, "cart11@test.com", 0)
	variant := createTestVariant(t, db, "chomba-a", 1500, 800, 5)

	created, err := svc.CreateCart(user.ID, []CartItemAdd{{VariantID: variant.ID, Quantity: 1}}, "")
	if err != nil {
		t.Fatalf("CreateCart failed: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := db.Model(&models.Cart{}).Where("id = ?", created.Cart.ID).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate cart failed: %v", err)
	}

	expired, err := svc.ExpireStaleCarts(24 * time.Hour)
	if err != nil {
		t.Fatalf("ExpireStaleCarts failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired cart, got %d", expired)
	}
	var cart models.Cart
	if err := db.First(&cart, created.Cart.ID).Error; err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if cart.Status != constants.CartStatusExpired {
		t.Fatalf("expected expired status, got %s", cart.Status)
	}
}
