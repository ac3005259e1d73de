package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var testDBSeq int64

// newTestDB 打开独立的内存库并替换全局连接（服务层事务依赖 models.DB）
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Person{},
		&models.Address{},
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Variant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.ShippingInfo{},
		&models.Payment{},
		&models.Coupon{},
		&models.UserCoupon{},
		&models.WebhookEvent{},
	)
	if err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, points int64) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         "client",
		Points:       points,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestAddress(t *testing.T, db *gorm.DB, userID uint, postalCode string) *models.Address {
	t.Helper()
	address := &models.Address{
		UserID:     userID,
		Street:     "Av. Corrientes 1234",
		City:       "Buenos Aires",
		Province:   "CABA",
		PostalCode: postalCode,
	}
	if err := db.Create(address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	return address
}

// createTestVariant 造一条带分类/商品的规格，返回时已预载 Product
func createTestVariant(t *testing.T, db *gorm.DB, slug string, price, priceList int64, stock int) *models.Variant {
	t.Helper()
	category := &models.Category{Slug: slug + "-cat", Name: "Categoría " + slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := &models.Product{
		CategoryID: category.ID,
		Slug:       slug,
		Name:       "Producto " + slug,
		Price:      models.NewMoneyFromInt(price),
		PriceList:  models.NewMoneyFromInt(priceList),
		IsActive:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.Variant{
		ProductID: product.ID,
		Size:      "42",
		Color:     "negro",
		Gender:    constants.VariantGenderUnisex,
		Stock:     stock,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	variant.Product = product
	return variant
}

func createTestCoupon(t *testing.T, db *gorm.DB, coupon models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.Status == "" {
		coupon.Status = constants.CouponStatusActive
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &coupon
}

func variantStock(t *testing.T, db *gorm.DB, variantID uint) int {
	t.Helper()
	var variant models.Variant
	if err := db.First(&variant, variantID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	return variant.Stock
}

func userPoints(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	return user.Points
}

func moneyEquals(m models.Money, amount string) bool {
	return m.Decimal.Equal(decimal.RequireFromString(amount))
}
