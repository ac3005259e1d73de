package main

import (
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 分类（顶级 + 子级）
	categories := []models.Category{
		{Slug: "calzado", Name: "Calzado", SortOrder: 1},
		{Slug: "indumentaria", Name: "Indumentaria", SortOrder: 2},
		{Slug: "accesorios", Name: "Accesorios", SortOrder: 3},
	}
	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"calzado", "indumentaria", "accesorios"}).Find(&categoryList).Error; err != nil {
		stdLog.Fatalf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	// 子分类
	if parentID, ok := categoryIDs["calzado"]; ok {
		children := []models.Category{
			{Slug: "zapatillas-running", Name: "Zapatillas Running", ParentID: &parentID, SortOrder: 1},
			{Slug: "zapatillas-urbanas", Name: "Zapatillas Urbanas", ParentID: &parentID, SortOrder: 2},
		}
		for _, child := range children {
			var existing models.Category
			if err := models.DB.Where("slug = ?", child.Slug).First(&existing).Error; err != nil {
				if err := models.DB.Create(&child).Error; err != nil {
					stdLog.Printf("Failed to create category %s: %v", child.Slug, err)
				} else {
					stdLog.Printf("Created category: %s", child.Slug)
				}
			}
		}
	}

	// 品牌
	brands := []models.Brand{
		{Slug: "nike", Name: "Nike"},
		{Slug: "adidas", Name: "Adidas"},
		{Slug: "topper", Name: "Topper"},
	}
	brandIDs := map[string]uint{}
	for _, brand := range brands {
		var existing models.Brand
		if err := models.DB.Where("slug = ?", brand.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&brand).Error; err != nil {
				stdLog.Printf("Failed to create brand %s: %v", brand.Slug, err)
				continue
			}
			brandIDs[brand.Slug] = brand.ID
			stdLog.Printf("Created brand: %s", brand.Slug)
		} else {
			brandIDs[brand.Slug] = existing.ID
			stdLog.Printf("Brand already exists: %s", brand.Slug)
		}
	}

	// 商品与规格
	type seedProduct struct {
		product  models.Product
		variants []models.Variant
	}
	nikeID := brandIDs["nike"]
	adidasID := brandIDs["adidas"]
	products := []seedProduct{
		{
			product: models.Product{
				CategoryID:  categoryIDs["calzado"],
				BrandID:     &nikeID,
				Slug:        "zapatillas-pegasus-41",
				Name:        "Zapatillas Pegasus 41",
				Description: "Zapatillas de running con amortiguación reactiva.",
				Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(95000)),
				PriceList:   models.NewMoneyFromDecimal(decimal.NewFromInt(62000)),
				IsActive:    true,
				HasDelivery: true,
				SortOrder:   1,
			},
			variants: []models.Variant{
				{Size: "40", Color: "negro", Gender: constants.VariantGenderMale, Stock: 12},
				{Size: "41", Color: "negro", Gender: constants.VariantGenderMale, Stock: 8},
				{Size: "38", Color: "blanco", Gender: constants.VariantGenderFemale, Stock: 10},
			},
		},
		{
			product: models.Product{
				CategoryID:  categoryIDs["indumentaria"],
				BrandID:     &adidasID,
				Slug:        "remera-entrenamiento-aeroready",
				Name:        "Remera Entrenamiento Aeroready",
				Description: "Remera liviana de secado rápido.",
				Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(28000)),
				PriceList:   models.NewMoneyFromDecimal(decimal.NewFromInt(15000)),
				IsActive:    true,
				HasDelivery: true,
				SortOrder:   2,
			},
			variants: []models.Variant{
				{Size: "M", Color: "azul", Gender: constants.VariantGenderUnisex, Stock: 25},
				{Size: "L", Color: "azul", Gender: constants.VariantGenderUnisex, Stock: 20},
			},
		},
		{
			product: models.Product{
				CategoryID:  categoryIDs["accesorios"],
				Slug:        "servicio-personalizacion-camiseta",
				Name:        "Personalización de Camiseta",
				Description: "Estampado de nombre y número.",
				Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(9000)),
				PriceList:   models.NewMoneyFromDecimal(decimal.NewFromInt(3000)),
				IsActive:    true,
				IsService:   true,
				HasDelivery: false,
				SortOrder:   3,
			},
		},
	}

	for _, entry := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", entry.product.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", entry.product.Slug)
			continue
		}
		product := entry.product
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			continue
		}
		for _, variant := range entry.variants {
			variant.ProductID = product.ID
			if err := models.DB.Create(&variant).Error; err != nil {
				stdLog.Printf("Failed to create variant %s/%s: %v", product.Slug, variant.Size, err)
			}
		}
		stdLog.Printf("Created product: %s", product.Slug)
	}

	// 优惠券（促销模板券 + 积分兑换模板券）
	expiresAt := time.Now().AddDate(0, 3, 0)
	coupons := []models.Coupon{
		{
			Code:        "BIENVENIDA10",
			Description: "10% de descuento de bienvenida",
			Value:       10,
			Type:        constants.CouponTypePromotion,
			Status:      constants.CouponStatusActive,
			ExpiresAt:   &expiresAt,
		},
		{
			Code:        "PUNTOS15",
			Description: "15% de descuento canjeable por puntos",
			Value:       15,
			Price:       500,
			Type:        constants.CouponTypeExchangePoint,
			Status:      constants.CouponStatusActive,
			ExpiresAt:   &expiresAt,
		},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err == nil {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
			continue
		}
		if err := models.DB.Create(&coupon).Error; err != nil {
			stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			continue
		}
		stdLog.Printf("Created coupon: %s", coupon.Code)
	}

	// 演示客户账号
	var existingUser models.User
	if err := models.DB.Where("email = ?", "cliente@demo.test").First(&existingUser).Error; err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte("cliente123"), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Fatalf("Failed to hash demo password: %v", err)
		}
		user := models.User{
			Email:        "cliente@demo.test",
			PasswordHash: string(hash),
			Role:         constants.RoleClient,
			Points:       200,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create demo client: %v", err)
		} else {
			person := models.Person{UserID: user.ID, Name: "Carla", LastName: "Demo", Phone: "+54 11 5555-0000"}
			address := models.Address{UserID: user.ID, Street: "Av. Corrientes 1234", City: "Buenos Aires", Province: "CABA", PostalCode: "C1043AAZ"}
			if err := models.DB.Create(&person).Error; err != nil {
				stdLog.Printf("Failed to create demo person: %v", err)
			}
			if err := models.DB.Create(&address).Error; err != nil {
				stdLog.Printf("Failed to create demo address: %v", err)
			}
			stdLog.Printf("Created demo client: %s", user.Email)
		}
	} else {
		stdLog.Printf("Demo client already exists: %s", existingUser.Email)
	}

	stdLog.Printf("Seed finished")
}
