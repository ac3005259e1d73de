package service

import (
	"errors"
	"testing"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newProductService(db *gorm.DB) *ProductService {
	return NewProductService(
		repository.NewProductRepository(db),
		repository.NewVariantRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewBrandRepository(db),
	)
}

func createTestCategory(t *testing.T, db *gorm.DB, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Slug: slug, Name: "Categoría " + slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func TestCreateProductNormalizesVariants(t *testing.T) {
	db := newTestDB(t)
	svc := newProductService(db)
	category := createTestCategory(t, db, "calzado")

	product, err := svc.Create(ProductInput{
		CategoryID: category.ID,
		Slug:       "zapatilla-nueva",
		Name:       "  Zapatilla Nueva  ",
		Price:      decimal.NewFromInt(1000),
		PriceList:  decimal.NewFromInt(600),
		Variants: []VariantInput{
			{Size: " m ", Color: " Azul ", Gender: "", Stock: 5},
			{Size: "l", Color: "NEGRO", Gender: "Female", Stock: 3},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if product.Name != "Zapatilla Nueva" {
		t.Fatalf("expected trimmed name, got %q", product.Name)
	}
	if len(product.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(product.Variants))
	}
	first := product.Variants[0]
	if first.Size != "M" || first.Color != "azul" || first.Gender != constants.VariantGenderUnisex {
		t.Fatalf("unexpected normalized variant: %+v", first)
	}
	second := product.Variants[1]
	if second.Size != "L" || second.Color != "negro" || second.Gender != constants.VariantGenderFemale {
		t.Fatalf("unexpected normalized variant: %+v", second)
	}
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := newProductService(db)
	category := createTestCategory(t, db, "indumentaria")

	_, err := svc.Create(ProductInput{CategoryID: category.ID, Slug: "gratis", Name: "Gratis", Price: decimal.Zero})
	if !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("expected ErrProductPriceInvalid, got: %v", err)
	}

	_, err = svc.Create(ProductInput{CategoryID: 999, Slug: "huerfano", Name: "Huérfano", Price: decimal.NewFromInt(100)})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got: %v", err)
	}

	badBrand := uint(999)
	_, err = svc.Create(ProductInput{CategoryID: category.ID, BrandID: &badBrand, Slug: "sin-marca", Name: "Sin Marca", Price: decimal.NewFromInt(100)})
	if !errors.Is(err, ErrBrandNotFound) {
		t.Fatalf("expected ErrBrandNotFound, got: %v", err)
	}

	_, err = svc.Create(ProductInput{
		CategoryID: category.ID,
		Slug:       "genero-raro",
		Name:       "Género Raro",
		Price:      decimal.NewFromInt(100),
		Variants:   []VariantInput{{Size: "M", Color: "rojo", Gender: "otra-cosa", Stock: 1}},
	})
	if !errors.Is(err, ErrVariantGenderInvalid) {
		t.Fatalf("expected ErrVariantGenderInvalid, got: %v", err)
	}

	_, err = svc.Create(ProductInput{
		CategoryID: category.ID,
		Slug:       "stock-negativo",
		Name:       "Stock Negativo",
		Price:      decimal.NewFromInt(100),
		Variants:   []VariantInput{{Size: "M", Color: "rojo", Stock: -1}},
	})
	if !errors.Is(err, ErrVariantStockInvalid) {
		t.Fatalf("expected ErrVariantStockInvalid, got: %v", err)
	}
}

func TestCreateProductRejectsDuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	svc := newProductService(db)
	category := createTestCategory(t, db, "accesorios")

	input := ProductInput{CategoryID: category.ID, Slug: "repetido", Name: "Repetido", Price: decimal.NewFromInt(100)}
	if _, err := svc.Create(input); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := svc.Create(input); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got: %v", err)
	}
}

func TestUpdateProductSyncsVariantsByID(t *testing.T) {
	db := newTestDB(t)
	svc := newProductService(db)
	category := createTestCategory(t, db, "deportes")

	product, err := svc.Create(ProductInput{
		CategoryID: category.ID,
		Slug:       "sincronizado",
		Name:       "Sincronizado",
		Price:      decimal.NewFromInt(500),
		Variants: []VariantInput{
			{Size: "40", Color: "negro", Stock: 5},
			{Size: "41", Color: "negro", Stock: 2},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	kept := product.Variants[0]
	dropped := product.Variants[1]

	updated, err := svc.Update(product.ID, ProductInput{
		CategoryID: category.ID,
		Slug:       "sincronizado",
		Name:       "Sincronizado",
		Price:      decimal.NewFromInt(500),
		Variants: []VariantInput{
			{ID: kept.ID, Size: "40", Color: "blanco", Stock: 8},
			{Size: "42", Color: "negro", Stock: 1},
		},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(updated.Variants) != 2 {
		t.Fatalf("expected 2 variants after sync, got %d", len(updated.Variants))
	}
	byID := map[uint]models.Variant{}
	for _, v := range updated.Variants {
		byID[v.ID] = v
	}
	if _, exists := byID[dropped.ID]; exists {
		t.Fatalf("variant %d should have been removed", dropped.ID)
	}
	keptAfter, exists := byID[kept.ID]
	if !exists {
		t.Fatalf("variant %d should have been kept", kept.ID)
	}
	if keptAfter.Color != "blanco" || keptAfter.Stock != 8 {
		t.Fatalf("kept variant not updated: %+v", keptAfter)
	}
}

func TestUpdateProductRejectsUnknownVariantID(t *testing.T) {
	db := newTestDB(t)
	svc := newProductService(db)
	category := createTestCategory(t, db, "urbano")

	product, err := svc.Create(ProductInput{
		CategoryID: category.ID,
		Slug:       "variante-ajena",
		Name:       "Variante Ajena",
		Price:      decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.Update(product.ID, ProductInput{
		CategoryID: category.ID,
		Slug:       "variante-ajena",
		Name:       "Variante Ajena",
		Price:      decimal.NewFromInt(500),
		Variants:   []VariantInput{{ID: 9999, Size: "40", Color: "negro", Stock: 1}},
	})
	if !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got: %v", err)
	}
}

func TestDeleteProductRemovesVariants(t *testing.T) {
	db := newTestDB(t)
	svc := newProductService(db)
	category := createTestCategory(t, db, "outlet")

	product, err := svc.Create(ProductInput{
		CategoryID: category.ID,
		Slug:       "liquidado",
		Name:       "Liquidado",
		Price:      decimal.NewFromInt(300),
		Variants:   []VariantInput{{Size: "38", Color: "rojo", Stock: 2}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(product.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.GetByID(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got: %v", err)
	}
	var count int64
	if err := db.Model(&models.Variant{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count variants failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected variants removed, got %d", count)
	}
}

func TestGetPublicBySlugHidesInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newProductService(db)
	category := createTestCategory(t, db, "archivo")

	inactive := false
	if _, err := svc.Create(ProductInput{
		CategoryID: category.ID,
		Slug:       "descatalogado",
		Name:       "Descatalogado",
		Price:      decimal.NewFromInt(100),
		IsActive:   &inactive,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.GetPublicBySlug("descatalogado"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for inactive product, got: %v", err)
	}
}
