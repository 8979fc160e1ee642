package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Zohair23/price-comparison-engine/internal/model"
)

func setupTestStore(t *testing.T) *GormStore {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable",
		host, port.Port())

	db, err := gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.PriceRecord{},
		&model.Alert{},
		&model.Recommendation{},
	))

	return New(db)
}

func TestAppendPriceRecordRejectsDuplicateTuple(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	st := setupTestStore(t)
	ctx := context.Background()

	product := &model.Product{Name: "Monitor", Category: "eBay"}
	require.NoError(t, st.CreateProduct(ctx, product))

	observed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first := &model.PriceRecord{
		ProductID:  product.ID,
		Retailer:   "eBay",
		Price:      199.99,
		ObservedAt: observed,
	}
	require.NoError(t, st.AppendPriceRecord(ctx, first))

	// Identical (product, retailer, timestamp): rejected.
	dup := &model.PriceRecord{
		ProductID:  product.ID,
		Retailer:   "eBay",
		Price:      189.99,
		ObservedAt: observed,
	}
	err := st.AppendPriceRecord(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	// Same retailer at a different timestamp: both records persist.
	later := &model.PriceRecord{
		ProductID:  product.ID,
		Retailer:   "eBay",
		Price:      189.99,
		ObservedAt: observed.Add(time.Hour),
	}
	require.NoError(t, st.AppendPriceRecord(ctx, later))

	records, err := st.PricesForProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestAppendPriceRecordDerivesDiscount(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	st := setupTestStore(t)
	ctx := context.Background()

	product := &model.Product{Name: "Monitor", Category: "eBay"}
	require.NoError(t, st.CreateProduct(ctx, product))

	original := 120.0
	record := &model.PriceRecord{
		ProductID:     product.ID,
		Retailer:      "eBay",
		Price:         90,
		OriginalPrice: &original,
	}
	require.NoError(t, st.AppendPriceRecord(ctx, record))
	assert.InDelta(t, 25.0, record.DiscountPercent, 0.0001)

	noOriginal := &model.PriceRecord{
		ProductID: product.ID,
		Retailer:  "Amazon",
		Price:     90,
	}
	require.NoError(t, st.AppendPriceRecord(ctx, noOriginal))
	assert.Equal(t, 0.0, noOriginal.DiscountPercent)
	assert.Equal(t, model.StockStatusInStock, noOriginal.Stock)
	assert.False(t, noOriginal.ObservedAt.IsZero())
}

func TestGetProductNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	st := setupTestStore(t)

	_, err := st.GetProduct(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchProductsSubstringCaseInsensitive(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	st := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateProduct(ctx, &model.Product{
		Name: "Sony WH-1000XM5", Description: "Wireless headphones", Category: "eBay",
	}))
	require.NoError(t, st.CreateProduct(ctx, &model.Product{
		Name: "USB-C Cable", Description: "Charging cable", Category: "eBay",
	}))

	byName, err := st.SearchProducts(ctx, "sony", "")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	byDescription, err := st.SearchProducts(ctx, "HEADPHONES", "")
	require.NoError(t, err)
	assert.Len(t, byDescription, 1)

	none, err := st.SearchProducts(ctx, "toaster", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReplaceRecommendations(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	st := setupTestStore(t)
	ctx := context.Background()

	base := &model.Product{Name: "Base", Category: "laptops"}
	other := &model.Product{Name: "Other", Category: "laptops"}
	require.NoError(t, st.CreateProduct(ctx, base))
	require.NoError(t, st.CreateProduct(ctx, other))

	first := []model.Recommendation{
		{ProductID: base.ID, RecommendedProductID: other.ID, Type: model.RecommendationSimilar, Score: 0.9},
	}
	require.NoError(t, st.ReplaceRecommendations(ctx, base.ID, first))

	second := []model.Recommendation{
		{ProductID: base.ID, RecommendedProductID: other.ID, Type: model.RecommendationRelated, Score: 0.6},
	}
	require.NoError(t, st.ReplaceRecommendations(ctx, base.ID, second))

	stored, err := st.RecommendationsForProduct(ctx, base.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.RecommendationRelated, stored[0].Type)
}
