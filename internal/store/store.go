package store

import (
	"context"
	"errors"

	"github.com/Zohair23/price-comparison-engine/internal/model"
)

var (
	// ErrNotFound means the requested entity does not exist. Surfaced to
	// callers as a distinct "no data" condition, not a server error.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateRecord means a price record already exists for the same
	// (product, retailer, observation time) tuple.
	ErrDuplicateRecord = errors.New("store: duplicate price record")
)

// Store is the persistence facade consumed by the aggregation controller,
// the business services and the HTTP handlers. Every write is individually
// transactional; there is deliberately no transaction spanning
// create-product + append-price.
type Store interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	// SearchProducts does a case-insensitive substring match over name and
	// description, optionally narrowed by category.
	SearchProducts(ctx context.Context, query, category string) ([]model.Product, error)

	// AppendPriceRecord inserts a new observation, deriving the discount
	// percent, and rejects duplicates with ErrDuplicateRecord.
	AppendPriceRecord(ctx context.Context, r *model.PriceRecord) error
	// PricesForProduct returns all observations for a product, newest first.
	PricesForProduct(ctx context.Context, productID uint) ([]model.PriceRecord, error)
	PriceHistory(ctx context.Context, productID uint, days int) ([]model.PriceRecord, error)

	CreateAlert(ctx context.Context, a *model.Alert) error
	ActiveAlerts(ctx context.Context) ([]model.Alert, error)
	SaveAlert(ctx context.Context, a *model.Alert) error
	DeactivateAlert(ctx context.Context, id uint) (*model.Alert, error)

	ReplaceRecommendations(ctx context.Context, productID uint, recs []model.Recommendation) error
	RecommendationsForProduct(ctx context.Context, productID uint) ([]model.Recommendation, error)
}
