package aggregator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/model"
	"github.com/Zohair23/price-comparison-engine/internal/source"
	"github.com/Zohair23/price-comparison-engine/internal/store"
	"github.com/Zohair23/price-comparison-engine/prometheus"
)

// ErrQueryTooShort is returned before any vendor or storage work when the
// caller's query is under the minimum length
var ErrQueryTooShort = errors.New("aggregator: search query too short")

const (
	// minQueryLen is the minimum accepted search query length
	minQueryLen = 2
	// minWarmCatalog is how many stored products make the catalog "warm":
	// at or above it, Trending never calls a vendor.
	minWarmCatalog = 3

	trendingPerCategory = 2
	searchLimit         = 5
	compareLimit        = 3
)

// categorySeeds are the fixed terms Trending fetches when the catalog is cold
var categorySeeds = []string{
	"phones", "laptops", "headphones", "tablets",
	"smartwatch", "camera", "monitor", "gaming console",
}

// Listing is one retailer hit in a price comparison
type Listing struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
	Image string  `json:"image"`
}

// ComparisonResult groups comparison listings per retailer for one query
type ComparisonResult struct {
	Query     string               `json:"query"`
	Retailers map[string][]Listing `json:"retailers"`
}

// Controller decides, per request, whether stored data answers the query or
// an external call is required, and keeps metered sources behind an explicit
// opt-in. Vendor failures degrade to whatever subset succeeded; callers see
// empty results, never a hard failure.
type Controller struct {
	store   store.Store
	primary source.Adapter
	metered []source.Adapter
	log     *zap.Logger
}

// New creates the aggregation controller
func New(st store.Store, primary source.Adapter, metered []source.Adapter, log *zap.Logger) *Controller {
	return &Controller{
		store:   st,
		primary: primary,
		metered: metered,
		log:     log,
	}
}

// Trending returns the stored catalog when it is warm; otherwise it fetches
// a small batch per category seed from the primary source, persists what
// normalizes cleanly, and returns the newly created products. Called twice
// on a warm catalog it issues zero vendor calls.
func (c *Controller) Trending(ctx context.Context) ([]model.Product, error) {
	existing, err := c.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) >= minWarmCatalog {
		return existing, nil
	}

	c.log.Info("Catalog cold, fetching trending categories",
		zap.String("source", string(c.primary.ID())),
		zap.Int("categories", len(categorySeeds)))

	var saved []model.Product
	for _, category := range categorySeeds {
		items, err := c.primary.Search(ctx, category, trendingPerCategory)
		if err != nil {
			// Primary adapter degrades internally; anything surfaced here
			// still only costs this category.
			continue
		}
		for _, item := range items {
			if product := c.persistItem(ctx, item); product != nil {
				saved = append(saved, *product)
			}
		}
	}

	if len(saved) == 0 {
		return existing, nil
	}
	return saved, nil
}

// Search answers from local data first and only falls through to the
// primary source on an empty local result. Never calling a vendor when
// local data already answers the query is the central cost-control rule.
func (c *Controller) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return nil, ErrQueryTooShort
	}

	local, err := c.store.SearchProducts(ctx, query, "")
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return local, nil
	}

	c.log.Info("No local matches, querying primary source",
		zap.String("source", string(c.primary.ID())),
		zap.String("query", query))

	items, err := c.primary.Search(ctx, query, searchLimit)
	if err != nil {
		return []model.Product{}, nil
	}

	saved := make([]model.Product, 0, len(items))
	for _, item := range items {
		if product := c.persistItem(ctx, item); product != nil {
			saved = append(saved, *product)
		}
	}
	return saved, nil
}

// ComparePrices assembles per-retailer listings for a query. The primary
// source is always consulted; metered sources are contacted only when the
// caller explicitly opts in and a key is configured. includeMetered is the
// call-budget gate and is never defaulted on.
func (c *Controller) ComparePrices(ctx context.Context, query string, includeMetered bool) (*ComparisonResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return nil, ErrQueryTooShort
	}

	result := &ComparisonResult{
		Query:     query,
		Retailers: make(map[string][]Listing),
	}

	items, err := c.primary.Search(ctx, query, compareLimit)
	if err == nil {
		c.collect(result, items)
	}

	if includeMetered {
		for _, adapter := range c.metered {
			if !adapter.Enabled() {
				c.log.Info("Metered source disabled, skipping",
					zap.String("source", string(adapter.ID())))
				continue
			}
			start := time.Now()
			items, err := adapter.Search(ctx, query, compareLimit)
			if err != nil {
				c.log.Warn("Metered source failed",
					zap.String("source", string(adapter.ID())),
					zap.Duration("latency", time.Since(start)),
					zap.Error(err))
				continue
			}
			c.collect(result, items)
		}
	}

	return result, nil
}

func (c *Controller) collect(result *ComparisonResult, items []source.Item) {
	for _, item := range items {
		price, err := source.ParsePrice(item.Price)
		if err != nil || price <= 0 {
			continue
		}
		retailer := item.Source.Retailer()
		result.Retailers[retailer] = append(result.Retailers[retailer], Listing{
			Title: truncateRunes(item.Title, 100),
			Price: price,
			URL:   item.URL,
			Image: item.ImageURL,
		})
	}
}

// persistItem normalizes one vendor item and writes the product and its
// first price observation. Rejected or unsaveable items are logged and
// skipped, never fatal to the batch. Duplicate titles intentionally create
// new products: the same physical item may legitimately appear across
// searches, and no title-based dedup is attempted.
func (c *Controller) persistItem(ctx context.Context, item source.Item) *model.Product {
	draft, record, err := source.Normalize(item)
	if err != nil {
		c.log.Debug("Item rejected by normalizer",
			zap.String("source", string(item.Source)),
			zap.Error(err))
		prometheus.RecordIngestedItem(string(item.Source), "rejected")
		return nil
	}

	product := &model.Product{
		Name:        draft.Name,
		Description: draft.Description,
		Category:    draft.Category,
		Brand:       draft.Brand,
		ImageURL:    draft.ImageURL,
		Tags:        draft.Tags,
		Rating:      draft.Rating,
	}
	if err := c.store.CreateProduct(ctx, product); err != nil {
		c.log.Warn("Failed to save product",
			zap.String("source", string(item.Source)),
			zap.String("name", product.Name),
			zap.Error(err))
		prometheus.RecordIngestedItem(string(item.Source), "store_error")
		return nil
	}

	priceRecord := &model.PriceRecord{
		ProductID:     product.ID,
		Retailer:      record.Retailer,
		Price:         record.Price,
		OriginalPrice: record.OriginalPrice,
		URL:           record.URL,
		Stock:         record.Stock,
		Rating:        record.Rating,
		ReviewCount:   record.ReviewCount,
	}
	if err := c.store.AppendPriceRecord(ctx, priceRecord); err != nil {
		// The product row stays; a crash or failure between the two writes
		// leaving an orphaned product is an accepted mode.
		c.log.Warn("Failed to save price record",
			zap.String("source", string(item.Source)),
			zap.Uint("product_id", product.ID),
			zap.Error(err))
		prometheus.RecordIngestedItem(string(item.Source), "store_error")
		return product
	}

	prometheus.RecordIngestedItem(string(item.Source), "saved")
	return product
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
