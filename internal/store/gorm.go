package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Zohair23/price-comparison-engine/internal/model"
	"github.com/Zohair23/price-comparison-engine/prometheus"
)

// GormStore implements the Store facade on top of gorm/postgres
type GormStore struct {
	db *gorm.DB
}

// New creates a gorm-backed store
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateProduct(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("create_product")(time.Now())
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	defer prometheus.TrackDBOperation("get_product")(time.Now())

	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *GormStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("list_products")(time.Now())

	var products []model.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) CountProducts(ctx context.Context) (int64, error) {
	defer prometheus.TrackDBOperation("count_products")(time.Now())

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *GormStore) SearchProducts(ctx context.Context, query, category string) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("search_products")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.Product{})
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if category != "" {
		q = q.Where("category ILIKE ?", "%"+category+"%")
	}

	var products []model.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) AppendPriceRecord(ctx context.Context, r *model.PriceRecord) error {
	defer prometheus.TrackDBOperation("append_price_record")(time.Now())

	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now().UTC()
	}
	if r.Stock == "" {
		r.Stock = model.StockStatusInStock
	}
	r.DiscountPercent = model.ComputeDiscountPercent(r.Price, r.OriginalPrice)

	// Check for an existing observation at the same instant so callers get
	// a typed error instead of a driver-level unique violation. The unique
	// index still backstops concurrent inserts.
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PriceRecord{}).
		Where("product_id = ? AND retailer = ? AND observed_at = ?", r.ProductID, r.Retailer, r.ObservedAt).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateRecord
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (s *GormStore) PricesForProduct(ctx context.Context, productID uint) ([]model.PriceRecord, error) {
	defer prometheus.TrackDBOperation("prices_for_product")(time.Now())

	var records []model.PriceRecord
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("observed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) PriceHistory(ctx context.Context, productID uint, days int) ([]model.PriceRecord, error) {
	defer prometheus.TrackDBOperation("price_history")(time.Now())

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var records []model.PriceRecord
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND observed_at >= ?", productID, cutoff).
		Order("observed_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) CreateAlert(ctx context.Context, a *model.Alert) error {
	defer prometheus.TrackDBOperation("create_alert")(time.Now())
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *GormStore) ActiveAlerts(ctx context.Context) ([]model.Alert, error) {
	defer prometheus.TrackDBOperation("active_alerts")(time.Now())

	var alerts []model.Alert
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *GormStore) SaveAlert(ctx context.Context, a *model.Alert) error {
	defer prometheus.TrackDBOperation("save_alert")(time.Now())
	return s.db.WithContext(ctx).Save(a).Error
}

func (s *GormStore) DeactivateAlert(ctx context.Context, id uint) (*model.Alert, error) {
	defer prometheus.TrackDBOperation("deactivate_alert")(time.Now())

	var alert model.Alert
	if err := s.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	alert.IsActive = false
	if err := s.db.WithContext(ctx).Save(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *GormStore) ReplaceRecommendations(ctx context.Context, productID uint, recs []model.Recommendation) error {
	defer prometheus.TrackDBOperation("replace_recommendations")(time.Now())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&model.Recommendation{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.Create(&recs).Error
	})
}

func (s *GormStore) RecommendationsForProduct(ctx context.Context, productID uint) ([]model.Recommendation, error) {
	defer prometheus.TrackDBOperation("recommendations_for_product")(time.Now())

	var recs []model.Recommendation
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("score DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
