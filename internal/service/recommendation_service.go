package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/model"
	"github.com/Zohair23/price-comparison-engine/internal/store"
)

// Price band around the source product's average latest price inside which
// a same-category product counts as "similar" rather than just "related".
const (
	priceBandLow  = 0.7
	priceBandHigh = 1.3

	similarScore = 0.9
	relatedScore = 0.6
)

// RecommendedProduct is one stored recommendation joined with its product
type RecommendedProduct struct {
	ID      uint          `json:"id"`
	Product model.Product `json:"product"`
	Type    string        `json:"type"`
	Score   float64       `json:"score"`
}

// RecommendationService scores same-category products by price similarity
type RecommendationService struct {
	store store.Store
	log   *zap.Logger
}

// NewRecommendationService creates the recommendation service
func NewRecommendationService(st store.Store, log *zap.Logger) *RecommendationService {
	return &RecommendationService{store: st, log: log}
}

// Generate rebuilds recommendations for a product: same-category products
// whose average latest price falls inside the price band score as similar,
// the rest as related. Previously stored recommendations are replaced.
func (s *RecommendationService) Generate(ctx context.Context, productID uint, limit int) ([]model.Recommendation, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	avgPrice, ok, err := s.averageLatestPrice(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// No price data means no basis for scoring.
		return []model.Recommendation{}, nil
	}

	candidates, err := s.store.SearchProducts(ctx, "", product.Category)
	if err != nil {
		return nil, err
	}

	var recs []model.Recommendation
	for _, candidate := range candidates {
		if candidate.ID == productID {
			continue
		}
		if limit > 0 && len(recs) >= limit {
			break
		}

		candidateAvg, ok, err := s.averageLatestPrice(ctx, candidate.ID)
		if err != nil || !ok {
			continue
		}

		recType := model.RecommendationRelated
		score := relatedScore
		if candidateAvg >= avgPrice*priceBandLow && candidateAvg <= avgPrice*priceBandHigh {
			recType = model.RecommendationSimilar
			score = similarScore
		}

		recs = append(recs, model.Recommendation{
			ProductID:            productID,
			RecommendedProductID: candidate.ID,
			Type:                 recType,
			Score:                score,
		})
	}

	if err := s.store.ReplaceRecommendations(ctx, productID, recs); err != nil {
		return nil, err
	}

	s.log.Info("Recommendations generated",
		zap.Uint("product_id", productID),
		zap.Int("count", len(recs)))

	return recs, nil
}

// Get returns stored recommendations with their products, best score first
func (s *RecommendationService) Get(ctx context.Context, productID uint) ([]RecommendedProduct, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	recs, err := s.store.RecommendationsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := make([]RecommendedProduct, 0, len(recs))
	for _, rec := range recs {
		product, err := s.store.GetProduct(ctx, rec.RecommendedProductID)
		if err != nil {
			continue
		}
		result = append(result, RecommendedProduct{
			ID:      rec.ID,
			Product: *product,
			Type:    rec.Type,
			Score:   rec.Score,
		})
	}
	return result, nil
}

func (s *RecommendationService) averageLatestPrice(ctx context.Context, productID uint) (float64, bool, error) {
	records, err := s.store.PricesForProduct(ctx, productID)
	if err != nil {
		return 0, false, err
	}
	latest := model.LatestPerRetailer(records)
	if len(latest) == 0 {
		return 0, false, nil
	}

	var sum float64
	for _, r := range latest {
		sum += r.Price
	}
	return sum / float64(len(latest)), true, nil
}
