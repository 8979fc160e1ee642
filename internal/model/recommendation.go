package model

import "time"

// Recommendation types
const (
	RecommendationSimilar = "similar"
	RecommendationRelated = "related"
)

// Recommendation links a product to a suggested alternative with a score.
// Recommendations are regenerated wholesale per product, never edited.
type Recommendation struct {
	ID                   uint      `json:"id" gorm:"primarykey"`
	ProductID            uint      `json:"product_id" gorm:"index;not null"`
	RecommendedProductID uint      `json:"recommended_product_id" gorm:"not null"`
	Type                 string    `json:"type" gorm:"type:varchar(20)"`
	Score                float64   `json:"score"`
	CreatedAt            time.Time `json:"created_at"`
}
