package model

import "time"

// Alert is a price threshold watch on a product. When the latest price at
// any retailer (or the target retailer, when set) drops to or below the
// threshold the alert is marked triggered.
type Alert struct {
	ID             uint       `json:"id" gorm:"primarykey"`
	ProductID      uint       `json:"product_id" gorm:"index;not null"`
	PriceThreshold float64    `json:"price_threshold" gorm:"not null"`
	TargetRetailer string     `json:"target_retailer" gorm:"type:varchar(100)"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	Triggered      bool       `json:"triggered" gorm:"default:false"`
	TriggeredAt    *time.Time `json:"triggered_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
