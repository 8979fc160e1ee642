package model

import "time"

// StockStatus is a closed enumeration of stock states carried on a price
// observation. Values outside the enumeration are rejected at the ingestion
// boundary.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// Valid reports whether the status is one of the known values
func (s StockStatus) Valid() bool {
	return s == StockStatusInStock || s == StockStatusOutOfStock
}

// PriceRecord is one price observation for a product at one retailer.
// Records are immutable once written: a new observation is a new record,
// never an update. At most one record may exist per
// (product, retailer, observed_at) tuple.
type PriceRecord struct {
	ID              uint        `json:"id" gorm:"primarykey"`
	ProductID       uint        `json:"product_id" gorm:"index;not null;uniqueIndex:uq_product_retailer_observed"`
	Retailer        string      `json:"retailer" gorm:"type:varchar(100);index;uniqueIndex:uq_product_retailer_observed"`
	Price           float64     `json:"price" gorm:"not null"`
	OriginalPrice   *float64    `json:"original_price"`
	DiscountPercent float64     `json:"discount_percent" gorm:"default:0"`
	URL             string      `json:"url" gorm:"type:varchar(500)"`
	Stock           StockStatus `json:"in_stock" gorm:"type:varchar(20);default:'in_stock'"`
	Rating          *float64    `json:"rating"`
	ReviewCount     *int        `json:"review_count"`
	ObservedAt      time.Time   `json:"observed_at" gorm:"index;uniqueIndex:uq_product_retailer_observed"`
}

// ComputeDiscountPercent derives the discount from an optional original
// price: (original - price) / original * 100, or zero when no positive
// original price is present.
func ComputeDiscountPercent(price float64, originalPrice *float64) float64 {
	if originalPrice == nil || *originalPrice <= 0 {
		return 0
	}
	return (*originalPrice - price) / *originalPrice * 100
}

// LatestPerRetailer reduces a product's price records to the comparison
// view: exactly one record per retailer, the most recent by observation
// time. Input order does not matter.
func LatestPerRetailer(records []PriceRecord) []PriceRecord {
	latest := make(map[string]PriceRecord)
	order := make([]string, 0, len(records))
	for _, r := range records {
		prev, seen := latest[r.Retailer]
		if !seen {
			order = append(order, r.Retailer)
			latest[r.Retailer] = r
			continue
		}
		if r.ObservedAt.After(prev.ObservedAt) {
			latest[r.Retailer] = r
		}
	}
	out := make([]PriceRecord, 0, len(order))
	for _, retailer := range order {
		out = append(out, latest[retailer])
	}
	return out
}
