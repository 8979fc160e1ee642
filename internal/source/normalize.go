package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Zohair23/price-comparison-engine/internal/model"
)

// maxTitleLen is the maximum stored product name length
const maxTitleLen = 200

// ProductDraft is the canonical product half of a normalized vendor item
type ProductDraft struct {
	Name        string
	Description string
	Category    string
	Brand       string
	ImageURL    string
	Tags        string
	Rating      float64
}

// PriceRecordDraft is the canonical price half of a normalized vendor item
type PriceRecordDraft struct {
	Retailer        string
	Price           float64
	OriginalPrice   *float64
	DiscountPercent float64
	URL             string
	Stock           model.StockStatus
	Rating          *float64
	ReviewCount     *int
}

// Normalize maps an intermediate vendor record into a canonical product and
// price-record pair. It is pure: no I/O, no clock, fully table-testable
// against literal vendor payloads. Malformed entries (empty title, missing
// or non-positive price) are rejected with ErrMalformedItem; a rejection
// skips the item, it is never fatal to a batch.
func Normalize(item Item) (ProductDraft, PriceRecordDraft, error) {
	if !item.Source.Valid() {
		return ProductDraft{}, PriceRecordDraft{}, fmt.Errorf("%w: unknown source %q", ErrMalformedItem, item.Source)
	}

	title := truncateRunes(strings.TrimSpace(item.Title), maxTitleLen)
	if title == "" {
		return ProductDraft{}, PriceRecordDraft{}, fmt.Errorf("%w: empty title", ErrMalformedItem)
	}

	price, err := ParsePrice(item.Price)
	if err != nil {
		return ProductDraft{}, PriceRecordDraft{}, err
	}
	if price <= 0 {
		return ProductDraft{}, PriceRecordDraft{}, fmt.Errorf("%w: non-positive price", ErrMalformedItem)
	}

	retailer := item.Source.Retailer()

	// Category falls back to the source name so records stay traceable to
	// their origin.
	category := item.Category
	if category == "" {
		category = retailer
	}

	description := item.Description
	if description == "" {
		switch {
		case item.Condition != "":
			description = "Condition: " + item.Condition
		case item.Rating != nil:
			description = fmt.Sprintf("Rating: %g", *item.Rating)
		default:
			description = retailer + " Listing"
		}
	}

	product := ProductDraft{
		Name:        title,
		Description: description,
		Category:    category,
		ImageURL:    item.ImageURL,
	}
	if item.Rating != nil {
		product.Rating = *item.Rating
	}

	record := PriceRecordDraft{
		Retailer:    retailer,
		Price:       price,
		URL:         item.URL,
		Stock:       model.StockStatusInStock,
		Rating:      item.Rating,
		ReviewCount: item.ReviewCount,
	}

	return product, record, nil
}

// ParsePrice turns the loosely typed vendor price into a non-negative
// decimal. Strings are stripped of currency symbols and thousands
// separators ("$1,299.00" parses to 1299); already-numeric input passes
// through. Anything that fails to parse is a rejection, never a zero.
func ParsePrice(v any) (float64, error) {
	switch p := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing price", ErrMalformedItem)
	case float64:
		return p, nil
	case float32:
		return float64(p), nil
	case int:
		return float64(p), nil
	case int64:
		return float64(p), nil
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: price %q", ErrMalformedItem, p.String())
		}
		return f, nil
	case string:
		cleaned := strings.TrimSpace(p)
		cleaned = strings.TrimLeft(cleaned, "$€£¥")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			return 0, fmt.Errorf("%w: empty price", ErrMalformedItem)
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%w: price %q", ErrMalformedItem, p)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: price of type %T", ErrMalformedItem, v)
	}
}

// WithOriginalPrice attaches an original (pre-discount) price to the draft
// and derives the discount percent. Original prices below the current price
// are dropped rather than stored.
func (d *PriceRecordDraft) WithOriginalPrice(original float64) {
	if original <= 0 || original < d.Price {
		return
	}
	d.OriginalPrice = &original
	d.DiscountPercent = model.ComputeDiscountPercent(d.Price, &original)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
