package source

import (
	"context"
	"errors"
)

// SourceID is a closed enumeration of external price sources.
type SourceID string

const (
	SourceEbay           SourceID = "ebay"
	SourceAmazon         SourceID = "amazon"
	SourceWalmart        SourceID = "walmart"
	SourceGoogleShopping SourceID = "google_shopping"
)

// Valid reports whether the source id is one of the known values
func (s SourceID) Valid() bool {
	switch s {
	case SourceEbay, SourceAmazon, SourceWalmart, SourceGoogleShopping:
		return true
	}
	return false
}

// Retailer returns the display name stored on price records for this source
func (s SourceID) Retailer() string {
	switch s {
	case SourceEbay:
		return "eBay"
	case SourceAmazon:
		return "Amazon"
	case SourceWalmart:
		return "Walmart"
	case SourceGoogleShopping:
		return "Google Shopping"
	}
	return string(s)
}

// Vendor-layer error taxonomy. Adapters return these so callers can decide
// how to degrade; nothing here is fatal to a request.
var (
	ErrAuthFailure       = errors.New("source: token exchange failed")
	ErrSourceUnavailable = errors.New("source: vendor unavailable")
	ErrRateLimited       = errors.New("source: rate limited")
	ErrTimeout           = errors.New("source: request timed out")
	ErrSourceDisabled    = errors.New("source: not configured")
	ErrMalformedItem     = errors.New("source: malformed item")
)

// Item is the common intermediate record every adapter parses its vendor
// payload into. Price is left loosely typed on purpose: vendors deliver it
// as a string ("$29.99"), a bare number, or a value extracted from a nested
// object, and the normalizer owns turning all of those into a decimal.
type Item struct {
	Source      SourceID
	Title       string
	Price       any
	Currency    string
	ImageURL    string
	URL         string
	Condition   string
	Description string
	Category    string
	Rating      *float64
	ReviewCount *int
}

// Adapter is one external price source. Implementations are stateless apart
// from the shared token cache and enforce their own HTTP timeout.
type Adapter interface {
	ID() SourceID
	// Enabled reports whether the adapter has the configuration it needs.
	// A missing API key is a configuration condition, not a runtime error.
	Enabled() bool
	Search(ctx context.Context, query string, limit int) ([]Item, error)
}
