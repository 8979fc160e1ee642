package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/pkg/config"
	"github.com/Zohair23/price-comparison-engine/prometheus"
)

// SerpAdapter queries one engine of the metered source. One adapter value
// exists per downstream retailer (amazon, walmart, google_shopping); each
// engine has its own query parameter, result field and price shape. The
// shared API key is the call-budget resource, so callers only reach this
// adapter behind an explicit opt-in.
type SerpAdapter struct {
	id        SourceID
	engine    string
	searchURL string
	apiKey    string
	client    *http.Client
	log       *zap.Logger
}

// NewSerpAdapter creates a metered adapter for the given source id. An
// empty API key leaves the adapter disabled rather than failing.
func NewSerpAdapter(id SourceID, cfg *config.SerpConfig, log *zap.Logger) *SerpAdapter {
	return &SerpAdapter{
		id:        id,
		engine:    string(id),
		searchURL: cfg.SearchURL,
		apiKey:    cfg.APIKey,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       log,
	}
}

func (a *SerpAdapter) ID() SourceID { return a.id }

// Enabled reports whether the pre-shared API key is configured
func (a *SerpAdapter) Enabled() bool { return a.apiKey != "" }

// Search queries the metered engine and extracts the engine-specific result
// array into the common intermediate record. Each call spends quota; the
// caller decides when that is worth it.
func (a *SerpAdapter) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	if !a.Enabled() {
		return nil, ErrSourceDisabled
	}

	start := time.Now()

	params := url.Values{}
	params.Set("engine", a.engine)
	params.Set("api_key", a.apiKey)
	switch a.id {
	case SourceAmazon:
		params.Set("amazon_domain", "amazon.com")
		params.Set("k", query)
	case SourceWalmart:
		params.Set("query", query)
	default:
		params.Set("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, ErrSourceUnavailable
	}

	resp, err := a.client.Do(req)
	if err != nil {
		outcome := "unavailable"
		wrapped := ErrSourceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
			wrapped = ErrTimeout
		}
		a.log.Warn("Search failed",
			zap.String("source", string(a.id)),
			zap.String("query", query),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		prometheus.RecordVendorCall(string(a.id), outcome, time.Since(start))
		return nil, wrapped
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		prometheus.RecordVendorCall(string(a.id), "unavailable", time.Since(start))
		return nil, ErrSourceUnavailable
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		a.log.Warn("Search rate limited",
			zap.String("source", string(a.id)),
			zap.Duration("latency", time.Since(start)))
		prometheus.RecordVendorCall(string(a.id), "rate_limited", time.Since(start))
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		a.log.Warn("Search rejected",
			zap.String("source", string(a.id)),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", time.Since(start)))
		prometheus.RecordVendorCall(string(a.id), "unavailable", time.Since(start))
		return nil, ErrSourceUnavailable
	}

	items, err := a.parse(body, limit)
	if err != nil {
		a.log.Warn("Search response unparseable",
			zap.String("source", string(a.id)),
			zap.Error(err))
		prometheus.RecordVendorCall(string(a.id), "malformed", time.Since(start))
		return nil, ErrSourceUnavailable
	}

	a.log.Info("Search completed",
		zap.String("source", string(a.id)),
		zap.String("query", query),
		zap.Int("items", len(items)),
		zap.Duration("latency", time.Since(start)))
	prometheus.RecordVendorCall(string(a.id), "ok", time.Since(start))

	return items, nil
}

// resultsField names the array the engine returns its hits under
func (a *SerpAdapter) resultsField() string {
	if a.id == SourceGoogleShopping {
		return "shopping_results"
	}
	return "organic_results"
}

func (a *SerpAdapter) parse(body []byte, limit int) ([]Item, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var results []map[string]any
	if raw, ok := payload[a.resultsField()]; ok {
		if err := json.Unmarshal(raw, &results); err != nil {
			return nil, err
		}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	items := make([]Item, 0, len(results))
	for _, r := range results {
		items = append(items, a.extract(r))
	}
	return items, nil
}

// extract performs the engine-specific field mapping. Price shapes seen in
// the wild: a string like "$29.99", an object with a "raw" string, a bare
// number, or for walmart a nested primary_offer.offer_price.
func (a *SerpAdapter) extract(r map[string]any) Item {
	item := Item{
		Source:   a.id,
		Title:    stringField(r, "title"),
		ImageURL: stringField(r, "thumbnail"),
		URL:      stringField(r, "link"),
	}

	switch a.id {
	case SourceWalmart:
		if item.URL == "" {
			item.URL = stringField(r, "product_page_url")
		}
		if offer, ok := r["primary_offer"].(map[string]any); ok {
			item.Price = offer["offer_price"]
		}
		if item.Price == nil {
			item.Price = r["price"]
		}
	default:
		if price, ok := r["price"].(map[string]any); ok {
			item.Price = price["raw"]
		} else {
			item.Price = r["price"]
		}
		if item.Price == nil {
			item.Price = r["extracted_price"]
		}
	}

	if rating, ok := r["rating"].(float64); ok {
		item.Rating = &rating
	}
	if reviews, ok := r["reviews"].(float64); ok {
		count := int(reviews)
		item.ReviewCount = &count
	}

	return item
}

func stringField(r map[string]any, key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}
