package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/pkg/config"
	"github.com/Zohair23/price-comparison-engine/prometheus"
)

// buyingOptionsFilter restricts results to immediate-purchase listings
const buyingOptionsFilter = "buyingOptions:{FIXED_PRICE}"

// EbayAdapter queries the primary (free, high-quota) source. Search never
// returns an error to the caller: a failed token exchange, non-200 response
// or timeout degrades to an empty result set with a logged diagnostic, so
// trending and search flows keep working.
type EbayAdapter struct {
	searchURL   string
	marketplace string
	tokens      *TokenCache
	client      *http.Client
	log         *zap.Logger
}

type ebaySearchResponse struct {
	ItemSummaries []ebayItem `json:"itemSummaries"`
}

type ebayItem struct {
	Title string `json:"title"`
	Price struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
	Image struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	ItemWebURL string `json:"itemWebUrl"`
	Condition  string `json:"condition"`
}

// NewEbayAdapter creates the primary source adapter
func NewEbayAdapter(cfg *config.EbayConfig, tokens *TokenCache, log *zap.Logger) *EbayAdapter {
	return &EbayAdapter{
		searchURL:   cfg.SearchURL,
		marketplace: cfg.Marketplace,
		tokens:      tokens,
		client:      &http.Client{Timeout: cfg.Timeout},
		log:         log,
	}
}

func (a *EbayAdapter) ID() SourceID { return SourceEbay }

// Enabled reports whether primary-source credentials are configured
func (a *EbayAdapter) Enabled() bool { return a.tokens != nil }

// Search queries the browse endpoint and parses item summaries into the
// common intermediate record
func (a *EbayAdapter) Search(ctx context.Context, query string, limit int) ([]Item, error) {
	start := time.Now()

	token, err := a.tokens.Token(ctx)
	if err != nil {
		a.log.Warn("Search skipped, no token",
			zap.String("source", string(SourceEbay)),
			zap.Error(err))
		prometheus.RecordVendorCall(string(SourceEbay), "auth_failure", time.Since(start))
		return []Item{}, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("filter", buyingOptionsFilter)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return []Item{}, nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", a.marketplace)

	resp, err := a.client.Do(req)
	if err != nil {
		outcome := "unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		a.log.Warn("Search failed",
			zap.String("source", string(SourceEbay)),
			zap.String("query", query),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		prometheus.RecordVendorCall(string(SourceEbay), outcome, time.Since(start))
		return []Item{}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		prometheus.RecordVendorCall(string(SourceEbay), "unavailable", time.Since(start))
		return []Item{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		a.log.Warn("Search rejected",
			zap.String("source", string(SourceEbay)),
			zap.String("query", query),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 100)),
			zap.Duration("latency", time.Since(start)))
		prometheus.RecordVendorCall(string(SourceEbay), fmt.Sprintf("http_%d", resp.StatusCode), time.Since(start))
		return []Item{}, nil
	}

	var parsed ebaySearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		a.log.Warn("Search response unparseable",
			zap.String("source", string(SourceEbay)),
			zap.Error(err))
		prometheus.RecordVendorCall(string(SourceEbay), "malformed", time.Since(start))
		return []Item{}, nil
	}

	items := make([]Item, 0, len(parsed.ItemSummaries))
	for _, it := range parsed.ItemSummaries {
		items = append(items, Item{
			Source:    SourceEbay,
			Title:     it.Title,
			Price:     it.Price.Value,
			Currency:  it.Price.Currency,
			ImageURL:  it.Image.ImageURL,
			URL:       it.ItemWebURL,
			Condition: it.Condition,
		})
	}

	a.log.Info("Search completed",
		zap.String("source", string(SourceEbay)),
		zap.String("query", query),
		zap.Int("items", len(items)),
		zap.Duration("latency", time.Since(start)))
	prometheus.RecordVendorCall(string(SourceEbay), "ok", time.Since(start))

	return items, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
