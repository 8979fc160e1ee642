package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/aggregator"
	"github.com/Zohair23/price-comparison-engine/internal/model"
	"github.com/Zohair23/price-comparison-engine/internal/store"
	"github.com/Zohair23/price-comparison-engine/pkg/logger"
)

// PriceHandler serves price comparison and history queries
type PriceHandler struct {
	store      store.Store
	aggregator *aggregator.Controller
}

// NewPriceHandler creates the price handler
func NewPriceHandler(st store.Store, agg *aggregator.Controller) *PriceHandler {
	return &PriceHandler{store: st, aggregator: agg}
}

// Comparison returns the latest price per retailer for one product
func (h *PriceHandler) Comparison(c echo.Context) error {
	log := logger.FromContext(c)

	records, errResp := h.comparisonView(c)
	if errResp != nil {
		return errResp(c)
	}

	log.Info("Price comparison retrieved", zap.Int("retailers", len(records)))
	return c.JSON(http.StatusOK, records)
}

// History returns observations within the requested window, oldest first
func (h *PriceHandler) History(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	if _, err := h.store.GetProduct(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to load product", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve history"})
	}

	history, err := h.store.PriceHistory(c.Request().Context(), id, days)
	if err != nil {
		log.Error("Failed to load price history", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve history"})
	}
	return c.JSON(http.StatusOK, history)
}

// Lowest returns the cheapest current price across retailers
func (h *PriceHandler) Lowest(c echo.Context) error {
	records, errResp := h.comparisonView(c)
	if errResp != nil {
		return errResp(c)
	}
	if len(records) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No price data available"})
	}

	lowest := records[0]
	for _, r := range records[1:] {
		if r.Price < lowest.Price {
			lowest = r
		}
	}
	return c.JSON(http.StatusOK, lowest)
}

// BestDeal returns the biggest current discount across retailers
func (h *PriceHandler) BestDeal(c echo.Context) error {
	records, errResp := h.comparisonView(c)
	if errResp != nil {
		return errResp(c)
	}
	if len(records) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No price data available"})
	}

	best := records[0]
	for _, r := range records[1:] {
		if r.DiscountPercent > best.DiscountPercent {
			best = r
		}
	}
	return c.JSON(http.StatusOK, best)
}

// Compare queries external sources for live per-retailer prices. Metered
// sources are contacted only when include_metered is explicitly "true".
func (h *PriceHandler) Compare(c echo.Context) error {
	log := logger.FromContext(c)

	query := c.QueryParam("q")
	includeMetered := c.QueryParam("include_metered") == "true"

	result, err := h.aggregator.ComparePrices(c.Request().Context(), query, includeMetered)
	if err != nil {
		if errors.Is(err, aggregator.ErrQueryTooShort) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Search query too short"})
		}
		log.Error("Price comparison failed", zap.String("query", query), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compare prices"})
	}
	return c.JSON(http.StatusOK, result)
}

// comparisonView loads the latest-per-retailer projection for the product
// in the path, or returns a ready error responder
func (h *PriceHandler) comparisonView(c echo.Context) ([]model.PriceRecord, func(echo.Context) error) {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
		}
	}

	if _, err := h.store.GetProduct(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, func(c echo.Context) error {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
			}
		}
		log.Error("Failed to load product", zap.Uint("product_id", id), zap.Error(err))
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve prices"})
		}
	}

	records, err := h.store.PricesForProduct(c.Request().Context(), id)
	if err != nil {
		log.Error("Failed to load prices", zap.Uint("product_id", id), zap.Error(err))
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve prices"})
		}
	}

	return model.LatestPerRetailer(records), nil
}
