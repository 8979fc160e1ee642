package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/service"
	"github.com/Zohair23/price-comparison-engine/internal/store"
	"github.com/Zohair23/price-comparison-engine/pkg/logger"
)

// RecommendationHandler serves product recommendations
type RecommendationHandler struct {
	recommendations *service.RecommendationService
}

// NewRecommendationHandler creates the recommendation handler
func NewRecommendationHandler(recs *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recs}
}

// Get returns stored recommendations for a product
func (h *RecommendationHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	recs, err := h.recommendations.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to get recommendations", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve recommendations"})
	}
	return c.JSON(http.StatusOK, recs)
}

// Generate rebuilds recommendations for a product
func (h *RecommendationHandler) Generate(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	limit := 5
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	recs, err := h.recommendations.Generate(c.Request().Context(), id, limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to generate recommendations", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to generate recommendations"})
	}

	summaries := make([]echo.Map, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, echo.Map{
			"id":                     rec.ID,
			"type":                   rec.Type,
			"score":                  rec.Score,
			"recommended_product_id": rec.RecommendedProductID,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":          "success",
		"product_id":      id,
		"count":           len(recs),
		"recommendations": summaries,
	})
}
