package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/service"
	"github.com/Zohair23/price-comparison-engine/internal/store"
	"github.com/Zohair23/price-comparison-engine/pkg/logger"
)

// AlertRequest defines the structure for alert creation
type AlertRequest struct {
	ProductID      uint    `json:"product_id"`
	PriceThreshold float64 `json:"price_threshold"`
	TargetRetailer string  `json:"target_retailer"`
}

// AlertHandler serves the price alert API
type AlertHandler struct {
	alerts *service.AlertService
}

// NewAlertHandler creates the alert handler
func NewAlertHandler(alerts *service.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns all active alerts
func (h *AlertHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	alerts, err := h.alerts.Active(c.Request().Context())
	if err != nil {
		log.Error("Failed to list alerts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve alerts"})
	}
	return c.JSON(http.StatusOK, alerts)
}

// Create registers a new price alert
func (h *AlertHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req AlertRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.PriceThreshold <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Price threshold must be positive"})
	}

	alert, err := h.alerts.Create(c.Request().Context(), req.ProductID, req.PriceThreshold, req.TargetRetailer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to create alert",
			zap.Uint("product_id", req.ProductID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create alert"})
	}

	log.Info("Alert created",
		zap.Uint("alert_id", alert.ID),
		zap.Uint("product_id", alert.ProductID),
		zap.Float64("threshold", alert.PriceThreshold))
	return c.JSON(http.StatusCreated, alert)
}

// Check sweeps active alerts and reports the ones triggered
func (h *AlertHandler) Check(c echo.Context) error {
	log := logger.FromContext(c)

	triggered, err := h.alerts.Check(c.Request().Context())
	if err != nil {
		log.Error("Alert check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to check alerts"})
	}

	summaries := make([]echo.Map, 0, len(triggered))
	for _, alert := range triggered {
		summaries = append(summaries, echo.Map{
			"id":         alert.ID,
			"product_id": alert.ProductID,
			"threshold":  alert.PriceThreshold,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":          "success",
		"triggered_count": len(triggered),
		"alerts":          summaries,
	})
}

// Deactivate turns an alert off
func (h *AlertHandler) Deactivate(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid alert id"})
	}

	if _, err := h.alerts.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Alert not found"})
		}
		log.Error("Failed to deactivate alert", zap.Uint("alert_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to deactivate alert"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Alert deactivated",
	})
}
