package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used for monitoring
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Root returns a small service banner
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"name":    "Price Comparison Engine API",
		"version": "1.0.0",
	})
}
