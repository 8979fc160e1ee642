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

// ProductRequest defines the structure for explicit product creation
type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Brand       string `json:"brand"`
	ImageURL    string `json:"image_url"`
	Tags        string `json:"tags"`
}

// productView is the catalog listing shape consumed by the frontend
type productView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
	Description string      `json:"description"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"reviewCount"`
	Prices      []priceView `json:"prices"`
	Tags        []string    `json:"tags"`
}

type priceView struct {
	SellerID      string   `json:"sellerId"`
	Price         float64  `json:"price"`
	Stock         int      `json:"stock"`
	OriginalPrice *float64 `json:"originalPrice"`
}

// ProductHandler serves the product API
type ProductHandler struct {
	store      store.Store
	aggregator *aggregator.Controller
}

// NewProductHandler creates the product handler
func NewProductHandler(st store.Store, agg *aggregator.Controller) *ProductHandler {
	return &ProductHandler{store: st, aggregator: agg}
}

// List returns every product with its latest price per retailer
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	products, err := h.store.ListProducts(c.Request().Context())
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	views := make([]productView, 0, len(products))
	for _, product := range products {
		records, err := h.store.PricesForProduct(c.Request().Context(), product.ID)
		if err != nil {
			log.Warn("Failed to load prices",
				zap.Uint("product_id", product.ID),
				zap.Error(err))
			records = nil
		}

		prices := make([]priceView, 0)
		for _, record := range model.LatestPerRetailer(records) {
			stock := 0
			if record.Stock == model.StockStatusInStock {
				stock = 1
			}
			prices = append(prices, priceView{
				SellerID:      record.Retailer,
				Price:         record.Price,
				Stock:         stock,
				OriginalPrice: record.OriginalPrice,
			})
		}

		views = append(views, productView{
			ID:          strconv.FormatUint(uint64(product.ID), 10),
			Name:        product.Name,
			Brand:       product.Brand,
			Category:    product.Category,
			Image:       product.ImageURL,
			Description: product.Description,
			Rating:      product.Rating,
			Prices:      prices,
			Tags:        product.TagList(),
		})
	}

	log.Info("Products retrieved", zap.Int("count", len(views)))
	return c.JSON(http.StatusOK, views)
}

// Trending returns trending products, fetching from the primary source only
// when the catalog is cold
func (h *ProductHandler) Trending(c echo.Context) error {
	log := logger.FromContext(c)

	products, err := h.aggregator.Trending(c.Request().Context())
	if err != nil {
		log.Error("Failed to get trending products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve trending products",
		})
	}
	return c.JSON(http.StatusOK, products)
}

// Search does a local-only substring search over name and description
func (h *ProductHandler) Search(c echo.Context) error {
	log := logger.FromContext(c)

	query := c.QueryParam("q")
	category := c.QueryParam("category")

	products, err := h.store.SearchProducts(c.Request().Context(), query, category)
	if err != nil {
		log.Error("Failed to search products",
			zap.String("query", query),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to search products",
		})
	}
	return c.JSON(http.StatusOK, products)
}

// SearchAdd searches local data first, falling through to the primary
// source and persisting any matches
func (h *ProductHandler) SearchAdd(c echo.Context) error {
	log := logger.FromContext(c)

	query := c.QueryParam("q")
	products, err := h.aggregator.Search(c.Request().Context(), query)
	if err != nil {
		if errors.Is(err, aggregator.ErrQueryTooShort) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Search query too short",
			})
		}
		log.Error("Search failed", zap.String("query", query), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to search products",
		})
	}
	return c.JSON(http.StatusOK, products)
}

// Get returns one product by id
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	product, err := h.store.GetProduct(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to get product", zap.Uint("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve product",
		})
	}
	return c.JSON(http.StatusOK, product)
}

// Create handles explicit product creation
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product name is required"})
	}

	product := model.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
	}
	if err := h.store.CreateProduct(c.Request().Context(), &product); err != nil {
		log.Error("Failed to create product", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
