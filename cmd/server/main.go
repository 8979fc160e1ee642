package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/aggregator"
	"github.com/Zohair23/price-comparison-engine/internal/handler"
	mid "github.com/Zohair23/price-comparison-engine/internal/middleware"
	"github.com/Zohair23/price-comparison-engine/internal/scheduler"
	"github.com/Zohair23/price-comparison-engine/internal/service"
	"github.com/Zohair23/price-comparison-engine/internal/source"
	"github.com/Zohair23/price-comparison-engine/internal/store"
	"github.com/Zohair23/price-comparison-engine/pkg/config"
	"github.com/Zohair23/price-comparison-engine/pkg/database"
	"github.com/Zohair23/price-comparison-engine/pkg/logger"
	"github.com/Zohair23/price-comparison-engine/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("price_comparison")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting price comparison engine", appConfig.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	st := store.New(db)

	// Vendor adapters: one primary (free) source behind the token cache,
	// metered sources behind the shared SerpAPI key.
	tokens := source.NewTokenCache(&appConfig.Ebay, log)
	primary := source.NewEbayAdapter(&appConfig.Ebay, tokens, log)
	metered := []source.Adapter{
		source.NewSerpAdapter(source.SourceAmazon, &appConfig.Serp, log),
		source.NewSerpAdapter(source.SourceWalmart, &appConfig.Serp, log),
		source.NewSerpAdapter(source.SourceGoogleShopping, &appConfig.Serp, log),
	}

	agg := aggregator.New(st, primary, metered, log)
	alertService := service.NewAlertService(st, log)
	recService := service.NewRecommendationService(st, log)

	// Graceful shutdown coordination
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the alert sweep scheduler
	sched, err := scheduler.New(&appConfig.Scheduler, alertService, log)
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware(log))

	// Handlers
	productHandler := handler.NewProductHandler(st, agg)
	priceHandler := handler.NewPriceHandler(st, agg)
	alertHandler := handler.NewAlertHandler(alertService)
	recHandler := handler.NewRecommendationHandler(recService)

	// Routes
	e.GET("/", handler.Root)
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	productAPI := e.Group("/api/products")
	productAPI.GET("", productHandler.List)
	productAPI.GET("/trending", productHandler.Trending)
	productAPI.GET("/search", productHandler.Search)
	productAPI.POST("/search-add", productHandler.SearchAdd)
	productAPI.GET("/:id", productHandler.Get)
	productAPI.POST("", productHandler.Create)

	priceAPI := e.Group("/api/prices")
	priceAPI.GET("/comparison/:id", priceHandler.Comparison)
	priceAPI.GET("/history/:id", priceHandler.History)
	priceAPI.GET("/lowest/:id", priceHandler.Lowest)
	priceAPI.GET("/best-deal/:id", priceHandler.BestDeal)
	priceAPI.GET("/compare", priceHandler.Compare)

	alertAPI := e.Group("/api/alerts")
	alertAPI.GET("", alertHandler.List)
	alertAPI.POST("", alertHandler.Create)
	alertAPI.POST("/check", alertHandler.Check)
	alertAPI.DELETE("/:id", alertHandler.Deactivate)

	recAPI := e.Group("/api/recommendations")
	recAPI.GET("/:id", recHandler.Get)
	recAPI.POST("/generate/:id", recHandler.Generate)

	// Start server, shut down on signal
	go func() {
		<-ctx.Done()
		if err := e.Shutdown(context.Background()); err != nil {
			log.Warn("Server shutdown error", zap.Error(err))
		}
	}()

	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Info("Server stopped", zap.Error(err))
	}

	wg.Wait()
}
