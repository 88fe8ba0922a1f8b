// Mercedes Helper Crawler API
// @title Mercedes Helper Crawler API
// @version 1.0
// @description Crawls used-car listings from gebrauchtwagen.mercedes-benz.de into a local vehicle store
// @host localhost:3000
// @BasePath /

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "mercedeshelper/docs"
	"mercedeshelper/internal/config"
	"mercedeshelper/internal/database"
	"mercedeshelper/internal/handlers"
	"mercedeshelper/internal/middleware"
	"mercedeshelper/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}

	logger := cfg.NewLogger()
	log.SetDefault(logger)

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open database", "path", cfg.DatabasePath, "err", err)
	}
	defer db.Close()

	crawler, err := scraper.Setup(cfg.CrawlerSettings(), logger)
	if err != nil {
		logger.Fatal("failed to set up crawler", "err", err)
	}
	defer func() {
		if err := crawler.Close(); err != nil {
			logger.Error("failed to close browser session", "err", err)
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.SecurityScanDetection(logger))
	r.Use(middleware.HTTPMethodFilter([]string{http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodHead}))

	// Configure trusted proxies for local reverse proxies
	r.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
		"172.16.0.0/12",  // Docker networks
		"10.0.0.0/8",     // Private networks
		"192.168.0.0/16", // Private networks
	})

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsConfig))

	// Downloaded listing images
	r.Static(cfg.UploadsURLPrefix, cfg.UploadsDir)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.PerMinute(cfg.CrawlRatePerMinute, logger)
	defer limiter.Stop()

	crawlerHandler := handlers.NewCrawlerHandler(crawler, db, cfg.AllowedHost, logger)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health)

		crawl := api.Group("/crawler")
		crawl.POST("/crawl", middleware.RateLimitMiddleware(limiter), crawlerHandler.Crawl)
		crawl.GET("/status", crawlerHandler.Status)
		crawl.GET("/vehicle", crawlerHandler.Vehicle)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "allowedHost", cfg.AllowedHost)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.NavigationTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "err", err)
	}
}
