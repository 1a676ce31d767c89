package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
	"github.com/fhuonder/belegscan/internal/batch"
	"github.com/fhuonder/belegscan/internal/config"
	"github.com/fhuonder/belegscan/internal/domain/entity"
	"github.com/fhuonder/belegscan/internal/export"
	"github.com/fhuonder/belegscan/internal/extraction"
	"github.com/fhuonder/belegscan/internal/heuristic"
	"github.com/fhuonder/belegscan/internal/infrastructure/mirror"
	"github.com/fhuonder/belegscan/internal/infrastructure/persistence/repository"
	"github.com/fhuonder/belegscan/internal/ocr"
	"github.com/fhuonder/belegscan/internal/rates"
	"github.com/fhuonder/belegscan/internal/store"
	"github.com/fhuonder/belegscan/pkg/database"
	"github.com/fhuonder/belegscan/pkg/utils"
)

func main() {
	// Local .env overrides are optional
	_ = gotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting document scanning service",
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize the record store: local SQLite tier plus optional remote
	// mirror, with the in-memory collection rebuilt from local persistence.
	repo := repository.NewDocumentRepository(db.DB, logger)

	var mirrorStore port.MirrorStore
	if cfg.Mirror.Enabled {
		mirrorStore = mirror.NewClient(cfg.Mirror.Endpoint, cfg.Mirror.APIKey, logger)
		logger.Info("Remote mirror enabled", zap.String("endpoint", cfg.Mirror.Endpoint))
	}

	docStore := store.New(repo, mirrorStore, logger)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := docStore.Load(startupCtx); err != nil {
		cancelStartup()
		logger.Fatal("Failed to load persisted documents", zap.Error(err))
	}
	cancelStartup()

	// Initialize currency conversion
	rateProvider := rates.NewHTTPProvider(cfg.Rates.Endpoint, cfg.Rates.Timeout, logger)
	resolver := rates.NewResolver(rateProvider, logger, rates.WithTTL(cfg.Rates.TTL))

	// Select the extraction path. Without an API key the service still runs,
	// deriving document fields from filename heuristics alone.
	var extractor port.DocumentExtractor
	if cfg.OpenAI.APIKey != "" {
		var enhancer port.OCREnhancer
		if cfg.OCR.Enabled {
			enhancer = ocr.NewClient(cfg.OCR.Endpoint, cfg.OCR.APIKey, cfg.OCR.Language, 0, logger)
			logger.Info("OCR pre-processing enabled", zap.String("endpoint", cfg.OCR.Endpoint))
		}
		extractor = extraction.NewExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout, enhancer, logger)
	} else {
		logger.Warn("No AI API key configured, falling back to filename heuristics")
		extractor = heuristic.NewFallback(logger,
			heuristic.WithVendorRules(vendorRules(cfg.Vendors, logger)))
	}

	processor := batch.New(docStore, extractor, resolver, logger,
		batch.WithProgress(func(processed, total int) {
			logger.Info("Batch progress",
				zap.Int("processed", processed),
				zap.Int("total", total))
		}))

	exporter := export.NewExporter(logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	h := newHandler(docStore, processor, exporter, cfg.Server.MaxUploadMB, logger)
	h.registerRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the running batch cooperatively and wait for the in-flight
	// document before closing the database.
	processor.Stop()
	processor.Wait()
	docStore.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// vendorRules converts configured vendor entries into heuristic rules,
// skipping entries whose type or category is outside the closed sets.
func vendorRules(entries []config.VendorConfig, logger *zap.Logger) []heuristic.VendorRule {
	rules := make([]heuristic.VendorRule, 0, len(entries))
	for _, v := range entries {
		docType := entity.DocumentType(v.Type)
		category := entity.ExpenseCategory(v.Category)
		if !docType.IsValid() || !category.IsValid() {
			logger.Warn("Skipping vendor rule with unknown type or category",
				zap.String("substring", v.Substring),
				zap.String("type", v.Type),
				zap.String("category", v.Category))
			continue
		}
		rules = append(rules, heuristic.VendorRule{
			Substring: strings.ToLower(v.Substring),
			Issuer:    v.Issuer,
			Type:      docType,
			Category:  category,
		})
	}
	return rules
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "configs/config.yaml"
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
