// Package main provides the main entry point for the Turnix gestiones queue service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/turnixpro/turnix/app/handlers"
	"github.com/turnixpro/turnix/app/router"
	"github.com/turnixpro/turnix/app/services"
	businessflow "github.com/turnixpro/turnix/business_flow"
	"github.com/turnixpro/turnix/config"
	"github.com/turnixpro/turnix/models"
	"github.com/turnixpro/turnix/repository"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Turnix application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logOutput, closeLog := initializeLogging(cfg.Logging)
	defer closeLog()

	// Initialize application
	app, err := initializeApplication(cfg, logOutput)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Stop background workers once no request can start new ones
	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging routes the standard logger to stdout, a rotated file, or both
func initializeLogging(cfg config.LoggingConfig) (io.Writer, func()) {
	flags := log.LstdFlags | log.LUTC
	if cfg.Level == "debug" {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)

	if cfg.Output == "stdout" {
		log.SetOutput(os.Stdout)
		return os.Stdout, func() {}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		log.Printf("Failed to create log directory, logging to stdout only: %v", err)
		return os.Stdout, func() {}
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotator
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(out)
	log.Printf("Logging to %s (max %dMB, %d backups, %d days)", cfg.FilePath, cfg.MaxSize, cfg.MaxBackups, cfg.MaxAge)

	return out, func() { _ = rotator.Close() }
}

// initializeAuditDatabase opens the audit store; a disabled audit returns a nil db
func initializeAuditDatabase(cfg config.AuditConfig) (*gorm.DB, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit table: %w", err)
	}

	log.Printf("Audit database connection established with %d max open connections", cfg.MaxOpenConns)
	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis to surface connectivity issues in the logs.
// The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeSheetStore builds the backing store for the configured provider
func initializeSheetStore(cfg config.SheetsConfig) (repository.SheetStore, func() string, error) {
	switch cfg.Provider {
	case "memory":
		log.Printf("Using in-memory sheet store %q; data is lost on restart", cfg.SheetName)
		return repository.NewMemorySheetStore(cfg.SheetName), nil, nil
	default:
		client := services.NewSheetsClient(&cfg, log.Default())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		svc, err := client.Service(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize sheets client: %w", err)
		}
		log.Printf("Google Sheets client ready as %s for spreadsheet %s", client.ClientEmail(), cfg.SpreadsheetID)
		return repository.NewGoogleSheetStore(svc, cfg.SpreadsheetID, cfg.RequestTimeout), client.ClientEmail, nil
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig, logOutput io.Writer) (*Application, error) {
	var stopFuncs []func()

	store, clientEmail, err := initializeSheetStore(cfg.Sheets)
	if err != nil {
		return nil, err
	}
	gestionRepo := repository.NewGestionRepository(store, cfg.Sheets.SheetName, log.Default())

	headerCtx, headerCancel := context.WithTimeout(context.Background(), cfg.Sheets.RequestTimeout)
	defer headerCancel()
	if err := gestionRepo.EnsureHeader(headerCtx); err != nil {
		return nil, fmt.Errorf("failed to prepare sheet %q: %w", cfg.Sheets.SheetName, err)
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	gestionCache := services.NewNoopGestionCache()
	if rc != nil {
		gestionCache = services.NewRedisGestionCache(rc, &cfg.Cache)
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	var auditRepo repository.AuditLogRepository
	db, err := initializeAuditDatabase(cfg.Audit)
	if err != nil {
		return nil, err
	}
	if db != nil {
		auditRepo = repository.NewAuditLogRepository(db)
		stopFuncs = append(stopFuncs, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	}

	// Initialize business flows
	writer := businessflow.NewGestionWriter(gestionRepo, cfg.Allocation, log.Default())
	archiveFlow := businessflow.NewArchiveFlow(gestionRepo, gestionCache, auditRepo, cfg.Archive, cfg.Deployment.TimeZone, log.Default())

	var archiver businessflow.ArchiveTrigger
	if cfg.Archive.AutoOnExhaustion {
		archiver = archiveFlow
	}
	gestionFlow := businessflow.NewGestionFlow(gestionRepo, writer, gestionCache, auditRepo, archiver, cfg.Deployment.TimeZone, log.Default())

	// Background archive runs must finish before their stores are closed
	stopFuncs = append([]func(){archiveFlow.Wait}, stopFuncs...)

	// Initialize handlers
	gestionHandler := handlers.NewGestionHandler(gestionFlow, cfg.Server.RequestTimeout)
	archiveHandler := handlers.NewArchiveHandler(archiveFlow, cfg.Archive.Timeout)
	healthHandler := handlers.NewHealthHandler(gestionRepo, cfg.Sheets.Provider, cfg.Sheets.SheetName, cfg.Deployment.Version, clientEmail, cfg.Sheets.RequestTimeout)

	appRouter := router.NewFiberRouter(cfg, logOutput, gestionHandler, archiveHandler, healthHandler)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}
