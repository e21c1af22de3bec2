package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldsync/server/internal/config"
	"github.com/fieldsync/server/internal/docstore"
	"github.com/fieldsync/server/internal/handlers"
	custommw "github.com/fieldsync/server/internal/middleware"
	"github.com/fieldsync/server/internal/observability"
	"github.com/fieldsync/server/internal/repository"
	"github.com/fieldsync/server/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Telemetry
	telemetry, err := observability.Initialize(ctx, observability.Config{
		ServiceName:    "fieldsync-server",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	// Relational store of record
	var db *sql.DB
	if cfg.UsePostgres() {
		log.Println("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
	} else {
		log.Println("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Document store holding sync-session snapshots
	docClient, err := docstore.NewClient(ctx, cfg.DocumentStore.URI, cfg.DocumentStore.Database)
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}

	// Repositories
	deviceRepo := repository.NewDeviceRepository(db)
	syncRecordRepo := repository.NewSyncRecordRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	entityRepo := repository.NewEntityRepository(db)
	userRepo := repository.NewUserRepository(db)
	snapshotRepo := docstore.NewSnapshotRepository(docClient)

	// Notification hub
	hub := services.NewWebSocketHub()
	go hub.Run()

	// Metrics
	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Fatalf("Failed to create HTTP metrics: %v", err)
	}
	syncMetrics, err := observability.NewSyncMetrics()
	if err != nil {
		log.Fatalf("Failed to create sync metrics: %v", err)
	}

	// Services
	scopeService := services.NewScopeService(entityRepo)
	statusResolver := services.NewStatusResolver(syncRecordRepo, snapshotRepo)
	notifier := services.NewSyncNotifier(hub, userRepo)
	syncService := services.NewSyncService(
		deviceRepo, assignmentRepo, entityRepo,
		scopeService, statusResolver, notifier,
		syncMetrics, cfg.Sync.MaxParallelResolves,
	)

	// Handlers
	syncHandler := handlers.NewSyncHandler(syncService, cfg.Sync.QueryTimeout())
	healthHandler := handlers.NewHealthHandler()
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(observability.TracingMiddleware("fieldsync-server"))
	r.Use(observability.MetricsMiddleware(httpMetrics))
	r.Use(custommw.ActorAuth(userRepo, cfg.Security.APIKeyHeader))

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)

	r.Route("/api/sync", func(r chi.Router) {
		r.Get("/", syncHandler.GetSyncInfo)
		r.Get("/{deviceId}", syncHandler.GetSyncInfoByID)
		r.Put("/", syncHandler.PutSyncInfo)
	})

	r.Get("/api/ws", wsHandler.HandleConnection)

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("FieldSync Server starting on %s", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := docClient.Close(shutdownCtx); err != nil {
		log.Printf("Document store close: %v", err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.Printf("Telemetry shutdown: %v", err)
	}

	log.Println("Server stopped")
}
