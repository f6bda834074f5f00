package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/handlers"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/config"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/database"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/scheduler"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	tradeRepo := repository.NewTradeRepository(db)
	payinRepo := repository.NewPayinRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	var brokerKeyRepo *repository.BrokerKeyRepository
	if cfg.Database.FernetKey != "" {
		brokerKeyRepo, err = repository.NewBrokerKeyRepository(db, cfg.Database.FernetKey)
		if err != nil {
			log.Fatalf("Failed to initialize broker key store: %v", err)
		}
	} else {
		log.Printf("FERNET_KEY not set, broker credentials cannot be stored")
	}

	// Create the broker client. Caches are shared across all requests.
	quoteCache := broker.NewQuoteCache(broker.DefaultQuoteTTL, nil)
	instrumentCache := broker.NewInstrumentCache(broker.DefaultInstrumentTTL, nil)
	kite := broker.NewKiteClient(
		cfg.Broker.BaseURL,
		time.Duration(cfg.Broker.TimeoutSeconds)*time.Second,
		quoteCache,
		instrumentCache,
	)

	logger := log.Default()

	// Create services
	systemService := service.NewSystemService(db)
	metricsService := service.NewMetricsService(tradeRepo, payinRepo, logger)
	snapshotService := service.NewSnapshotService(snapshotRepo, tradeRepo, payinRepo, metricsService, logger)
	tradeService := service.NewTradeService(tradeRepo, kite, logger)
	payinService := service.NewPayinService(payinRepo, logger)
	syncService := service.NewSyncService(db, tradeRepo, snapshotRepo, kite, logger)
	migrationService := service.NewMigrationService(tradeRepo, accountRepo, kite, logger)

	resolveSession := newSessionResolver(brokerKeyRepo, cfg.Broker.APIKey)

	// Create router
	router := api.NewRouter(api.Services{
		System:         systemService,
		Trades:         tradeService,
		Payins:         payinService,
		Snapshots:      snapshotService,
		Sync:           syncService,
		Migration:      migrationService,
		Accounts:       accountRepo,
		BrokerKeys:     brokerKeyRepo,
		ResolveSession: resolveSession,
	}, cfg)

	// Start the daily snapshot scheduler
	sched := scheduler.New(snapshotService, logger)
	if err := sched.Start(cfg.Snapshot.Schedule); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// newSessionResolver looks up the account's stored API key, falling back to
// the configured key when the account has none. The access token always comes
// from the request; Kite tokens expire daily and are never persisted.
func newSessionResolver(brokerKeyRepo *repository.BrokerKeyRepository, fallbackAPIKey string) handlers.SessionResolver {
	return func(accountID, accessToken string) (broker.Session, error) {
		if brokerKeyRepo != nil && accountID != "" {
			key, err := brokerKeyRepo.GetActive(accountID)
			if err == nil {
				return broker.Session{APIKey: key.APIKey, AccessToken: accessToken}, nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return broker.Session{}, err
			}
		}
		if fallbackAPIKey == "" {
			return broker.Session{}, errors.New("no API key configured for account")
		}
		return broker.Session{APIKey: fallbackAPIKey, AccessToken: accessToken}, nil
	}
}
