package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/handlers"
	custommiddleware "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/config"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	System    *service.SystemService
	Trades    *service.TradeService
	Payins    *service.PayinService
	Snapshots *service.SnapshotService
	Sync      *service.SyncService
	Migration *service.MigrationService

	Accounts       *repository.AccountRepository
	BrokerKeys     *repository.BrokerKeyRepository
	ResolveSession handlers.SessionResolver
}

// NewRouter creates and configures the HTTP router
func NewRouter(svcs Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svcs.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/trades", func(r chi.Router) {
			tradeHandler := handlers.NewTradeHandler(svcs.Trades, svcs.ResolveSession)
			r.Get("/", tradeHandler.ListTrades)
			r.Post("/buy", tradeHandler.BuyTrade)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", tradeHandler.GetTrade)
				r.Put("/", tradeHandler.UpdateTrade)
				r.Delete("/", tradeHandler.DeleteTrade)
				r.Post("/sell", tradeHandler.SellTrade)
			})
		})

		r.Route("/payins", func(r chi.Router) {
			payinHandler := handlers.NewPayinHandler(svcs.Payins)
			r.Get("/", payinHandler.ListPayins)
			r.Post("/", payinHandler.CreatePayin)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", payinHandler.GetPayin)
				r.Put("/", payinHandler.UpdatePayin)
				r.Delete("/", payinHandler.DeletePayin)
			})
		})

		r.Route("/snapshots", func(r chi.Router) {
			snapshotHandler := handlers.NewSnapshotHandler(svcs.Snapshots)
			r.Get("/", snapshotHandler.ListSnapshots)
			r.Post("/", snapshotHandler.MaterializeSnapshot)
			r.Post("/daily", snapshotHandler.DailySnapshots)
			r.Get("/latest-nav", snapshotHandler.LatestNAV)
			r.Get("/preview", snapshotHandler.PreviewMetrics)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", snapshotHandler.GetSnapshot)
				r.Delete("/", snapshotHandler.DeleteSnapshot)
			})
		})

		syncHandler := handlers.NewSyncHandler(svcs.Sync, svcs.Migration, svcs.ResolveSession)
		r.Post("/sync", syncHandler.Sync)
		r.Post("/migration/holdings", syncHandler.MigrateHoldings)

		r.Route("/accounts", func(r chi.Router) {
			accountHandler := handlers.NewAccountHandler(svcs.Accounts, svcs.BrokerKeys)
			r.Get("/", accountHandler.ListAccounts)
			r.Put("/", accountHandler.UpsertAccount)
			r.Put("/broker-keys", accountHandler.UpsertBrokerKey)
			r.Get("/{accountId}", accountHandler.GetAccount)
			r.Delete("/{accountId}/broker-keys", accountHandler.DeactivateBrokerKey)
		})
	})

	return r
}
