package testutil

import (
	"database/sql"
	"io"
	"log"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
)

// MakeID generates a new UUID string for testing.
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a random trading symbol like "TST4F7A".
func MakeSymbol() string {
	return "TST" + randomAlphanumeric(4)
}

func randomAlphanumeric(n int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

// testLogger returns a logger that discards all output so test runs stay quiet.
func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// NewTestMetricsService creates a MetricsService wired to the test database.
func NewTestMetricsService(t *testing.T, db *sql.DB) *service.MetricsService {
	t.Helper()

	tradeRepo := repository.NewTradeRepository(db)
	payinRepo := repository.NewPayinRepository(db)
	return service.NewMetricsService(tradeRepo, payinRepo, testLogger())
}

// NewTestSnapshotService creates a SnapshotService wired to the test database.
func NewTestSnapshotService(t *testing.T, db *sql.DB) *service.SnapshotService {
	t.Helper()

	tradeRepo := repository.NewTradeRepository(db)
	payinRepo := repository.NewPayinRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	metrics := service.NewMetricsService(tradeRepo, payinRepo, testLogger())
	return service.NewSnapshotService(snapshotRepo, tradeRepo, payinRepo, metrics, testLogger())
}

// NewTestSyncService creates a SyncService backed by the given broker mock.
func NewTestSyncService(t *testing.T, db *sql.DB, market broker.MarketData) *service.SyncService {
	t.Helper()

	tradeRepo := repository.NewTradeRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	return service.NewSyncService(db, tradeRepo, snapshotRepo, market, testLogger())
}

// NewTestTradeService creates a TradeService backed by the given broker mock.
func NewTestTradeService(t *testing.T, db *sql.DB, market broker.MarketData) *service.TradeService {
	t.Helper()

	tradeRepo := repository.NewTradeRepository(db)
	return service.NewTradeService(tradeRepo, market, testLogger())
}

// NewTestMigrationService creates a MigrationService backed by the given
// broker mock.
func NewTestMigrationService(t *testing.T, db *sql.DB, market broker.MarketData) *service.MigrationService {
	t.Helper()

	tradeRepo := repository.NewTradeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	return service.NewMigrationService(tradeRepo, accountRepo, market, testLogger())
}

// NewTestPayinService creates a PayinService wired to the test database.
func NewTestPayinService(t *testing.T, db *sql.DB) *service.PayinService {
	t.Helper()

	payinRepo := repository.NewPayinRepository(db)
	return service.NewPayinService(payinRepo, testLogger())
}
