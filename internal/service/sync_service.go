package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
)

const (
	quoteRetryAttempts = 3
	quoteRetryBase     = 500 * time.Millisecond
)

// SyncResult summarizes one sync run.
type SyncResult struct {
	Synced       int       `json:"synced"`
	Skipped      []string  `json:"skipped"`
	Holdings     int       `json:"holdings"`
	Positions    int       `json:"positions"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// SyncService pulls live prices from the broker into the open trades.
//
// Day change is always computed against the snapshot symbol-price baseline,
// never the broker's own net_change: the broker resets at the exchange's
// trading-day open, while the dashboard wants movement since the last
// materialized snapshot. Trades with no baseline get a nil day change until
// the next snapshot runs.
type SyncService struct {
	db           *sql.DB
	tradeRepo    *repository.TradeRepository
	snapshotRepo *repository.SnapshotRepository
	market       broker.MarketData
	logger       *log.Logger

	mu       sync.Mutex
	lastSync time.Time
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	db *sql.DB,
	tradeRepo *repository.TradeRepository,
	snapshotRepo *repository.SnapshotRepository,
	market broker.MarketData,
	logger *log.Logger,
) *SyncService {
	return &SyncService{
		db:           db,
		tradeRepo:    tradeRepo,
		snapshotRepo: snapshotRepo,
		market:       market,
		logger:       logger,
	}
}

// LastSync returns when the last successful sync completed, or the zero time.
func (s *SyncService) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// SyncPositions fetches quotes for every open trade in the account (all
// accounts when accountID is empty) and updates the live-price columns in a
// single transaction. Symbols the broker cannot quote are skipped and
// reported, not fatal. A total broker failure returns ErrBrokerUnavailable.
func (s *SyncService) SyncPositions(ctx context.Context, session broker.Session, accountID string) (SyncResult, error) {
	openTrades, err := s.tradeRepo.GetOpenTrades(accountID)
	if err != nil {
		return SyncResult{}, err
	}
	if len(openTrades) == 0 {
		return SyncResult{Skipped: []string{}}, nil
	}

	symbolSet := make(map[string]bool)
	for _, t := range openTrades {
		symbolSet[strings.ToUpper(t.Symbol)] = true
	}
	symbols := make([]string, 0, len(symbolSet))
	for symbol := range symbolSet {
		symbols = append(symbols, symbol)
	}

	quotes, err := s.fetchQuotes(ctx, session, symbols)
	if err != nil {
		return SyncResult{}, fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
	}

	baseline, err := s.snapshotRepo.GetSymbolPrices()
	if err != nil {
		return SyncResult{}, err
	}

	now := time.Now().UTC()
	result := SyncResult{Skipped: []string{}, LastSyncedAt: now}

	tx, err := s.db.Begin()
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to begin sync transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range openTrades {
		t := &openTrades[i]
		symbol := strings.ToUpper(t.Symbol)

		quote, ok := quotes[symbol]
		if !ok || quote.LastPrice <= 0 {
			result.Skipped = append(result.Skipped, symbol)
			continue
		}

		lastPrice := quote.LastPrice
		t.CurrentPrice = &lastPrice
		t.LastSyncedAt = &now

		if base, ok := baseline[symbol]; ok && base.LTP > 0 {
			change := lastPrice - base.LTP
			changePct := change / base.LTP * 100
			t.DayChange = &change
			t.DayChangePercentage = &changePct
		} else {
			t.DayChange = nil
			t.DayChangePercentage = nil
		}

		if err := s.tradeRepo.UpdateSyncFieldsTx(tx, t); err != nil {
			return SyncResult{}, err
		}
		result.Synced++
	}

	if err := tx.Commit(); err != nil {
		return SyncResult{}, fmt.Errorf("failed to commit sync transaction: %w", err)
	}

	s.mu.Lock()
	s.lastSync = now
	s.mu.Unlock()

	s.logger.Printf("synced %d trades, skipped %d symbols", result.Synced, len(result.Skipped))

	return result, nil
}

// SyncAll refreshes open-trade prices and, concurrently, pulls the broker's
// holdings and positions so the response can report what the broker sees.
func (s *SyncService) SyncAll(ctx context.Context, session broker.Session, accountID string) (SyncResult, error) {
	var holdings []broker.Holding
	var positions []broker.Position

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		holdings, err = s.market.GetHoldings(gctx, session)
		return err
	})
	g.Go(func() error {
		var err error
		positions, err = s.market.GetPositions(gctx, session)
		return err
	})
	if err := g.Wait(); err != nil {
		return SyncResult{}, fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
	}

	result, err := s.SyncPositions(ctx, session, accountID)
	if err != nil {
		return SyncResult{}, err
	}

	result.Holdings = len(holdings)
	result.Positions = len(positions)
	return result, nil
}

// fetchQuotes batch-fetches NSE quotes with retry, then retries the symbols
// NSE could not price on BSE. BSE failures only matter for the symbols that
// needed the fallback.
func (s *SyncService) fetchQuotes(ctx context.Context, session broker.Session, symbols []string) (map[string]broker.Quote, error) {
	quotes, err := s.batchQuotesWithRetry(ctx, session, broker.ExchangeNSE, symbols)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, symbol := range symbols {
		if q, ok := quotes[symbol]; !ok || q.LastPrice <= 0 {
			missing = append(missing, symbol)
		}
	}
	if len(missing) == 0 {
		return quotes, nil
	}

	bseQuotes, err := s.batchQuotesWithRetry(ctx, session, broker.ExchangeBSE, missing)
	if err != nil {
		s.logger.Printf("BSE fallback failed for %d symbols: %v", len(missing), err)
		return quotes, nil
	}
	for symbol, q := range bseQuotes {
		if q.LastPrice > 0 {
			quotes[symbol] = q
		}
	}

	return quotes, nil
}

func (s *SyncService) batchQuotesWithRetry(ctx context.Context, session broker.Session, exchange string, symbols []string) (map[string]broker.Quote, error) {
	var quotes map[string]broker.Quote

	backoff := retry.WithMaxRetries(quoteRetryAttempts, retry.NewExponential(quoteRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		quotes, err = s.market.GetBatchQuotes(ctx, session, exchange, symbols)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quotes, nil
}
