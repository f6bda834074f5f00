package service

import (
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
)

// SnapshotService materializes portfolio metrics into daily snapshot rows and
// maintains the last-observed symbol price cache.
type SnapshotService struct {
	snapshotRepo *repository.SnapshotRepository
	tradeRepo    *repository.TradeRepository
	payinRepo    *repository.PayinRepository
	metrics      *MetricsService
	logger       *log.Logger
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(
	snapshotRepo *repository.SnapshotRepository,
	tradeRepo *repository.TradeRepository,
	payinRepo *repository.PayinRepository,
	metrics *MetricsService,
	logger *log.Logger,
) *SnapshotService {
	return &SnapshotService{
		snapshotRepo: snapshotRepo,
		tradeRepo:    tradeRepo,
		payinRepo:    payinRepo,
		metrics:      metrics,
		logger:       logger,
	}
}

// Materialize computes metrics for the scope as of date and persists them,
// overwriting any snapshot already stored for the same (date, scope,
// strategy). The symbol price cache is refreshed afterwards regardless of
// whether the metrics changed.
func (s *SnapshotService) Materialize(date time.Time, scope model.Scope, strategy string) (*model.PortfolioSnapshot, error) {
	snap, err := s.materialize(date, scope, strategy)
	if err != nil {
		return nil, err
	}

	if err := s.RefreshSymbolPrices(time.Now().UTC()); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *SnapshotService) materialize(date time.Time, scope model.Scope, strategy string) (*model.PortfolioSnapshot, error) {
	m, err := s.metrics.Compute(date, scope, strategy, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	snap := &model.PortfolioSnapshot{
		ID:                    uuid.New().String(),
		SnapshotDate:          date,
		NAV:                   m.NAV,
		PortfolioValue:        m.PortfolioValue,
		TotalPayin:            m.TotalPayin,
		BookedPL:              m.BookedPL,
		FloatPL:               m.FloatPL,
		OpenPositions:         m.OpenPositions,
		Balance:               m.Balance,
		UtilisationPercent:    m.UtilisationPercent,
		XIRR:                  m.XIRR,
		AbsoluteProfitPercent: m.AbsoluteProfitPercent,
		ScopeKind:             scope.Kind,
		ScopeKey:              scope.Key(),
		TradingStrategy:       strategy,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.snapshotRepo.Upsert(snap); err != nil {
		return nil, err
	}

	s.logger.Printf("materialized snapshot date=%s scope=%s/%s strategy=%s portfolio_value=%.2f",
		date.Format("2006-01-02"), snap.ScopeKind, snap.ScopeKey, strategy, snap.PortfolioValue)

	return snap, nil
}

// RefreshSymbolPrices rebuilds the snapshot_symbol_prices table from the
// currently open trades. Each symbol gets its highest known current price;
// symbols with no positive price are dropped rather than written as zero.
// All rows carry the same takenAt stamp.
func (s *SnapshotService) RefreshSymbolPrices(takenAt time.Time) error {
	openTrades, err := s.tradeRepo.GetOpenTrades("")
	if err != nil {
		return err
	}

	bestPrice := make(map[string]float64)
	for _, t := range openTrades {
		if t.CurrentPrice == nil || *t.CurrentPrice <= 0 {
			continue
		}
		symbol := strings.ToUpper(t.Symbol)
		if *t.CurrentPrice > bestPrice[symbol] {
			bestPrice[symbol] = *t.CurrentPrice
		}
	}

	prices := make([]model.SnapshotSymbolPrice, 0, len(bestPrice))
	for symbol, ltp := range bestPrice {
		prices = append(prices, model.SnapshotSymbolPrice{
			ID:              uuid.New().String(),
			Symbol:          symbol,
			LTP:             ltp,
			SnapshotTakenAt: takenAt,
			CreatedAt:       takenAt,
		})
	}

	return s.snapshotRepo.ReplaceSymbolPrices(prices)
}

// CreateDailySnapshots materializes the standard snapshot set for one day:
// an OVERALL snapshot per account that has payins, plus aggregated
// multi-account snapshots for every strategy. Returns how many snapshots
// were written.
func (s *SnapshotService) CreateDailySnapshots(date time.Time) (int, error) {
	accountIDs, err := s.payinRepo.DistinctAccountIDs()
	if err != nil {
		return 0, err
	}

	count := 0

	for _, accountID := range accountIDs {
		if _, err := s.materialize(date, model.AccountScope(accountID), model.StrategyOverall); err != nil {
			return count, err
		}
		count++
	}

	aggregated := model.MultiAccountScope(accountIDs)
	for _, strategy := range []string{model.StrategyOverall, model.StrategySwing, model.StrategyLongTerm} {
		if _, err := s.materialize(date, aggregated, strategy); err != nil {
			return count, err
		}
		count++
	}

	if err := s.RefreshSymbolPrices(time.Now().UTC()); err != nil {
		return count, err
	}

	return count, nil
}

// Preview computes metrics without persisting anything. pendingAmount is an
// extra hypothetical deposit dated asOf.
func (s *SnapshotService) Preview(asOf time.Time, scope model.Scope, strategy string, pendingAmount float64) (Metrics, error) {
	return s.metrics.Compute(asOf, scope, strategy, pendingAmount)
}

// LatestNAV returns the most recent aggregated snapshot for the strategy,
// preferring the multi-account scope over global. Returns ErrSnapshotNotFound
// when no aggregated snapshot exists yet.
func (s *SnapshotService) LatestNAV(strategy string) (*model.PortfolioSnapshot, error) {
	if strategy == "" {
		strategy = model.StrategyOverall
	}

	snap, err := s.snapshotRepo.Latest(model.ScopeMulti, strategy)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap, err = s.snapshotRepo.Latest(model.ScopeGlobal, strategy)
		if err != nil {
			return nil, err
		}
	}
	if snap == nil {
		return nil, apperrors.ErrSnapshotNotFound
	}
	return snap, nil
}

// List returns snapshots matching the filter.
func (s *SnapshotService) List(filter model.SnapshotFilter) ([]model.PortfolioSnapshot, error) {
	return s.snapshotRepo.List(filter)
}

// Get returns one snapshot by ID.
func (s *SnapshotService) Get(id string) (*model.PortfolioSnapshot, error) {
	snap, err := s.snapshotRepo.GetOnID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSnapshotNotFound
	}
	return snap, err
}

// Delete removes one snapshot by ID.
func (s *SnapshotService) Delete(id string) error {
	err := s.snapshotRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrSnapshotNotFound
	}
	return err
}
