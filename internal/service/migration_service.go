package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
)

// MigrationResult summarizes a holdings import.
type MigrationResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped"`
}

// MigrationService performs the one-time import of existing broker holdings
// into the trade ledger. Each holding becomes a synthetic OPEN trade at its
// average cost, dated the day of the migration, with zero charges. The run
// is idempotent per account: a completed migration is marked on the account
// row and a second run fails with ErrMigrationDone, and holdings that
// already match an open trade by symbol and quantity are skipped.
type MigrationService struct {
	tradeRepo   *repository.TradeRepository
	accountRepo *repository.AccountRepository
	market      broker.MarketData
	logger      *log.Logger
}

// NewMigrationService creates a new MigrationService.
func NewMigrationService(
	tradeRepo *repository.TradeRepository,
	accountRepo *repository.AccountRepository,
	market broker.MarketData,
	logger *log.Logger,
) *MigrationService {
	return &MigrationService{
		tradeRepo:   tradeRepo,
		accountRepo: accountRepo,
		market:      market,
		logger:      logger,
	}
}

// MigrateHoldings imports the account's demat holdings as open trades.
func (s *MigrationService) MigrateHoldings(ctx context.Context, session broker.Session, accountID string) (MigrationResult, error) {
	migrated, err := s.accountRepo.IsHoldingsMigrated(accountID)
	if err != nil {
		return MigrationResult{}, err
	}
	if migrated {
		return MigrationResult{}, apperrors.ErrMigrationDone
	}

	if err := s.ensureAccount(accountID); err != nil {
		return MigrationResult{}, err
	}

	holdings, err := s.market.GetHoldings(ctx, session)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
	}

	now := time.Now().UTC()
	result := MigrationResult{Skipped: []string{}}

	for _, h := range holdings {
		symbol := strings.ToUpper(h.Symbol)

		if h.Quantity <= 0 || h.AveragePrice <= 0 {
			result.Skipped = append(result.Skipped, symbol)
			continue
		}

		existing, err := s.tradeRepo.FindOpenBySymbolQuantity(accountID, symbol, h.Quantity)
		if err != nil {
			return result, err
		}
		if existing != nil {
			result.Skipped = append(result.Skipped, symbol)
			continue
		}

		trade := synthesizeTrade(accountID, symbol, h, now)
		if err := s.tradeRepo.Insert(trade); err != nil {
			return result, err
		}
		result.Imported++
	}

	if err := s.accountRepo.SetHoldingsMigrated(accountID, now); err != nil {
		return result, err
	}

	s.logger.Printf("migrated holdings account=%s imported=%d skipped=%d", accountID, result.Imported, len(result.Skipped))

	return result, nil
}

func synthesizeTrade(accountID, symbol string, h broker.Holding, now time.Time) *model.Trade {
	executedVia := "HOLDINGS_MIGRATION"
	currentPrice := h.LastPrice
	qty := h.Quantity

	trade := &model.Trade{
		ID:              uuid.New().String(),
		Symbol:          symbol,
		BuyDate:         now,
		BuyPrice:        h.AveragePrice,
		Quantity:        h.Quantity,
		BuyAmount:       h.AveragePrice * float64(h.Quantity),
		BuyCharges:      0,
		Status:          model.TradeOpen,
		ExecutedViaAPI:  &executedVia,
		AccountID:       &accountID,
		CurrentQuantity: &qty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if currentPrice > 0 {
		trade.CurrentPrice = &currentPrice
		trade.LastSyncedAt = &now
	}
	return trade
}

func (s *MigrationService) ensureAccount(accountID string) error {
	_, err := s.accountRepo.GetByAccountID(accountID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	now := time.Now().UTC()
	return s.accountRepo.Upsert(&model.AccountDetail{
		ID:              uuid.New().String(),
		AccountID:       accountID,
		AccountType:     "MAIN",
		TradingStrategy: model.StrategySwing,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}
