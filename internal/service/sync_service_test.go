package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/testutil"
)

func TestSyncPositions(t *testing.T) {
	session := broker.Session{APIKey: "key", AccessToken: "token"}

	t.Run("updates current price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithQuote("NSE", "RELIANCE", 550)
		svc := testutil.NewTestSyncService(t, db, mock)

		trade := testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		result, err := svc.SyncPositions(context.Background(), session, "")
		if err != nil {
			t.Fatalf("SyncPositions failed: %v", err)
		}
		if result.Synced != 1 {
			t.Errorf("Expected 1 synced trade, got %d", result.Synced)
		}

		updated, err := repository.NewTradeRepository(db).GetOnID(trade.ID)
		if err != nil {
			t.Fatalf("Failed to reload trade: %v", err)
		}
		if updated.CurrentPrice == nil || *updated.CurrentPrice != 550 {
			t.Errorf("Expected current price 550, got %v", updated.CurrentPrice)
		}
		if updated.LastSyncedAt == nil {
			t.Error("Expected last synced timestamp to be set")
		}
	})

	t.Run("day change without a baseline stays nil", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithQuote("NSE", "RELIANCE", 550)
		svc := testutil.NewTestSyncService(t, db, mock)

		trade := testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		if _, err := svc.SyncPositions(context.Background(), session, ""); err != nil {
			t.Fatalf("SyncPositions failed: %v", err)
		}

		updated, err := repository.NewTradeRepository(db).GetOnID(trade.ID)
		if err != nil {
			t.Fatalf("Failed to reload trade: %v", err)
		}
		if updated.DayChange != nil {
			t.Errorf("Expected nil day change without a baseline, got %f", *updated.DayChange)
		}
	})

	t.Run("day change against the snapshot baseline", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithQuote("NSE", "RELIANCE", 550)
		svc := testutil.NewTestSyncService(t, db, mock)

		trade := testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 480, 100).Build(t, db)
		testutil.CreateSymbolPrices(t, db, map[string]float64{"RELIANCE": 500})

		if _, err := svc.SyncPositions(context.Background(), session, ""); err != nil {
			t.Fatalf("SyncPositions failed: %v", err)
		}

		updated, err := repository.NewTradeRepository(db).GetOnID(trade.ID)
		if err != nil {
			t.Fatalf("Failed to reload trade: %v", err)
		}
		if updated.DayChange == nil || *updated.DayChange != 50 {
			t.Errorf("Expected day change 50 against the baseline, got %v", updated.DayChange)
		}
		if updated.DayChangePercentage == nil || *updated.DayChangePercentage != 10 {
			t.Errorf("Expected day change 10%%, got %v", updated.DayChangePercentage)
		}
	})

	t.Run("falls back to BSE for symbols NSE cannot price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithQuote("BSE", "SMALLCAP", 120)
		svc := testutil.NewTestSyncService(t, db, mock)

		trade := testutil.NewTrade().WithSymbol("SMALLCAP").WithBuy("2024-01-05", 100, 10).Build(t, db)

		result, err := svc.SyncPositions(context.Background(), session, "")
		if err != nil {
			t.Fatalf("SyncPositions failed: %v", err)
		}
		if result.Synced != 1 {
			t.Errorf("Expected the BSE fallback to sync the trade, got %d synced", result.Synced)
		}

		updated, err := repository.NewTradeRepository(db).GetOnID(trade.ID)
		if err != nil {
			t.Fatalf("Failed to reload trade: %v", err)
		}
		if updated.CurrentPrice == nil || *updated.CurrentPrice != 120 {
			t.Errorf("Expected BSE price 120, got %v", updated.CurrentPrice)
		}
	})

	t.Run("unquotable symbols are skipped not fatal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithQuote("NSE", "RELIANCE", 550)
		svc := testutil.NewTestSyncService(t, db, mock)

		testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)
		testutil.NewTrade().WithSymbol("DELISTED").WithBuy("2024-01-05", 50, 10).Build(t, db)

		result, err := svc.SyncPositions(context.Background(), session, "")
		if err != nil {
			t.Fatalf("SyncPositions failed: %v", err)
		}
		if result.Synced != 1 {
			t.Errorf("Expected 1 synced trade, got %d", result.Synced)
		}
		if len(result.Skipped) != 1 || result.Skipped[0] != "DELISTED" {
			t.Errorf("Expected DELISTED to be skipped, got %v", result.Skipped)
		}
	})

	t.Run("retries transient quote failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithQuote("NSE", "RELIANCE", 550)
		mock.QuoteFailures = 1
		svc := testutil.NewTestSyncService(t, db, mock)

		testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		result, err := svc.SyncPositions(context.Background(), session, "")
		if err != nil {
			t.Fatalf("SyncPositions failed after retry: %v", err)
		}
		if result.Synced != 1 {
			t.Errorf("Expected 1 synced trade, got %d", result.Synced)
		}
		if mock.QuoteCalls < 2 {
			t.Errorf("Expected at least 2 quote calls, got %d", mock.QuoteCalls)
		}
	})

	t.Run("total broker failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithQuoteError(errors.New("connection refused"))
		svc := testutil.NewTestSyncService(t, db, mock)

		testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		_, err := svc.SyncPositions(context.Background(), session, "")
		if !errors.Is(err, apperrors.ErrBrokerUnavailable) {
			t.Errorf("Expected ErrBrokerUnavailable, got %v", err)
		}
	})

	t.Run("no open trades is a no-op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		svc := testutil.NewTestSyncService(t, db, mock)

		result, err := svc.SyncPositions(context.Background(), session, "")
		if err != nil {
			t.Fatalf("SyncPositions failed: %v", err)
		}
		if result.Synced != 0 || mock.QuoteCalls != 0 {
			t.Errorf("Expected no work without open trades, got %+v after %d calls", result, mock.QuoteCalls)
		}
	})
}

func TestSyncAll(t *testing.T) {
	session := broker.Session{APIKey: "key", AccessToken: "token"}

	t.Run("reports broker holdings and positions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().
			WithQuote("NSE", "RELIANCE", 550).
			WithHoldings([]broker.Holding{{Symbol: "RELIANCE", Quantity: 100}}).
			WithPositions([]broker.Position{{Symbol: "INFY", Quantity: 10}})
		svc := testutil.NewTestSyncService(t, db, mock)

		testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		result, err := svc.SyncAll(context.Background(), session, "")
		if err != nil {
			t.Fatalf("SyncAll failed: %v", err)
		}

		if result.Holdings != 1 || result.Positions != 1 {
			t.Errorf("Expected 1 holding and 1 position, got %d and %d", result.Holdings, result.Positions)
		}
		if result.Synced != 1 {
			t.Errorf("Expected 1 synced trade, got %d", result.Synced)
		}
		if svc.LastSync().IsZero() {
			t.Error("Expected the last sync time to be recorded")
		}
	})

	t.Run("holdings failure aborts the run", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithHoldingsError(errors.New("session expired"))
		svc := testutil.NewTestSyncService(t, db, mock)

		_, err := svc.SyncAll(context.Background(), session, "")
		if !errors.Is(err, apperrors.ErrBrokerUnavailable) {
			t.Errorf("Expected ErrBrokerUnavailable, got %v", err)
		}
	})
}
