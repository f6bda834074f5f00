package service_test

import (
	"testing"
	"time"

	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/testutil"
)

func TestMaterialize(t *testing.T) {
	t.Run("writes one row per scope and date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewPayin().WithDate("2024-01-01").WithAmount(100000).Build(t, db)

		snap, err := svc.Materialize(asOfDate(t, "2024-02-01"), model.GlobalScope(), model.StrategyOverall)
		if err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}
		if snap.PortfolioValue != 100000 {
			t.Errorf("Expected portfolio value 100000, got %f", snap.PortfolioValue)
		}

		testutil.AssertRowCount(t, db, "portfolio_snapshots", 1)
	})

	t.Run("second run overwrites instead of duplicating", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewPayin().WithDate("2024-01-01").WithAmount(100000).Build(t, db)

		if _, err := svc.Materialize(asOfDate(t, "2024-02-01"), model.GlobalScope(), model.StrategyOverall); err != nil {
			t.Fatalf("First materialize failed: %v", err)
		}

		testutil.NewPayin().WithDate("2024-01-15").WithAmount(50000).Build(t, db)

		snap, err := svc.Materialize(asOfDate(t, "2024-02-01"), model.GlobalScope(), model.StrategyOverall)
		if err != nil {
			t.Fatalf("Second materialize failed: %v", err)
		}

		testutil.AssertRowCount(t, db, "portfolio_snapshots", 1)
		if snap.TotalPayin != 150000 {
			t.Errorf("Expected overwritten snapshot to hold payin 150000, got %f", snap.TotalPayin)
		}
	})

	t.Run("distinct scopes keep distinct rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewPayin().WithDate("2024-01-01").WithAmount(60000).WithAccount("AA1111").Build(t, db)

		date := asOfDate(t, "2024-02-01")
		if _, err := svc.Materialize(date, model.GlobalScope(), model.StrategyOverall); err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}
		if _, err := svc.Materialize(date, model.AccountScope("AA1111"), model.StrategyOverall); err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}
		if _, err := svc.Materialize(date, model.GlobalScope(), model.StrategySwing); err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}

		testutil.AssertRowCount(t, db, "portfolio_snapshots", 3)
	})

	t.Run("refreshes the symbol price cache", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewPayin().WithDate("2024-01-01").WithAmount(100000).Build(t, db)
		testutil.NewTrade().
			WithSymbol("RELIANCE").
			WithBuy("2024-01-05", 500, 100).
			WithCurrentPrice(550).
			Build(t, db)

		if _, err := svc.Materialize(asOfDate(t, "2024-02-01"), model.GlobalScope(), model.StrategyOverall); err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}

		testutil.AssertRowCount(t, db, "snapshot_symbol_prices", 1)

		var ltp float64
		if err := db.QueryRow("SELECT ltp FROM snapshot_symbol_prices WHERE symbol = ?", "RELIANCE").Scan(&ltp); err != nil {
			t.Fatalf("Failed to read symbol price: %v", err)
		}
		if ltp != 550 {
			t.Errorf("Expected baseline 550, got %f", ltp)
		}
	})
}

func TestRefreshSymbolPrices(t *testing.T) {
	t.Run("replaces the previous cache", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.CreateSymbolPrices(t, db, map[string]float64{"OLDSTOCK": 100, "GONE": 50})
		testutil.NewTrade().
			WithSymbol("RELIANCE").
			WithBuy("2024-01-05", 500, 100).
			WithCurrentPrice(550).
			Build(t, db)

		if err := svc.RefreshSymbolPrices(time.Now().UTC()); err != nil {
			t.Fatalf("RefreshSymbolPrices failed: %v", err)
		}

		testutil.AssertRowCount(t, db, "snapshot_symbol_prices", 1)
	})

	t.Run("unpriced trades are dropped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewTrade().WithSymbol("NOSYNC").WithBuy("2024-01-05", 100, 10).Build(t, db)

		if err := svc.RefreshSymbolPrices(time.Now().UTC()); err != nil {
			t.Fatalf("RefreshSymbolPrices failed: %v", err)
		}

		testutil.AssertRowCount(t, db, "snapshot_symbol_prices", 0)
	})
}

func TestCreateDailySnapshots(t *testing.T) {
	t.Run("per account plus aggregated strategies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewPayin().WithDate("2024-01-01").WithAmount(60000).WithAccount("AA1111").Build(t, db)
		testutil.NewPayin().WithDate("2024-01-01").WithAmount(40000).WithAccount("BB2222").Build(t, db)

		count, err := svc.CreateDailySnapshots(asOfDate(t, "2024-02-01"))
		if err != nil {
			t.Fatalf("CreateDailySnapshots failed: %v", err)
		}

		// 2 account snapshots + 3 aggregated strategy snapshots
		if count != 5 {
			t.Errorf("Expected 5 snapshots, got %d", count)
		}
		testutil.AssertRowCount(t, db, "portfolio_snapshots", 5)
	})

	t.Run("idempotent per day", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewPayin().WithDate("2024-01-01").WithAmount(60000).WithAccount("AA1111").Build(t, db)

		date := asOfDate(t, "2024-02-01")
		if _, err := svc.CreateDailySnapshots(date); err != nil {
			t.Fatalf("First run failed: %v", err)
		}
		if _, err := svc.CreateDailySnapshots(date); err != nil {
			t.Fatalf("Second run failed: %v", err)
		}

		testutil.AssertRowCount(t, db, "portfolio_snapshots", 4)
	})
}

func TestLatestNAV(t *testing.T) {
	t.Run("prefers aggregated over global", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		testutil.NewPayin().WithDate("2024-01-01").WithAmount(100000).WithAccount("AA1111").Build(t, db)

		if _, err := svc.CreateDailySnapshots(asOfDate(t, "2024-02-01")); err != nil {
			t.Fatalf("CreateDailySnapshots failed: %v", err)
		}

		snap, err := svc.LatestNAV("")
		if err != nil {
			t.Fatalf("LatestNAV failed: %v", err)
		}
		if snap.ScopeKind != model.ScopeMulti {
			t.Errorf("Expected a multi-account snapshot, got %s", snap.ScopeKind)
		}
		if snap.TradingStrategy != model.StrategyOverall {
			t.Errorf("Expected the overall strategy, got %s", snap.TradingStrategy)
		}
	})

	t.Run("not found without snapshots", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSnapshotService(t, db)

		if _, err := svc.LatestNAV(""); err != apperrors.ErrSnapshotNotFound {
			t.Errorf("Expected ErrSnapshotNotFound, got %v", err)
		}
	})
}
