package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/testutil"
)

func TestBuy(t *testing.T) {
	session := broker.Session{APIKey: "key", AccessToken: "token"}

	t.Run("records the trade with charges", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		trade, err := svc.Buy(context.Background(), session, service.BuyRequest{
			Symbol:   "reliance",
			BuyDate:  asOfDate(t, "2024-01-05"),
			BuyPrice: 500,
			Quantity: 100,
			Product:  service.ProductDelivery,
		})
		if err != nil {
			t.Fatalf("Buy failed: %v", err)
		}

		if trade.Symbol != "RELIANCE" {
			t.Errorf("Expected the symbol upper-cased, got %s", trade.Symbol)
		}
		if trade.BuyAmount != 50000 {
			t.Errorf("Expected buy amount 50000, got %f", trade.BuyAmount)
		}
		expectedCharges := service.CalculateBuyCharges(500, 100, service.ProductDelivery)
		if trade.BuyCharges != expectedCharges {
			t.Errorf("Expected buy charges %f, got %f", expectedCharges, trade.BuyCharges)
		}
		if trade.Status != model.TradeOpen {
			t.Errorf("Expected an open trade, got %s", trade.Status)
		}
		if trade.ExecutedViaAPI != nil {
			t.Errorf("Expected no broker marker on a manual trade, got %v", *trade.ExecutedViaAPI)
		}

		testutil.AssertRowCount(t, db, "trades", 1)
	})

	t.Run("rejects invalid quantity and price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		_, err := svc.Buy(context.Background(), session, service.BuyRequest{Symbol: "X", BuyPrice: 100, Quantity: 0})
		if !errors.Is(err, apperrors.ErrInvalidQuantity) {
			t.Errorf("Expected ErrInvalidQuantity, got %v", err)
		}

		_, err = svc.Buy(context.Background(), session, service.BuyRequest{Symbol: "X", BuyPrice: 0, Quantity: 10})
		if !errors.Is(err, apperrors.ErrInvalidPrice) {
			t.Errorf("Expected ErrInvalidPrice, got %v", err)
		}
	})

	t.Run("limit order through the broker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		svc := testutil.NewTestTradeService(t, db, mock)

		trade, err := svc.Buy(context.Background(), session, service.BuyRequest{
			Symbol:       "RELIANCE",
			BuyDate:      asOfDate(t, "2024-01-05"),
			BuyPrice:     500,
			Quantity:     100,
			ExecuteOrder: true,
			OrderType:    "LIMIT",
		})
		if err != nil {
			t.Fatalf("Buy failed: %v", err)
		}

		if mock.OrderCalls != 1 {
			t.Errorf("Expected 1 order placed, got %d", mock.OrderCalls)
		}
		if trade.BuyOrderID == nil {
			t.Error("Expected the broker order ID to be recorded")
		}
		if trade.ExecutedViaAPI == nil || *trade.ExecutedViaAPI != "ZERODHA" {
			t.Errorf("Expected the ZERODHA marker, got %v", trade.ExecutedViaAPI)
		}
		if trade.PricePending {
			t.Error("Expected a limit order to record its price immediately")
		}
	})

	t.Run("market order flags the price pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithFillPrice(502.35)
		svc := testutil.NewTestTradeService(t, db, mock)

		trade, err := svc.Buy(context.Background(), session, service.BuyRequest{
			Symbol:       "RELIANCE",
			BuyDate:      asOfDate(t, "2024-01-05"),
			BuyPrice:     500,
			Quantity:     100,
			ExecuteOrder: true,
			OrderType:    "MARKET",
		})
		if err != nil {
			t.Fatalf("Buy failed: %v", err)
		}

		if !trade.PricePending {
			t.Error("Expected a market order to start price pending")
		}
	})

	t.Run("rejects a symbol missing from the instrument dump", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker().WithInstruments("RELIANCE", "INFY")
		svc := testutil.NewTestTradeService(t, db, mock)

		_, err := svc.Buy(context.Background(), session, service.BuyRequest{
			Symbol:       "NOSUCH",
			BuyDate:      asOfDate(t, "2024-01-05"),
			BuyPrice:     500,
			Quantity:     100,
			ExecuteOrder: true,
			OrderType:    "LIMIT",
		})
		if !errors.Is(err, apperrors.ErrUnknownSymbol) {
			t.Errorf("Expected ErrUnknownSymbol, got %v", err)
		}
		if mock.OrderCalls != 0 {
			t.Errorf("Expected no order placed, got %d", mock.OrderCalls)
		}
		testutil.AssertRowCount(t, db, "trades", 0)

		if _, err := svc.Buy(context.Background(), session, service.BuyRequest{
			Symbol:       "reliance",
			BuyDate:      asOfDate(t, "2024-01-05"),
			BuyPrice:     500,
			Quantity:     100,
			ExecuteOrder: true,
			OrderType:    "LIMIT",
		}); err != nil {
			t.Fatalf("Buy failed for a listed symbol: %v", err)
		}
	})

	t.Run("broker rejection records nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		mock.OrderErr = errors.New("insufficient funds")
		svc := testutil.NewTestTradeService(t, db, mock)

		_, err := svc.Buy(context.Background(), session, service.BuyRequest{
			Symbol:       "RELIANCE",
			BuyDate:      asOfDate(t, "2024-01-05"),
			BuyPrice:     500,
			Quantity:     100,
			ExecuteOrder: true,
			OrderType:    "LIMIT",
		})
		if !errors.Is(err, apperrors.ErrBrokerUnavailable) {
			t.Errorf("Expected ErrBrokerUnavailable, got %v", err)
		}

		testutil.AssertRowCount(t, db, "trades", 0)
	})
}

func TestSell(t *testing.T) {
	session := broker.Session{APIKey: "key", AccessToken: "token"}

	t.Run("closes the trade", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		trade := testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		price := 550.0
		closed, err := svc.Sell(context.Background(), session, trade.ID, service.SellRequest{
			SellDate:  asOfDate(t, "2024-02-01"),
			SellPrice: &price,
			Product:   service.ProductDelivery,
		})
		if err != nil {
			t.Fatalf("Sell failed: %v", err)
		}

		if closed.Status != model.TradeClosed {
			t.Errorf("Expected a closed trade, got %s", closed.Status)
		}
		if closed.SellAmount == nil || *closed.SellAmount != 55000 {
			t.Errorf("Expected sell amount 55000, got %v", closed.SellAmount)
		}
		if closed.SellCharges == nil || *closed.SellCharges <= 0 {
			t.Errorf("Expected positive sell charges, got %v", closed.SellCharges)
		}
	})

	t.Run("sells exactly once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		trade := testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		price := 550.0
		req := service.SellRequest{SellDate: asOfDate(t, "2024-02-01"), SellPrice: &price}
		if _, err := svc.Sell(context.Background(), session, trade.ID, req); err != nil {
			t.Fatalf("First sell failed: %v", err)
		}

		_, err := svc.Sell(context.Background(), session, trade.ID, req)
		if !errors.Is(err, apperrors.ErrTradeAlreadyClosed) {
			t.Errorf("Expected ErrTradeAlreadyClosed, got %v", err)
		}
	})

	t.Run("manual sell requires a price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		trade := testutil.NewTrade().WithSymbol("RELIANCE").WithBuy("2024-01-05", 500, 100).Build(t, db)

		_, err := svc.Sell(context.Background(), session, trade.ID, service.SellRequest{
			SellDate: asOfDate(t, "2024-02-01"),
		})
		if !errors.Is(err, apperrors.ErrMissingSellPrice) {
			t.Errorf("Expected ErrMissingSellPrice, got %v", err)
		}
	})

	t.Run("market sell settles at the last synced price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockBroker()
		svc := testutil.NewTestTradeService(t, db, mock)

		trade := testutil.NewTrade().
			WithSymbol("RELIANCE").
			WithBuy("2024-01-05", 500, 100).
			WithCurrentPrice(548).
			Build(t, db)

		closed, err := svc.Sell(context.Background(), session, trade.ID, service.SellRequest{
			SellDate:     asOfDate(t, "2024-02-01"),
			ExecuteOrder: true,
			OrderType:    "MARKET",
		})
		if err != nil {
			t.Fatalf("Sell failed: %v", err)
		}

		if closed.SellPrice == nil || *closed.SellPrice != 548 {
			t.Errorf("Expected sell price 548, got %v", closed.SellPrice)
		}
		if closed.SellOrderID == nil {
			t.Error("Expected the sell order ID to be recorded")
		}
	})

	t.Run("unknown trade", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		price := 100.0
		_, err := svc.Sell(context.Background(), session, testutil.MakeID(), service.SellRequest{SellPrice: &price})
		if !errors.Is(err, apperrors.ErrTradeNotFound) {
			t.Errorf("Expected ErrTradeNotFound, got %v", err)
		}
	})
}

func TestTradeUpdate(t *testing.T) {
	t.Run("rejects invalid fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		trade := testutil.NewTrade().WithBuy("2024-01-05", 500, 100).Build(t, db)

		trade.Quantity = 0
		if err := svc.Update(trade); !errors.Is(err, apperrors.ErrInvalidQuantity) {
			t.Errorf("Expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("persists changes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTradeService(t, db, testutil.NewMockBroker())

		trade := testutil.NewTrade().WithBuy("2024-01-05", 500, 100).Build(t, db)

		trade.BuyPrice = 510
		trade.BuyAmount = 51000
		if err := svc.Update(trade); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		reloaded, err := svc.Get(trade.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if reloaded.BuyPrice != 510 {
			t.Errorf("Expected buy price 510, got %f", reloaded.BuyPrice)
		}
	})
}
