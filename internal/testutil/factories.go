package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
)

// TradeBuilder builds test trades with sensible defaults.
//
// Example usage:
//
//	trade := testutil.NewTrade().
//	    WithSymbol("RELIANCE").
//	    WithBuy("2024-01-05", 500, 100).
//	    Build(t, db)
type TradeBuilder struct {
	trade model.Trade
}

// NewTrade creates a TradeBuilder for an open trade with default values.
func NewTrade() *TradeBuilder {
	now := time.Now().UTC()
	qty := 10
	return &TradeBuilder{
		trade: model.Trade{
			ID:              MakeID(),
			Symbol:          MakeSymbol(),
			BuyDate:         now,
			BuyPrice:        100,
			Quantity:        qty,
			BuyAmount:       1000,
			BuyCharges:      0,
			Status:          model.TradeOpen,
			CurrentQuantity: &qty,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}
}

// WithSymbol sets the trading symbol.
func (b *TradeBuilder) WithSymbol(symbol string) *TradeBuilder {
	b.trade.Symbol = symbol
	return b
}

// WithBuy sets the buy leg. Date is "2006-01-02"; BuyAmount is recomputed.
func (b *TradeBuilder) WithBuy(date string, price float64, quantity int) *TradeBuilder {
	b.trade.BuyDate = mustParseDate(date)
	b.trade.BuyPrice = price
	b.trade.Quantity = quantity
	b.trade.BuyAmount = price * float64(quantity)
	b.trade.CurrentQuantity = &quantity
	return b
}

// WithBuyCharges sets the buy-side charges.
func (b *TradeBuilder) WithBuyCharges(charges float64) *TradeBuilder {
	b.trade.BuyCharges = charges
	return b
}

// WithCurrentPrice sets the last synced price.
func (b *TradeBuilder) WithCurrentPrice(price float64) *TradeBuilder {
	b.trade.CurrentPrice = &price
	return b
}

// WithAccount sets the owning account.
func (b *TradeBuilder) WithAccount(accountID string) *TradeBuilder {
	b.trade.AccountID = &accountID
	return b
}

// WithStrategy sets the trading strategy tag.
func (b *TradeBuilder) WithStrategy(strategy string) *TradeBuilder {
	b.trade.TradingStrategy = &strategy
	return b
}

// Closed closes the trade with the given sell leg. Date is "2006-01-02".
func (b *TradeBuilder) Closed(date string, price, charges float64) *TradeBuilder {
	sellDate := mustParseDate(date)
	amount := price * float64(b.trade.Quantity)
	b.trade.Status = model.TradeClosed
	b.trade.SellDate = &sellDate
	b.trade.SellPrice = &price
	b.trade.SellAmount = &amount
	b.trade.SellCharges = &charges
	return b
}

// WithoutSellAmount clears the recorded sell amount, leaving only the sell
// price on a closed trade.
func (b *TradeBuilder) WithoutSellAmount() *TradeBuilder {
	b.trade.SellAmount = nil
	return b
}

// Build inserts the trade and returns it.
func (b *TradeBuilder) Build(t *testing.T, db *sql.DB) *model.Trade {
	t.Helper()

	trade := b.trade
	repo := repository.NewTradeRepository(db)
	if err := repo.Insert(&trade); err != nil {
		t.Fatalf("Failed to insert test trade: %v", err)
	}
	return &trade
}

// PayinBuilder builds test payins with sensible defaults.
type PayinBuilder struct {
	payin model.Payin
}

// NewPayin creates a PayinBuilder with default values.
func NewPayin() *PayinBuilder {
	now := time.Now().UTC()
	return &PayinBuilder{
		payin: model.Payin{
			ID:        MakeID(),
			PayinDate: now,
			Amount:    10000,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithAmount sets the deposit amount. Negative means a withdrawal.
func (b *PayinBuilder) WithAmount(amount float64) *PayinBuilder {
	b.payin.Amount = amount
	return b
}

// WithDate sets the payin date from "2006-01-02".
func (b *PayinBuilder) WithDate(date string) *PayinBuilder {
	b.payin.PayinDate = mustParseDate(date)
	return b
}

// WithShares sets the share-unit fields.
func (b *PayinBuilder) WithShares(nav, shares float64) *PayinBuilder {
	b.payin.NAV = &nav
	b.payin.NumberOfShares = &shares
	return b
}

// WithAccount sets the owning account.
func (b *PayinBuilder) WithAccount(accountID string) *PayinBuilder {
	b.payin.AccountID = &accountID
	return b
}

// Build inserts the payin and returns it.
func (b *PayinBuilder) Build(t *testing.T, db *sql.DB) *model.Payin {
	t.Helper()

	payin := b.payin
	repo := repository.NewPayinRepository(db)
	if err := repo.Insert(&payin); err != nil {
		t.Fatalf("Failed to insert test payin: %v", err)
	}
	return &payin
}

// CreateSymbolPrices writes the symbol-price baseline used for day-change
// calculations, replacing whatever is there.
func CreateSymbolPrices(t *testing.T, db *sql.DB, prices map[string]float64) {
	t.Helper()

	now := time.Now().UTC()
	rows := make([]model.SnapshotSymbolPrice, 0, len(prices))
	for symbol, ltp := range prices {
		rows = append(rows, model.SnapshotSymbolPrice{
			ID:              MakeID(),
			Symbol:          symbol,
			LTP:             ltp,
			SnapshotTakenAt: now,
			CreatedAt:       now,
		})
	}

	repo := repository.NewSnapshotRepository(db)
	if err := repo.ReplaceSymbolPrices(rows); err != nil {
		t.Fatalf("Failed to insert symbol prices: %v", err)
	}
}

// CreateAccount inserts an account row and returns it.
func CreateAccount(t *testing.T, db *sql.DB, accountID string) *model.AccountDetail {
	t.Helper()

	now := time.Now().UTC()
	account := &model.AccountDetail{
		ID:              MakeID(),
		AccountID:       accountID,
		AccountType:     "MAIN",
		TradingStrategy: model.StrategySwing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	repo := repository.NewAccountRepository(db)
	if err := repo.Upsert(account); err != nil {
		t.Fatalf("Failed to insert test account: %v", err)
	}
	return account
}

func mustParseDate(date string) time.Time {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic("testutil: bad date literal " + date + ": " + err.Error())
	}
	return parsed
}
