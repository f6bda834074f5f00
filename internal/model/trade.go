package model

import "time"

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

const (
	// TradeOpen marks a position that is still held.
	TradeOpen TradeStatus = "OPEN"

	// TradeClosed marks a position that has been sold in full.
	TradeClosed TradeStatus = "CLOSED"
)

// Well-known trading strategy tags. The column is free-form; these are the
// values the snapshot scheduler materializes by default.
const (
	StrategySwing    = "SWING"
	StrategyLongTerm = "LONG_TERM"

	// StrategyOverall means "no strategy filter" on snapshots and metrics.
	StrategyOverall = "OVERALL"
)

// Trade represents a single fully-fungible lot: bought once, sold once in
// full, never split. Sell fields stay nil until the trade is closed; the
// live-price fields (CurrentPrice, DayChange) are maintained by the sync
// engine while the trade is open and frozen once it closes.
//
// DayChange is computed against the last snapshot baseline, not the
// exchange's trading-day open: it is "change since last snapshot".
type Trade struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`

	BuyDate    time.Time `json:"buy_date"`
	BuyPrice   float64   `json:"buy_price"`
	Quantity   int       `json:"quantity"`
	BuyAmount  float64   `json:"buy_amount"` // buy_price * quantity at creation; stored, not recomputed
	BuyCharges float64   `json:"buy_charges"`

	SellDate    *time.Time `json:"sell_date,omitempty"`
	SellPrice   *float64   `json:"sell_price,omitempty"`
	SellAmount  *float64   `json:"sell_amount,omitempty"`
	SellCharges *float64   `json:"sell_charges,omitempty"`

	Industry *string `json:"industry,omitempty"`
	Trader   *string `json:"trader,omitempty"`

	Status          TradeStatus `json:"status"`
	TradingStrategy *string     `json:"trading_strategy,omitempty"` // free-form tag, e.g. "SWING" or "LONG_TERM"

	ExecutedViaAPI *string `json:"executed_via_api,omitempty"` // "ZERODHA" when the order went through the broker
	BuyOrderID     *string `json:"buy_order_id,omitempty"`
	SellOrderID    *string `json:"sell_order_id,omitempty"`
	AccountID      *string `json:"account_id,omitempty"`

	CurrentPrice    *float64   `json:"current_price,omitempty"`
	CurrentQuantity *int       `json:"current_quantity,omitempty"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	PricePending    bool       `json:"price_pending"` // a market order was placed but the executed price is not confirmed yet

	DayChange           *float64 `json:"day_change,omitempty"`
	DayChangePercentage *float64 `json:"day_change_percentage,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfitLoss returns realized P/L for a closed trade or unrealized P/L for an
// open one. Returns nil when the trade cannot be valued (open without a
// current price, or closed without a sell price).
func (t *Trade) ProfitLoss() *float64 {
	totalBuy := t.BuyAmount + t.BuyCharges

	switch {
	case t.Status == TradeClosed && t.SellPrice != nil:
		sellCharges := 0.0
		if t.SellCharges != nil {
			sellCharges = *t.SellCharges
		}
		totalSell := (*t.SellPrice * float64(t.Quantity)) - sellCharges
		if t.SellAmount != nil {
			totalSell = *t.SellAmount - sellCharges
		}
		pl := totalSell - totalBuy
		return &pl
	case t.Status == TradeOpen && t.CurrentPrice != nil:
		pl := (*t.CurrentPrice * float64(t.Quantity)) - totalBuy
		return &pl
	}

	return nil
}

// ProfitPercentage returns P/L as a percentage of the total buy cost,
// or nil when the trade cannot be valued.
func (t *Trade) ProfitPercentage() *float64 {
	totalBuy := t.BuyAmount + t.BuyCharges
	if totalBuy == 0 {
		return nil
	}
	pl := t.ProfitLoss()
	if pl == nil {
		return nil
	}
	pct := *pl / totalBuy * 100
	return &pct
}

// AgingDays returns how many days the trade has been (or was) open.
func (t *Trade) AgingDays(today time.Time) int {
	if t.Status == TradeClosed && t.SellDate != nil {
		return int(t.SellDate.Sub(t.BuyDate).Hours() / 24)
	}
	return int(today.Sub(t.BuyDate).Hours() / 24)
}

// TradeFilter controls which trades a list query returns.
type TradeFilter struct {
	Status          string // "OPEN", "CLOSED" or "" for all
	AccountID       string
	TradingStrategy string
	Symbol          string
}
