// Package broker defines the market-data and order interface the rest of the
// application depends on, plus the Zerodha Kite Connect implementation of it.
package broker

import (
	"context"
	"time"
)

// Exchanges supported for quote lookups.
const (
	ExchangeNSE = "NSE"
	ExchangeBSE = "BSE"
)

// Session carries the per-request broker credentials. Access tokens expire
// daily, so the session is supplied per call rather than stored in the client.
type Session struct {
	APIKey      string
	AccessToken string
}

// OHLC is the day's open/high/low/close for one instrument.
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Quote is one instrument's live market snapshot.
type Quote struct {
	LastPrice float64  `json:"last_price"`
	OHLC      OHLC     `json:"ohlc"`
	NetChange *float64 `json:"net_change"`
	Volume    int64    `json:"volume"`
}

// Holding is one demat holding row from the broker.
type Holding struct {
	Symbol       string  `json:"tradingsymbol"`
	Exchange     string  `json:"exchange"`
	Quantity     int     `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	LastPrice    float64 `json:"last_price"`
	PNL          float64 `json:"pnl"`
}

// Position is one net intraday/derivative position row from the broker.
type Position struct {
	Symbol    string  `json:"tradingsymbol"`
	Exchange  string  `json:"exchange"`
	Quantity  int     `json:"quantity"`
	LastPrice float64 `json:"last_price"`
	PNL       float64 `json:"pnl"`
}

// OrderParams describes an equity order to place.
type OrderParams struct {
	Symbol          string
	Exchange        string
	TransactionType string // "BUY" or "SELL"
	Quantity        int
	Product         string // "CNC" or "MIS"
	OrderType       string // "MARKET" or "LIMIT"
	Price           float64
}

// Order is the broker's view of a placed order.
type Order struct {
	OrderID      string  `json:"order_id"`
	Status       string  `json:"status"`
	AveragePrice float64 `json:"average_price"`
	FilledQty    int     `json:"filled_quantity"`
}

// OrderComplete is the terminal status of a fully executed order.
const OrderComplete = "COMPLETE"

// Instrument is one row of the exchange's instrument master dump.
type Instrument struct {
	InstrumentToken string
	TradingSymbol   string
	Name            string
	Exchange        string
	Segment         string
	TickSize        float64
	LotSize         int
}

// MarketData is the broker surface the sync, trade and migration engines
// consume. Implementations must be safe for concurrent use.
type MarketData interface {
	// GetQuote fetches one instrument's quote from the given exchange.
	GetQuote(ctx context.Context, session Session, exchange, symbol string) (Quote, error)

	// GetBatchQuotes fetches quotes for many symbols on one exchange in a
	// single call. Missing symbols are absent from the result map, not errors.
	GetBatchQuotes(ctx context.Context, session Session, exchange string, symbols []string) (map[string]Quote, error)

	// GetHoldings fetches all demat holdings for the session's account.
	GetHoldings(ctx context.Context, session Session) ([]Holding, error)

	// GetPositions fetches the net positions for the session's account.
	GetPositions(ctx context.Context, session Session) ([]Position, error)

	// PlaceOrder submits an order and returns the broker order ID.
	PlaceOrder(ctx context.Context, session Session, params OrderParams) (string, error)

	// GetOrderStatus fetches the latest state of a placed order.
	GetOrderStatus(ctx context.Context, session Session, orderID string) (Order, error)

	// GetInstruments fetches the instrument master for one exchange.
	GetInstruments(ctx context.Context, session Session, exchange string) ([]Instrument, error)
}

// Clock returns the current time. Injected so caches are testable.
type Clock func() time.Time
