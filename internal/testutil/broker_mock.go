package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
)

// MockBroker implements broker.MarketData for testing without hitting the
// Kite API. Quotes are keyed by exchange then symbol; symbols absent from the
// map are simply missing from batch results, matching the real client.
//
// Example usage:
//
//	mock := testutil.NewMockBroker().
//	    WithQuote("NSE", "RELIANCE", 2500).
//	    WithHoldings([]broker.Holding{{Symbol: "INFY", Quantity: 10, AveragePrice: 1400}})
type MockBroker struct {
	mu sync.Mutex

	Quotes      map[string]map[string]broker.Quote
	Holdings    []broker.Holding
	Positions   []broker.Position
	Orders      map[string]broker.Order
	Instruments []broker.Instrument

	QuoteErr    error
	HoldingsErr error
	OrderErr    error

	// FillPrice is the executed price PlaceOrder reports for market orders,
	// where the order params carry no price of their own.
	FillPrice float64

	// QuoteFailures makes the first N batch-quote calls fail before
	// succeeding, for exercising retry paths.
	QuoteFailures int

	QuoteCalls    int
	HoldingsCalls int
	OrderCalls    int
}

// NewMockBroker creates an empty MockBroker.
func NewMockBroker() *MockBroker {
	return &MockBroker{
		Quotes: make(map[string]map[string]broker.Quote),
		Orders: make(map[string]broker.Order),
	}
}

// WithQuote registers a last price for a symbol on an exchange.
func (m *MockBroker) WithQuote(exchange, symbol string, lastPrice float64) *MockBroker {
	if m.Quotes[exchange] == nil {
		m.Quotes[exchange] = make(map[string]broker.Quote)
	}
	m.Quotes[exchange][symbol] = broker.Quote{LastPrice: lastPrice}
	return m
}

// WithHoldings sets the demat holdings the mock returns.
func (m *MockBroker) WithHoldings(holdings []broker.Holding) *MockBroker {
	m.Holdings = holdings
	return m
}

// WithPositions sets the net positions the mock returns.
func (m *MockBroker) WithPositions(positions []broker.Position) *MockBroker {
	m.Positions = positions
	return m
}

// WithOrder registers an order the mock reports from GetOrderStatus.
func (m *MockBroker) WithOrder(order broker.Order) *MockBroker {
	m.Orders[order.OrderID] = order
	return m
}

// WithFillPrice sets the executed price reported for market orders.
func (m *MockBroker) WithFillPrice(price float64) *MockBroker {
	m.FillPrice = price
	return m
}

// WithInstruments registers NSE symbols on the instrument dump.
func (m *MockBroker) WithInstruments(symbols ...string) *MockBroker {
	for _, s := range symbols {
		m.Instruments = append(m.Instruments, broker.Instrument{
			TradingSymbol: s,
			Exchange:      broker.ExchangeNSE,
		})
	}
	return m
}

// WithQuoteError makes all quote calls fail.
func (m *MockBroker) WithQuoteError(err error) *MockBroker {
	m.QuoteErr = err
	return m
}

// WithHoldingsError makes holdings and positions calls fail.
func (m *MockBroker) WithHoldingsError(err error) *MockBroker {
	m.HoldingsErr = err
	return m
}

// GetQuote returns the registered quote for the symbol.
func (m *MockBroker) GetQuote(ctx context.Context, session broker.Session, exchange, symbol string) (broker.Quote, error) {
	quotes, err := m.GetBatchQuotes(ctx, session, exchange, []string{symbol})
	if err != nil {
		return broker.Quote{}, err
	}
	quote, ok := quotes[symbol]
	if !ok {
		return broker.Quote{}, fmt.Errorf("no quote for %s:%s", exchange, symbol)
	}
	return quote, nil
}

// GetBatchQuotes returns registered quotes; unregistered symbols are absent
// from the result.
func (m *MockBroker) GetBatchQuotes(ctx context.Context, session broker.Session, exchange string, symbols []string) (map[string]broker.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QuoteCalls++

	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	if m.QuoteFailures > 0 {
		m.QuoteFailures--
		return nil, fmt.Errorf("transient quote failure")
	}

	result := make(map[string]broker.Quote)
	for _, symbol := range symbols {
		if quote, ok := m.Quotes[exchange][symbol]; ok {
			result[symbol] = quote
		}
	}
	return result, nil
}

// GetHoldings returns the registered holdings.
func (m *MockBroker) GetHoldings(ctx context.Context, session broker.Session) ([]broker.Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.HoldingsCalls++

	if m.HoldingsErr != nil {
		return nil, m.HoldingsErr
	}
	return m.Holdings, nil
}

// GetPositions returns the registered positions.
func (m *MockBroker) GetPositions(ctx context.Context, session broker.Session) ([]broker.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.HoldingsErr != nil {
		return nil, m.HoldingsErr
	}
	return m.Positions, nil
}

// PlaceOrder records the order and returns a generated order ID.
func (m *MockBroker) PlaceOrder(ctx context.Context, session broker.Session, params broker.OrderParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.OrderCalls++

	if m.OrderErr != nil {
		return "", m.OrderErr
	}

	price := params.Price
	if price == 0 {
		price = m.FillPrice
	}

	orderID := MakeID()
	m.Orders[orderID] = broker.Order{
		OrderID:      orderID,
		Status:       broker.OrderComplete,
		AveragePrice: price,
		FilledQty:    params.Quantity,
	}
	return orderID, nil
}

// GetOrderStatus returns the registered order, or a COMPLETE order when only
// placement was recorded.
func (m *MockBroker) GetOrderStatus(ctx context.Context, session broker.Session, orderID string) (broker.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OrderErr != nil {
		return broker.Order{}, m.OrderErr
	}
	order, ok := m.Orders[orderID]
	if !ok {
		return broker.Order{}, fmt.Errorf("unknown order %s", orderID)
	}
	return order, nil
}

// GetInstruments returns the registered instrument dump. An empty dump means
// callers skip symbol validation, matching a real dump fetch failure.
func (m *MockBroker) GetInstruments(ctx context.Context, session broker.Session, exchange string) ([]broker.Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Instruments, nil
}
