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
	"github.com/sethvargo/go-retry"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
)

const (
	orderPollAttempts = 10
	orderPollBase     = 2 * time.Second

	executedViaZerodha = "ZERODHA"
)

// BuyRequest describes a new position to open.
type BuyRequest struct {
	Symbol          string
	BuyDate         time.Time
	BuyPrice        float64
	Quantity        int
	Industry        *string
	Trader          *string
	TradingStrategy *string
	AccountID       *string
	Product         Product

	// ExecuteOrder places a real order through the broker session.
	ExecuteOrder bool
	OrderType    string // "MARKET" or "LIMIT", only used when executing
}

// SellRequest closes an existing position.
type SellRequest struct {
	SellDate  time.Time
	SellPrice *float64
	Product   Product

	ExecuteOrder bool
	OrderType    string
}

// TradeService owns the trade lifecycle: recording buys and sells, computing
// their charges, and optionally routing the orders through the broker.
type TradeService struct {
	tradeRepo *repository.TradeRepository
	market    broker.MarketData
	logger    *log.Logger
}

// NewTradeService creates a new TradeService.
func NewTradeService(tradeRepo *repository.TradeRepository, market broker.MarketData, logger *log.Logger) *TradeService {
	return &TradeService{tradeRepo: tradeRepo, market: market, logger: logger}
}

// Buy records a new open trade. When req.ExecuteOrder is set the order is
// placed through the broker first; a market order is recorded at the
// requested price with PricePending set, and a background poll replaces the
// price once the broker confirms the executed average.
func (s *TradeService) Buy(ctx context.Context, session broker.Session, req BuyRequest) (*model.Trade, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if req.BuyPrice <= 0 {
		return nil, apperrors.ErrInvalidPrice
	}
	if req.Product == "" {
		req.Product = ProductDelivery
	}

	now := time.Now().UTC()
	trade := &model.Trade{
		ID:              uuid.New().String(),
		Symbol:          strings.ToUpper(req.Symbol),
		BuyDate:         req.BuyDate,
		BuyPrice:        req.BuyPrice,
		Quantity:        req.Quantity,
		BuyAmount:       req.BuyPrice * float64(req.Quantity),
		BuyCharges:      CalculateBuyCharges(req.BuyPrice, req.Quantity, req.Product),
		Industry:        req.Industry,
		Trader:          req.Trader,
		Status:          model.TradeOpen,
		TradingStrategy: req.TradingStrategy,
		AccountID:       req.AccountID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if req.ExecuteOrder {
		if err := s.checkSymbolListed(ctx, session, trade.Symbol); err != nil {
			return nil, err
		}

		orderID, err := s.market.PlaceOrder(ctx, session, broker.OrderParams{
			Symbol:          trade.Symbol,
			Exchange:        broker.ExchangeNSE,
			TransactionType: "BUY",
			Quantity:        req.Quantity,
			Product:         kiteProduct(req.Product),
			OrderType:       req.OrderType,
			Price:           req.BuyPrice,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
		}

		via := executedViaZerodha
		trade.ExecutedViaAPI = &via
		trade.BuyOrderID = &orderID
		if req.OrderType == "MARKET" {
			trade.PricePending = true
		}
	}

	if err := s.tradeRepo.Insert(trade); err != nil {
		return nil, err
	}

	if trade.PricePending && trade.BuyOrderID != nil {
		go s.pollExecutedPrice(session, trade.ID, *trade.BuyOrderID, req.Product)
	}

	return trade, nil
}

// Sell closes an open trade exactly once. A second sell of the same trade
// fails with ErrTradeAlreadyClosed no matter what the request contains.
func (s *TradeService) Sell(ctx context.Context, session broker.Session, tradeID string, req SellRequest) (*model.Trade, error) {
	trade, err := s.Get(tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Status == model.TradeClosed {
		return nil, apperrors.ErrTradeAlreadyClosed
	}
	if req.Product == "" {
		req.Product = ProductDelivery
	}

	sellPrice := 0.0
	switch {
	case req.SellPrice != nil && *req.SellPrice > 0:
		sellPrice = *req.SellPrice
	case !req.ExecuteOrder:
		return nil, apperrors.ErrMissingSellPrice
	}

	if req.ExecuteOrder {
		orderID, err := s.market.PlaceOrder(ctx, session, broker.OrderParams{
			Symbol:          trade.Symbol,
			Exchange:        broker.ExchangeNSE,
			TransactionType: "SELL",
			Quantity:        trade.Quantity,
			Product:         kiteProduct(req.Product),
			OrderType:       req.OrderType,
			Price:           sellPrice,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
		}
		trade.SellOrderID = &orderID

		// A market sell without an explicit price settles at the executed
		// average; use the last known price until the poll confirms it.
		if sellPrice <= 0 {
			if trade.CurrentPrice == nil || *trade.CurrentPrice <= 0 {
				return nil, apperrors.ErrMissingSellPrice
			}
			sellPrice = *trade.CurrentPrice
		}
	}

	sellDate := req.SellDate
	if sellDate.IsZero() {
		sellDate = time.Now().UTC()
	}
	sellAmount := sellPrice * float64(trade.Quantity)
	sellCharges := CalculateSellCharges(trade.BuyPrice, sellPrice, trade.Quantity, req.Product, trade.BuyCharges)

	trade.SellDate = &sellDate
	trade.SellPrice = &sellPrice
	trade.SellAmount = &sellAmount
	trade.SellCharges = &sellCharges
	trade.Status = model.TradeClosed

	if err := s.tradeRepo.Update(trade); err != nil {
		return nil, err
	}

	return trade, nil
}

// checkSymbolListed looks the symbol up in the exchange's instrument master
// before an order is routed, catching typos before they reach the broker.
// When the dump cannot be fetched, or comes back empty, the order proceeds
// and the exchange itself rejects unknown symbols.
func (s *TradeService) checkSymbolListed(ctx context.Context, session broker.Session, symbol string) error {
	instruments, err := s.market.GetInstruments(ctx, session, broker.ExchangeNSE)
	if err != nil || len(instruments) == 0 {
		return nil
	}
	for _, in := range instruments {
		if in.TradingSymbol == symbol {
			return nil
		}
	}
	return apperrors.ErrUnknownSymbol
}

// pollExecutedPrice polls the broker for the executed average price of a
// market order and rewrites the trade's buy leg once confirmed. The poll is
// bounded; an order still unconfirmed after the retries simply stays flagged
// PricePending for manual correction.
func (s *TradeService) pollExecutedPrice(session broker.Session, tradeID, orderID string, product Product) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backoff := retry.WithMaxRetries(orderPollAttempts, retry.NewExponential(orderPollBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		order, err := s.market.GetOrderStatus(ctx, session, orderID)
		if err != nil {
			return retry.RetryableError(err)
		}
		if order.Status != broker.OrderComplete || order.AveragePrice <= 0 {
			return retry.RetryableError(fmt.Errorf("order %s not complete: %s", orderID, order.Status))
		}

		trade, err := s.Get(tradeID)
		if err != nil {
			return err
		}
		trade.BuyPrice = order.AveragePrice
		trade.BuyAmount = order.AveragePrice * float64(trade.Quantity)
		trade.BuyCharges = CalculateBuyCharges(order.AveragePrice, trade.Quantity, product)
		trade.PricePending = false

		return s.tradeRepo.Update(trade)
	})
	if err != nil {
		s.logger.Printf("executed price poll gave up for order %s: %v", orderID, err)
	}
}

// List returns trades matching the filter.
func (s *TradeService) List(filter model.TradeFilter) ([]model.Trade, error) {
	return s.tradeRepo.List(filter)
}

// Get returns one trade by ID.
func (s *TradeService) Get(id string) (*model.Trade, error) {
	trade, err := s.tradeRepo.GetOnID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTradeNotFound
	}
	return trade, err
}

// Update rewrites an existing trade's editable fields.
func (s *TradeService) Update(trade *model.Trade) error {
	if trade.Quantity <= 0 {
		return apperrors.ErrInvalidQuantity
	}
	if trade.BuyPrice <= 0 {
		return apperrors.ErrInvalidPrice
	}
	err := s.tradeRepo.Update(trade)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrTradeNotFound
	}
	return err
}

// Delete removes a trade from the ledger.
func (s *TradeService) Delete(id string) error {
	err := s.tradeRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrTradeNotFound
	}
	return err
}

func kiteProduct(p Product) string {
	if p == ProductIntraday {
		return "MIS"
	}
	return "CNC"
}
