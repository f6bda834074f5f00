package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/response"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/validation"
)

// TradeHandler handles HTTP requests for trade endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the tradeService.
type TradeHandler struct {
	tradeService   *service.TradeService
	resolveSession SessionResolver
}

// NewTradeHandler creates a new TradeHandler with the provided dependencies.
func NewTradeHandler(tradeService *service.TradeService, resolveSession SessionResolver) *TradeHandler {
	return &TradeHandler{
		tradeService:   tradeService,
		resolveSession: resolveSession,
	}
}

// ListTrades handles GET requests to retrieve trades, filterable by query
// parameters: status, account_id, trading_strategy, symbol.
//
// Endpoint: GET /api/trades
// Response: 200 OK with array of Trade
// Error: 500 Internal Server Error if retrieval fails
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	filter := model.TradeFilter{
		Status:          r.URL.Query().Get("status"),
		AccountID:       r.URL.Query().Get("account_id"),
		TradingStrategy: r.URL.Query().Get("trading_strategy"),
		Symbol:          r.URL.Query().Get("symbol"),
	}

	trades, err := h.tradeService.List(filter)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve trades", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, trades)
}

// GetTrade handles GET requests to retrieve a single trade by ID.
//
// Endpoint: GET /api/trades/{uuid}
// Response: 200 OK with Trade
// Error: 400 Bad Request if trade ID is invalid (validated by middleware)
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	trade, err := h.tradeService.Get(tradeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve trade", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, trade)
}

// BuyTrade handles POST requests to open a new trade, optionally executing
// the order through the broker.
//
// Endpoint: POST /api/trades/buy
// Request Body: BuyTradeRequest
// Response: 201 Created with Trade
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 502 Bad Gateway if the broker rejects the order
// Error: 500 Internal Server Error if creation fails
func (h *TradeHandler) BuyTrade(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BuyTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateBuyTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	buyDate, err := repository.ParseTime(req.BuyDate)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid buy_date", err.Error())
		return
	}

	var session broker.Session
	if req.ExecuteOrder {
		accountID := ""
		if req.AccountID != nil {
			accountID = *req.AccountID
		}
		session, err = h.resolveSession(accountID, req.AccessToken)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "no broker credentials for account", err.Error())
			return
		}
	}

	trade, err := h.tradeService.Buy(r.Context(), session, service.BuyRequest{
		Symbol:          req.Symbol,
		BuyDate:         buyDate,
		BuyPrice:        req.BuyPrice,
		Quantity:        req.Quantity,
		Industry:        req.Industry,
		Trader:          req.Trader,
		TradingStrategy: req.TradingStrategy,
		AccountID:       req.AccountID,
		Product:         service.Product(req.Product),
		ExecuteOrder:    req.ExecuteOrder,
		OrderType:       req.OrderType,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidQuantity), errors.Is(err, apperrors.ErrInvalidPrice),
			errors.Is(err, apperrors.ErrUnknownSymbol):
			response.RespondError(w, http.StatusBadRequest, err.Error(), "")
		case errors.Is(err, apperrors.ErrBrokerUnavailable):
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrBrokerUnavailable.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to create trade", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusCreated, trade)
}

// SellTrade handles POST requests to close an existing trade.
//
// Endpoint: POST /api/trades/{uuid}/sell
// Request Body: SellTradeRequest
// Response: 200 OK with the closed Trade
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if trade not found
// Error: 409 Conflict if the trade was already closed
// Error: 502 Bad Gateway if the broker rejects the order
func (h *TradeHandler) SellTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.SellTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateSellTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	sellDate, err := repository.ParseTime(req.SellDate)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid sell_date", err.Error())
		return
	}

	var session broker.Session
	if req.ExecuteOrder {
		existing, err := h.tradeService.Get(tradeID)
		if err != nil {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), "")
			return
		}
		accountID := ""
		if existing.AccountID != nil {
			accountID = *existing.AccountID
		}
		session, err = h.resolveSession(accountID, req.AccessToken)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "no broker credentials for account", err.Error())
			return
		}
	}

	trade, err := h.tradeService.Sell(r.Context(), session, tradeID, service.SellRequest{
		SellDate:     sellDate,
		SellPrice:    req.SellPrice,
		Product:      service.Product(req.Product),
		ExecuteOrder: req.ExecuteOrder,
		OrderType:    req.OrderType,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTradeNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), "")
		case errors.Is(err, apperrors.ErrTradeAlreadyClosed):
			response.RespondError(w, http.StatusConflict, apperrors.ErrTradeAlreadyClosed.Error(), "")
		case errors.Is(err, apperrors.ErrMissingSellPrice):
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrMissingSellPrice.Error(), "")
		case errors.Is(err, apperrors.ErrBrokerUnavailable):
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrBrokerUnavailable.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to sell trade", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, trade)
}

// UpdateTrade handles PUT requests to update an existing trade's editable fields.
//
// Endpoint: PUT /api/trades/{uuid}
// Request Body: UpdateTradeRequest (all fields optional)
// Response: 200 OK with updated Trade
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if trade not found
func (h *TradeHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	trade, err := h.tradeService.Get(tradeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve trade", err.Error())
		return
	}

	applyTradeUpdate(trade, req)

	if err := h.tradeService.Update(trade); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidQuantity), errors.Is(err, apperrors.ErrInvalidPrice):
			response.RespondError(w, http.StatusBadRequest, err.Error(), "")
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to update trade", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE requests to remove a trade.
//
// Endpoint: DELETE /api/trades/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if trade not found
func (h *TradeHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	if err := h.tradeService.Delete(tradeID); err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete trade", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

func applyTradeUpdate(trade *model.Trade, req request.UpdateTradeRequest) {
	if req.Symbol != nil {
		trade.Symbol = *req.Symbol
	}
	if req.BuyDate != nil {
		if d, err := repository.ParseTime(*req.BuyDate); err == nil {
			trade.BuyDate = d
		}
	}
	if req.BuyPrice != nil {
		trade.BuyPrice = *req.BuyPrice
		trade.BuyAmount = *req.BuyPrice * float64(trade.Quantity)
	}
	if req.Quantity != nil {
		trade.Quantity = *req.Quantity
		trade.BuyAmount = trade.BuyPrice * float64(*req.Quantity)
	}
	if req.Industry != nil {
		trade.Industry = req.Industry
	}
	if req.Trader != nil {
		trade.Trader = req.Trader
	}
	if req.TradingStrategy != nil {
		trade.TradingStrategy = req.TradingStrategy
	}
	if req.AccountID != nil {
		trade.AccountID = req.AccountID
	}
}
