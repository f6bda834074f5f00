package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/request"
)

// ValidProduct contains the allowed product values for charge calculation.
var ValidProduct = map[string]bool{
	"INTRADAY": true, "DELIVERY": true,
}

// ValidOrderType contains the allowed broker order types.
var ValidOrderType = map[string]bool{
	"MARKET": true, "LIMIT": true,
}

// ValidateBuyTrade validates a buy request.
//
// Required fields:
//   - symbol: Must be non-empty
//   - buy_date: Must be in YYYY-MM-DD format
//   - buy_price: Must be positive
//   - quantity: Must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateBuyTrade(req request.BuyTradeRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Symbol) == "" {
		errors["symbol"] = "symbol is required"
	}

	if strings.TrimSpace(req.BuyDate) == "" {
		errors["buyDate"] = "buy_date is required"
	} else if _, err := time.Parse("2006-01-02", req.BuyDate); err != nil {
		errors["buyDate"] = err.Error()
	}

	if req.BuyPrice <= 0.0 {
		errors["buyPrice"] = "buy_price must be positive"
	}

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.Product != "" && !ValidProduct[req.Product] {
		errors["product"] = fmt.Sprintf("invalid product: %s", req.Product)
	}

	if req.ExecuteOrder {
		if !ValidOrderType[req.OrderType] {
			errors["orderType"] = fmt.Sprintf("invalid order type: %s", req.OrderType)
		}
		if strings.TrimSpace(req.AccessToken) == "" {
			errors["accessToken"] = "access_token is required when executing an order"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateSellTrade validates a sell request. The price may be omitted only
// when the sell is executed through the broker at market.
func ValidateSellTrade(req request.SellTradeRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.SellDate) == "" {
		errors["sellDate"] = "sell_date is required"
	} else if _, err := time.Parse("2006-01-02", req.SellDate); err != nil {
		errors["sellDate"] = err.Error()
	}

	if req.SellPrice != nil && *req.SellPrice <= 0.0 {
		errors["sellPrice"] = "sell_price must be positive"
	}
	if req.SellPrice == nil && !req.ExecuteOrder {
		errors["sellPrice"] = "sell_price is required unless the order is executed"
	}

	if req.Product != "" && !ValidProduct[req.Product] {
		errors["product"] = fmt.Sprintf("invalid product: %s", req.Product)
	}

	if req.ExecuteOrder && !ValidOrderType[req.OrderType] {
		errors["orderType"] = fmt.Sprintf("invalid order type: %s", req.OrderType)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTrade validates a trade update request.
// All fields are optional, but if provided, they must meet the same constraints as buy.
func ValidateUpdateTrade(req request.UpdateTradeRequest) error {
	errors := make(map[string]string)

	if req.Symbol != nil && strings.TrimSpace(*req.Symbol) == "" {
		errors["symbol"] = "symbol cannot be empty"
	}

	if req.BuyDate != nil {
		if _, err := time.Parse("2006-01-02", *req.BuyDate); err != nil {
			errors["buyDate"] = err.Error()
		}
	}

	if req.BuyPrice != nil && *req.BuyPrice <= 0.0 {
		errors["buyPrice"] = "buy_price must be positive"
	}

	if req.Quantity != nil && *req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
