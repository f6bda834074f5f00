package validation

import (
	"strings"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/request"
)

// ValidateCreatePayin validates a payin creation request.
// A negative amount is allowed: it records a withdrawal.
//
// Required fields:
//   - payin_date: Must be in YYYY-MM-DD format
//   - amount: Must be non-zero
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreatePayin(req request.CreatePayinRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.PayinDate) == "" {
		errors["payinDate"] = "payin_date is required"
	} else if _, err := time.Parse("2006-01-02", req.PayinDate); err != nil {
		errors["payinDate"] = err.Error()
	}

	if req.Amount == 0.0 {
		errors["amount"] = "amount must be non-zero"
	}

	if req.NumberOfShares != nil && *req.NumberOfShares < 0.0 {
		errors["numberOfShares"] = "number_of_shares cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdatePayin validates a payin update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
func ValidateUpdatePayin(req request.UpdatePayinRequest) error {
	errors := make(map[string]string)

	if req.PayinDate != nil {
		if _, err := time.Parse("2006-01-02", *req.PayinDate); err != nil {
			errors["payinDate"] = err.Error()
		}
	}

	if req.Amount != nil && *req.Amount == 0.0 {
		errors["amount"] = "amount must be non-zero"
	}

	if req.NumberOfShares != nil && *req.NumberOfShares < 0.0 {
		errors["numberOfShares"] = "number_of_shares cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
