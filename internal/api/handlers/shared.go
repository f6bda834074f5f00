package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/broker"
)

// parseJSON decodes the request body into the given request type.
// Unknown fields are rejected so typos fail loudly instead of being ignored.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request body: %w", err)
	}
	return req, nil
}

// SessionResolver builds a broker session for an account. The API key comes
// from stored credentials (or configuration), the access token from the
// request, since Kite tokens expire daily and are never persisted.
type SessionResolver func(accountID, accessToken string) (broker.Session, error)
