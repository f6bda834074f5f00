package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/response"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
)

// SyncHandler handles HTTP requests for the broker sync and holdings
// migration endpoints.
type SyncHandler struct {
	syncService      *service.SyncService
	migrationService *service.MigrationService
	resolveSession   SessionResolver
}

// NewSyncHandler creates a new SyncHandler with the provided dependencies.
func NewSyncHandler(syncService *service.SyncService, migrationService *service.MigrationService, resolveSession SessionResolver) *SyncHandler {
	return &SyncHandler{
		syncService:      syncService,
		migrationService: migrationService,
		resolveSession:   resolveSession,
	}
}

// Sync handles POST requests to refresh open-trade prices from the broker.
//
// Endpoint: POST /api/sync
// Request Body: SyncRequest (account_id, access_token)
// Response: 200 OK with SyncResult
// Error: 400 Bad Request if the body is invalid or credentials are missing
// Error: 502 Bad Gateway if the broker is unreachable
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SyncRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		response.RespondError(w, http.StatusBadRequest, "access_token is required", "")
		return
	}

	session, err := h.resolveSession(req.AccountID, req.AccessToken)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "no broker credentials for account", err.Error())
		return
	}

	result, err := h.syncService.SyncAll(r.Context(), session, req.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBrokerUnavailable) {
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrBrokerUnavailable.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to sync positions", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// MigrateHoldings handles POST requests to run the one-time holdings import
// for an account.
//
// Endpoint: POST /api/migration/holdings
// Request Body: MigrateHoldingsRequest (account_id, access_token)
// Response: 200 OK with MigrationResult
// Error: 400 Bad Request if the body is invalid or credentials are missing
// Error: 409 Conflict if the migration already ran for the account
// Error: 502 Bad Gateway if the broker is unreachable
func (h *SyncHandler) MigrateHoldings(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.MigrateHoldingsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		response.RespondError(w, http.StatusBadRequest, "account_id is required", "")
		return
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		response.RespondError(w, http.StatusBadRequest, "access_token is required", "")
		return
	}

	session, err := h.resolveSession(req.AccountID, req.AccessToken)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "no broker credentials for account", err.Error())
		return
	}

	result, err := h.migrationService.MigrateHoldings(r.Context(), session, req.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMigrationDone):
			response.RespondError(w, http.StatusConflict, apperrors.ErrMigrationDone.Error(), "")
		case errors.Is(err, apperrors.ErrBrokerUnavailable):
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrBrokerUnavailable.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to migrate holdings", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
