package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/response"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
)

// SnapshotHandler handles HTTP requests for snapshot endpoints.
type SnapshotHandler struct {
	snapshotService *service.SnapshotService
}

// NewSnapshotHandler creates a new SnapshotHandler with the provided service dependency.
func NewSnapshotHandler(snapshotService *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotService: snapshotService,
	}
}

// scopeFromRequest maps the optional account fields onto a scope: one account
// ID, an explicit set, or (neither) the global scope.
func scopeFromRequest(accountID string, accountIDs []string) model.Scope {
	switch {
	case accountID != "":
		return model.AccountScope(accountID)
	case len(accountIDs) > 0:
		return model.MultiAccountScope(accountIDs)
	default:
		return model.GlobalScope()
	}
}

// MaterializeSnapshot handles POST requests to compute and persist a snapshot
// for one date, scope and strategy. Re-posting the same key overwrites the
// stored metrics rather than creating a duplicate.
//
// Endpoint: POST /api/snapshots
// Request Body: MaterializeSnapshotRequest
// Response: 201 Created with PortfolioSnapshot
// Error: 400 Bad Request if the date is missing or malformed
// Error: 500 Internal Server Error if materialization fails
func (h *SnapshotHandler) MaterializeSnapshot(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.MaterializeSnapshotRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	date, err := repository.ParseTime(req.Date)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	strategy := req.TradingStrategy
	if strategy == "" {
		strategy = model.StrategyOverall
	}

	snap, err := h.snapshotService.Materialize(date, scopeFromRequest(req.AccountID, req.AccountIDs), strategy)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to materialize snapshot", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, snap)
}

// DailySnapshots handles POST requests to materialize the standard daily
// snapshot set (per payin account plus the aggregated scopes). The date
// defaults to today.
//
// Endpoint: POST /api/snapshots/daily
// Response: 201 Created with {"created": n}
// Error: 500 Internal Server Error if materialization fails
func (h *SnapshotHandler) DailySnapshots(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an empty POST snapshots today.
	req, err := parseJSON[request.DailySnapshotRequest](r)
	if err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		date, err = repository.ParseTime(req.Date)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid date", err.Error())
			return
		}
	}

	created, err := h.snapshotService.CreateDailySnapshots(date)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create daily snapshots", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, map[string]int{"created": created})
}

// ListSnapshots handles GET requests to retrieve snapshots, filterable by
// query parameters: start_date, end_date, account_id, trading_strategy,
// include_aggregated.
//
// Endpoint: GET /api/snapshots
// Response: 200 OK with array of PortfolioSnapshot
// Error: 400 Bad Request if a date filter is malformed
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.SnapshotFilter{
		AccountID:       q.Get("account_id"),
		TradingStrategy: q.Get("trading_strategy"),
	}
	filter.IncludeAggregated, _ = strconv.ParseBool(q.Get("include_aggregated"))

	if v := q.Get("start_date"); v != "" {
		d, err := repository.ParseTime(v)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid start_date", err.Error())
			return
		}
		filter.StartDate = &d
	}
	if v := q.Get("end_date"); v != "" {
		d, err := repository.ParseTime(v)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid end_date", err.Error())
			return
		}
		filter.EndDate = &d
	}

	snapshots, err := h.snapshotService.List(filter)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve snapshots", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, snapshots)
}

// LatestNAV handles GET requests to retrieve the most recent aggregated
// snapshot for a strategy (query parameter trading_strategy, default OVERALL).
//
// Endpoint: GET /api/snapshots/latest-nav
// Response: 200 OK with PortfolioSnapshot
// Error: 404 Not Found if no aggregated snapshot exists yet
func (h *SnapshotHandler) LatestNAV(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotService.LatestNAV(r.URL.Query().Get("trading_strategy"))
	if err != nil {
		if errors.Is(err, apperrors.ErrSnapshotNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSnapshotNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve latest snapshot", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, snap)
}

// PreviewMetrics handles GET requests to compute metrics without persisting.
// pending_amount adds a hypothetical deposit dated today, so an incoming
// transfer can be previewed before it lands.
//
// Endpoint: GET /api/snapshots/preview?pending_amount=50000&account_id=...
// Response: 200 OK with Metrics
// Error: 400 Bad Request if pending_amount is malformed
func (h *SnapshotHandler) PreviewMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pending := 0.0
	if v := q.Get("pending_amount"); v != "" {
		var err error
		pending, err = strconv.ParseFloat(v, 64)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid pending_amount", err.Error())
			return
		}
	}

	scope := scopeFromRequest(q.Get("account_id"), nil)
	metrics, err := h.snapshotService.Preview(time.Now().UTC(), scope, q.Get("trading_strategy"), pending)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to compute preview", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, metrics)
}

// GetSnapshot handles GET requests to retrieve a single snapshot by ID.
//
// Endpoint: GET /api/snapshots/{uuid}
// Response: 200 OK with PortfolioSnapshot
// Error: 404 Not Found if snapshot not found
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID := chi.URLParam(r, "uuid")

	snap, err := h.snapshotService.Get(snapshotID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSnapshotNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSnapshotNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve snapshot", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, snap)
}

// DeleteSnapshot handles DELETE requests to remove a snapshot.
//
// Endpoint: DELETE /api/snapshots/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if snapshot not found
func (h *SnapshotHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID := chi.URLParam(r, "uuid")

	if err := h.snapshotService.Delete(snapshotID); err != nil {
		if errors.Is(err, apperrors.ErrSnapshotNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSnapshotNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete snapshot", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
