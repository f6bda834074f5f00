package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/response"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/service"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/validation"
)

// PayinHandler handles HTTP requests for payin endpoints.
type PayinHandler struct {
	payinService *service.PayinService
}

// NewPayinHandler creates a new PayinHandler with the provided service dependency.
func NewPayinHandler(payinService *service.PayinService) *PayinHandler {
	return &PayinHandler{
		payinService: payinService,
	}
}

// ListPayins handles GET requests to retrieve payins, optionally filtered by
// the account_id query parameter.
//
// Endpoint: GET /api/payins
// Response: 200 OK with array of Payin
// Error: 500 Internal Server Error if retrieval fails
func (h *PayinHandler) ListPayins(w http.ResponseWriter, r *http.Request) {
	payins, err := h.payinService.List(r.URL.Query().Get("account_id"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve payins", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, payins)
}

// GetPayin handles GET requests to retrieve a single payin by ID.
//
// Endpoint: GET /api/payins/{uuid}
// Response: 200 OK with Payin
// Error: 404 Not Found if payin not found
func (h *PayinHandler) GetPayin(w http.ResponseWriter, r *http.Request) {
	payinID := chi.URLParam(r, "uuid")

	payin, err := h.payinService.Get(payinID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPayinNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPayinNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve payin", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, payin)
}

// CreatePayin handles POST requests to record a deposit or withdrawal.
//
// Endpoint: POST /api/payins
// Request Body: CreatePayinRequest
// Response: 201 Created with Payin
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *PayinHandler) CreatePayin(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreatePayinRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreatePayin(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	payinDate, err := repository.ParseTime(req.PayinDate)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid payin_date", err.Error())
		return
	}

	payin, err := h.payinService.Create(service.PayinRequest{
		PayinDate:      payinDate,
		Amount:         req.Amount,
		PaidBy:         req.PaidBy,
		NAV:            req.NAV,
		NumberOfShares: req.NumberOfShares,
		Description:    req.Description,
		AccountID:      req.AccountID,
	})
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create payin", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, payin)
}

// UpdatePayin handles PUT requests to update an existing payin.
//
// Endpoint: PUT /api/payins/{uuid}
// Request Body: UpdatePayinRequest (all fields optional)
// Response: 200 OK with updated Payin
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if payin not found
func (h *PayinHandler) UpdatePayin(w http.ResponseWriter, r *http.Request) {
	payinID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdatePayinRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdatePayin(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	payin, err := h.payinService.Get(payinID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPayinNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPayinNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve payin", err.Error())
		return
	}

	applyPayinUpdate(payin, req)

	if err := h.payinService.Update(payin); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to update payin", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, payin)
}

// DeletePayin handles DELETE requests to remove a payin.
//
// Endpoint: DELETE /api/payins/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if payin not found
func (h *PayinHandler) DeletePayin(w http.ResponseWriter, r *http.Request) {
	payinID := chi.URLParam(r, "uuid")

	if err := h.payinService.Delete(payinID); err != nil {
		if errors.Is(err, apperrors.ErrPayinNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPayinNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete payin", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

func applyPayinUpdate(payin *model.Payin, req request.UpdatePayinRequest) {
	if req.PayinDate != nil {
		if d, err := repository.ParseTime(*req.PayinDate); err == nil {
			payin.PayinDate = d
		}
	}
	if req.Amount != nil {
		payin.Amount = *req.Amount
	}
	if req.PaidBy != nil {
		payin.PaidBy = req.PaidBy
	}
	if req.NAV != nil {
		payin.NAV = req.NAV
	}
	if req.NumberOfShares != nil {
		payin.NumberOfShares = req.NumberOfShares
	}
	if req.Description != nil {
		payin.Description = req.Description
	}
	if req.AccountID != nil {
		payin.AccountID = req.AccountID
	}
}
