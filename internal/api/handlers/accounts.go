package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/request"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/api/response"
	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
)

// AccountHandler handles HTTP requests for account detail and broker
// credential endpoints. It talks to the repositories directly; there is no
// business logic beyond defaulting and validation.
type AccountHandler struct {
	accountRepo   *repository.AccountRepository
	brokerKeyRepo *repository.BrokerKeyRepository
}

// NewAccountHandler creates a new AccountHandler with the provided repositories.
func NewAccountHandler(accountRepo *repository.AccountRepository, brokerKeyRepo *repository.BrokerKeyRepository) *AccountHandler {
	return &AccountHandler{
		accountRepo:   accountRepo,
		brokerKeyRepo: brokerKeyRepo,
	}
}

// ListAccounts handles GET requests to retrieve all accounts.
//
// Endpoint: GET /api/accounts
// Response: 200 OK with array of AccountDetail
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, _ *http.Request) {
	accounts, err := h.accountRepo.List()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve accounts", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET requests to retrieve one account by broker account ID.
//
// Endpoint: GET /api/accounts/{accountId}
// Response: 200 OK with AccountDetail
// Error: 404 Not Found if the account does not exist
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	account, err := h.accountRepo.GetByAccountID(accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrAccountNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve account", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// UpsertAccount handles PUT requests to create or update an account's details.
//
// Endpoint: PUT /api/accounts
// Request Body: UpsertAccountRequest
// Response: 200 OK with AccountDetail
// Error: 400 Bad Request if account_id is missing
func (h *AccountHandler) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpsertAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		response.RespondError(w, http.StatusBadRequest, "account_id is required", "")
		return
	}

	if req.AccountType == "" {
		req.AccountType = "MAIN"
	}
	if req.TradingStrategy == "" {
		req.TradingStrategy = model.StrategySwing
	}

	now := time.Now().UTC()
	account := &model.AccountDetail{
		ID:              uuid.New().String(),
		AccountID:       req.AccountID,
		UserName:        req.UserName,
		AccountType:     req.AccountType,
		TradingStrategy: req.TradingStrategy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.accountRepo.Upsert(account); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to save account", err.Error())
		return
	}

	saved, err := h.accountRepo.GetByAccountID(req.AccountID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve account", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, saved)
}

// UpsertBrokerKey handles PUT requests to store broker API credentials for an
// account. The secret is encrypted before it reaches the database and is
// never echoed back.
//
// Endpoint: PUT /api/accounts/broker-keys
// Request Body: UpsertBrokerKeyRequest
// Response: 200 OK with BrokerKey (secret omitted)
// Error: 400 Bad Request if a required field is missing
func (h *AccountHandler) UpsertBrokerKey(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpsertBrokerKeyRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.AccountID) == "" || strings.TrimSpace(req.APIKey) == "" || strings.TrimSpace(req.APISecret) == "" {
		response.RespondError(w, http.StatusBadRequest, "account_id, api_key and api_secret are required", "")
		return
	}

	now := time.Now().UTC()
	key := &model.BrokerKey{
		ID:        uuid.New().String(),
		AccountID: req.AccountID,
		APIKey:    req.APIKey,
		APISecret: req.APISecret,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.brokerKeyRepo.Upsert(key); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to save broker key", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, key)
}

// DeactivateBrokerKey handles DELETE requests to deactivate an account's
// broker credentials.
//
// Endpoint: DELETE /api/accounts/{accountId}/broker-keys
// Response: 204 No Content
// Error: 404 Not Found if no credentials exist for the account
func (h *AccountHandler) DeactivateBrokerKey(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	if err := h.brokerKeyRepo.Deactivate(accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrBrokerKeyNotFound.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to deactivate broker key", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
