package service

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/errors"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
)

// PayinRequest describes a deposit (or, with a negative amount, a withdrawal).
type PayinRequest struct {
	PayinDate      time.Time
	Amount         float64
	PaidBy         *string
	NAV            *float64
	NumberOfShares *float64
	Description    *string
	AccountID      *string
}

// PayinService owns the payin ledger.
type PayinService struct {
	payinRepo *repository.PayinRepository
	logger    *log.Logger
}

// NewPayinService creates a new PayinService.
func NewPayinService(payinRepo *repository.PayinRepository, logger *log.Logger) *PayinService {
	return &PayinService{payinRepo: payinRepo, logger: logger}
}

// Create records a new payin.
func (s *PayinService) Create(req PayinRequest) (*model.Payin, error) {
	now := time.Now().UTC()
	payin := &model.Payin{
		ID:             uuid.New().String(),
		PayinDate:      req.PayinDate,
		Amount:         req.Amount,
		PaidBy:         req.PaidBy,
		NAV:            req.NAV,
		NumberOfShares: req.NumberOfShares,
		Description:    req.Description,
		AccountID:      req.AccountID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.payinRepo.Insert(payin); err != nil {
		return nil, err
	}
	return payin, nil
}

// List returns payins, optionally restricted to one account.
func (s *PayinService) List(accountID string) ([]model.Payin, error) {
	return s.payinRepo.List(accountID)
}

// Get returns one payin by ID.
func (s *PayinService) Get(id string) (*model.Payin, error) {
	payin, err := s.payinRepo.GetOnID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrPayinNotFound
	}
	return payin, err
}

// Update rewrites an existing payin.
func (s *PayinService) Update(payin *model.Payin) error {
	err := s.payinRepo.Update(payin)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrPayinNotFound
	}
	return err
}

// Delete removes a payin from the ledger.
func (s *PayinService) Delete(id string) error {
	err := s.payinRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrPayinNotFound
	}
	return err
}
