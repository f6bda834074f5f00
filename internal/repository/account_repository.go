package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
)

const accountColumns = `
	id, account_id, user_name, account_type, trading_strategy,
	holdings_migrated_at, created_at, updated_at
`

// AccountRepository provides data access methods for the account_details table.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the provided database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row rowScanner) (model.AccountDetail, error) {
	var a model.AccountDetail
	var userName sql.NullString
	var migratedAtStr sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&a.ID,
		&a.AccountID,
		&userName,
		&a.AccountType,
		&a.TradingStrategy,
		&migratedAtStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return a, err
	}

	a.UserName = nullableString(userName)
	a.HoldingsMigratedAt, err = parseNullableTime(migratedAtStr)
	if err != nil {
		return a, fmt.Errorf("failed to parse migrated date: %w", err)
	}
	a.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return a, fmt.Errorf("failed to parse created date: %w", err)
	}
	a.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return a, fmt.Errorf("failed to parse updated date: %w", err)
	}

	return a, nil
}

// Upsert inserts or updates the account row keyed by account_id. The
// migration marker is never touched here; SetHoldingsMigrated owns it.
func (s *AccountRepository) Upsert(a *model.AccountDetail) error {
	upsertQuery := `
		INSERT INTO account_details (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			user_name = excluded.user_name,
			account_type = excluded.account_type,
			trading_strategy = excluded.trading_strategy,
			updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(upsertQuery,
		a.ID,
		a.AccountID,
		a.UserName,
		a.AccountType,
		a.TradingStrategy,
		formatNullableTime(a.HoldingsMigratedAt, time.RFC3339),
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

// GetByAccountID retrieves one account by its broker account ID.
// Returns sql.ErrNoRows when absent.
func (s *AccountRepository) GetByAccountID(accountID string) (*model.AccountDetail, error) {
	row := s.db.QueryRow(`SELECT `+accountColumns+` FROM account_details WHERE account_id = ?`, accountID)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account_details table results: %w", err)
	}
	return &a, nil
}

// List retrieves all accounts ordered by account ID.
func (s *AccountRepository) List() ([]model.AccountDetail, error) {
	rows, err := s.db.Query(`SELECT ` + accountColumns + ` FROM account_details ORDER BY account_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query account_details table: %w", err)
	}
	defer rows.Close()

	accounts := []model.AccountDetail{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account_details table results: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account_details table: %w", err)
	}

	return accounts, nil
}

// IsHoldingsMigrated reports whether the one-time holdings import already ran
// for the account. A missing account row counts as not migrated.
func (s *AccountRepository) IsHoldingsMigrated(accountID string) (bool, error) {
	var migratedAt sql.NullString
	err := s.db.QueryRow(
		`SELECT holdings_migrated_at FROM account_details WHERE account_id = ?`,
		accountID,
	).Scan(&migratedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query account_details table: %w", err)
	}
	return migratedAt.Valid && migratedAt.String != "", nil
}

// SetHoldingsMigrated stamps the migration marker for the account.
func (s *AccountRepository) SetHoldingsMigrated(accountID string, at time.Time) error {
	result, err := s.db.Exec(
		`UPDATE account_details SET holdings_migrated_at = ?, updated_at = ? WHERE account_id = ?`,
		at.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to set migration marker: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
