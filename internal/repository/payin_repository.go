package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
)

const payinColumns = `
	id, payin_date, amount, paid_by, nav, number_of_shares,
	description, account_id, created_at, updated_at
`

// PayinRepository provides data access methods for the payins table.
type PayinRepository struct {
	db *sql.DB
}

// NewPayinRepository creates a new PayinRepository with the provided database connection.
func NewPayinRepository(db *sql.DB) *PayinRepository {
	return &PayinRepository{db: db}
}

func scanPayin(row rowScanner) (model.Payin, error) {
	var p model.Payin
	var dateStr, createdAtStr, updatedAtStr string
	var paidBy, description, accountID sql.NullString
	var nav, shares sql.NullFloat64

	err := row.Scan(
		&p.ID,
		&dateStr,
		&p.Amount,
		&paidBy,
		&nav,
		&shares,
		&description,
		&accountID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return p, err
	}

	p.PayinDate, err = ParseTime(dateStr)
	if err != nil {
		return p, fmt.Errorf("failed to parse payin date: %w", err)
	}
	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return p, fmt.Errorf("failed to parse created date: %w", err)
	}
	p.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return p, fmt.Errorf("failed to parse updated date: %w", err)
	}

	p.PaidBy = nullableString(paidBy)
	p.NAV = nullableFloat(nav)
	p.NumberOfShares = nullableFloat(shares)
	p.Description = nullableString(description)
	p.AccountID = nullableString(accountID)

	return p, nil
}

// Insert stores a new payin.
func (s *PayinRepository) Insert(p *model.Payin) error {
	insertQuery := `
		INSERT INTO payins (` + payinColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(insertQuery,
		p.ID,
		p.PayinDate.Format("2006-01-02"),
		p.Amount,
		p.PaidBy,
		p.NAV,
		p.NumberOfShares,
		p.Description,
		p.AccountID,
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payin: %w", err)
	}
	return nil
}

// Update rewrites all mutable columns of an existing payin.
func (s *PayinRepository) Update(p *model.Payin) error {
	updateQuery := `
		UPDATE payins SET
			payin_date = ?, amount = ?, paid_by = ?, nav = ?,
			number_of_shares = ?, description = ?, account_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(updateQuery,
		p.PayinDate.Format("2006-01-02"),
		p.Amount,
		p.PaidBy,
		p.NAV,
		p.NumberOfShares,
		p.Description,
		p.AccountID,
		time.Now().UTC().Format(time.RFC3339),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payin: %w", err)
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

// Delete removes a payin. Returns sql.ErrNoRows when the payin does not exist.
func (s *PayinRepository) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM payins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payin: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetOnID retrieves a single payin by ID. Returns sql.ErrNoRows when absent.
func (s *PayinRepository) GetOnID(id string) (*model.Payin, error) {
	row := s.db.QueryRow(`SELECT `+payinColumns+` FROM payins WHERE id = ?`, id)
	p, err := scanPayin(row)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payins table results: %w", err)
	}
	return &p, nil
}

// List retrieves payins, optionally restricted to one account, oldest first.
func (s *PayinRepository) List(accountID string) ([]model.Payin, error) {
	listQuery := `SELECT ` + payinColumns + ` FROM payins`
	var args []any

	if accountID != "" {
		listQuery += ` WHERE account_id = ?`
		args = append(args, accountID)
	}

	listQuery += ` ORDER BY payin_date ASC`

	return s.queryPayins(listQuery, args...)
}

// GetPayinsAsOf retrieves payins dated on or before asOf within the scope,
// oldest first. This is the cash-flow input for XIRR.
func (s *PayinRepository) GetPayinsAsOf(asOf time.Time, scope model.Scope) ([]model.Payin, error) {
	asOfQuery := `SELECT ` + payinColumns + ` FROM payins WHERE payin_date <= ?`
	args := []any{asOf.Format("2006-01-02")}

	if accounts := scope.Accounts(); len(accounts) > 0 {
		asOfQuery += ` AND account_id IN (` + placeholders(len(accounts)) + `)`
		for _, id := range accounts {
			args = append(args, id)
		}
	}

	asOfQuery += ` ORDER BY payin_date ASC`

	return s.queryPayins(asOfQuery, args...)
}

// DistinctAccountIDs returns every account that has at least one payin.
// Rows with a NULL account are excluded.
func (s *PayinRepository) DistinctAccountIDs() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT account_id FROM payins
		WHERE account_id IS NOT NULL AND account_id != ''
		ORDER BY account_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payins table: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan payins table results: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payins table: %w", err)
	}

	return ids, nil
}

func (s *PayinRepository) queryPayins(query string, args ...any) ([]model.Payin, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payins table: %w", err)
	}
	defer rows.Close()

	payins := []model.Payin{}

	for rows.Next() {
		p, err := scanPayin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payins table results: %w", err)
		}
		payins = append(payins, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payins table: %w", err)
	}

	return payins, nil
}
