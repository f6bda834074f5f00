package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
)

const snapshotColumns = `
	id, snapshot_date, nav, portfolio_value, total_payin, booked_pl, float_pl,
	open_positions, balance, utilisation_percent, xirr, absolute_profit_percent,
	scope_kind, scope_key, trading_strategy, created_at, updated_at
`

// SnapshotRepository provides data access methods for the portfolio_snapshots
// and snapshot_symbol_prices tables.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func scanSnapshot(row rowScanner) (model.PortfolioSnapshot, error) {
	var s model.PortfolioSnapshot
	var dateStr, createdAtStr, updatedAtStr string
	var kind string

	err := row.Scan(
		&s.ID,
		&dateStr,
		&s.NAV,
		&s.PortfolioValue,
		&s.TotalPayin,
		&s.BookedPL,
		&s.FloatPL,
		&s.OpenPositions,
		&s.Balance,
		&s.UtilisationPercent,
		&s.XIRR,
		&s.AbsoluteProfitPercent,
		&kind,
		&s.ScopeKey,
		&s.TradingStrategy,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return s, err
	}

	s.ScopeKind = model.ScopeKind(kind)

	s.SnapshotDate, err = ParseTime(dateStr)
	if err != nil {
		return s, fmt.Errorf("failed to parse snapshot date: %w", err)
	}
	s.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return s, fmt.Errorf("failed to parse created date: %w", err)
	}
	s.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return s, fmt.Errorf("failed to parse updated date: %w", err)
	}

	return s, nil
}

// Upsert inserts a snapshot, or overwrites the metric columns of the existing
// row with the same (date, scope, strategy) key. Re-materializing a day is
// therefore always safe and leaves exactly one row per key.
func (s *SnapshotRepository) Upsert(snap *model.PortfolioSnapshot) error {
	upsertQuery := `
		INSERT INTO portfolio_snapshots (` + snapshotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_date, scope_kind, scope_key, trading_strategy) DO UPDATE SET
			nav = excluded.nav,
			portfolio_value = excluded.portfolio_value,
			total_payin = excluded.total_payin,
			booked_pl = excluded.booked_pl,
			float_pl = excluded.float_pl,
			open_positions = excluded.open_positions,
			balance = excluded.balance,
			utilisation_percent = excluded.utilisation_percent,
			xirr = excluded.xirr,
			absolute_profit_percent = excluded.absolute_profit_percent,
			updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(upsertQuery,
		snap.ID,
		snap.SnapshotDate.Format("2006-01-02"),
		snap.NAV,
		snap.PortfolioValue,
		snap.TotalPayin,
		snap.BookedPL,
		snap.FloatPL,
		snap.OpenPositions,
		snap.Balance,
		snap.UtilisationPercent,
		snap.XIRR,
		snap.AbsoluteProfitPercent,
		string(snap.ScopeKind),
		snap.ScopeKey,
		snap.TradingStrategy,
		snap.CreatedAt.Format(time.RFC3339),
		snap.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// List retrieves snapshots matching the filter, oldest first.
func (s *SnapshotRepository) List(filter model.SnapshotFilter) ([]model.PortfolioSnapshot, error) {
	listQuery := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots WHERE 1=1`
	var args []any

	if filter.StartDate != nil {
		listQuery += ` AND snapshot_date >= ?`
		args = append(args, filter.StartDate.Format("2006-01-02"))
	}
	if filter.EndDate != nil {
		listQuery += ` AND snapshot_date <= ?`
		args = append(args, filter.EndDate.Format("2006-01-02"))
	}
	if filter.TradingStrategy != "" {
		listQuery += ` AND trading_strategy = ?`
		args = append(args, filter.TradingStrategy)
	}
	if filter.AccountID != "" {
		if filter.IncludeAggregated {
			listQuery += ` AND (scope_key = ? OR scope_kind != ?)`
			args = append(args, filter.AccountID, string(model.ScopeAccount))
		} else {
			listQuery += ` AND scope_kind = ? AND scope_key = ?`
			args = append(args, string(model.ScopeAccount), filter.AccountID)
		}
	}

	listQuery += ` ORDER BY snapshot_date ASC, scope_kind ASC, scope_key ASC`

	rows, err := s.db.Query(listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots table: %w", err)
	}
	defer rows.Close()

	snapshots := []model.PortfolioSnapshot{}

	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshots table results: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots table: %w", err)
	}

	return snapshots, nil
}

// GetOnID retrieves a single snapshot by ID. Returns sql.ErrNoRows when absent.
func (s *SnapshotRepository) GetOnID(id string) (*model.PortfolioSnapshot, error) {
	row := s.db.QueryRow(`SELECT `+snapshotColumns+` FROM portfolio_snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshots table results: %w", err)
	}
	return &snap, nil
}

// Delete removes a snapshot. Returns sql.ErrNoRows when the snapshot does not exist.
func (s *SnapshotRepository) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM portfolio_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
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

// Latest returns the most recent snapshot for the given scope kind and
// strategy, or nil when none exists.
func (s *SnapshotRepository) Latest(kind model.ScopeKind, strategy string) (*model.PortfolioSnapshot, error) {
	latestQuery := `
		SELECT ` + snapshotColumns + `
		FROM portfolio_snapshots
		WHERE scope_kind = ? AND trading_strategy = ?
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	row := s.db.QueryRow(latestQuery, string(kind), strategy)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshots table results: %w", err)
	}
	return &snap, nil
}

// ReplaceSymbolPrices atomically replaces the entire last-observed-price
// cache. The DELETE runs first inside the transaction so the write lock is
// taken up front, serializing concurrent materialize runs.
func (s *SnapshotRepository) ReplaceSymbolPrices(prices []model.SnapshotSymbolPrice) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshot_symbol_prices`); err != nil {
		return fmt.Errorf("failed to clear symbol prices: %w", err)
	}

	insertQuery := `
		INSERT INTO snapshot_symbol_prices (id, symbol, ltp, snapshot_taken_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	for _, p := range prices {
		_, err := tx.Exec(insertQuery,
			p.ID,
			p.Symbol,
			p.LTP,
			p.SnapshotTakenAt.Format(time.RFC3339),
			p.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert symbol price: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit symbol prices: %w", err)
	}
	return nil
}

// GetSymbolPrices returns the cached last-observed prices keyed by symbol.
func (s *SnapshotRepository) GetSymbolPrices() (map[string]model.SnapshotSymbolPrice, error) {
	rows, err := s.db.Query(`
		SELECT id, symbol, ltp, snapshot_taken_at, created_at
		FROM snapshot_symbol_prices
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol prices table: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]model.SnapshotSymbolPrice)

	for rows.Next() {
		var p model.SnapshotSymbolPrice
		var takenAtStr, createdAtStr string

		if err := rows.Scan(&p.ID, &p.Symbol, &p.LTP, &takenAtStr, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan symbol prices table results: %w", err)
		}
		p.SnapshotTakenAt, err = ParseTime(takenAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot taken date: %w", err)
		}
		p.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created date: %w", err)
		}

		prices[p.Symbol] = p
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol prices table: %w", err)
	}

	return prices, nil
}
