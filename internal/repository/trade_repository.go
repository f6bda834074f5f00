package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
)

// tradeColumns is the canonical column list scanned by scanTrade. Keep the
// order in sync with the Scan call.
const tradeColumns = `
	id, symbol, buy_date, buy_price, quantity, buy_amount, buy_charges,
	sell_date, sell_price, sell_amount, sell_charges,
	industry, trader, status, trading_strategy,
	executed_via_api, buy_order_id, sell_order_id, account_id,
	current_price, current_quantity, last_synced_at, price_pending,
	day_change, day_change_percentage, created_at, updated_at
`

// TradeRepository provides data access methods for the trades table.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository creates a new TradeRepository with the provided database connection.
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (model.Trade, error) {
	var t model.Trade
	var buyDateStr, createdAtStr, updatedAtStr string
	var sellDateStr, lastSyncedStr sql.NullString
	var sellPrice, sellAmount, sellCharges, currentPrice, dayChange, dayChangePct sql.NullFloat64
	var industry, trader, strategy, executedVia, buyOrderID, sellOrderID, accountID sql.NullString
	var currentQty sql.NullInt64
	var pricePending int

	err := row.Scan(
		&t.ID,
		&t.Symbol,
		&buyDateStr,
		&t.BuyPrice,
		&t.Quantity,
		&t.BuyAmount,
		&t.BuyCharges,
		&sellDateStr,
		&sellPrice,
		&sellAmount,
		&sellCharges,
		&industry,
		&trader,
		&t.Status,
		&strategy,
		&executedVia,
		&buyOrderID,
		&sellOrderID,
		&accountID,
		&currentPrice,
		&currentQty,
		&lastSyncedStr,
		&pricePending,
		&dayChange,
		&dayChangePct,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return t, err
	}

	t.BuyDate, err = ParseTime(buyDateStr)
	if err != nil {
		return t, fmt.Errorf("failed to parse buy date: %w", err)
	}
	t.SellDate, err = parseNullableTime(sellDateStr)
	if err != nil {
		return t, fmt.Errorf("failed to parse sell date: %w", err)
	}
	t.LastSyncedAt, err = parseNullableTime(lastSyncedStr)
	if err != nil {
		return t, fmt.Errorf("failed to parse last synced date: %w", err)
	}
	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return t, fmt.Errorf("failed to parse created date: %w", err)
	}
	t.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return t, fmt.Errorf("failed to parse updated date: %w", err)
	}

	t.SellPrice = nullableFloat(sellPrice)
	t.SellAmount = nullableFloat(sellAmount)
	t.SellCharges = nullableFloat(sellCharges)
	t.Industry = nullableString(industry)
	t.Trader = nullableString(trader)
	t.TradingStrategy = nullableString(strategy)
	t.ExecutedViaAPI = nullableString(executedVia)
	t.BuyOrderID = nullableString(buyOrderID)
	t.SellOrderID = nullableString(sellOrderID)
	t.AccountID = nullableString(accountID)
	t.CurrentPrice = nullableFloat(currentPrice)
	t.CurrentQuantity = nullableInt(currentQty)
	t.DayChange = nullableFloat(dayChange)
	t.DayChangePercentage = nullableFloat(dayChangePct)
	t.PricePending = pricePending != 0

	return t, nil
}

func formatNullableTime(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Insert stores a new trade.
func (s *TradeRepository) Insert(t *model.Trade) error {
	insertQuery := `
		INSERT INTO trades (` + tradeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(insertQuery,
		t.ID,
		t.Symbol,
		t.BuyDate.Format("2006-01-02"),
		t.BuyPrice,
		t.Quantity,
		t.BuyAmount,
		t.BuyCharges,
		formatNullableTime(t.SellDate, "2006-01-02"),
		t.SellPrice,
		t.SellAmount,
		t.SellCharges,
		t.Industry,
		t.Trader,
		t.Status,
		t.TradingStrategy,
		t.ExecutedViaAPI,
		t.BuyOrderID,
		t.SellOrderID,
		t.AccountID,
		t.CurrentPrice,
		t.CurrentQuantity,
		formatNullableTime(t.LastSyncedAt, time.RFC3339),
		boolToInt(t.PricePending),
		t.DayChange,
		t.DayChangePercentage,
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// Update rewrites all mutable columns of an existing trade.
func (s *TradeRepository) Update(t *model.Trade) error {
	updateQuery := `
		UPDATE trades SET
			symbol = ?, buy_date = ?, buy_price = ?, quantity = ?,
			buy_amount = ?, buy_charges = ?,
			sell_date = ?, sell_price = ?, sell_amount = ?, sell_charges = ?,
			industry = ?, trader = ?, status = ?, trading_strategy = ?,
			executed_via_api = ?, buy_order_id = ?, sell_order_id = ?, account_id = ?,
			current_price = ?, current_quantity = ?, last_synced_at = ?, price_pending = ?,
			day_change = ?, day_change_percentage = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(updateQuery,
		t.Symbol,
		t.BuyDate.Format("2006-01-02"),
		t.BuyPrice,
		t.Quantity,
		t.BuyAmount,
		t.BuyCharges,
		formatNullableTime(t.SellDate, "2006-01-02"),
		t.SellPrice,
		t.SellAmount,
		t.SellCharges,
		t.Industry,
		t.Trader,
		t.Status,
		t.TradingStrategy,
		t.ExecutedViaAPI,
		t.BuyOrderID,
		t.SellOrderID,
		t.AccountID,
		t.CurrentPrice,
		t.CurrentQuantity,
		formatNullableTime(t.LastSyncedAt, time.RFC3339),
		boolToInt(t.PricePending),
		t.DayChange,
		t.DayChangePercentage,
		time.Now().UTC().Format(time.RFC3339),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
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

// Delete removes a trade. Returns sql.ErrNoRows when the trade does not exist.
func (s *TradeRepository) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
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

// GetOnID retrieves a single trade by ID. Returns sql.ErrNoRows when absent.
func (s *TradeRepository) GetOnID(id string) (*model.Trade, error) {
	row := s.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan trades table results: %w", err)
	}
	return &t, nil
}

// List retrieves trades matching the filter, newest buys first.
func (s *TradeRepository) List(filter model.TradeFilter) ([]model.Trade, error) {
	listQuery := `SELECT ` + tradeColumns + ` FROM trades WHERE 1=1`
	var args []any

	if filter.Status != "" {
		listQuery += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.AccountID != "" {
		listQuery += ` AND account_id = ?`
		args = append(args, filter.AccountID)
	}
	if filter.TradingStrategy != "" {
		listQuery += ` AND trading_strategy = ?`
		args = append(args, filter.TradingStrategy)
	}
	if filter.Symbol != "" {
		listQuery += ` AND symbol = ?`
		args = append(args, filter.Symbol)
	}

	listQuery += ` ORDER BY buy_date DESC, created_at DESC`

	return s.queryTrades(listQuery, args...)
}

// GetOpenTrades retrieves all OPEN trades. If accountID is non-empty, only
// that account's trades are returned.
func (s *TradeRepository) GetOpenTrades(accountID string) ([]model.Trade, error) {
	openQuery := `SELECT ` + tradeColumns + ` FROM trades WHERE status = ?`
	args := []any{model.TradeOpen}

	if accountID != "" {
		openQuery += ` AND account_id = ?`
		args = append(args, accountID)
	}

	openQuery += ` ORDER BY buy_date ASC`

	return s.queryTrades(openQuery, args...)
}

// GetTradesAsOf retrieves all trades bought on or before asOf within the
// given scope. Closed trades whose sell date falls after asOf are still
// returned; the metrics engine decides how to treat them.
func (s *TradeRepository) GetTradesAsOf(asOf time.Time, scope model.Scope) ([]model.Trade, error) {
	asOfQuery := `SELECT ` + tradeColumns + ` FROM trades WHERE buy_date <= ?`
	args := []any{asOf.Format("2006-01-02")}

	if accounts := scope.Accounts(); len(accounts) > 0 {
		asOfQuery += ` AND account_id IN (` + placeholders(len(accounts)) + `)`
		for _, id := range accounts {
			args = append(args, id)
		}
	}

	asOfQuery += ` ORDER BY buy_date ASC`

	return s.queryTrades(asOfQuery, args...)
}

// FindOpenBySymbolQuantity finds an OPEN trade in the account matching the
// symbol and quantity. Used by the holdings migration to detect trades that
// were already imported. Returns nil when no match exists.
func (s *TradeRepository) FindOpenBySymbolQuantity(accountID, symbol string, quantity int) (*model.Trade, error) {
	matchQuery := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE account_id = ? AND symbol = ? AND quantity = ? AND status = ?
		LIMIT 1
	`

	row := s.db.QueryRow(matchQuery, accountID, symbol, quantity, model.TradeOpen)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan trades table results: %w", err)
	}
	return &t, nil
}

// UpdateSyncFieldsTx updates the broker-derived columns of one trade inside
// an existing transaction, so one sync run commits atomically.
func (s *TradeRepository) UpdateSyncFieldsTx(tx *sql.Tx, t *model.Trade) error {
	syncQuery := `
		UPDATE trades SET
			current_price = ?, current_quantity = ?, last_synced_at = ?,
			price_pending = ?, day_change = ?, day_change_percentage = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := tx.Exec(syncQuery,
		t.CurrentPrice,
		t.CurrentQuantity,
		formatNullableTime(t.LastSyncedAt, time.RFC3339),
		boolToInt(t.PricePending),
		t.DayChange,
		t.DayChangePercentage,
		time.Now().UTC().Format(time.RFC3339),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade sync fields: %w", err)
	}
	return nil
}

func (s *TradeRepository) queryTrades(query string, args ...any) ([]model.Trade, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades table: %w", err)
	}
	defer rows.Close()

	trades := []model.Trade{}

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trades table results: %w", err)
		}
		trades = append(trades, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades table: %w", err)
	}

	return trades, nil
}
