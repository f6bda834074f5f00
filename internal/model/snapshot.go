package model

import "time"

// PortfolioSnapshot is a materialized point-in-time valuation, keyed by
// (snapshot_date, scope_kind, scope_key, trading_strategy). The scope columns
// make the aggregated-vs-single-account distinction explicit instead of
// overloading a nullable account column.
type PortfolioSnapshot struct {
	ID           string    `json:"id"`
	SnapshotDate time.Time `json:"snapshot_date"`

	NAV                   float64 `json:"nav"`
	PortfolioValue        float64 `json:"portfolio_value"`
	TotalPayin            float64 `json:"total_payin"`
	BookedPL              float64 `json:"booked_pl"`
	FloatPL               float64 `json:"float_pl"`
	OpenPositions         float64 `json:"open_positions"`
	Balance               float64 `json:"balance"`
	UtilisationPercent    float64 `json:"utilisation_percent"`
	XIRR                  float64 `json:"xirr"`
	AbsoluteProfitPercent float64 `json:"absolute_profit_percent"`

	ScopeKind       ScopeKind `json:"scope_kind"`
	ScopeKey        string    `json:"scope_key"`        // account ID, sorted ID list, or "" for global
	TradingStrategy string    `json:"trading_strategy"` // "SWING", "LONG_TERM", "OVERALL" or "" when unscoped

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scope reconstructs the scope this snapshot was computed for.
func (s *PortfolioSnapshot) Scope() Scope {
	switch s.ScopeKind {
	case ScopeAccount:
		return AccountScope(s.ScopeKey)
	case ScopeMulti:
		return MultiAccountScope(splitScopeKey(s.ScopeKey))
	default:
		return GlobalScope()
	}
}

func splitScopeKey(key string) []string {
	if key == "" {
		return nil
	}
	var ids []string
	start := 0
	for i := 0; i <= len(key); i++ {
		if i == len(key) || key[i] == ',' {
			if i > start {
				ids = append(ids, key[start:i])
			}
			start = i + 1
		}
	}
	return ids
}

// SnapshotSymbolPrice is one row of the last-observed-price cache. The table
// has no history: every materialize run deletes all rows and rewrites it from
// the currently open trades, all stamped with one SnapshotTakenAt. The sync
// engine reads it as the day-change baseline.
type SnapshotSymbolPrice struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	LTP             float64   `json:"ltp"`
	SnapshotTakenAt time.Time `json:"snapshot_taken_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// SnapshotFilter controls which snapshots a list query returns.
type SnapshotFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	AccountID       string
	TradingStrategy string
	// IncludeAggregated also returns MULTI/GLOBAL rows matching the strategy
	// when an account filter is set (dashboards show both).
	IncludeAggregated bool
}
