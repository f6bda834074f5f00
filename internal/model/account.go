package model

import "time"

// AccountDetail stores per-account metadata. HoldingsMigratedAt is the
// idempotency marker for the one-time broker-holdings import: existence
// means the migration already ran for this account.
type AccountDetail struct {
	ID                 string     `json:"id"`
	AccountID          string     `json:"account_id"`
	UserName           *string    `json:"user_name,omitempty"`
	AccountType        string     `json:"account_type"`     // "MAIN" or "TRADING_ONLY"
	TradingStrategy    string     `json:"trading_strategy"` // default strategy tag for trades in this account
	HoldingsMigratedAt *time.Time `json:"holdings_migrated_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BrokerKey holds the API credentials for one broker account. The secret is
// encrypted at rest; the repository decrypts on read.
type BrokerKey struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	APIKey    string    `json:"api_key"`
	APISecret string    `json:"-"` // never serialized
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
