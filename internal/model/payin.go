package model

import "time"

// Payin is a cash deposit into the tracked trading account. Amounts are
// signed: a withdrawal recorded as a negative payin is summed like any other
// entry, never special-cased. NAV and NumberOfShares support the optional
// share-unit convention (shares purchased at the NAV on deposit day); when no
// payin in a scope carries shares, NAV reporting falls back to raw portfolio
// value.
type Payin struct {
	ID             string    `json:"id"`
	PayinDate      time.Time `json:"payin_date"`
	Amount         float64   `json:"amount"`
	PaidBy         *string   `json:"paid_by,omitempty"`
	NAV            *float64  `json:"nav,omitempty"`
	NumberOfShares *float64  `json:"number_of_shares,omitempty"`
	Description    *string   `json:"description,omitempty"`
	AccountID      *string   `json:"account_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
