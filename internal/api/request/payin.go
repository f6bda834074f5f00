package request

type CreatePayinRequest struct {
	PayinDate      string   `json:"payin_date"`
	Amount         float64  `json:"amount"`
	PaidBy         *string  `json:"paid_by,omitempty"`
	NAV            *float64 `json:"nav,omitempty"`
	NumberOfShares *float64 `json:"number_of_shares,omitempty"`
	Description    *string  `json:"description,omitempty"`
	AccountID      *string  `json:"account_id,omitempty"`
}

type UpdatePayinRequest struct {
	PayinDate      *string  `json:"payin_date,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	PaidBy         *string  `json:"paid_by,omitempty"`
	NAV            *float64 `json:"nav,omitempty"`
	NumberOfShares *float64 `json:"number_of_shares,omitempty"`
	Description    *string  `json:"description,omitempty"`
	AccountID      *string  `json:"account_id,omitempty"`
}
