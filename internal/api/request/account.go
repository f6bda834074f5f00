package request

type UpsertAccountRequest struct {
	AccountID       string  `json:"account_id"`
	UserName        *string `json:"user_name,omitempty"`
	AccountType     string  `json:"account_type,omitempty"`
	TradingStrategy string  `json:"trading_strategy,omitempty"`
}

type UpsertBrokerKeyRequest struct {
	AccountID string `json:"account_id"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}
