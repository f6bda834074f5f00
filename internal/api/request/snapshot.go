package request

type MaterializeSnapshotRequest struct {
	Date            string   `json:"date"`
	AccountID       string   `json:"account_id,omitempty"`
	AccountIDs      []string `json:"account_ids,omitempty"`
	TradingStrategy string   `json:"trading_strategy,omitempty"`
}

type DailySnapshotRequest struct {
	Date string `json:"date,omitempty"`
}

type SyncRequest struct {
	AccountID   string `json:"account_id"`
	AccessToken string `json:"access_token"`
}

type MigrateHoldingsRequest struct {
	AccountID   string `json:"account_id"`
	AccessToken string `json:"access_token"`
}
