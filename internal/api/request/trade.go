package request

type BuyTradeRequest struct {
	Symbol          string  `json:"symbol"`
	BuyDate         string  `json:"buy_date"`
	BuyPrice        float64 `json:"buy_price"`
	Quantity        int     `json:"quantity"`
	Industry        *string `json:"industry,omitempty"`
	Trader          *string `json:"trader,omitempty"`
	TradingStrategy *string `json:"trading_strategy,omitempty"`
	AccountID       *string `json:"account_id,omitempty"`
	Product         string  `json:"product,omitempty"`
	ExecuteOrder    bool    `json:"execute_order,omitempty"`
	OrderType       string  `json:"order_type,omitempty"`
	AccessToken     string  `json:"access_token,omitempty"`
}

type SellTradeRequest struct {
	SellDate     string   `json:"sell_date"`
	SellPrice    *float64 `json:"sell_price,omitempty"`
	Product      string   `json:"product,omitempty"`
	ExecuteOrder bool     `json:"execute_order,omitempty"`
	OrderType    string   `json:"order_type,omitempty"`
	AccessToken  string   `json:"access_token,omitempty"`
}

type UpdateTradeRequest struct {
	Symbol          *string  `json:"symbol,omitempty"`
	BuyDate         *string  `json:"buy_date,omitempty"`
	BuyPrice        *float64 `json:"buy_price,omitempty"`
	Quantity        *int     `json:"quantity,omitempty"`
	Industry        *string  `json:"industry,omitempty"`
	Trader          *string  `json:"trader,omitempty"`
	TradingStrategy *string  `json:"trading_strategy,omitempty"`
	AccountID       *string  `json:"account_id,omitempty"`
}
