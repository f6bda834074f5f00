package broker

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.kite.trade"
	kiteAPIVersion = "3"
)

// KiteClient talks to the Zerodha Kite Connect REST API. Quotes and
// instrument dumps are served from owned TTL caches so a burst of sync or
// migration calls does not hammer the rate-limited API.
type KiteClient struct {
	baseURL    string
	httpClient *http.Client

	quotes      *QuoteCache
	instruments *InstrumentCache
}

// NewKiteClient creates a Kite Connect client. An empty baseURL selects the
// production endpoint; tests point it at a local httptest server.
func NewKiteClient(baseURL string, timeout time.Duration, quotes *QuoteCache, instruments *InstrumentCache) *KiteClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &KiteClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		quotes:      quotes,
		instruments: instruments,
	}
}

type kiteEnvelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
	Data      json.RawMessage `json:"data"`
}

// GetQuote fetches a single quote, preferring the cache.
func (c *KiteClient) GetQuote(ctx context.Context, session Session, exchange, symbol string) (Quote, error) {
	quotes, err := c.GetBatchQuotes(ctx, session, exchange, []string{symbol})
	if err != nil {
		return Quote{}, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("no quote returned for %s:%s", exchange, symbol)
	}
	return q, nil
}

// GetBatchQuotes fetches quotes for the symbols on one exchange. Cached
// entries are used where fresh; only the misses go to the API. Symbols the
// broker does not know are simply absent from the result.
func (c *KiteClient) GetBatchQuotes(ctx context.Context, session Session, exchange string, symbols []string) (map[string]Quote, error) {
	result := make(map[string]Quote, len(symbols))
	var misses []string

	for _, symbol := range symbols {
		if c.quotes != nil {
			if q, ok := c.quotes.Get(exchange + ":" + symbol); ok {
				result[symbol] = q
				continue
			}
		}
		misses = append(misses, symbol)
	}

	if len(misses) == 0 {
		return result, nil
	}

	params := url.Values{}
	for _, symbol := range misses {
		params.Add("i", exchange+":"+symbol)
	}

	data, err := c.get(ctx, session, "/quote?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var quotes map[string]Quote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	for key, q := range quotes {
		symbol := strings.TrimPrefix(key, exchange+":")
		result[symbol] = q
		if c.quotes != nil {
			c.quotes.Put(key, q)
		}
	}

	return result, nil
}

// GetHoldings fetches all demat holdings for the session's account.
func (c *KiteClient) GetHoldings(ctx context.Context, session Session) ([]Holding, error) {
	data, err := c.get(ctx, session, "/portfolio/holdings")
	if err != nil {
		return nil, err
	}

	var holdings []Holding
	if err := json.Unmarshal(data, &holdings); err != nil {
		return nil, fmt.Errorf("failed to parse holdings response: %w", err)
	}
	return holdings, nil
}

// GetPositions fetches the net positions for the session's account.
func (c *KiteClient) GetPositions(ctx context.Context, session Session) ([]Position, error) {
	data, err := c.get(ctx, session, "/portfolio/positions")
	if err != nil {
		return nil, err
	}

	var positions struct {
		Net []Position `json:"net"`
	}
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("failed to parse positions response: %w", err)
	}
	return positions.Net, nil
}

// PlaceOrder submits a regular-variety order and returns the broker order ID.
func (c *KiteClient) PlaceOrder(ctx context.Context, session Session, params OrderParams) (string, error) {
	form := url.Values{}
	form.Set("tradingsymbol", params.Symbol)
	form.Set("exchange", params.Exchange)
	form.Set("transaction_type", params.TransactionType)
	form.Set("quantity", strconv.Itoa(params.Quantity))
	form.Set("product", params.Product)
	form.Set("order_type", params.OrderType)
	if params.OrderType == "LIMIT" {
		form.Set("price", strconv.FormatFloat(params.Price, 'f', 2, 64))
	}

	data, err := c.do(ctx, session, "POST", "/orders/regular", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}

	var placed struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(data, &placed); err != nil {
		return "", fmt.Errorf("failed to parse order response: %w", err)
	}
	return placed.OrderID, nil
}

// GetOrderStatus fetches the order history and returns its latest entry.
func (c *KiteClient) GetOrderStatus(ctx context.Context, session Session, orderID string) (Order, error) {
	data, err := c.get(ctx, session, "/orders/"+orderID)
	if err != nil {
		return Order{}, err
	}

	var history []Order
	if err := json.Unmarshal(data, &history); err != nil {
		return Order{}, fmt.Errorf("failed to parse order history response: %w", err)
	}
	if len(history) == 0 {
		return Order{}, fmt.Errorf("no history returned for order %s", orderID)
	}
	return history[len(history)-1], nil
}

// GetInstruments fetches the exchange's instrument master, served from the
// daily cache when fresh. The dump is CSV, not the JSON envelope.
func (c *KiteClient) GetInstruments(ctx context.Context, session Session, exchange string) ([]Instrument, error) {
	if c.instruments != nil {
		if cached, ok := c.instruments.Get(exchange); ok {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/instruments/"+exchange, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("instrument dump request failed with status %d", resp.StatusCode)
	}

	instruments, err := parseInstrumentCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	if c.instruments != nil {
		c.instruments.Put(exchange, instruments)
	}
	return instruments, nil
}

func parseInstrumentCSV(r io.Reader) ([]Instrument, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read instrument dump header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	instruments := []Instrument{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read instrument dump row: %w", err)
		}

		tickSize, _ := strconv.ParseFloat(field(record, "tick_size"), 64)
		lotSize, _ := strconv.Atoi(field(record, "lot_size"))

		instruments = append(instruments, Instrument{
			InstrumentToken: field(record, "instrument_token"),
			TradingSymbol:   field(record, "tradingsymbol"),
			Name:            field(record, "name"),
			Exchange:        field(record, "exchange"),
			Segment:         field(record, "segment"),
			TickSize:        tickSize,
			LotSize:         lotSize,
		})
	}

	return instruments, nil
}

func (c *KiteClient) get(ctx context.Context, session Session, path string) (json.RawMessage, error) {
	return c.do(ctx, session, "GET", path, nil)
}

func (c *KiteClient) do(ctx context.Context, session Session, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, session)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope kiteEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse broker response: %w", err)
	}

	if envelope.Status == "error" || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("broker error (%s): %s", envelope.ErrorType, envelope.Message)
	}

	return envelope.Data, nil
}

func (c *KiteClient) setHeaders(req *http.Request, session Session) {
	req.Header.Set("X-Kite-Version", kiteAPIVersion)
	req.Header.Set("Authorization", "token "+session.APIKey+":"+session.AccessToken)
}
