package broker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testSession = Session{APIKey: "testkey", AccessToken: "testtoken"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *KiteClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	quotes := NewQuoteCache(DefaultQuoteTTL, nil)
	instruments := NewInstrumentCache(DefaultInstrumentTTL, nil)
	return NewKiteClient(server.URL, 5*time.Second, quotes, instruments)
}

func TestGetBatchQuotes(t *testing.T) {
	t.Run("parses the quote envelope", func(t *testing.T) {
		requests := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++

			if got := r.Header.Get("Authorization"); got != "token testkey:testtoken" {
				t.Errorf("Expected the session auth header, got %q", got)
			}
			if got := r.Header.Get("X-Kite-Version"); got != "3" {
				t.Errorf("Expected API version 3, got %q", got)
			}

			w.Write([]byte(`{"status":"success","data":{
				"NSE:RELIANCE":{"last_price":2500.5,"ohlc":{"open":2480,"close":2490},"net_change":10.5,"volume":100000}
			}}`))
		})

		quotes, err := client.GetBatchQuotes(context.Background(), testSession, "NSE", []string{"RELIANCE"})
		if err != nil {
			t.Fatalf("GetBatchQuotes failed: %v", err)
		}

		quote, ok := quotes["RELIANCE"]
		if !ok {
			t.Fatal("Expected a quote for RELIANCE")
		}
		if quote.LastPrice != 2500.5 {
			t.Errorf("Expected last price 2500.5, got %f", quote.LastPrice)
		}
		if quote.OHLC.Open != 2480 {
			t.Errorf("Expected open 2480, got %f", quote.OHLC.Open)
		}
		if quote.NetChange == nil || *quote.NetChange != 10.5 {
			t.Errorf("Expected net change 10.5, got %v", quote.NetChange)
		}
		if requests != 1 {
			t.Errorf("Expected 1 request, got %d", requests)
		}
	})

	t.Run("serves repeat lookups from the cache", func(t *testing.T) {
		requests := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Write([]byte(`{"status":"success","data":{"NSE:RELIANCE":{"last_price":2500}}}`))
		})

		for i := 0; i < 3; i++ {
			if _, err := client.GetBatchQuotes(context.Background(), testSession, "NSE", []string{"RELIANCE"}); err != nil {
				t.Fatalf("GetBatchQuotes failed: %v", err)
			}
		}

		if requests != 1 {
			t.Errorf("Expected the cache to absorb repeat lookups, got %d requests", requests)
		}
	})

	t.Run("unknown symbols are absent not errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success","data":{"NSE:RELIANCE":{"last_price":2500}}}`))
		})

		quotes, err := client.GetBatchQuotes(context.Background(), testSession, "NSE", []string{"RELIANCE", "NOSUCH"})
		if err != nil {
			t.Fatalf("GetBatchQuotes failed: %v", err)
		}
		if _, ok := quotes["NOSUCH"]; ok {
			t.Error("Expected no entry for an unknown symbol")
		}
		if len(quotes) != 1 {
			t.Errorf("Expected 1 quote, got %d", len(quotes))
		}
	})

	t.Run("broker error envelope", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`))
		})

		_, err := client.GetBatchQuotes(context.Background(), testSession, "NSE", []string{"RELIANCE"})
		if err == nil {
			t.Fatal("Expected an error from the broker")
		}
		if !strings.Contains(err.Error(), "TokenException") {
			t.Errorf("Expected the broker error type in the message, got %v", err)
		}
	})
}

func TestGetHoldings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/holdings" {
			t.Errorf("Expected the holdings path, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":[
			{"tradingsymbol":"RELIANCE","exchange":"NSE","quantity":100,"average_price":2400,"last_price":2500,"pnl":10000}
		]}`))
	})

	holdings, err := client.GetHoldings(context.Background(), testSession)
	if err != nil {
		t.Fatalf("GetHoldings failed: %v", err)
	}
	if len(holdings) != 1 {
		t.Fatalf("Expected 1 holding, got %d", len(holdings))
	}
	if holdings[0].Symbol != "RELIANCE" || holdings[0].AveragePrice != 2400 {
		t.Errorf("Unexpected holding: %+v", holdings[0])
	}
}

func TestGetPositions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{
			"net":[{"tradingsymbol":"INFY","exchange":"NSE","quantity":10,"last_price":1450,"pnl":500}],
			"day":[]
		}}`))
	})

	positions, err := client.GetPositions(context.Background(), testSession)
	if err != nil {
		t.Fatalf("GetPositions failed: %v", err)
	}
	if len(positions) != 1 || positions[0].Symbol != "INFY" {
		t.Errorf("Expected the net INFY position, got %+v", positions)
	}
}

func TestPlaceOrder(t *testing.T) {
	t.Run("limit order carries the price", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "POST" || r.URL.Path != "/orders/regular" {
				t.Errorf("Expected POST /orders/regular, got %s %s", r.Method, r.URL.Path)
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("Failed to parse order form: %v", err)
				return
			}
			if r.PostForm.Get("tradingsymbol") != "RELIANCE" {
				t.Errorf("Expected symbol RELIANCE, got %s", r.PostForm.Get("tradingsymbol"))
			}
			if r.PostForm.Get("price") != "500.00" {
				t.Errorf("Expected price 500.00, got %s", r.PostForm.Get("price"))
			}
			w.Write([]byte(`{"status":"success","data":{"order_id":"240201000000001"}}`))
		})

		orderID, err := client.PlaceOrder(context.Background(), testSession, OrderParams{
			Symbol:          "RELIANCE",
			Exchange:        "NSE",
			TransactionType: "BUY",
			Quantity:        100,
			Product:         "CNC",
			OrderType:       "LIMIT",
			Price:           500,
		})
		if err != nil {
			t.Fatalf("PlaceOrder failed: %v", err)
		}
		if orderID != "240201000000001" {
			t.Errorf("Expected the broker order ID, got %s", orderID)
		}
	})

	t.Run("market order omits the price", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("Failed to parse order form: %v", err)
				return
			}
			if r.PostForm.Get("price") != "" {
				t.Errorf("Expected no price on a market order, got %s", r.PostForm.Get("price"))
			}
			w.Write([]byte(`{"status":"success","data":{"order_id":"240201000000002"}}`))
		})

		if _, err := client.PlaceOrder(context.Background(), testSession, OrderParams{
			Symbol:          "RELIANCE",
			Exchange:        "NSE",
			TransactionType: "BUY",
			Quantity:        100,
			Product:         "CNC",
			OrderType:       "MARKET",
		}); err != nil {
			t.Fatalf("PlaceOrder failed: %v", err)
		}
	})
}

func TestGetOrderStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/240201000000001" {
			t.Errorf("Expected the order path, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":[
			{"order_id":"240201000000001","status":"OPEN","average_price":0,"filled_quantity":0},
			{"order_id":"240201000000001","status":"COMPLETE","average_price":502.35,"filled_quantity":100}
		]}`))
	})

	order, err := client.GetOrderStatus(context.Background(), testSession, "240201000000001")
	if err != nil {
		t.Fatalf("GetOrderStatus failed: %v", err)
	}
	if order.Status != OrderComplete {
		t.Errorf("Expected the latest history entry, got status %s", order.Status)
	}
	if order.AveragePrice != 502.35 {
		t.Errorf("Expected average price 502.35, got %f", order.AveragePrice)
	}
}

func TestGetInstruments(t *testing.T) {
	csvDump := "instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange\n" +
		"408065,1594,RELIANCE,RELIANCE INDUSTRIES,0,,0,0.05,1,EQ,NSE,NSE\n" +
		"415745,1624,INFY,INFOSYS,0,,0,0.05,1,EQ,NSE,NSE\n"

	t.Run("parses the csv dump", func(t *testing.T) {
		requests := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			if r.URL.Path != "/instruments/NSE" {
				t.Errorf("Expected the instrument path, got %s", r.URL.Path)
			}
			w.Write([]byte(csvDump))
		})

		instruments, err := client.GetInstruments(context.Background(), testSession, "NSE")
		if err != nil {
			t.Fatalf("GetInstruments failed: %v", err)
		}
		if len(instruments) != 2 {
			t.Fatalf("Expected 2 instruments, got %d", len(instruments))
		}
		if instruments[0].TradingSymbol != "RELIANCE" || instruments[0].TickSize != 0.05 {
			t.Errorf("Unexpected instrument: %+v", instruments[0])
		}

		// Second call is served from the daily cache.
		if _, err := client.GetInstruments(context.Background(), testSession, "NSE"); err != nil {
			t.Fatalf("GetInstruments failed: %v", err)
		}
		if requests != 1 {
			t.Errorf("Expected the dump to be fetched once, got %d requests", requests)
		}
	})

	t.Run("missing columns become zero values", func(t *testing.T) {
		instruments, err := parseInstrumentCSV(strings.NewReader("tradingsymbol,exchange\nRELIANCE,NSE\n"))
		if err != nil {
			t.Fatalf("parseInstrumentCSV failed: %v", err)
		}
		if len(instruments) != 1 {
			t.Fatalf("Expected 1 instrument, got %d", len(instruments))
		}
		if instruments[0].TickSize != 0 || instruments[0].LotSize != 0 {
			t.Errorf("Expected zero values for missing columns, got %+v", instruments[0])
		}
	})
}
