package service

import (
	"math"
	"testing"
)

func TestZerodhaIntradayCharges(t *testing.T) {
	t.Run("small turnover below brokerage cap", func(t *testing.T) {
		// turnover 2000: brokerage 0.60, stt 0.25, exch 0.069, sebi 0.002,
		// stamp 0.03, gst 0.18*(0.60+0.069+0.002)
		got := ZerodhaIntradayCharges(100, 100, 10)

		expected := 0.60 + 0.25 + 0.069 + 0.002 + 0.03 + 0.18*(0.60+0.069+0.002)
		expected = math.Round(expected*100) / 100
		if got != expected {
			t.Errorf("Expected charges %f, got %f", expected, got)
		}
	})

	t.Run("brokerage capped at twenty", func(t *testing.T) {
		// turnover 2,000,000: uncapped brokerage would be 600
		got := ZerodhaIntradayCharges(1000, 1000, 1000)

		expected := 20.0 + 250.0 + 69.0 + 2.0 + 30.0 + 0.18*(20.0+69.0+2.0)
		expected = math.Round(expected*100) / 100
		if got != expected {
			t.Errorf("Expected charges %f, got %f", expected, got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := ZerodhaIntradayCharges(523.45, 531.20, 37)
		b := ZerodhaIntradayCharges(523.45, 531.20, 37)
		if a != b {
			t.Errorf("Expected identical results, got %f and %f", a, b)
		}
	})
}

func TestZerodhaDeliveryCharges(t *testing.T) {
	t.Run("no brokerage on delivery", func(t *testing.T) {
		got := ZerodhaDeliveryCharges(500, 550, 100)

		// turnover 105000: stt 105, exch 3.6225, sebi 0.105, stamp 7.5,
		// gst 0.18*(3.6225+0.105)
		if got != 116.90 {
			t.Errorf("Expected charges 116.90, got %f", got)
		}
	})

	t.Run("stt outweighs the missing brokerage on small trades", func(t *testing.T) {
		delivery := ZerodhaDeliveryCharges(100, 100, 10)
		intraday := ZerodhaIntradayCharges(100, 100, 10)
		if delivery <= intraday {
			t.Errorf("Expected delivery charges above intraday, got delivery=%f intraday=%f", delivery, intraday)
		}
	})
}

func TestBuyAndSellChargesSplit(t *testing.T) {
	t.Run("legs sum to the round trip", func(t *testing.T) {
		buyCharges := CalculateBuyCharges(500, 100, ProductDelivery)
		sellCharges := CalculateSellCharges(500, 550, 100, ProductDelivery, buyCharges)

		roundTrip := ZerodhaDeliveryCharges(500, 550, 100)
		if math.Abs((buyCharges+sellCharges)-roundTrip) > 0.011 {
			t.Errorf("Expected legs to sum to %f, got %f", roundTrip, buyCharges+sellCharges)
		}
	})

	t.Run("buy leg is half a same-price round trip", func(t *testing.T) {
		got := CalculateBuyCharges(100, 10, ProductIntraday)

		roundTrip := ZerodhaIntradayCharges(100, 100, 10)
		expected := math.Round(roundTrip/2*100) / 100
		if got != expected {
			t.Errorf("Expected buy charges %f, got %f", expected, got)
		}
	})

	t.Run("sell leg falls back to half when estimate overshoots", func(t *testing.T) {
		// Capped intraday brokerage makes the actual round trip after a price
		// collapse smaller than the buy-side estimate.
		buyCharges := CalculateBuyCharges(1000, 10000, ProductIntraday)
		sellCharges := CalculateSellCharges(1000, 10, 10000, ProductIntraday, buyCharges)

		roundTrip := ZerodhaIntradayCharges(1000, 10, 10000)
		expected := math.Round(roundTrip/2*100) / 100
		if sellCharges != expected {
			t.Errorf("Expected fallback sell charges %f, got %f", expected, sellCharges)
		}
		if sellCharges <= 0 {
			t.Errorf("Expected positive sell charges, got %f", sellCharges)
		}
	})
}
