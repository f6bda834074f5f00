package service

import "math"

// Product distinguishes the two Zerodha charge schedules.
type Product string

const (
	// ProductIntraday is MIS: positions squared off the same day.
	ProductIntraday Product = "INTRADAY"
	// ProductDelivery is CNC: positions held overnight in demat.
	ProductDelivery Product = "DELIVERY"
)

// Zerodha equity charge schedule. Rates follow the published contract-note
// structure: brokerage, STT, exchange transaction charge, SEBI turnover fee,
// stamp duty and GST.
const (
	intradayBrokerageRate = 0.0003 // 0.03% per order, capped at 20 per leg
	intradayBrokerageCap  = 20.0
	intradayStampRate     = 0.00003 // on buy side only
	intradaySTTRate       = 0.00025 // on sell side only

	deliverySTTRate   = 0.001 // on both sides
	deliveryStampRate = 0.00015

	exchangeTxnRate = 0.0000345 // NSE, on turnover
	sebiRate        = 0.000001  // on turnover
	gstRate         = 0.18
)

// ZerodhaIntradayCharges returns the total statutory and brokerage charges
// for a completed intraday round trip of qty shares bought at buyPrice and
// sold at sellPrice, rounded to the paisa.
func ZerodhaIntradayCharges(buyPrice, sellPrice float64, qty int) float64 {
	buyValue := buyPrice * float64(qty)
	sellValue := sellPrice * float64(qty)
	turnover := buyValue + sellValue

	brokerage := math.Min(intradayBrokerageRate*turnover, intradayBrokerageCap)
	stt := intradaySTTRate * sellValue
	exchangeTxn := exchangeTxnRate * turnover
	sebi := sebiRate * turnover
	stamp := intradayStampRate * buyValue
	gst := gstRate * (brokerage + exchangeTxn + sebi)

	return roundCents(brokerage + stt + exchangeTxn + sebi + stamp + gst)
}

// ZerodhaDeliveryCharges returns the total charges for a delivery round trip.
// Brokerage is zero on delivery equity; STT applies to both legs.
func ZerodhaDeliveryCharges(buyPrice, sellPrice float64, qty int) float64 {
	buyValue := buyPrice * float64(qty)
	sellValue := sellPrice * float64(qty)
	turnover := buyValue + sellValue

	stt := deliverySTTRate * turnover
	exchangeTxn := exchangeTxnRate * turnover
	sebi := sebiRate * turnover
	stamp := deliveryStampRate * buyValue
	gst := gstRate * (exchangeTxn + sebi)

	return roundCents(stt + exchangeTxn + sebi + stamp + gst)
}

// CalculateBuyCharges estimates the buy-leg charges as half of a hypothetical
// round trip at the buy price. The split is trued up when the trade closes.
func CalculateBuyCharges(buyPrice float64, qty int, product Product) float64 {
	roundTrip := roundTripCharges(buyPrice, buyPrice, qty, product)
	return roundCents(roundTrip / 2)
}

// CalculateSellCharges returns the actual round-trip charges minus the
// charges already attributed to the buy leg, so that the two legs always sum
// to the real total. When the buy estimate exceeds the actual round trip
// (price fell sharply), the sell leg falls back to half the round trip.
func CalculateSellCharges(buyPrice, sellPrice float64, qty int, product Product, buyCharges float64) float64 {
	roundTrip := roundTripCharges(buyPrice, sellPrice, qty, product)
	sellCharges := roundCents(roundTrip - buyCharges)
	if sellCharges < 0 {
		sellCharges = roundCents(roundTrip / 2)
	}
	return sellCharges
}

func roundTripCharges(buyPrice, sellPrice float64, qty int, product Product) float64 {
	if product == ProductIntraday {
		return ZerodhaIntradayCharges(buyPrice, sellPrice, qty)
	}
	return ZerodhaDeliveryCharges(buyPrice, sellPrice, qty)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
