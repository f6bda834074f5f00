// Package xirr solves for the extended internal rate of return of an
// irregular cash-flow schedule: the rate r such that the net present value
// Σ CFᵢ / (1+r)^(daysᵢ/365) is zero, with days measured from the earliest
// date in the schedule.
package xirr

import (
	"math"
	"time"
)

const (
	maxIterations = 100
	tolerance     = 1e-6

	// Newton-Raphson iterates are abandoned outside this range and the
	// solver falls back to bisection over the same interval.
	rateFloor = -0.99
	rateCeil  = 10.0

	// DefaultGuess is the initial Newton-Raphson rate (10% annual).
	DefaultGuess = 0.10
)

// CashFlow is one dated flow. Investments are negative, returns positive.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// Calculate returns the annualized rate as a decimal (0.15 = 15%) that zeroes
// the NPV of the given flows, or false when no rate is found. It requires at
// least two equal-length flows; Newton-Raphson runs from guess with a
// bisection fallback when the iteration stalls or escapes the rate bounds.
func Calculate(cashFlows []float64, dates []time.Time, guess float64) (float64, bool) {
	if len(cashFlows) == 0 || len(dates) == 0 || len(cashFlows) != len(dates) {
		return 0, false
	}
	if len(cashFlows) < 2 {
		return 0, false
	}

	first := dates[0]
	for _, d := range dates[1:] {
		if d.Before(first) {
			first = d
		}
	}

	years := make([]float64, len(dates))
	for i, d := range dates {
		years[i] = daysBetween(first, d) / 365.0
	}

	presentValue := func(rate float64) float64 {
		pv := 0.0
		for i, cf := range cashFlows {
			pv += cf / math.Pow(1+rate, years[i])
		}
		return pv
	}

	presentValueDerivative := func(rate float64) float64 {
		pvd := 0.0
		for i, cf := range cashFlows {
			pvd -= (years[i] * cf) / math.Pow(1+rate, years[i]+1)
		}
		return pvd
	}

	rate := guess
	for i := 0; i < maxIterations; i++ {
		pv := presentValue(rate)
		pvd := presentValueDerivative(rate)

		if math.Abs(pv) < tolerance {
			return rate, true
		}

		// Flat residual: Newton stalls, switch to bisection.
		if math.Abs(pvd) < tolerance {
			break
		}

		newRate := rate - pv/pvd

		if newRate < rateFloor || newRate > rateCeil {
			break
		}

		if math.Abs(newRate-rate) < tolerance {
			return newRate, true
		}

		rate = newRate
	}

	low, high := rateFloor, rateCeil
	for i := 0; i < maxIterations; i++ {
		mid := (low + high) / 2
		pv := presentValue(mid)

		if math.Abs(pv) < tolerance {
			return mid, true
		}

		if pv > 0 {
			low = mid
		} else {
			high = mid
		}

		if high-low < tolerance {
			return mid, true
		}
	}

	return 0, false
}

// Portfolio computes XIRR as a percentage for a set of payins plus the
// current portfolio value as one terminal inflow dated asOf. Payin amounts
// are treated as outflows (negated); non-finite flows are dropped. Returns
// false when fewer than two valid flows remain or the solver fails.
func Portfolio(payins []CashFlow, currentValue float64, asOf time.Time) (float64, bool) {
	if len(payins) == 0 {
		return 0, false
	}

	cashFlows := make([]float64, 0, len(payins)+1)
	dates := make([]time.Time, 0, len(payins)+1)

	for _, p := range payins {
		if p.Date.IsZero() || p.Amount == 0 {
			continue
		}
		cashFlows = append(cashFlows, -p.Amount)
		dates = append(dates, p.Date)
	}

	cashFlows = append(cashFlows, currentValue)
	dates = append(dates, asOf)

	validFlows := cashFlows[:0]
	validDates := dates[:0]
	for i, cf := range cashFlows {
		if math.IsNaN(cf) || math.IsInf(cf, 0) {
			continue
		}
		validFlows = append(validFlows, cf)
		validDates = append(validDates, dates[i])
	}

	if len(validFlows) < 2 {
		return 0, false
	}

	rate, ok := Calculate(validFlows, validDates, DefaultGuess)
	if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}

	return rate * 100, true
}

func daysBetween(d1, d2 time.Time) float64 {
	day1 := time.Date(d1.Year(), d1.Month(), d1.Day(), 0, 0, 0, 0, time.UTC)
	day2 := time.Date(d2.Year(), d2.Month(), d2.Day(), 0, 0, 0, 0, time.UTC)
	return day2.Sub(day1).Hours() / 24
}
