package service

import (
	"log"
	"time"

	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/model"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/repository"
	"github.com/smehra/Trading-Portfolio-Tracker-Backend/internal/xirr"
)

// Metrics is one complete valuation of a portfolio scope at a point in time.
// PortfolioValue always equals TotalPayin + BookedPL + FloatPL.
type Metrics struct {
	TotalPayin            float64 `json:"total_payin"`
	BookedPL              float64 `json:"booked_pl"`
	FloatPL               float64 `json:"float_pl"`
	OpenPositions         float64 `json:"open_positions"`
	PortfolioValue        float64 `json:"portfolio_value"`
	NAV                   float64 `json:"nav"`
	Balance               float64 `json:"balance"`
	UtilisationPercent    float64 `json:"utilisation_percent"`
	XIRR                  float64 `json:"xirr"`
	AbsoluteProfitPercent float64 `json:"absolute_profit_percent"`
}

// MetricsService computes portfolio metrics from the trade and payin ledgers.
type MetricsService struct {
	tradeRepo *repository.TradeRepository
	payinRepo *repository.PayinRepository
	logger    *log.Logger
}

// NewMetricsService creates a new MetricsService.
func NewMetricsService(tradeRepo *repository.TradeRepository, payinRepo *repository.PayinRepository, logger *log.Logger) *MetricsService {
	return &MetricsService{tradeRepo: tradeRepo, payinRepo: payinRepo, logger: logger}
}

// Compute loads the ledgers for the scope and calculates metrics as of the
// given date. strategy restricts trades to one strategy tag; "" or "OVERALL"
// includes everything. pendingPayin is a hypothetical deposit dated asOf,
// used by the what-if preview.
func (s *MetricsService) Compute(asOf time.Time, scope model.Scope, strategy string, pendingPayin float64) (Metrics, error) {
	payins, err := s.payinRepo.GetPayinsAsOf(asOf, scope)
	if err != nil {
		return Metrics{}, err
	}

	trades, err := s.tradeRepo.GetTradesAsOf(asOf, scope)
	if err != nil {
		return Metrics{}, err
	}

	if strategy != "" && strategy != model.StrategyOverall {
		filtered := trades[:0]
		for _, t := range trades {
			if t.TradingStrategy != nil && *t.TradingStrategy == strategy {
				filtered = append(filtered, t)
			}
		}
		trades = filtered
	}

	return CalculateMetrics(asOf, payins, trades, pendingPayin), nil
}

// CalculateMetrics derives the full metric set from in-memory ledgers. It is
// pure: same inputs always give the same output, and the ledgers are not
// modified. Records with non-positive quantity or buy price are skipped.
//
// Ordering matters only in that PortfolioValue feeds NAV, Balance feeds
// nothing, and XIRR uses the final PortfolioValue as its terminal flow.
func CalculateMetrics(asOf time.Time, payins []model.Payin, trades []model.Trade, pendingPayin float64) Metrics {
	var m Metrics

	var totalShares float64
	for _, p := range payins {
		m.TotalPayin += p.Amount
		if p.NumberOfShares != nil {
			totalShares += *p.NumberOfShares
		}
	}
	m.TotalPayin += pendingPayin

	for _, t := range trades {
		if t.Quantity <= 0 || t.BuyPrice <= 0 {
			continue
		}

		switch t.Status {
		case model.TradeClosed:
			if t.SellDate == nil || t.SellDate.After(asOf) {
				continue
			}
			if pl := t.ProfitLoss(); pl != nil {
				m.BookedPL += *pl
			}
		case model.TradeOpen:
			m.OpenPositions += t.BuyPrice * float64(t.Quantity)
			if pl := t.ProfitLoss(); pl != nil {
				m.FloatPL += *pl
			}
		}
	}

	m.PortfolioValue = m.TotalPayin + m.BookedPL + m.FloatPL

	if totalShares > 0 {
		m.NAV = m.PortfolioValue / totalShares
	} else {
		m.NAV = m.PortfolioValue
	}

	m.Balance = m.TotalPayin + m.BookedPL - m.OpenPositions

	deployable := m.TotalPayin
	if m.BookedPL > 0 {
		deployable += m.BookedPL
	}
	if deployable > 0 {
		m.UtilisationPercent = m.OpenPositions / deployable * 100
	}

	if m.TotalPayin > 0 {
		m.AbsoluteProfitPercent = (m.BookedPL + m.FloatPL) / m.TotalPayin * 100
	}

	m.XIRR = calculateXIRR(asOf, payins, pendingPayin, m)

	return m
}

// calculateXIRR solves for the money-weighted return, falling back to the
// simple absolute return when the solver cannot converge (for example a
// single same-day cash flow).
func calculateXIRR(asOf time.Time, payins []model.Payin, pendingPayin float64, m Metrics) float64 {
	flows := make([]xirr.CashFlow, 0, len(payins)+1)
	for _, p := range payins {
		flows = append(flows, xirr.CashFlow{Date: p.PayinDate, Amount: p.Amount})
	}
	if pendingPayin != 0 {
		flows = append(flows, xirr.CashFlow{Date: asOf, Amount: pendingPayin})
	}

	if rate, ok := xirr.Portfolio(flows, m.PortfolioValue, asOf); ok {
		return rate
	}

	if m.TotalPayin > 0 {
		return (m.BookedPL + m.FloatPL) / m.TotalPayin * 100
	}
	return 0
}
