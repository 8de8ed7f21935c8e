package contracts

import (
	"strings"
)

// Bar is one daily candle, oldest first in a series
type Bar struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Open         float64 `json:"open"`
	Close        float64 `json:"close"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Volume       int64   `json:"volume"`
	Turnover     float64 `json:"turnover"`
	ChangePct    float64 `json:"change_pct"`
	TurnoverRate float64 `json:"turnover_rate"`
}

// Quote is the latest price picture
type Quote struct {
	Current   float64 `json:"current"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	ChangePct float64 `json:"change_pct"`
	Date      string  `json:"date"`
}

// Fundamentals holds static company data
type Fundamentals struct {
	Name      string  `json:"name"`
	Industry  string  `json:"industry"`
	MarketCap float64 `json:"market_cap"`
	FloatCap  float64 `json:"float_cap"`
	PE        float64 `json:"pe_ttm"`
	PB        float64 `json:"pb"`
	ROE       float64 `json:"roe"`
}

// MarketSnapshot is the provider adapter's output, the root of every context
// ⭐ SSOT: S0 → S1 데이터 전달
type MarketSnapshot struct {
	Symbol       string       `json:"symbol"`
	Name         string       `json:"name"`
	Quote        Quote        `json:"quote"`
	Fundamentals Fundamentals `json:"fundamentals"`
	Bars         []Bar        `json:"bars"`
}

// EmptySnapshot is the "unavailable" sentinel: zeroed fields, no bars
func EmptySnapshot(symbol string) MarketSnapshot {
	return MarketSnapshot{Symbol: NormalizeSymbol(symbol), Bars: []Bar{}}
}

// IsEmpty reports whether the snapshot carries no usable price data
func (m MarketSnapshot) IsEmpty() bool {
	return len(m.Bars) == 0 && m.Quote.Current == 0
}

// Closes returns close prices, oldest first
func (m MarketSnapshot) Closes() []float64 {
	closes := make([]float64, len(m.Bars))
	for i, b := range m.Bars {
		closes[i] = b.Close
	}
	return closes
}

// QuoteFromBars derives the latest quote from a bar series
func QuoteFromBars(bars []Bar) Quote {
	if len(bars) == 0 {
		return Quote{}
	}
	latest := bars[len(bars)-1]
	return Quote{
		Current:   latest.Close,
		Open:      latest.Open,
		High:      latest.High,
		Low:       latest.Low,
		Close:     latest.Close,
		Volume:    latest.Volume,
		ChangePct: latest.ChangePct,
		Date:      latest.Date,
	}
}

// NormalizeSymbol strips exchange prefixes: "SH600519" → "600519"
func NormalizeSymbol(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	for _, prefix := range []string{"sh", "sz", "bj"} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s[len(prefix):], ".")
		}
	}
	for _, suffix := range []string{".sh", ".sz", ".bj"} {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}

// Exchange returns the exchange code for a normalized A-share symbol
func Exchange(symbol string) string {
	switch {
	case strings.HasPrefix(symbol, "6") || strings.HasPrefix(symbol, "9"):
		return "sh"
	case strings.HasPrefix(symbol, "4") || strings.HasPrefix(symbol, "8"):
		return "bj"
	default:
		return "sz"
	}
}
