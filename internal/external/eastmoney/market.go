package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// quote fields (fltt=2 → decimal values)
type quoteResponse struct {
	Data *struct {
		Code      string `json:"f57"`
		Name      string `json:"f58"`
		Current   num    `json:"f43"`
		High      num    `json:"f44"`
		Low       num    `json:"f45"`
		Open      num    `json:"f46"`
		Volume    num    `json:"f47"`
		ChangePct num    `json:"f170"`
		MarketCap num    `json:"f116"`
		FloatCap  num    `json:"f117"`
		PE        num    `json:"f162"` // 市盈率(动)
		PB        num    `json:"f167"`
		Industry  string `json:"f127"`
		ROE       num    `json:"f173"`
	} `json:"data"`
}

// Bars fetches forward-adjusted daily candles, oldest first
func (c *Client) Bars(ctx context.Context, symbol string, days int) ([]contracts.Bar, string, error) {
	params := url.Values{
		"secid":   {secID(symbol)},
		"fields1": {"f1,f2,f3,f4,f5,f6"},
		"fields2": {"f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"},
		"klt":     {"101"}, // 일봉
		"fqt":     {"1"},   // 전복권(前复权)
		"end":     {"20500101"},
		"lmt":     {strconv.Itoa(days)},
	}

	var resp klineResponse
	if err := c.getJSON(ctx, c.endpoints.History, "/api/qt/stock/kline/get", params, &resp); err != nil {
		return nil, "", err
	}
	if resp.Data == nil || len(resp.Data.Klines) == 0 {
		return nil, "", ErrNoData
	}

	bars := make([]contracts.Bar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Debug("Skipping k-line row")
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, "", ErrNoData
	}
	return bars, resp.Data.Name, nil
}

// parseKline parses "date,open,close,high,low,volume,amount,amplitude,pct,change,turnover"
func parseKline(line string) (contracts.Bar, error) {
	f, err := splitFields(line, 11)
	if err != nil {
		return contracts.Bar{}, err
	}
	vol, err := strconv.ParseInt(f[5], 10, 64)
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("volume %q: %w", f[5], err)
	}
	return contracts.Bar{
		Date:         f[0],
		Open:         parseFloat(f[1]),
		Close:        parseFloat(f[2]),
		High:         parseFloat(f[3]),
		Low:          parseFloat(f[4]),
		Volume:       vol,
		Turnover:     parseFloat(f[6]),
		ChangePct:    parseFloat(f[8]),
		TurnoverRate: parseFloat(f[10]),
	}, nil
}

// Quote fetches the latest quote and the company fundamentals
func (c *Client) Quote(ctx context.Context, symbol string) (string, contracts.Quote, contracts.Fundamentals, error) {
	params := url.Values{
		"secid":  {secID(symbol)},
		"fltt":   {"2"},
		"invt":   {"2"},
		"fields": {"f43,f44,f45,f46,f47,f57,f58,f116,f117,f127,f162,f167,f170,f173"},
	}

	var resp quoteResponse
	if err := c.getJSON(ctx, c.endpoints.Quote, "/api/qt/stock/get", params, &resp); err != nil {
		return "", contracts.Quote{}, contracts.Fundamentals{}, err
	}
	d := resp.Data
	if d == nil || d.Code == "" {
		return "", contracts.Quote{}, contracts.Fundamentals{}, ErrNoData
	}

	quote := contracts.Quote{
		Current:   float64(d.Current),
		Open:      float64(d.Open),
		High:      float64(d.High),
		Low:       float64(d.Low),
		Close:     float64(d.Current),
		Volume:    int64(d.Volume),
		ChangePct: float64(d.ChangePct),
	}
	fund := contracts.Fundamentals{
		Name:      d.Name,
		Industry:  d.Industry,
		MarketCap: float64(d.MarketCap),
		FloatCap:  float64(d.FloatCap),
		PE:        float64(d.PE),
		PB:        float64(d.PB),
		ROE:       float64(d.ROE),
	}
	return d.Name, quote, fund, nil
}

// Snapshot assembles candles, quote and fundamentals.
// A failed quote falls back to the last candle; failed candles are an error.
func (c *Client) Snapshot(ctx context.Context, symbol string, days int) (contracts.MarketSnapshot, error) {
	bars, name, err := c.Bars(ctx, symbol, days)
	if err != nil {
		return contracts.MarketSnapshot{}, fmt.Errorf("bars for %s: %w", symbol, err)
	}

	snap := contracts.MarketSnapshot{
		Symbol: symbol,
		Name:   name,
		Bars:   bars,
		Quote:  contracts.QuoteFromBars(bars),
	}

	qName, quote, fund, err := c.Quote(ctx, symbol)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Quote unavailable, using last candle")
		return snap, nil
	}

	quote.Date = snap.Quote.Date
	if quote.Current == 0 {
		quote = snap.Quote
	}
	snap.Quote = quote
	snap.Fundamentals = fund
	if qName != "" {
		snap.Name = qName
	}
	return snap, nil
}
