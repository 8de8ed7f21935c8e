package eastmoney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// datacenter-web report envelope
type reportResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

type reportQuery struct {
	Name     string
	Columns  string
	Filter   string
	SortBy   string
	PageSize int
}

func (c *Client) report(ctx context.Context, q reportQuery, dest interface{}) error {
	params := url.Values{
		"reportName":  {q.Name},
		"columns":     {q.Columns},
		"filter":      {q.Filter},
		"sortColumns": {q.SortBy},
		"sortTypes":   {"-1"},
		"pageSize":    {strconv.Itoa(q.PageSize)},
		"pageNumber":  {"1"},
		"source":      {"WEB"},
		"client":      {"WEB"},
	}

	var resp reportResponse
	if err := c.getJSON(ctx, c.endpoints.DataCenter, "/api/data/v1/get", params, &resp); err != nil {
		return err
	}
	if !resp.Success || resp.Result == nil || len(resp.Result.Data) == 0 {
		return ErrNoData
	}
	if err := json.Unmarshal(resp.Result.Data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", q.Name, err)
	}
	return nil
}

// NorthboundHolding summarizes Stock Connect holdings (만 CNY)
type NorthboundHolding struct {
	NetToday     float64
	Net5D        float64
	HoldingRatio float64 // % of tradable shares
}

// Northbound fetches recent Stock Connect holding changes
func (c *Client) Northbound(ctx context.Context, symbol string) (NorthboundHolding, error) {
	var rows []struct {
		Date   string `json:"TRADE_DATE"`
		Ratio  num    `json:"A_SHARES_RATIO"`
		AddCap num    `json:"ADD_MARKET_CAP"`
	}
	err := c.report(ctx, reportQuery{
		Name:     "RPT_MUTUAL_HOLDSTOCKNORTH_STA",
		Columns:  "TRADE_DATE,A_SHARES_RATIO,ADD_MARKET_CAP",
		Filter:   fmt.Sprintf(`(SECURITY_CODE="%s")`, symbol),
		SortBy:   "TRADE_DATE",
		PageSize: 5,
	}, &rows)
	if err != nil {
		return NorthboundHolding{}, err
	}
	if len(rows) == 0 {
		return NorthboundHolding{}, ErrNoData
	}

	h := NorthboundHolding{
		NetToday:     float64(rows[0].AddCap) / wan,
		HoldingRatio: float64(rows[0].Ratio),
	}
	for _, r := range rows {
		h.Net5D += float64(r.AddCap) / wan
	}
	return h, nil
}

// DragonTiger checks the top-traders list over the last 30 days
func (c *Client) DragonTiger(ctx context.Context, symbol string) (dt contracts.DragonTiger, err error) {
	since := time.Now().AddDate(0, 0, -30).Format("2006-01-02")

	var rows []struct {
		Date   string `json:"TRADE_DATE"`
		NetAmt num    `json:"BILLBOARD_NET_AMT"`
	}
	err = c.report(ctx, reportQuery{
		Name:     "RPT_DAILYBILLBOARD_DETAILSNEW",
		Columns:  "SECURITY_CODE,TRADE_DATE,BILLBOARD_NET_AMT",
		Filter:   fmt.Sprintf(`(SECURITY_CODE="%s")(TRADE_DATE>='%s')`, symbol, since),
		SortBy:   "TRADE_DATE",
		PageSize: 10,
	}, &rows)
	if errors.Is(err, ErrNoData) {
		// 미등재는 정상
		return dt, nil
	}
	if err != nil || len(rows) == 0 {
		return dt, err
	}

	dt.InList = true
	dt.ListDate = dateOnly(rows[0].Date)
	dt.NetAmount = float64(rows[0].NetAmt) / wan
	return dt, nil
}

// MarginDay is one day of margin-trading detail (만 CNY)
type MarginDay struct {
	Date    string
	Balance float64 // 融资余额
	NetBuy  float64 // 融资净买入
}

// Margin fetches up to 21 days of margin detail, newest first
func (c *Client) Margin(ctx context.Context, symbol string) ([]MarginDay, error) {
	var rows []struct {
		Date    string `json:"DATE"`
		Balance num    `json:"RZYE"`
		NetBuy  num    `json:"RZJME"`
	}
	err := c.report(ctx, reportQuery{
		Name:     "RPTA_WEB_RZRQ_GGMX",
		Columns:  "DATE,SCODE,RZYE,RZJME",
		Filter:   fmt.Sprintf(`(scode="%s")`, symbol),
		SortBy:   "DATE",
		PageSize: 21,
	}, &rows)
	if err != nil {
		return nil, err
	}

	days := make([]MarginDay, 0, len(rows))
	for _, r := range rows {
		days = append(days, MarginDay{
			Date:    dateOnly(r.Date),
			Balance: float64(r.Balance) / wan,
			NetBuy:  float64(r.NetBuy) / wan,
		})
	}
	return days, nil
}

// MarginChangePct is the % change of the financing balance over n days
func MarginChangePct(days []MarginDay, n int) float64 {
	if len(days) <= n || days[n].Balance == 0 {
		return 0
	}
	return (days[0].Balance - days[n].Balance) / days[n].Balance * 100
}

// "2026-03-02 00:00:00" → "2026-03-02"
func dateOnly(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}
