package eastmoney

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wonny/zuwa/backend/internal/contracts"
)

// DailyFlow is one row of the daily fund-flow k-line (만 CNY)
type DailyFlow struct {
	Date       string
	MainNet    float64 // 主力 = 大单 + 超大单
	SmallNet   float64 // 소액(개인) 주문
	MediumNet  float64
	LargeNet   float64
	SuperNet   float64
	ClosePrice float64
}

type flowResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// DailyFlows fetches the daily fund-flow series, newest first
func (c *Client) DailyFlows(ctx context.Context, symbol string) ([]DailyFlow, error) {
	params := url.Values{
		"secid":   {secID(symbol)},
		"lmt":     {"0"},
		"klt":     {"101"},
		"fields1": {"f1,f2,f3,f7"},
		"fields2": {"f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61,f62,f63,f64,f65"},
	}

	var resp flowResponse
	if err := c.getJSON(ctx, c.endpoints.History, "/api/qt/stock/fflow/daykline/get", params, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || len(resp.Data.Klines) == 0 {
		return nil, ErrNoData
	}

	// API는 오래된 순 → 최신 순으로 뒤집음
	flows := make([]DailyFlow, 0, len(resp.Data.Klines))
	for i := len(resp.Data.Klines) - 1; i >= 0; i-- {
		f, err := splitFields(resp.Data.Klines[i], 12)
		if err != nil {
			continue
		}
		flows = append(flows, DailyFlow{
			Date:       f[0],
			MainNet:    parseFloat(f[1]) / wan,
			SmallNet:   parseFloat(f[2]) / wan,
			MediumNet:  parseFloat(f[3]) / wan,
			LargeNet:   parseFloat(f[4]) / wan,
			SuperNet:   parseFloat(f[5]) / wan,
			ClosePrice: parseFloat(f[11]),
		})
	}
	if len(flows) == 0 {
		return nil, ErrNoData
	}
	return flows, nil
}

// FundFlow assembles main-force, northbound, dragon-tiger and margin data.
// Only the main-force series is required; the rest degrade to zero.
func (c *Client) FundFlow(ctx context.Context, symbol string) (contracts.FundFlow, error) {
	flows, err := c.DailyFlows(ctx, symbol)
	if err != nil {
		return contracts.FundFlow{}, fmt.Errorf("fund flow for %s: %w", symbol, err)
	}

	out := contracts.FundFlow{
		MainNet: flows[0].MainNet,
		Flow5D:  sumMain(flows, 5),
		Flow20D: sumMain(flows, 20),
	}
	for _, v := range []float64{flows[0].LargeNet, flows[0].SuperNet} {
		if v > 0 {
			out.LargeInflow += v
		} else {
			out.LargeOutflow -= v
		}
	}

	log := c.logger.WithField("symbol", symbol)

	if north, err := c.Northbound(ctx, symbol); err != nil {
		log.WithError(err).Debug("Northbound holdings unavailable")
	} else {
		out.NorthNetToday = north.NetToday
		out.NorthNet5D = north.Net5D
		out.HoldingRatio = north.HoldingRatio
	}

	if dt, err := c.DragonTiger(ctx, symbol); err != nil {
		log.WithError(err).Debug("Dragon-tiger list unavailable")
	} else {
		out.DragonTiger = dt
	}

	if margin, err := c.Margin(ctx, symbol); err != nil {
		log.WithError(err).Debug("Margin detail unavailable")
	} else if len(margin) > 0 {
		out.MarginBalance = margin[0].Balance
		out.MarginChange = margin[0].NetBuy
	}

	return out, nil
}

func sumMain(flows []DailyFlow, n int) float64 {
	var sum float64
	for i := 0; i < n && i < len(flows); i++ {
		sum += flows[i].MainNet
	}
	return sum
}
