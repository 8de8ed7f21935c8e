package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/redis"
)

// board list row (fltt=2)
type boardRow struct {
	Code        string `json:"f12"`
	Name        string `json:"f14"`
	DayChange   num    `json:"f3"`
	WeekChange  num    `json:"f109"` // 5일 등락률
	MonthChange num    `json:"f160"` // 20일 등락률
	PE          num    `json:"f9"`   // 구성종목 조회 시 市盈率(动)
}

type clistResponse struct {
	Data *struct {
		Total int        `json:"total"`
		Diff  []boardRow `json:"diff"`
	} `json:"data"`
}

func (c *Client) clist(ctx context.Context, fs, fields string, size int) (int, []boardRow, error) {
	params := url.Values{
		"pn":     {"1"},
		"pz":     {fmt.Sprint(size)},
		"po":     {"1"}, // 내림차순
		"np":     {"1"},
		"fltt":   {"2"},
		"invt":   {"2"},
		"fid":    {"f3"},
		"fs":     {fs},
		"fields": {fields},
	}

	var resp clistResponse
	if err := c.getJSON(ctx, c.endpoints.Quote, "/api/qt/clist/get", params, &resp); err != nil {
		return 0, nil, err
	}
	if resp.Data == nil || len(resp.Data.Diff) == 0 {
		return 0, nil, ErrNoData
	}
	return resp.Data.Total, resp.Data.Diff, nil
}

// Sector builds the industry board profile: today's rank, changes, valuation and leaders.
// Trend is left empty for the analyst to derive from the changes.
// Profiles are shared across symbols of the same industry for redis.TTLLong when a cache is set.
func (c *Client) Sector(ctx context.Context, industry string) (contracts.SectorProfile, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return contracts.SectorProfile{}, fmt.Errorf("sector: empty industry")
	}
	if c.cache == nil {
		return c.sector(ctx, industry)
	}

	var profile contracts.SectorProfile
	err := c.cache.GetOrSet(ctx, redis.SectorKey(industry), &profile, redis.TTLLong, func() (interface{}, error) {
		return c.sector(ctx, industry)
	})
	return profile, err
}

func (c *Client) sector(ctx context.Context, industry string) (contracts.SectorProfile, error) {

	total, boards, err := c.clist(ctx, "m:90 t:2", "f3,f12,f14,f109,f160", 500)
	if err != nil {
		return contracts.SectorProfile{}, fmt.Errorf("industry boards: %w", err)
	}

	idx := findBoard(boards, industry)
	if idx < 0 {
		return contracts.SectorProfile{}, fmt.Errorf("industry board %q: %w", industry, ErrNoData)
	}
	board := boards[idx]
	if total < len(boards) {
		total = len(boards)
	}

	profile := contracts.SectorProfile{
		Name:        board.Name,
		Rank:        idx + 1,
		BoardCount:  total,
		DayChange:   float64(board.DayChange),
		WeekChange:  float64(board.WeekChange),
		MonthChange: float64(board.MonthChange),
	}

	_, members, err := c.clist(ctx, "b:"+board.Code, "f3,f9,f12,f14", 500)
	if err != nil {
		c.logger.WithError(err).WithField("board", board.Name).Debug("Board constituents unavailable")
		return profile, nil
	}
	profile.MedianPE, profile.AvgPE = peStats(members)
	profile.Leaders = leaders(members, 3)

	return profile, nil
}

// findBoard matches exact name first, then containment ("白酒Ⅱ" ~ "白酒")
func findBoard(boards []boardRow, industry string) int {
	for i, b := range boards {
		if b.Name == industry {
			return i
		}
	}
	for i, b := range boards {
		if strings.Contains(b.Name, industry) || strings.Contains(industry, b.Name) {
			return i
		}
	}
	return -1
}

// peStats returns median and mean PE over profitable constituents
func peStats(members []boardRow) (median, mean float64) {
	var pes stats.Float64Data
	for _, m := range members {
		if m.PE > 0 {
			pes = append(pes, float64(m.PE))
		}
	}
	if len(pes) == 0 {
		return 0, 0
	}
	median, _ = pes.Median()
	mean, _ = pes.Mean()
	return round2(median), round2(mean)
}

func leaders(members []boardRow, n int) []string {
	sorted := make([]boardRow, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DayChange > sorted[j].DayChange })

	out := make([]string, 0, n)
	for i := 0; i < n && i < len(sorted); i++ {
		out = append(out, sorted[i].Name)
	}
	return out
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
