package contracts

// Collaborator payloads consumed by individual analysts.
// 모든 금액 단위는 만(10k) CNY

// FundFlow feeds the capital analyst
type FundFlow struct {
	MainNet       float64     `json:"main_net"` // 대단+특대단 순유입 (당일)
	LargeInflow   float64     `json:"large_inflow"`
	LargeOutflow  float64     `json:"large_outflow"`
	Flow5D        float64     `json:"flow_5d"`
	Flow20D       float64     `json:"flow_20d"`
	NorthNetToday float64     `json:"north_net_today"`
	NorthNet5D    float64     `json:"north_net_5d"`
	HoldingRatio  float64     `json:"holding_ratio"`
	DragonTiger   DragonTiger `json:"dragon_tiger"`
	MarginBalance float64     `json:"margin_balance"`
	MarginChange  float64     `json:"margin_change"`
}

// DragonTiger is the exchange "top traders" list entry
type DragonTiger struct {
	InList    bool    `json:"in_list"`
	ListDate  string  `json:"list_date,omitempty"`
	NetAmount float64 `json:"net_amount"`
}

// NewsItem is a headline about the instrument
type NewsItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Trend is a coarse direction label
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// SectorProfile feeds the sector analyst
type SectorProfile struct {
	Name        string   `json:"name"`
	Rank        int      `json:"rank"` // 1 = strongest board today, 0 = unknown
	BoardCount  int      `json:"board_count"`
	DayChange   float64  `json:"day_change"`
	WeekChange  float64  `json:"week_change"`
	MonthChange float64  `json:"month_change"`
	Trend       Trend    `json:"trend"`
	MedianPE    float64  `json:"median_pe"`
	AvgPE       float64  `json:"avg_pe"`
	Leaders     []string `json:"leaders,omitempty"`
}

// CrowdMetrics feeds the crowd-sentiment analyst
type CrowdMetrics struct {
	MarginChange5D  float64 `json:"margin_change_5d"` // %
	MarginChange20D float64 `json:"margin_change_20d"`
	BullRatio       float64 `json:"bull_ratio"` // forum posts, 0..1
	PostCount       int     `json:"post_count"`
	SearchTrend     Trend   `json:"search_trend"`
	RetailNetFlow   float64 `json:"retail_net_flow"`
}

// NeutralCrowdMetrics is the zeroed default when the source is unavailable
func NeutralCrowdMetrics() CrowdMetrics {
	return CrowdMetrics{BullRatio: 0.5, SearchTrend: TrendFlat}
}
