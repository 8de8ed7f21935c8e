package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/config"
	"github.com/wonny/zuwa/backend/pkg/httputil"
	"github.com/wonny/zuwa/backend/pkg/logger"
	"github.com/wonny/zuwa/backend/pkg/redis"
)

// ErrNoData is returned when an endpoint answers with an empty payload
var ErrNoData = errors.New("eastmoney: no data")

// 금액 단위 변환: 원(CNY) → 만(10k)
const wan = 1e4

// Endpoints are the Eastmoney hosts used by the client
type Endpoints struct {
	Quote      string // push2: quotes, board lists
	History    string // push2his: k-lines, daily fund flow
	DataCenter string // datacenter-web: northbound, dragon-tiger, margin
	Forum      string // guba: news and posts
}

// EndpointsFromConfig reads hosts from the provider config
func EndpointsFromConfig(cfg config.ProviderConfig) Endpoints {
	return Endpoints{
		Quote:      strings.TrimRight(cfg.QuoteBaseURL, "/"),
		History:    strings.TrimRight(cfg.HistoryBaseURL, "/"),
		DataCenter: strings.TrimRight(cfg.DataCenterURL, "/"),
		Forum:      strings.TrimRight(cfg.ForumBaseURL, "/"),
	}
}

// Client handles communication with Eastmoney
// ⭐ SSOT: Eastmoney API 호출은 이 클라이언트에서만
//
// Implements contracts.FundFlowSource, NewsSource, SectorSource and CrowdSource.
type Client struct {
	httpClient *httputil.Client
	endpoints  Endpoints
	limiter    *redis.RateLimiter // nil = 제한 없음
	cache      *redis.Cache       // nil = 업종 보드 캐시 없음
	logger     *logger.Logger
}

// NewClient creates a new Eastmoney client
func NewClient(httpClient *httputil.Client, endpoints Endpoints, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithHeader("Referer", "https://quote.eastmoney.com/"),
		endpoints:  endpoints,
		logger:     log.WithComponent("eastmoney"),
	}
}

// WithRateLimiter shares a Redis sliding-window budget across processes
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.limiter = limiter
	return c
}

// WithCache caches industry board profiles
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

func (c *Client) wait(ctx context.Context, cfg redis.RateLimitConfig) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx, cfg); err != nil {
		return fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	return nil
}

var (
	_ contracts.FundFlowSource = (*Client)(nil)
	_ contracts.NewsSource     = (*Client)(nil)
	_ contracts.SectorSource   = (*Client)(nil)
	_ contracts.CrowdSource    = (*Client)(nil)
)

// secID returns the market-qualified id: 1.xxxxxx (Shanghai) or 0.xxxxxx
func secID(symbol string) string {
	if contracts.Exchange(symbol) == "sh" {
		return "1." + symbol
	}
	return "0." + symbol
}

// num decodes Eastmoney numerics, which arrive as numbers, quoted numbers or "-"
type num float64

func (n *num) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "-" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = num(v)
	return nil
}

func (c *Client) getJSON(ctx context.Context, base, path string, params url.Values, dest interface{}) error {
	if err := c.wait(ctx, redis.EastmoneyRateLimit); err != nil {
		return err
	}
	if err := c.httpClient.GetJSON(ctx, base+path, params, dest); err != nil {
		return fmt.Errorf("eastmoney %s: %w", path, err)
	}
	return nil
}

// splitFields splits a CSV k-line row and checks its width
func splitFields(line string, min int) ([]string, error) {
	fields := strings.Split(line, ",")
	if len(fields) < min {
		return nil, fmt.Errorf("malformed row %q: want %d fields, got %d", line, min, len(fields))
	}
	return fields, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
