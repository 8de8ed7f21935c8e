package eastmoney

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/redis"
)

// Post is one forum list entry
type Post struct {
	Title   string
	URL     string
	Reads   int
	Replies int
	Updated string // "MM-DD hh:mm"
}

// 게시글 제목 키워드 (看多/看空)
var (
	bullishWords = []string{"涨", "看多", "加仓", "买入", "抄底", "起飞", "牛", "主升", "突破", "满仓"}
	bearishWords = []string{"跌", "看空", "减仓", "卖出", "割肉", "快跑", "崩", "套牢", "清仓", "破位"}
)

// Posts fetches the first page of the stock's forum
func (c *Client) Posts(ctx context.Context, symbol string) ([]Post, error) {
	return c.forumList(ctx, fmt.Sprintf("%s/list,%s.html", c.endpoints.Forum, symbol))
}

// News returns headlines from the forum's news tab
func (c *Client) News(ctx context.Context, symbol string, limit int) ([]contracts.NewsItem, error) {
	posts, err := c.forumList(ctx, fmt.Sprintf("%s/list,%s,1,f.html", c.endpoints.Forum, symbol))
	if err != nil {
		return nil, err
	}

	items := make([]contracts.NewsItem, 0, len(posts))
	for _, p := range posts {
		if limit > 0 && len(items) >= limit {
			break
		}
		items = append(items, contracts.NewsItem{
			Title:  p.Title,
			URL:    p.URL,
			Source: "eastmoney",
			Date:   p.Updated,
		})
	}
	return items, nil
}

// Crowd assembles retail positioning: forum bull ratio, margin trend and small-order flow.
// Each part degrades to its neutral value; an error is returned only when all fail.
func (c *Client) Crowd(ctx context.Context, symbol string) (contracts.CrowdMetrics, error) {
	m := contracts.NeutralCrowdMetrics()
	log := c.logger.WithField("symbol", symbol)
	failures := 0

	if posts, err := c.Posts(ctx, symbol); err != nil {
		failures++
		log.WithError(err).Debug("Forum posts unavailable")
	} else {
		m.BullRatio, m.PostCount = BullRatio(posts)
	}

	if margin, err := c.Margin(ctx, symbol); err != nil {
		failures++
		log.WithError(err).Debug("Margin detail unavailable")
	} else {
		m.MarginChange5D = round2(MarginChangePct(margin, 5))
		m.MarginChange20D = round2(MarginChangePct(margin, 20))
	}

	if flows, err := c.DailyFlows(ctx, symbol); err != nil {
		failures++
		log.WithError(err).Debug("Small-order flow unavailable")
	} else {
		m.RetailNetFlow = flows[0].SmallNet
	}

	// 공개 검색지수 API 없음: SearchTrend는 flat 유지
	if failures == 3 {
		return contracts.NeutralCrowdMetrics(), fmt.Errorf("crowd metrics for %s: all sources failed", symbol)
	}
	return m, nil
}

// BullRatio classifies post titles by keyword; 0.5 when nothing is opinionated
func BullRatio(posts []Post) (float64, int) {
	var bull, bear int
	for _, p := range posts {
		b := containsAny(p.Title, bullishWords)
		s := containsAny(p.Title, bearishWords)
		switch {
		case b && !s:
			bull++
		case s && !b:
			bear++
		}
	}
	if bull+bear == 0 {
		return 0.5, len(posts)
	}
	return round2(float64(bull) / float64(bull+bear)), len(posts)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (c *Client) forumList(ctx context.Context, pageURL string) ([]Post, error) {
	if err := c.wait(ctx, redis.ForumRateLimit); err != nil {
		return nil, err
	}
	html, err := c.httpClient.GetText(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("forum page: %w", err)
	}
	posts, err := parsePosts(html, c.endpoints.Forum)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNoData
	}
	return posts, nil
}

// parsePosts reads both the table layout (tr.listitem) and the legacy div layout (div.articleh)
func parsePosts(html, base string) ([]Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse forum HTML: %w", err)
	}

	var posts []Post
	add := func(link *goquery.Selection, reads, replies, updated string) {
		title := strings.TrimSpace(link.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" {
			return
		}
		posts = append(posts, Post{
			Title:   title,
			URL:     absolute(base, link.AttrOr("href", "")),
			Reads:   parseCount(reads),
			Replies: parseCount(replies),
			Updated: strings.TrimSpace(updated),
		})
	}

	doc.Find("tr.listitem").Each(func(_ int, row *goquery.Selection) {
		add(row.Find("div.title a").First(),
			row.Find("div.read").Text(),
			row.Find("div.reply").Text(),
			row.Find("div.update").Text())
	})

	if len(posts) == 0 {
		doc.Find("div.articleh").Each(func(_ int, row *goquery.Selection) {
			add(row.Find("span.l3 a").First(),
				row.Find("span.l1").Text(),
				row.Find("span.l2").Text(),
				row.Find("span.l5").Text())
		})
	}

	return posts, nil
}

func absolute(base, href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	default:
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}
}

// parseCount handles "1234" and "1.2万"
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	mult := 1.0
	if strings.HasSuffix(s, "万") {
		mult = 1e4
		s = strings.TrimSuffix(s, "万")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(math.Round(v * mult))
}
