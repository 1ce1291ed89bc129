package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	guardianBaseURL          = "https://content.guardianapis.com"
	guardianPageSize         = 10
	guardianClientTimeout    = 10 * time.Second
	guardianMaxResponseBytes = 1 << 20 // 1MB
	guardianSummaryRunes     = 200
)

// guardianSections 固定抓取的栏目，section id 经 NormalizeTopic 映射成统一主题
var guardianSections = []string{
	"politics",
	"technology",
	"business",
	"sport",
	"culture",
	"science",
	"world",
}

// GuardianFetcher 通过 Guardian Open Platform 的分页搜索接口抓取新闻
// 未配置 API key 时返回空结果并打印告警，不算作采集失败
type GuardianFetcher struct {
	APIKey  string
	BaseURL string

	client *http.Client
}

func NewGuardianFetcher(apiKey string) *GuardianFetcher {
	return &GuardianFetcher{
		APIKey:  apiKey,
		BaseURL: guardianBaseURL,
		client:  &http.Client{Timeout: guardianClientTimeout},
	}
}

func (g *GuardianFetcher) Name() string {
	return "guardian"
}

type guardianFields struct {
	TrailingText string `json:"trailingText"`
	BodyText     string `json:"bodyText"`
	Thumbnail    string `json:"thumbnail"`
}

type guardianResult struct {
	WebTitle           string         `json:"webTitle"`
	WebURL             string         `json:"webUrl"`
	WebPublicationDate string         `json:"webPublicationDate"`
	SectionID          string         `json:"sectionId"`
	Fields             guardianFields `json:"fields"`
}

type guardianResponse struct {
	Response struct {
		Status  string           `json:"status"`
		Results []guardianResult `json:"results"`
	} `json:"response"`
}

func (g *GuardianFetcher) Fetch() ([]NewsItem, error) {
	if g.APIKey == "" {
		log.Printf("warn: guardian: api key not configured, skip")
		return nil, nil
	}

	results := make([]NewsItem, 0, len(guardianSections)*guardianPageSize)
	failed := 0

	for _, section := range guardianSections {
		items, err := g.fetchSection(section)
		if err != nil {
			log.Printf("guardian: fetch section %q error: %v", section, err)
			failed++
			continue
		}
		results = append(results, items...)
	}

	if failed > 0 && failed == len(guardianSections) {
		return nil, fmt.Errorf("guardian: all %d sections failed", failed)
	}
	return results, nil
}

func (g *GuardianFetcher) fetchSection(section string) ([]NewsItem, error) {
	q := url.Values{}
	q.Set("section", section)
	q.Set("page", "1")
	q.Set("page-size", fmt.Sprintf("%d", guardianPageSize))
	q.Set("order-by", "newest")
	q.Set("show-fields", "trailingText,bodyText,thumbnail")
	q.Set("api-key", g.APIKey)

	resp, err := g.client.Get(g.BaseURL + "/search?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload guardianResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, guardianMaxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if payload.Response.Status != "ok" {
		return nil, fmt.Errorf("api status %q", payload.Response.Status)
	}

	topic := NormalizeTopic(section)
	items := make([]NewsItem, 0, len(payload.Response.Results))
	for _, r := range payload.Response.Results {
		items = append(items, NewsItem{
			Title:       strings.TrimSpace(r.WebTitle),
			Summary:     guardianSummary(r.Fields),
			URL:         r.WebURL,
			ImageURL:    r.Fields.Thumbnail,
			Source:      "guardian",
			Topic:       topic,
			PublishedAt: guardianTime(r.WebPublicationDate),
			RawData: map[string]any{
				"section": r.SectionID,
			},
		})
	}
	return items, nil
}

// guardianSummary 优先用 trailingText，缺失时截断正文兜底
func guardianSummary(f guardianFields) string {
	if s := strings.TrimSpace(f.TrailingText); s != "" {
		return s
	}
	return truncateRunes(strings.TrimSpace(f.BodyText), guardianSummaryRunes)
}

func guardianTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now()
	}
	return t
}

// truncateRunes 按 rune 数截断并补省略号，避免把多字节字符截断成乱码
func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
