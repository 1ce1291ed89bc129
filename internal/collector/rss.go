package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	rssMaxItemsPerFeed = 10
	rssFeedTimeout     = 10 * time.Second
)

// RSSFetcher 抓取一组按主题配置的 RSS/Atom 订阅源
// 单个 feed 失败只影响该主题，不影响同源的其它 feed
type RSSFetcher struct {
	name   string
	feeds  map[string]string // 主题标签 -> feed URL
	parser *gofeed.Parser
}

func NewRSSFetcher(name string, feeds map[string]string) *RSSFetcher {
	return &RSSFetcher{
		name:   name,
		feeds:  feeds,
		parser: gofeed.NewParser(),
	}
}

func (r *RSSFetcher) Name() string {
	return r.name
}

func (r *RSSFetcher) Fetch() ([]NewsItem, error) {
	results := make([]NewsItem, 0, len(r.feeds)*rssMaxItemsPerFeed)
	failed := 0

	for label, url := range r.feeds {
		items, err := r.fetchFeed(label, url)
		if err != nil {
			log.Printf("%s: fetch feed %q error: %v", r.name, label, err)
			failed++
			continue
		}
		results = append(results, items...)
	}

	if failed > 0 && failed == len(r.feeds) {
		return nil, fmt.Errorf("%s: all %d feeds failed", r.name, failed)
	}
	return results, nil
}

func (r *RSSFetcher) fetchFeed(label, url string) ([]NewsItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rssFeedTimeout)
	defer cancel()

	feed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	entries := feed.Items
	// 每个 feed 只取最新 10 条，限制单轮批量与对源站的压力
	if len(entries) > rssMaxItemsPerFeed {
		entries = entries[:rssMaxItemsPerFeed]
	}

	topic := NormalizeTopic(label)
	items := make([]NewsItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, NewsItem{
			Title:       strings.TrimSpace(entry.Title),
			Summary:     strings.TrimSpace(entry.Description),
			URL:         strings.TrimSpace(entry.Link),
			ImageURL:    entryImage(entry),
			Source:      r.name,
			Topic:       topic,
			PublishedAt: entryTime(entry),
			RawData: map[string]any{
				"feed_title": feed.Title,
				"feed_topic": label,
				"guid":       entry.GUID,
			},
		})
	}
	return items, nil
}

// entryTime 优先用源站声明的发布时间，缺失时退回更新时间或当前时间
func entryTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Now()
}

// entryImage 依次尝试条目自带图片、图片类附件和 media:thumbnail 扩展
func entryImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if media, ok := entry.Extensions["media"]; ok {
		if thumbs, ok := media["thumbnail"]; ok && len(thumbs) > 0 {
			if url, ok := thumbs[0].Attrs["url"]; ok {
				return url
			}
		}
	}
	return ""
}
