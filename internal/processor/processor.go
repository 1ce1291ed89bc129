package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/LJTian/NewsPulse/internal/collector"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

const (
	// 准入门槛：标题/摘要低于该长度的条目直接丢弃，不进入去重
	minTitleRunes   = 10
	minSummaryRunes = 20

	// 标题相似度超过该阈值视为近似重复
	similarityThreshold = 0.8
)

// Processed 是写入存储层前的统一结构
type Processed struct {
	ID          string
	ExactKey    string
	Title       string
	Summary     string
	URL         string
	ImageURL    string
	Source      string
	Topic       string
	PublishedAt time.Time
	FetchedAt   time.Time
	RawData     map[string]any
}

// Processor 做准入校验、指纹生成与批内去重
// Process 不在多次调用间保留任何状态，同一批输入永远得到同一批输出
type Processor struct {
	metric *metrics.SorensenDice
}

func NewProcessor() *Processor {
	m := metrics.NewSorensenDice()
	m.CaseSensitive = false
	return &Processor{metric: m}
}

func (p *Processor) Process(items []collector.NewsItem) []Processed {
	now := time.Now()

	invalid := 0
	exactDup := 0

	// 第一步：准入校验 + 精确指纹去重，保持到达顺序，同 key 保留第一条
	seen := make(map[string]struct{}, len(items))
	candidates := make([]Processed, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		summary := strings.TrimSpace(it.Summary)
		if len([]rune(title)) <= minTitleRunes || len([]rune(summary)) <= minSummaryRunes || it.URL == "" {
			invalid++
			continue
		}

		key := ExactKey(title, it.URL)
		if _, ok := seen[key]; ok {
			exactDup++
			continue
		}
		seen[key] = struct{}{}

		topic := it.Topic
		if !collector.IsValidTopic(topic) {
			topic = collector.NormalizeTopic(topic)
		}

		candidates = append(candidates, Processed{
			ID:          hashURL(it.URL),
			ExactKey:    key,
			Title:       title,
			Summary:     summary,
			URL:         it.URL,
			ImageURL:    it.ImageURL,
			Source:      it.Source,
			Topic:       topic,
			PublishedAt: it.PublishedAt,
			FetchedAt:   now,
			RawData:     it.RawData,
		})
	}

	// 第二步：近似重复检查，候选只和先被接受的条目比，先到先得
	accepted := make([]Processed, 0, len(candidates))
	nearDup := 0
	for _, c := range candidates {
		if p.isNearDuplicate(c.Title, accepted) {
			nearDup++
			continue
		}
		accepted = append(accepted, c)
	}

	log.Printf("processor: batch=%d invalid=%d exact_dup=%d near_dup=%d kept=%d",
		len(items), invalid, exactDup, nearDup, len(accepted))
	return accepted
}

// isNearDuplicate 命中任意一条已接受标题即判定重复，不找最相似的那条
func (p *Processor) isNearDuplicate(title string, accepted []Processed) bool {
	for _, a := range accepted {
		if strutil.Similarity(title, a.Title, p.metric) > similarityThreshold {
			return true
		}
	}
	return false
}

// ExactKey 标题 + 规范 URL 的确定性指纹，用于精确去重与存储层唯一约束
func ExactKey(title, url string) string {
	h := sha1.New()
	h.Write([]byte(title))
	h.Write([]byte("|"))
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
