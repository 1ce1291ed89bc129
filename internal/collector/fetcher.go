package collector

import (
	"strings"
	"time"
)

// 统一的主题枚举，用于分组展示与订阅分发
const (
	TopicPolitics      = "politics"
	TopicTechnology    = "technology"
	TopicBusiness      = "business"
	TopicSports        = "sports"
	TopicEntertainment = "entertainment"
	TopicHealth        = "health"
	TopicScience       = "science"
	TopicWorld         = "world"
	TopicGeneral       = "general"
)

// Topics 所有合法主题，顺序即 API /topics 的返回顺序
var Topics = []string{
	TopicPolitics,
	TopicTechnology,
	TopicBusiness,
	TopicSports,
	TopicEntertainment,
	TopicHealth,
	TopicScience,
	TopicWorld,
	TopicGeneral,
}

// topicAliases 各数据源自带的分类标签 -> 统一主题
var topicAliases = map[string]string{
	"politics":      TopicPolitics,
	"uk news":       TopicPolitics,
	"us news":       TopicPolitics,
	"tech":          TopicTechnology,
	"technology":    TopicTechnology,
	"sci/tech":      TopicTechnology,
	"business":      TopicBusiness,
	"economy":       TopicBusiness,
	"money":         TopicBusiness,
	"sport":         TopicSports,
	"sports":        TopicSports,
	"football":      TopicSports,
	"entertainment": TopicEntertainment,
	"culture":       TopicEntertainment,
	"film":          TopicEntertainment,
	"music":         TopicEntertainment,
	"health":        TopicHealth,
	"wellness":      TopicHealth,
	"science":       TopicScience,
	"environment":   TopicScience,
	"world":         TopicWorld,
	"world news":    TopicWorld,
	"international": TopicWorld,
	"global":        TopicWorld,
	"general":       TopicGeneral,
	"top stories":   TopicGeneral,
	"breaking news": TopicGeneral,
}

// NormalizeTopic 将源站标签映射到统一主题；未知标签归入 general
func NormalizeTopic(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return TopicGeneral
	}
	if t, ok := topicAliases[label]; ok {
		return t
	}
	for _, t := range Topics {
		if label == t {
			return t
		}
	}
	return TopicGeneral
}

// IsValidTopic 供 API 层做参数校验
func IsValidTopic(topic string) bool {
	for _, t := range Topics {
		if topic == t {
			return true
		}
	}
	return false
}

// NewsItem 统一采集后的基础结构
type NewsItem struct {
	Title       string
	Summary     string
	URL         string
	ImageURL    string
	Source      string
	Topic       string
	PublishedAt time.Time
	RawData     map[string]any
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch() ([]NewsItem, error)
}
