package main

import (
	"log"

	"github.com/LJTian/NewsPulse/internal/collector"
	"github.com/LJTian/NewsPulse/internal/config"
	"github.com/LJTian/NewsPulse/internal/processor"
	"github.com/LJTian/NewsPulse/internal/scheduler"
	"github.com/LJTian/NewsPulse/internal/storage"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 数据源配置与 cmd/api 保持一致
	fetchers := []collector.Fetcher{
		collector.NewRSSFetcher("bbc", map[string]string{
			"politics":      "https://feeds.bbci.co.uk/news/politics/rss.xml",
			"technology":    "https://feeds.bbci.co.uk/news/technology/rss.xml",
			"business":      "https://feeds.bbci.co.uk/news/business/rss.xml",
			"health":        "https://feeds.bbci.co.uk/news/health/rss.xml",
			"science":       "https://feeds.bbci.co.uk/news/science_and_environment/rss.xml",
			"entertainment": "https://feeds.bbci.co.uk/news/entertainment_and_arts/rss.xml",
			"world":         "https://feeds.bbci.co.uk/news/world/rss.xml",
		}),
		collector.NewRSSFetcher("nytimes", map[string]string{
			"politics":   "https://rss.nytimes.com/services/xml/rss/nyt/Politics.xml",
			"technology": "https://rss.nytimes.com/services/xml/rss/nyt/Technology.xml",
			"business":   "https://rss.nytimes.com/services/xml/rss/nyt/Business.xml",
			"sports":     "https://rss.nytimes.com/services/xml/rss/nyt/Sports.xml",
			"health":     "https://rss.nytimes.com/services/xml/rss/nyt/Health.xml",
			"science":    "https://rss.nytimes.com/services/xml/rss/nyt/Science.xml",
			"world":      "https://rss.nytimes.com/services/xml/rss/nyt/World.xml",
		}),
		collector.NewGuardianFetcher(cfg.GuardianAPIKey),
	}

	p := processor.NewProcessor()
	s, err := scheduler.New(cfg.CronSpec, cfg.RetentionCron, fetchers, p, store, nil)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}

	// 只执行一轮采集任务后退出
	s.RunOnce()
}
