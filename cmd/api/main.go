package main

import (
	"log"

	"github.com/LJTian/NewsPulse/internal/api"
	"github.com/LJTian/NewsPulse/internal/collector"
	"github.com/LJTian/NewsPulse/internal/config"
	"github.com/LJTian/NewsPulse/internal/hub"
	"github.com/LJTian/NewsPulse/internal/processor"
	"github.com/LJTian/NewsPulse/internal/scheduler"
	"github.com/LJTian/NewsPulse/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	h := hub.New()

	fetchers := newFetchers(cfg)
	p := processor.NewProcessor()
	s, err := scheduler.New(cfg.CronSpec, cfg.RetentionCron, fetchers, p, store, h)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	r := gin.Default()
	apiServer := api.NewServer(store, h, s, cfg.AdminToken)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

// newFetchers 数据源静态配置：两家按主题分栏的 RSS 源加 Guardian 搜索接口
func newFetchers(cfg *config.Config) []collector.Fetcher {
	bbc := collector.NewRSSFetcher("bbc", map[string]string{
		"politics":      "https://feeds.bbci.co.uk/news/politics/rss.xml",
		"technology":    "https://feeds.bbci.co.uk/news/technology/rss.xml",
		"business":      "https://feeds.bbci.co.uk/news/business/rss.xml",
		"health":        "https://feeds.bbci.co.uk/news/health/rss.xml",
		"science":       "https://feeds.bbci.co.uk/news/science_and_environment/rss.xml",
		"entertainment": "https://feeds.bbci.co.uk/news/entertainment_and_arts/rss.xml",
		"world":         "https://feeds.bbci.co.uk/news/world/rss.xml",
	})

	nyt := collector.NewRSSFetcher("nytimes", map[string]string{
		"politics":   "https://rss.nytimes.com/services/xml/rss/nyt/Politics.xml",
		"technology": "https://rss.nytimes.com/services/xml/rss/nyt/Technology.xml",
		"business":   "https://rss.nytimes.com/services/xml/rss/nyt/Business.xml",
		"sports":     "https://rss.nytimes.com/services/xml/rss/nyt/Sports.xml",
		"health":     "https://rss.nytimes.com/services/xml/rss/nyt/Health.xml",
		"science":    "https://rss.nytimes.com/services/xml/rss/nyt/Science.xml",
		"world":      "https://rss.nytimes.com/services/xml/rss/nyt/World.xml",
	})

	return []collector.Fetcher{
		bbc,
		nyt,
		collector.NewGuardianFetcher(cfg.GuardianAPIKey),
	}
}
