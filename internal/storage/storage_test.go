package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/LJTian/NewsPulse/internal/processor"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 测试用内存库；Redis 为 nil 时缓存路径全部静默跳过，读走 DB
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Article{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &Store{DB: db}
}

func hashStr(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

func newProcessed(title, url, topic string, published time.Time) processor.Processed {
	return processor.Processed{
		ID:          hashStr(url),
		ExactKey:    processor.ExactKey(title, url),
		Title:       title,
		Summary:     "a summary long enough to pass the gate",
		URL:         url,
		Source:      "test",
		Topic:       topic,
		PublishedAt: published,
		FetchedAt:   time.Now(),
	}
}

func TestSaveNewInsertsAndReportsNew(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	inserted, err := s.SaveNew([]processor.Processed{
		newProcessed("First Headline For Storage", "https://example.com/1", "world", now.Add(-time.Hour)),
		newProcessed("Second Headline For Storage", "https://example.com/2", "science", now),
	})
	if err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("expected 2 newly inserted, got %d", len(inserted))
	}

	list, err := s.Latest(10, 0)
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 stored articles, got %d", len(list))
	}
	// 按发布时间倒序
	if list[0].URL != "https://example.com/2" {
		t.Fatalf("expected newest first, got %q", list[0].URL)
	}
}

func TestSaveNewSkipsExistingURL(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	first := newProcessed("Original Headline For The Story", "https://example.com/same", "world", now)
	if _, err := s.SaveNew([]processor.Processed{first}); err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}

	// 同一 URL、不同标题（也就是不同 exact key）：仍然只保留第一条
	second := newProcessed("A Reworded Headline For The Story", "https://example.com/same", "world", now)
	inserted, err := s.SaveNew([]processor.Processed{second})
	if err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}
	if len(inserted) != 0 {
		t.Fatalf("duplicate url must not be counted as new, got %d", len(inserted))
	}

	count, err := s.CountByTopic("")
	if err != nil {
		t.Fatalf("CountByTopic error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 stored article, got %d", count)
	}
}

func TestSaveNewSkipsExistingExactKey(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	first := newProcessed("Shared Headline Between Mirrors", "https://example.com/a", "world", now)
	if _, err := s.SaveNew([]processor.Processed{first}); err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}

	second := newProcessed("Shared Headline Between Mirrors", "https://example.com/b", "world", now)
	second.ExactKey = first.ExactKey // 人为制造 exact key 碰撞
	inserted, err := s.SaveNew([]processor.Processed{second})
	if err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}
	if len(inserted) != 0 {
		t.Fatalf("duplicate exact key must not be counted as new, got %d", len(inserted))
	}
}

func TestSearchMatchesTitleAndSummaryCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	a := newProcessed("Senate Budget Bill Advances Today", "https://example.com/1", "politics", now)
	b := newProcessed("Unrelated Science Feature Story", "https://example.com/2", "science", now)
	b.Summary = "researchers describe a new budget quantum method"
	if _, err := s.SaveNew([]processor.Processed{a, b}); err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}

	list, err := s.Search("BUDGET", 10, 0)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	// 标题命中一条，摘要命中一条
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}

	list, err = s.Search("zebra", 10, 0)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no matches, got %d", len(list))
	}
}

func TestByTopicFiltersTopic(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	if _, err := s.SaveNew([]processor.Processed{
		newProcessed("A Story Filed Under Politics", "https://example.com/1", "politics", now),
		newProcessed("A Story Filed Under Science!", "https://example.com/2", "science", now),
	}); err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}

	list, err := s.ByTopic("politics", 10, 0)
	if err != nil {
		t.Fatalf("ByTopic error: %v", err)
	}
	if len(list) != 1 || list[0].Topic != "politics" {
		t.Fatalf("expected 1 politics article, got %+v", list)
	}
}

func TestDeactivateOlderThanBoundary(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	old := newProcessed("An Old Story Past Retention", "https://example.com/old", "world", now.Add(-8*24*time.Hour))
	fresh := newProcessed("A Fresh Story Inside Retention", "https://example.com/fresh", "world", now.Add(-6*24*time.Hour))
	if _, err := s.SaveNew([]processor.Processed{old, fresh}); err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}

	n, err := s.DeactivateOlderThan(now.Add(-7 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("DeactivateOlderThan error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 article deactivated, got %d", n)
	}

	list, err := s.Latest(10, 0)
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if len(list) != 1 || list[0].URL != "https://example.com/fresh" {
		t.Fatalf("reads should exclude deactivated articles, got %+v", list)
	}

	// 软删除：行还在，只是 active 被翻成 false
	var stored Article
	if err := s.DB.Where("url = ?", "https://example.com/old").First(&stored).Error; err != nil {
		t.Fatalf("deactivated row should still exist: %v", err)
	}
	if stored.Active {
		t.Fatalf("old article should be inactive")
	}
}

func TestSetActive(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetActive("missing-id", false); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}

	it := newProcessed("A Story To Be Taken Offline", "https://example.com/x", "world", time.Now())
	if _, err := s.SaveNew([]processor.Processed{it}); err != nil {
		t.Fatalf("SaveNew error: %v", err)
	}
	if err := s.SetActive(it.ID, false); err != nil {
		t.Fatalf("SetActive error: %v", err)
	}

	list, err := s.Latest(10, 0)
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("deactivated article should not be listed, got %d", len(list))
	}
}
