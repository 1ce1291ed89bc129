package storage

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/LJTian/NewsPulse/internal/processor"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Article 入库后的新闻，url 与 exact_key 在含已下线数据的全量范围内唯一
type Article struct {
	ID          string            `gorm:"primaryKey;size:40" json:"id"`
	Title       string            `gorm:"size:512" json:"title"`
	Summary     string            `gorm:"size:2048" json:"summary"`
	URL         string            `gorm:"size:1024;uniqueIndex" json:"url"`
	ImageURL    string            `gorm:"size:1024" json:"imageUrl"`
	Source      string            `gorm:"size:64;index" json:"source"`
	Topic       string            `gorm:"size:32;index" json:"topic"`
	ExactKey    string            `gorm:"size:40;uniqueIndex" json:"exactKey"`
	PublishedAt time.Time         `gorm:"index" json:"publishedAt"`
	FetchedAt   time.Time         `json:"fetchedAt"`
	Active      bool              `gorm:"index;default:true" json:"active"`
	ExtraData   datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Article{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// SaveNew 逐条写入去重后的候选，url 或 exact_key 已存在的直接跳过。
// 返回本轮真正新增的文章（保持入参顺序）；只有新增成功的才进近期缓存。
func (s *Store) SaveNew(items []processor.Processed) ([]Article, error) {
	inserted := make([]Article, 0, len(items))
	for _, it := range items {
		a := Article{
			ID:          it.ID,
			Title:       truncateRunesDB(toValidUTF8(it.Title), 512),
			Summary:     truncateRunesDB(toValidUTF8(it.Summary), 2048),
			URL:         it.URL,
			ImageURL:    it.ImageURL,
			Source:      it.Source,
			Topic:       it.Topic,
			ExactKey:    it.ExactKey,
			PublishedAt: it.PublishedAt,
			FetchedAt:   it.FetchedAt,
			Active:      true,
			ExtraData:   datatypes.JSONMap(it.RawData),
		}

		var count int64
		if err := s.DB.Model(&Article{}).
			Where("url = ? OR exact_key = ?", a.URL, a.ExactKey).
			Count(&count).Error; err != nil {
			log.Printf("storage: existence check %s error: %v", a.URL, err)
			continue
		}
		if count > 0 {
			continue
		}

		if err := s.DB.Create(&a).Error; err != nil {
			// 唯一约束冲突说明并发窗口内已有同 key 数据，视为已存在而非失败
			log.Printf("storage: insert %s skipped: %v", a.URL, err)
			continue
		}

		// 缓存写入发生在入库确认之后，缓存不可用不影响写路径
		s.pushRecent(&a)
		inserted = append(inserted, a)
	}
	return inserted, nil
}

// Latest 按发布时间倒序返回最新文章，优先走近期缓存
func (s *Store) Latest(limit, offset int) ([]Article, error) {
	limit, offset = clampPage(limit, offset)
	if list, ok := s.recentFromCache(recentScopeAll, limit, offset); ok {
		return list, nil
	}
	return s.listFromDB("", "", limit, offset)
}

// ByTopic 按主题返回最新文章，优先走近期缓存
func (s *Store) ByTopic(topic string, limit, offset int) ([]Article, error) {
	limit, offset = clampPage(limit, offset)
	if list, ok := s.recentFromCache(topic, limit, offset); ok {
		return list, nil
	}
	return s.listFromDB(topic, "", limit, offset)
}

// Search 标题/摘要的大小写不敏感子串匹配，始终查库：近期缓存没有内容索引
func (s *Store) Search(q string, limit, offset int) ([]Article, error) {
	limit, offset = clampPage(limit, offset)
	return s.listFromDB("", q, limit, offset)
}

func (s *Store) listFromDB(topic, q string, limit, offset int) ([]Article, error) {
	db := s.DB.Model(&Article{}).Where("active = ?", true)
	if topic != "" {
		db = db.Where("topic = ?", topic)
	}
	if q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", pattern, pattern)
	}

	var list []Article
	err := db.Order("published_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// CountByTopic 统计某主题下的有效文章数，topic 为空统计全部
func (s *Store) CountByTopic(topic string) (int64, error) {
	db := s.DB.Model(&Article{}).Where("active = ?", true)
	if topic != "" {
		db = db.Where("topic = ?", topic)
	}
	var count int64
	err := db.Count(&count).Error
	return count, err
}

// SetActive 管理端上下线开关，软删除标记，不做物理删除
func (s *Store) SetActive(id string, active bool) error {
	res := s.DB.Model(&Article{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	// 缓存整体作废，下次读取自动从库重建
	s.clearRecent()
	return nil
}

// DeactivateOlderThan 保留期清理：按发布时间批量下线，返回影响行数
func (s *Store) DeactivateOlderThan(cutoff time.Time) (int64, error) {
	res := s.DB.Model(&Article{}).
		Where("active = ? AND published_at < ?", true, cutoff).
		Update("active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.clearRecent()
	}
	return res.RowsAffected, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
