package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/LJTian/NewsPulse/internal/collector"
)

// 近期缓存：全局与各主题各一个有界列表，存文章 ID；文章本体按 ID 存 JSON。
// 缓存只是库的投影，过期或被清空后读取自动回源，可整体重建，不丢数据。
const (
	recentScopeAll = "all"
	recentLimit    = 100
	recentTTL      = time.Hour
	redisOpTimeout = 3 * time.Second
)

func recentKey(scope string) string {
	return "news:recent:" + scope
}

func articleKey(id string) string {
	return "news:article:" + id
}

// pushRecent 仅在入库确认后调用；缓存失败只打日志，不影响写路径
func (s *Store) pushRecent(a *Article) {
	if s.Redis == nil {
		return
	}

	bs, err := json.Marshal(a)
	if err != nil {
		log.Printf("warn: cache marshal %s error: %v", a.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	pipe := s.Redis.Pipeline()
	pipe.Set(ctx, articleKey(a.ID), bs, recentTTL)
	for _, scope := range []string{recentScopeAll, a.Topic} {
		key := recentKey(scope)
		pipe.LPush(ctx, key, a.ID)
		pipe.LTrim(ctx, key, 0, recentLimit-1)
		pipe.Expire(ctx, key, recentTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("warn: cache push %s error: %v", a.ID, err)
	}
}

// recentFromCache 从近期列表取一页；任何缺失或错误都整体回源查库
func (s *Store) recentFromCache(scope string, limit, offset int) ([]Article, bool) {
	if s.Redis == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	ids, err := s.Redis.LRange(ctx, recentKey(scope), int64(offset), int64(offset+limit-1)).Result()
	if err != nil || len(ids) == 0 {
		return nil, false
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, articleKey(id))
	}
	vals, err := s.Redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, false
	}

	list := make([]Article, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// 文章本体已过期而列表还在，整页作废回源
			return nil, false
		}
		var a Article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, false
		}
		list = append(list, a)
	}
	return list, true
}

// clearRecent 删除所有近期列表；文章本体靠 TTL 自然过期
func (s *Store) clearRecent() {
	if s.Redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	keys := []string{recentKey(recentScopeAll)}
	for _, t := range collector.Topics {
		keys = append(keys, recentKey(t))
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("warn: cache clear error: %v", err)
	}
}
