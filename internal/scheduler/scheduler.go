package scheduler

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LJTian/NewsPulse/internal/collector"
	"github.com/LJTian/NewsPulse/internal/processor"
	"github.com/LJTian/NewsPulse/internal/storage"
	"github.com/robfig/cron/v3"
)

// retentionWindow 按发布时间计算的保留期，超期文章批量下线
const retentionWindow = 7 * 24 * time.Hour

const (
	eventBatch = "news:batch"
	eventItem  = "news:item"
)

// ArticleStore 调度器需要的存储能力
type ArticleStore interface {
	SaveNew(items []processor.Processed) ([]storage.Article, error)
	DeactivateOlderThan(cutoff time.Time) (int64, error)
}

// Publisher 新增文章的推送出口；为 nil 时只采集入库不推送
type Publisher interface {
	BroadcastAll(event string, payload any)
	BroadcastTopic(topic, event string, payload any)
}

type Scheduler struct {
	cron      *cron.Cron
	fetchers  []collector.Fetcher
	processor *processor.Processor
	store     ArticleStore
	publisher Publisher

	// 两个任务各自独立的执行中标记：触发时上一轮还没结束就丢弃本次触发，
	// 不排队也不补跑
	cycleRunning     atomic.Bool
	retentionRunning atomic.Bool
}

func New(cycleSpec, retentionSpec string, fetchers []collector.Fetcher, p *processor.Processor, store ArticleStore, pub Publisher) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:      c,
		fetchers:  fetchers,
		processor: p,
		store:     store,
		publisher: pub,
	}

	if _, err := c.AddFunc(cycleSpec, s.runCycle); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(retentionSpec, s.RunRetention); err != nil {
		return nil, err
	}

	return s, nil
}

// Start 启动定时触发，并立即在后台执行首轮采集
func (s *Scheduler) Start() {
	s.cron.Start()
	go s.runCycle()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发采集
func (s *Scheduler) RunOnce() {
	s.runCycle()
}

func (s *Scheduler) runCycle() {
	if !s.cycleRunning.CompareAndSwap(false, true) {
		log.Println("scheduler: previous cycle still running, skip this trigger")
		return
	}
	defer s.cycleRunning.Store(false)

	log.Println("scheduler: start collect cycle...")
	start := time.Now()

	batch, failed := s.fetchAll()
	if len(s.fetchers) > 0 && failed == len(s.fetchers) {
		log.Printf("scheduler: all %d sources failed this cycle", failed)
	}
	if len(batch) == 0 {
		log.Println("scheduler: cycle done, nothing fetched")
		return
	}

	kept := s.processor.Process(batch)
	if len(kept) == 0 {
		log.Println("scheduler: cycle done, nothing survived dedup")
		return
	}

	inserted, err := s.store.SaveNew(kept)
	if err != nil {
		log.Printf("scheduler: save batch error: %v", err)
		return
	}

	s.publish(inserted)
	log.Printf("scheduler: cycle done, fetched=%d kept=%d inserted=%d elapsed=%s",
		len(batch), len(kept), len(inserted), time.Since(start).Round(time.Millisecond))
}

// fetchAll 并发拉取所有数据源并汇总为一个批次。
// 单个源失败只记一条日志、贡献空结果；各源内部自带请求超时，这里只等全部返回。
func (s *Scheduler) fetchAll() ([]collector.NewsItem, int) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		batch  []collector.NewsItem
		failed int
	)

	for _, f := range s.fetchers {
		fetcher := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fetcher.Name()
			items, err := fetcher.Fetch()
			if err != nil {
				log.Printf("scheduler: fetch %s error: %v", name, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			log.Printf("scheduler: fetch %s got %d items", name, len(items))
			mu.Lock()
			batch = append(batch, items...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return batch, failed
}

// publish 推送顺序在入库确认之后；空批次不发任何通知
func (s *Scheduler) publish(inserted []storage.Article) {
	if s.publisher == nil || len(inserted) == 0 {
		return
	}
	s.publisher.BroadcastAll(eventBatch, inserted)
	for _, a := range inserted {
		s.publisher.BroadcastTopic(a.Topic, eventItem, a)
	}
}

// RunRetention 保留期清理：超过 7 天的文章批量下线，与采集任务互不阻塞
func (s *Scheduler) RunRetention() {
	if !s.retentionRunning.CompareAndSwap(false, true) {
		log.Println("scheduler: previous retention sweep still running, skip")
		return
	}
	defer s.retentionRunning.Store(false)

	cutoff := time.Now().Add(-retentionWindow)
	n, err := s.store.DeactivateOlderThan(cutoff)
	if err != nil {
		log.Printf("scheduler: retention sweep error: %v", err)
		return
	}
	log.Printf("scheduler: retention sweep done, deactivated=%d", n)
}
