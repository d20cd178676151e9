package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AvailableDatesCache 开放日期查询的短期缓存
// 仅服务于展示查询，分配写路径从不读取
type AvailableDatesCache interface {
	Get(ctx context.Context) ([]string, bool)
	Set(ctx context.Context, dates []string)
	Invalidate(ctx context.Context)
}

const availableDatesKey = "exam:available-dates"

// jsonStore Redis JSON 缓存能力（pkg/redis.Client 实现）
type jsonStore interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ── Redis 实现 ──

type redisDatesCache struct {
	store  jsonStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDatesCache 基于 Redis 的开放日期缓存，多实例共享
func NewRedisDatesCache(store jsonStore, ttl time.Duration, logger *zap.Logger) AvailableDatesCache {
	return &redisDatesCache{store: store, ttl: ttl, logger: logger}
}

func (c *redisDatesCache) Get(ctx context.Context) ([]string, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	var dates []string
	found, err := c.store.GetJSON(ctx, availableDatesKey, &dates)
	if err != nil {
		c.logger.Warn("读取开放日期缓存失败", zap.Error(err))
		return nil, false
	}
	return dates, found
}

func (c *redisDatesCache) Set(ctx context.Context, dates []string) {
	if c.ttl <= 0 {
		return
	}
	if err := c.store.SetJSON(ctx, availableDatesKey, dates, c.ttl); err != nil {
		c.logger.Warn("写入开放日期缓存失败", zap.Error(err))
	}
}

func (c *redisDatesCache) Invalidate(ctx context.Context) {
	if err := c.store.Delete(ctx, availableDatesKey); err != nil {
		c.logger.Warn("清除开放日期缓存失败", zap.Error(err))
	}
}

// ── 进程内实现 ──

type memoryDatesCache struct {
	mu      sync.Mutex
	dates   []string
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryDatesCache 进程内开放日期缓存（未配置 Redis 时使用）
func NewMemoryDatesCache(ttl time.Duration) AvailableDatesCache {
	return &memoryDatesCache{ttl: ttl, now: time.Now}
}

func (c *memoryDatesCache) Get(_ context.Context) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dates == nil || !c.now().Before(c.expires) {
		return nil, false
	}
	out := make([]string, len(c.dates))
	copy(out, c.dates)
	return out, true
}

func (c *memoryDatesCache) Set(_ context.Context, dates []string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dates = make([]string, len(dates))
	copy(c.dates, dates)
	c.expires = c.now().Add(c.ttl)
}

func (c *memoryDatesCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dates = nil
}
