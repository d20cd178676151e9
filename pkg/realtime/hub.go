package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventSessionUpdated      = "session-updated"
	EventAvailabilityUpdated = "availability-updated"
	EventExamAllocated       = "exam-allocated"
)

// Channel 多实例共享事件的 Redis 频道
const Channel = "academy:events"

// Event 数据变更事件，仅用于通知客户端刷新
type Event struct {
	Type     string    `json:"type"`
	Origin   string    `json:"origin"`
	EmitTime time.Time `json:"emit_time"`
}

// Broker 跨实例转发事件（Redis 实现见 pkg/redis.Client）
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error)
}

// Hub 进程内事件分发；配置 Broker 时经由 Broker 在实例间转发
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
	broker Broker
	origin string
	logger *zap.Logger
}

// NewHub 创建事件中心；broker 为 nil 时仅在本进程内分发
func NewHub(broker Broker, origin string, logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		broker: broker,
		origin: origin,
		logger: logger,
	}
}

// Run 启动 Broker 中继，阻塞至 ctx 取消
func (h *Hub) Run(ctx context.Context) {
	if h.broker == nil {
		<-ctx.Done()
		return
	}
	msgs, closeSub := h.broker.Subscribe(ctx, Channel)
	defer closeSub()

	for raw := range msgs {
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.logger.Warn("事件解析失败", zap.Error(err))
			continue
		}
		// 本实例发出的事件已在 Emit 时本地分发
		if evt.Origin == h.origin {
			continue
		}
		h.broadcast(evt)
	}
}

// Emit 发出事件；fire-and-forget，失败只记录日志
func (h *Hub) Emit(ctx context.Context, eventType string) {
	evt := Event{Type: eventType, Origin: h.origin, EmitTime: time.Now().UTC()}
	h.broadcast(evt)

	if h.broker == nil {
		return
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("事件序列化失败", zap.Error(err))
		return
	}
	if err := h.broker.Publish(ctx, Channel, raw); err != nil {
		h.logger.Warn("事件广播失败", zap.String("type", eventType), zap.Error(err))
	}
}

// Subscribe 注册订阅者，返回事件通道与取消函数；Hub 关闭后通道立即关闭
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Close 关闭所有订阅通道，用于优雅关闭时结束 SSE 长连接
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		// 慢订阅者丢弃事件，客户端下次刷新即可追平
		select {
		case ch <- evt:
		default:
		}
	}
}
