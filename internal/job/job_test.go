package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
)

type fakeCompleter struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeCompleter) CompletePast(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func TestNewScheduler_Disabled(t *testing.T) {
	s, err := NewScheduler(&config.JobsConfig{Enabled: false}, &fakeCompleter{}, zap.NewNop())
	if err != nil || s != nil {
		t.Errorf("未启用时应返回 nil: %v %v", s, err)
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(&config.JobsConfig{Enabled: true, CompleteExamsCron: "not a cron"}, &fakeCompleter{}, zap.NewNop())
	if err == nil {
		t.Error("无效的 cron 表达式应返回错误")
	}
}

func TestCompleteExams(t *testing.T) {
	fixed := time.Date(2025, 2, 4, 0, 5, 0, 0, time.UTC)
	completer := &fakeCompleter{n: 3}
	s, err := NewScheduler(&config.JobsConfig{Enabled: true, CompleteExamsCron: "5 0 * * *"}, completer, zap.NewNop())
	if err != nil {
		t.Fatalf("创建调度器失败: %v", err)
	}
	s.now = func() time.Time { return fixed }

	s.completeExams()
	if len(completer.calls) != 1 || !completer.calls[0].Equal(fixed) {
		t.Errorf("应以当前时间调用一次: %v", completer.calls)
	}

	// 失败只记录日志
	completer.err = errors.New("db down")
	s.completeExams()
	if len(completer.calls) != 2 {
		t.Errorf("期望调用 2 次，实际 %d", len(completer.calls))
	}

	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("期望注册 1 个任务，实际 %d", got)
	}
}
