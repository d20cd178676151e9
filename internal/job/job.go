// Package job 后台定时任务
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
)

const runTimeout = 2 * time.Minute

// ExamCompleter 将过期考试标记为已完成（service.ExamService 实现）
type ExamCompleter interface {
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron      *cron.Cron
	completer ExamCompleter
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler 创建调度器并注册任务；未启用时返回 nil
func NewScheduler(cfg *config.JobsConfig, completer ExamCompleter, logger *zap.Logger) (*Scheduler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	s := &Scheduler{
		completer: completer,
		logger:    logger,
		now:       time.Now,
	}
	cronLog := zapCronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := s.cron.AddFunc(cfg.CompleteExamsCron, s.completeExams); err != nil {
		return nil, fmt.Errorf("注册考试完成任务失败 (%q): %w", cfg.CompleteExamsCron, err)
	}
	return s, nil
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时任务已启动", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop 停止调度，返回的 ctx 在运行中的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// completeExams 将今天之前的考试标记为 completed
func (s *Scheduler) completeExams() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	n, err := s.completer.CompletePast(ctx, s.now())
	if err != nil {
		s.logger.Error("标记已完成考试失败", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("已完成考试归档", zap.Int64("count", n))
	}
}

// zapCronLogger 将 cron 日志接入 zap
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
