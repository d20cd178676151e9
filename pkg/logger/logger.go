package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/savalagikadappa/infosys/config"
)

const appName = "drone-academy"

// NewLogger 根据配置初始化 Zap 日志实例
// json 格式面向日志采集：ISO8601 时间、error 级别附堆栈；console 格式面向本地开发
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	case "json", "":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "time"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// 排考请求量小，保留全部日志
		zapCfg.Sampling = nil
	default:
		return nil, fmt.Errorf("无效的日志格式 %q（json | console）", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}

	fields := []zap.Field{zap.String("app", appName)}
	if host, err := os.Hostname(); err == nil {
		fields = append(fields, zap.String("host", host))
	}
	return logger.With(fields...), nil
}
