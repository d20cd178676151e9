package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Log      LogConfig      `mapstructure:"log"`
	Exam     ExamConfig     `mapstructure:"exam"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
// 时区固定为 UTC：所有考试与培训日期均按 UTC 零点归一化
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// MailConfig 邮件配置
type MailConfig struct {
	Provider       string `mapstructure:"provider"` // log | sendgrid
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromAddress    string `mapstructure:"from_address"`
	FromName       string `mapstructure:"from_name"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExamConfig 考试分配策略
type ExamConfig struct {
	ExaminerDailyCapacity int `mapstructure:"examiner_daily_capacity"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	AvailableDatesTTL time.Duration `mapstructure:"available_dates_ttl"`
}

// JobsConfig 定时任务配置
type JobsConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CompleteExamsCron string `mapstructure:"complete_exams_cron"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > .env > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "drone_academy")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "1h")
	v.SetDefault("auth.refresh_token_ttl", "168h")

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.from_address", "no-reply@drone-academy.local")
	v.SetDefault("mail.from_name", "Drone Academy")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("exam.examiner_daily_capacity", 1)
	v.SetDefault("cache.available_dates_ttl", "60s")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.complete_exams_cron", "@daily")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("ACADEMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Exam.ExaminerDailyCapacity < 1 {
		return fmt.Errorf("配置校验失败: exam.examiner_daily_capacity 不能小于 1")
	}
	if c.Cache.AvailableDatesTTL < 0 {
		return fmt.Errorf("配置校验失败: cache.available_dates_ttl 不能为负")
	}
	switch c.Mail.Provider {
	case "log", "sendgrid":
	default:
		return fmt.Errorf("配置校验失败: mail.provider 仅支持 log | sendgrid")
	}
	if c.Mail.Provider == "sendgrid" && c.Mail.SendgridAPIKey == "" {
		return fmt.Errorf("配置校验失败: mail.sendgrid_api_key 不能为空")
	}
	return nil
}
