package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/api/handler"
	"github.com/savalagikadappa/infosys/internal/api/router"
	"github.com/savalagikadappa/infosys/internal/job"
	"github.com/savalagikadappa/infosys/internal/repository"
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/database"
	"github.com/savalagikadappa/infosys/pkg/jwt"
	applogger "github.com/savalagikadappa/infosys/pkg/logger"
	"github.com/savalagikadappa/infosys/pkg/mail"
	"github.com/savalagikadappa/infosys/pkg/realtime"
	"github.com/savalagikadappa/infosys/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Int("examiner_daily_capacity", cfg.Exam.ExaminerDailyCapacity),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级为单实例运行）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，黑名单、限流与跨实例事件将不可用", zap.Error(err))
		rdb = nil
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 5. 实时事件中心
	var broker realtime.Broker
	if rdb != nil {
		broker = rdb
	}
	hub := realtime.NewHub(broker, uuid.New().String(), logger)
	go hub.Run(ctx)

	// 6. 依赖注入: Repository → Service → Handler
	deps := service.Deps{
		Events: hub,
		Mail:   mail.NewSender(&cfg.Mail, logger),
	}
	if rdb != nil {
		deps.Cache = service.NewRedisDatesCache(rdb, cfg.Cache.AvailableDatesTTL, logger)
		deps.Blacklist = rdb
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, deps, logger)
	h := handler.NewHandler(svc, hub)

	// 7. 定时任务
	scheduler, err := job.NewScheduler(&cfg.Jobs, svc.Exam, logger)
	if err != nil {
		logger.Fatal("初始化定时任务失败", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Start()
	}

	// 8. 启动 HTTP 服务器（优雅关闭）
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	// 结束 SSE 长连接，否则 Shutdown 会等到超时
	stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("定时任务未在超时前结束")
		}
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
