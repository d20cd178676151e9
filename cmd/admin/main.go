// admin 运维命令行：迁移、创建用户与排考报表
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/repository"
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/database"
	"github.com/savalagikadappa/infosys/pkg/jwt"
	applogger "github.com/savalagikadappa/infosys/pkg/logger"
)

const usage = `用法: admin [-config path] <command> [flags]

命令:
  migrate [-down]                                  执行（或回滚一次）数据库迁移
  create-user -email -password -role -name         创建用户
  exams -date yyyy-mm-dd                           某日考试安排
  availability -from yyyy-mm-dd -to yyyy-mm-dd     区间内每日考官数与剩余名额
`

var (
	okf   = color.New(color.FgGreen, color.Bold).SprintfFunc()
	warnf = color.New(color.FgYellow).SprintfFunc()
	errf  = color.New(color.FgRed, color.Bold).SprintfFunc()
)

type app struct {
	cfg    *config.Config
	db     *gorm.DB
	repo   *repository.Repository
	svc    *service.Service
	logger *zap.Logger
}

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	a, err := newApp(*configPath)
	if err != nil {
		fail(err)
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "migrate":
		err = a.migrate(args)
	case "create-user":
		err = a.createUser(ctx, args)
	case "exams":
		err = a.exams(ctx, args)
	case "availability":
		err = a.availability(ctx, args)
	default:
		fmt.Fprint(os.Stderr, errf("未知命令: %s\n\n", cmd))
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	// 命令行只输出警告以上级别的日志
	cfg.Log.Level = "warn"
	cfg.Log.Format = "console"
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwt.NewManager(&cfg.Auth), service.Deps{}, logger)
	return &app{cfg: cfg, db: db, repo: repo, svc: svc, logger: logger}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) migrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	down := fs.Bool("down", false, "回滚最近一次迁移")
	_ = fs.Parse(args)

	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if *down {
		if err := database.RollbackMigration(sqlDB, a.logger); err != nil {
			return err
		}
		fmt.Println(okf("✔ 已回滚一次迁移"))
		return nil
	}
	if err := database.RunMigrations(sqlDB, a.logger); err != nil {
		return err
	}
	fmt.Println(okf("✔ 迁移完成"))
	return nil
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	req := dto.RegisterRequest{}
	fs.StringVar(&req.Email, "email", "", "邮箱")
	fs.StringVar(&req.Password, "password", "", "密码（至少 8 位）")
	fs.StringVar(&req.Role, "role", "", "candidate | examiner | trainer | coordinator")
	fs.StringVar(&req.Name, "name", "", "姓名")
	_ = fs.Parse(args)

	if req.Email == "" || req.Password == "" || req.Role == "" {
		return fmt.Errorf("-email、-password 与 -role 均为必填")
	}
	if req.Name == "" {
		req.Name = req.Email
	}

	user, err := a.svc.Auth.Register(ctx, &req)
	if err != nil {
		return err
	}
	fmt.Println(okf("✔ 已创建 %s 用户 %s (%s)", user.Role, user.Email, user.ID))
	return nil
}

func (a *app) exams(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("exams", flag.ExitOnError)
	date := fs.String("date", "", "考试日期 yyyy-mm-dd")
	_ = fs.Parse(args)

	list, err := a.svc.Exam.ListByDate(ctx, *date)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println(warnf("%s 暂无考试安排", *date))
		return nil
	}
	renderExams(os.Stdout, list)
	fmt.Println(okf("共 %d 场考试", len(list)))
	return nil
}

func (a *app) availability(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("availability", flag.ExitOnError)
	fromStr := fs.String("from", "", "开始日期 yyyy-mm-dd")
	toStr := fs.String("to", "", "结束日期 yyyy-mm-dd")
	_ = fs.Parse(args)

	from, err := service.ParseDate(*fromStr)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	to, err := service.ParseDate(*toStr)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("-to 不能早于 -from")
	}

	avail, err := a.repo.Availability.ListRange(ctx, from, to)
	if err != nil {
		return err
	}
	allocs, err := a.repo.Allocation.ListRange(ctx, from, to)
	if err != nil {
		return err
	}

	loads := summarizeLoad(avail, allocs, a.cfg.Exam.ExaminerDailyCapacity)
	if len(loads) == 0 {
		fmt.Println(warnf("%s 至 %s 无考官可用", *fromStr, *toStr))
		return nil
	}
	renderLoad(os.Stdout, loads)
	return nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, errf("✘ %v", err))
	os.Exit(1)
}
