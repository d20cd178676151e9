package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/api/handler"
	"github.com/savalagikadappa/infosys/internal/api/middleware"
	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/pkg/jwt"
	"github.com/savalagikadappa/infosys/pkg/redis"
)

const (
	maxBodyBytes    = 1 << 20
	authRateLimit   = 10
	authRateWindow  = time.Minute
	writeRateLimit  = 60
	writeRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			logger.Fatal("注册校验规则失败", zap.Error(err))
		}
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	candidate := middleware.RoleAuth(model.RoleCandidate)
	examiner := middleware.RoleAuth(model.RoleExaminer)
	trainer := middleware.RoleAuth(model.RoleTrainer)
	coordinator := middleware.RoleAuth(model.RoleCoordinator)
	writeLimit := middleware.RateLimit(rdb, writeRateLimit, writeRateWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, authRateLimit, authRateWindow))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户模块
			users := authorized.Group("/users", coordinator)
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
			}

			// 培训课程
			sessions := authorized.Group("/sessions")
			{
				sessions.POST("", trainer, writeLimit, h.Session.CreateSession)
				sessions.GET("/mine", trainer, h.Session.ListMine)
				sessions.DELETE("/:id", trainer, h.Session.DeleteSession)
				sessions.GET("/available", candidate, h.Session.ListAvailable)
				sessions.GET("/enrolled", candidate, h.Session.ListEnrolled)
				sessions.POST("/:id/enroll", candidate, writeLimit, h.Session.Enroll)
			}

			// 考试预约
			exams := authorized.Group("/exams")
			{
				exams.GET("/eligible-sessions", candidate, h.Exam.EligibleSessions)
				exams.GET("/available-dates", h.Exam.AvailableDates)
				exams.POST("/schedule", candidate, writeLimit, h.Exam.Schedule)
				exams.GET("/by-date", h.Exam.ByDate)
				exams.GET("/mine", candidate, h.Exam.Mine)
			}

			// 考官端
			examinerGroup := authorized.Group("/examiner", examiner)
			{
				examinerGroup.POST("/allocate", writeLimit, h.Examiner.Allocate)
				examinerGroup.POST("/availability/toggle", writeLimit, h.Examiner.ToggleAvailability)
				examinerGroup.GET("/availability", h.Examiner.ListAvailability)
				examinerGroup.GET("/calendar", h.Examiner.Calendar)
			}

			// 站内通知
			authorized.GET("/notifications", h.Notification.List)
			authorized.PUT("/notifications/:id/read", h.Notification.MarkRead)

			// 实时事件、导出与日历
			authorized.GET("/events", h.Event.Stream)
			authorized.GET("/export/exams", coordinator, h.Export.ExportExams)
			authorized.GET("/calendar.ics", h.Calendar.ICS)
		}
	}

	return r
}
