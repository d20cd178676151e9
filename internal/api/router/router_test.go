package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/api/handler"
	"github.com/savalagikadappa/infosys/pkg/jwt"
)

func setupTestRouter() (*config.Config, *jwt.Manager, http.Handler) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing-2025",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	r := Setup(cfg, &handler.Handler{}, jwtMgr, nil, zap.NewNop())
	return cfg, jwtMgr, r
}

func TestSetup_RegistersRoutes(t *testing.T) {
	cfg := &config.Config{}
	r := Setup(cfg, &handler.Handler{}, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"GET /api/v1/exams/eligible-sessions",
		"GET /api/v1/exams/available-dates",
		"POST /api/v1/exams/schedule",
		"GET /api/v1/exams/by-date",
		"POST /api/v1/examiner/allocate",
		"POST /api/v1/examiner/availability/toggle",
		"POST /api/v1/sessions/:id/enroll",
		"GET /api/v1/events",
		"GET /api/v1/export/exams",
		"GET /api/v1/calendar.ics",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("缺少路由 %s", route)
		}
	}
}

func TestSetup_RoleGuards(t *testing.T) {
	_, jwtMgr, r := setupTestRouter()
	candidate, _ := jwtMgr.GenerateAccessToken("cand-1", "candidate")
	examiner, _ := jwtMgr.GenerateAccessToken("exam-1", "examiner")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"未认证", "POST", "/api/v1/exams/schedule", "", http.StatusUnauthorized},
		{"考官不能预约考试", "POST", "/api/v1/exams/schedule", examiner, http.StatusForbidden},
		{"候选人不能切换可用日期", "POST", "/api/v1/examiner/availability/toggle", candidate, http.StatusForbidden},
		{"候选人不能导出", "GET", "/api/v1/export/exams", candidate, http.StatusForbidden},
		{"候选人不能查看用户列表", "GET", "/api/v1/users", candidate, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("期望 %d，实际 %d", tt.want, w.Code)
			}
		})
	}
}

func TestSetup_Health(t *testing.T) {
	_, _, r := setupTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("响应应携带 X-Request-ID")
	}
}
