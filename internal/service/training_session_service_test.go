package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/pkg/realtime"
)

func setupSessionService(now time.Time) (TrainingSessionService, *mockStore, *recordingPublisher, *recordingNotifier) {
	repo, st := newMockRepository()
	events := &recordingPublisher{}
	notifier := &recordingNotifier{}
	svc := NewTrainingSessionService(repo, events, notifier, zap.NewNop())
	svc.(*trainingSessionService).now = func() time.Time { return now }
	return svc, st, events, notifier
}

func TestCreateSession(t *testing.T) {
	svc, _, events, _ := setupSessionService(time.Now())
	ctx := context.Background()

	resp, err := svc.Create(ctx, "trainer-1", &dto.CreateSessionRequest{
		Title:     " 多旋翼基础 ",
		Mode:      model.ModeOnline,
		ZoomLink:  "https://zoom.example/j/1",
		Location:  "A 栋 101",
		DayOfWeek: "monday",
	})
	if err != nil {
		t.Fatalf("创建课程应成功: %v", err)
	}
	if resp.Title != "多旋翼基础" || resp.DayOfWeek != "Monday" || resp.CreatedBy != "trainer-1" {
		t.Errorf("课程字段错误: %+v", resp)
	}
	if resp.ZoomLink == "" || resp.Location != "" {
		t.Errorf("线上课程只保留会议链接: %+v", resp)
	}
	if events.count(realtime.EventSessionUpdated) != 1 {
		t.Error("应广播 session-updated 事件")
	}

	tests := []struct {
		name string
		req  dto.CreateSessionRequest
		want error
	}{
		{"周末", dto.CreateSessionRequest{Title: "x", Mode: model.ModeOffline, DayOfWeek: "Saturday"}, ErrInvalidWeekday},
		{"无效星期", dto.CreateSessionRequest{Title: "x", Mode: model.ModeOffline, DayOfWeek: "Moonday"}, ErrInvalidWeekday},
		{"无效方式", dto.CreateSessionRequest{Title: "x", Mode: "hybrid", DayOfWeek: "Friday"}, ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, "trainer-1", &tt.req); !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestEnroll_ProjectsFourDates(t *testing.T) {
	// 2025-01-06 为周一
	svc, st, events, notifier := setupSessionService(time.Date(2025, 1, 6, 15, 30, 0, 0, time.UTC))
	st.addSession("s-mon", "多旋翼基础", "Monday")
	st.addSession("s-thu", "航拍实务", "Thursday")
	ctx := context.Background()

	resp, err := svc.Enroll(ctx, "cand-1", "s-mon")
	if err != nil {
		t.Fatalf("报名应成功: %v", err)
	}
	want := "[2025-01-06 2025-01-13 2025-01-20 2025-01-27]"
	if fmt.Sprint(resp.ProjectedDates) != want {
		t.Errorf("期望培训日期 %s，实际 %v", want, resp.ProjectedDates)
	}
	if resp.LastSessionDate != "2025-01-27" || resp.Derived {
		t.Errorf("最后一次培训日期错误: %+v", resp)
	}

	resp, err = svc.Enroll(ctx, "cand-1", "s-thu")
	if err != nil {
		t.Fatalf("报名周四课程应成功: %v", err)
	}
	if resp.ProjectedDates[0] != "2025-01-09" {
		t.Errorf("周四课程首次培训应为 2025-01-09，实际 %s", resp.ProjectedDates[0])
	}

	if events.count(realtime.EventSessionUpdated) != 2 {
		t.Error("每次报名应广播 session-updated 事件")
	}
	if len(notifier.recipients) != 2 || notifier.recipients[0] != "cand-1" {
		t.Errorf("应通知报名候选人，实际 %v", notifier.recipients)
	}
}

func TestEnroll_Rejections(t *testing.T) {
	svc, st, _, _ := setupSessionService(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	st.addSession("s-mon", "多旋翼基础", "Monday")
	st.addSession("s-mon-2", "多旋翼进阶", "Monday")
	ctx := context.Background()
	if _, err := svc.Enroll(ctx, "cand-1", "s-mon"); err != nil {
		t.Fatalf("首次报名应成功: %v", err)
	}

	tests := []struct {
		name    string
		session string
		want    error
	}{
		{"缺少课程", " ", ErrMissingParameter},
		{"课程不存在", "s-none", ErrSessionNotFound},
		{"重复报名", "s-mon", ErrAlreadyEnrolled},
		{"同日冲突", "s-mon-2", ErrWeekdayConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Enroll(ctx, "cand-1", tt.session); !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}

	st.enrollments.failErr = errStoreDown
	if _, err := svc.Enroll(ctx, "cand-2", "s-mon"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("期望 ErrStoreUnavailable，实际: %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	svc, st, events, _ := setupSessionService(time.Now())
	st.addSession("s-mon", "多旋翼基础", "Monday")
	st.enroll(t, "s-mon", "cand-1", time.Now(), false)
	ctx := context.Background()

	if err := svc.Delete(ctx, "trainer-2", "s-mon"); !errors.Is(err, ErrSessionNotOwner) {
		t.Errorf("非创建者删除应返回 ErrSessionNotOwner，实际: %v", err)
	}
	if err := svc.Delete(ctx, "trainer-1", "s-none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
	if err := svc.Delete(ctx, "trainer-1", "s-mon"); err != nil {
		t.Fatalf("删除应成功: %v", err)
	}
	if list := st.enrollments.byCandidate("cand-1"); len(list) != 0 {
		t.Errorf("删除课程应级联删除报名，剩余 %d 条", len(list))
	}
	if events.count(realtime.EventSessionUpdated) != 1 {
		t.Error("删除后应广播 session-updated 事件")
	}
}

func TestDeleteSession_WithExams(t *testing.T) {
	svc, st, events, _ := setupSessionService(time.Now())
	st.addSession("s-mon", "多旋翼基础", "Monday")
	st.enroll(t, "s-mon", "cand-1", time.Now(), false)
	st.addAllocation(t, "exam-1", "cand-1", "s-mon", mustDate(t, "2025-02-03"))
	ctx := context.Background()

	if err := svc.Delete(ctx, "trainer-1", "s-mon"); !errors.Is(err, ErrSessionHasExams) {
		t.Fatalf("已有考试分配时应返回 ErrSessionHasExams，实际: %v", err)
	}
	if _, err := st.sessions.GetByID(ctx, "s-mon"); err != nil {
		t.Errorf("课程应保留: %v", err)
	}
	if len(st.enrollments.byCandidate("cand-1")) != 1 {
		t.Error("报名记录应保留")
	}
	if events.count(realtime.EventSessionUpdated) != 0 {
		t.Error("删除被拒绝时不应广播事件")
	}

	// 预检漏过时，外键拒绝同样映射为业务冲突而非存储不可用
	st.allocations.skipPrecheck = true
	err := svc.Delete(ctx, "trainer-1", "s-mon")
	if !errors.Is(err, ErrSessionHasExams) || errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("外键拒绝应返回 ErrSessionHasExams，实际: %v", err)
	}
}

func TestDeleteSession_StoreDown(t *testing.T) {
	svc, st, _, _ := setupSessionService(time.Now())
	st.addSession("s-mon", "多旋翼基础", "Monday")
	st.sessions.deleteErr = errStoreDown

	if err := svc.Delete(context.Background(), "trainer-1", "s-mon"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("期望 ErrStoreUnavailable，实际: %v", err)
	}
}

func TestListSessions(t *testing.T) {
	svc, st, _, _ := setupSessionService(time.Now())
	st.addUser("cand-1", model.RoleCandidate)
	st.addSession("s-mon", "多旋翼基础", "Monday")
	st.addSession("s-tue", "固定翼进阶", "Tuesday")
	st.enroll(t, "s-mon", "cand-1", time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), true)
	ctx := context.Background()

	available, err := svc.ListAvailable(ctx, "cand-1")
	if err != nil || len(available) != 1 || available[0].ID != "s-tue" {
		t.Errorf("可报名课程应只有 s-tue: %+v %v", available, err)
	}

	enrolled, err := svc.ListEnrolled(ctx, "cand-1")
	if err != nil || len(enrolled) != 1 {
		t.Fatalf("已报名课程应有 1 门: %+v %v", enrolled, err)
	}
	if !enrolled[0].Enrollment.Derived || enrolled[0].Enrollment.LastSessionDate != "2025-01-27" {
		t.Errorf("旧报名应按报名时间推算培训日期: %+v", enrolled[0].Enrollment)
	}

	mine, err := svc.ListMine(ctx, "trainer-1")
	if err != nil || len(mine) != 2 {
		t.Fatalf("讲师课程应有 2 门: %+v %v", mine, err)
	}
	for _, s := range mine {
		if s.ID == "s-mon" {
			if len(s.Enrollments) != 1 || s.Enrollments[0].CandidateEmail != "cand-1@academy.test" {
				t.Errorf("应附带报名者邮箱: %+v", s.Enrollments)
			}
		}
	}
}
