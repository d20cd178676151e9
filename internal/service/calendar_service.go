package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
)

// ── ICS 日历订阅 ──────────────────────────────────────────────
//
// 按角色生成 iCalendar (RFC 5545) 全天事件：
//   - candidate：培训日期 + 考试
//   - examiner：可用日期 + 考试
//   - trainer：所开课程接下来的四次培训
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//Drone Academy//Exam Scheduling//CN"

// CalendarService 日历订阅业务接口
type CalendarService interface {
	UserCalendar(ctx context.Context, userID, role string) (string, error)
}

type calendarService struct {
	repo     *repository.Repository
	resolver identityResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, resolver: identityResolver{repo: repo}, logger: logger, now: time.Now}
}

func (s *calendarService) UserCalendar(ctx context.Context, userID, role string) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("Drone Academy")

	stamp := s.now().UTC()
	var err error
	switch role {
	case model.RoleCandidate:
		err = s.candidateEvents(ctx, cal, userID, stamp)
	case model.RoleExaminer:
		err = s.examinerEvents(ctx, cal, userID, stamp)
	case model.RoleTrainer:
		err = s.trainerEvents(ctx, cal, userID, stamp)
	}
	if err != nil {
		s.logger.Error("生成日历失败", zap.String("user_id", userID), zap.Error(err))
		return "", storeErr(err)
	}
	return cal.Serialize(), nil
}

func (s *calendarService) candidateEvents(ctx context.Context, cal *ics.Calendar, userID string, stamp time.Time) error {
	enrollments, err := s.repo.Enrollment.ListByCandidate(ctx, userID)
	if err != nil {
		return err
	}
	for i := range enrollments {
		e := &enrollments[i]
		dates, _, err := trainingSchedule(e)
		if err != nil {
			return err
		}
		title := e.SessionID
		location := ""
		if e.Session != nil {
			title = e.Session.Title
			location = sessionLocation(e.Session)
		}
		for n, d := range dates {
			uid := fmt.Sprintf("training-%s-%d@drone-academy", e.EnrollmentID, n+1)
			addAllDayEvent(cal, uid, d, stamp, fmt.Sprintf("培训：%s（第 %d/%d 次）", title, n+1, len(dates)), location)
		}
	}

	allocations, err := s.repo.Allocation.ListByCandidate(ctx, userID)
	if err != nil {
		return err
	}
	return s.examEvents(ctx, cal, allocations, stamp)
}

func (s *calendarService) examinerEvents(ctx context.Context, cal *ics.Calendar, userID string, stamp time.Time) error {
	avail, err := s.repo.Availability.ListByExaminer(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range avail {
		addAllDayEvent(cal, "availability-"+a.AvailabilityID+"@drone-academy", a.Date, stamp, "可监考", "")
	}

	allocations, err := s.repo.Allocation.ListByExaminer(ctx, userID)
	if err != nil {
		return err
	}
	return s.examEvents(ctx, cal, allocations, stamp)
}

func (s *calendarService) trainerEvents(ctx context.Context, cal *ics.Calendar, userID string, stamp time.Time) error {
	sessions, err := s.repo.Session.ListByTrainer(ctx, userID)
	if err != nil {
		return err
	}
	for i := range sessions {
		sess := &sessions[i]
		weekday, err := ParseWeekday(sess.DayOfWeek)
		if err != nil {
			return err
		}
		dates, err := Project(stamp, weekday, TrainingOccurrences)
		if err != nil {
			return err
		}
		for _, d := range dates {
			uid := fmt.Sprintf("session-%s-%s@drone-academy", sess.SessionID, FormatDate(d))
			addAllDayEvent(cal, uid, d, stamp, "授课："+sess.Title, sessionLocation(sess))
		}
	}
	return nil
}

func (s *calendarService) examEvents(ctx context.Context, cal *ics.Calendar, allocations []model.ExamAllocation, stamp time.Time) error {
	exams, err := s.resolver.allocations(ctx, allocations)
	if err != nil {
		return err
	}
	for i, r := range exams {
		summary := "实操考试：" + displayOr(r.SessionTitle, r.SessionID)
		evt := addAllDayEvent(cal, "exam-"+r.ID+"@drone-academy", allocations[i].Date, stamp, summary, "")
		evt.SetDescription(fmt.Sprintf("考官：%s\n候选人：%s\n状态：%s",
			displayOr(r.ExaminerEmail, r.ExaminerID),
			displayOr(r.CandidateEmail, r.CandidateID),
			statusLabel(r.Status)))
	}
	return nil
}

func addAllDayEvent(cal *ics.Calendar, uid string, date, stamp time.Time, summary, location string) *ics.VEvent {
	evt := cal.AddEvent(uid)
	evt.SetDtStampTime(stamp)
	evt.SetAllDayStartAt(date)
	evt.SetAllDayEndAt(date.AddDate(0, 0, 1))
	evt.SetSummary(summary)
	if location != "" {
		evt.SetLocation(location)
	}
	return evt
}

func sessionLocation(s *model.TrainingSession) string {
	if s.Mode == model.ModeOnline && s.ZoomLink != nil {
		return *s.ZoomLink
	}
	if s.Location != nil {
		return *s.Location
	}
	return ""
}
