package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
	"github.com/savalagikadappa/infosys/pkg/realtime"
)

// ── 培训课程模块业务错误 ──

var (
	ErrSessionNotFound = errors.New("课程不存在")
	ErrSessionNotOwner = errors.New("只能删除自己创建的课程")
	ErrInvalidMode     = errors.New("培训方式仅支持 online 或 offline")
	ErrAlreadyEnrolled = errors.New("已报名该课程")
	ErrWeekdayConflict = errors.New("已报名同一天上课的其他课程")
	ErrSessionHasExams = errors.New("课程已有考试安排，无法删除")
)

// TrainingSessionService 培训课程与报名业务接口
type TrainingSessionService interface {
	Create(ctx context.Context, trainerID string, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ListMine(ctx context.Context, trainerID string) ([]dto.SessionResponse, error)
	Delete(ctx context.Context, trainerID, sessionID string) error
	ListAvailable(ctx context.Context, candidateID string) ([]dto.SessionResponse, error)
	ListEnrolled(ctx context.Context, candidateID string) ([]dto.EnrolledSessionResponse, error)
	Enroll(ctx context.Context, candidateID, sessionID string) (*dto.EnrollmentResponse, error)
}

type trainingSessionService struct {
	repo     *repository.Repository
	events   EventPublisher
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewTrainingSessionService 创建 TrainingSessionService 实例
func NewTrainingSessionService(
	repo *repository.Repository,
	events EventPublisher,
	notifier Notifier,
	logger *zap.Logger,
) TrainingSessionService {
	if events == nil {
		events = noopPublisher{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &trainingSessionService{
		repo:     repo,
		events:   events,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── 讲师 ──────────────────────

func (s *trainingSessionService) Create(ctx context.Context, trainerID string, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	day, err := ParseTrainingDay(req.DayOfWeek)
	if err != nil {
		return nil, err
	}

	session := &model.TrainingSession{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Mode:        req.Mode,
		IsLive:      req.IsLive,
		DayOfWeek:   day.String(),
		BaseModel:   model.BaseModel{CreatedBy: &trainerID},
	}
	// 线上课程只保留会议链接，线下课程只保留地点
	switch req.Mode {
	case model.ModeOnline:
		if req.ZoomLink != "" {
			session.ZoomLink = &req.ZoomLink
		}
	case model.ModeOffline:
		if req.Location != "" {
			session.Location = &req.Location
		}
	default:
		return nil, ErrInvalidMode
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, storeErr(err)
	}

	s.events.Emit(ctx, realtime.EventSessionUpdated)
	resp := toSessionResponse(session)
	return &resp, nil
}

func (s *trainingSessionService) ListMine(ctx context.Context, trainerID string) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.Session.ListByTrainer(ctx, trainerID)
	if err != nil {
		s.logger.Error("查询讲师课程失败", zap.Error(err))
		return nil, storeErr(err)
	}

	// 报名者邮箱
	ids := make(map[string]struct{})
	for _, sess := range sessions {
		for _, e := range sess.Enrollments {
			ids[e.CandidateID] = struct{}{}
		}
	}
	users, err := s.repo.User.ListByIDs(ctx, keys(ids))
	if err != nil {
		return nil, storeErr(err)
	}
	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.UserID] = u.Email
	}

	out := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = toSessionResponse(&sessions[i])
		for _, e := range sessions[i].Enrollments {
			e := e
			er, err := toEnrollmentResponse(&e)
			if err != nil {
				return nil, err
			}
			er.CandidateEmail = emails[e.CandidateID]
			out[i].Enrollments = append(out[i].Enrollments, er)
		}
	}
	return out, nil
}

func (s *trainingSessionService) Delete(ctx context.Context, trainerID, sessionID string) error {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return storeErr(err)
	}
	if session.CreatedBy == nil || *session.CreatedBy != trainerID {
		return ErrSessionNotOwner
	}
	// 考试分配不可删除，有分配的课程只能保留
	booked, err := s.repo.Allocation.ExistsForSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询课程考试分配失败", zap.String("session_id", sessionID), zap.Error(err))
		return storeErr(err)
	}
	if booked {
		return ErrSessionHasExams
	}
	if err := s.repo.Session.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, pkgerrors.ErrForeignKeyViolation) {
			return ErrSessionHasExams
		}
		s.logger.Error("删除课程失败", zap.String("session_id", sessionID), zap.Error(err))
		return storeErr(err)
	}
	s.events.Emit(ctx, realtime.EventSessionUpdated)
	return nil
}

// ────────────────────── 候选人 ──────────────────────

func (s *trainingSessionService) ListAvailable(ctx context.Context, candidateID string) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.Session.ListNotEnrolled(ctx, candidateID)
	if err != nil {
		s.logger.Error("查询可报名课程失败", zap.Error(err))
		return nil, storeErr(err)
	}
	out := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = toSessionResponse(&sessions[i])
	}
	return out, nil
}

func (s *trainingSessionService) ListEnrolled(ctx context.Context, candidateID string) ([]dto.EnrolledSessionResponse, error) {
	enrollments, err := s.repo.Enrollment.ListByCandidate(ctx, candidateID)
	if err != nil {
		s.logger.Error("查询已报名课程失败", zap.Error(err))
		return nil, storeErr(err)
	}
	out := make([]dto.EnrolledSessionResponse, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		if e.Session == nil {
			continue
		}
		er, err := toEnrollmentResponse(e)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.EnrolledSessionResponse{
			Session:    toSessionResponse(e.Session),
			Enrollment: er,
		})
	}
	return out, nil
}

// Enroll 报名并推算四次培训日期
func (s *trainingSessionService) Enroll(ctx context.Context, candidateID, sessionID string) (*dto.EnrollmentResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrMissingParameter
	}
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, storeErr(err)
	}

	if _, err := s.repo.Enrollment.GetBySessionAndCandidate(ctx, sessionID, candidateID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}
	taken, err := s.repo.Enrollment.ExistsForDay(ctx, candidateID, session.DayOfWeek)
	if err != nil {
		return nil, storeErr(err)
	}
	if taken {
		return nil, ErrWeekdayConflict
	}

	weekday, err := ParseWeekday(session.DayOfWeek)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	dates, err := Project(now, weekday, TrainingOccurrences)
	if err != nil {
		return nil, err
	}

	enrollment := &model.Enrollment{
		SessionID:      sessionID,
		CandidateID:    candidateID,
		DayOfWeek:      session.DayOfWeek,
		EnrolledAt:     now,
		ProjectedDates: model.DateArray(dates),
	}
	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		// 并发报名由唯一约束兜底
		switch pkgerrors.ConstraintOf(err) {
		case repository.ConstraintEnrollmentSessionCandidate:
			return nil, fmt.Errorf("%w: %w", ErrAlreadyEnrolled, err)
		case repository.ConstraintEnrollmentCandidateDay:
			return nil, fmt.Errorf("%w: %w", ErrWeekdayConflict, err)
		}
		s.logger.Error("创建报名失败", zap.Error(err))
		return nil, storeErr(err)
	}
	enrollment.Session = session

	s.events.Emit(ctx, realtime.EventSessionUpdated)
	formatted := FormatDates(dates)
	s.notifier.Notify(ctx, candidateID, model.NotificationEnrollment,
		"报名成功",
		fmt.Sprintf("您已报名《%s》，培训日期：%s。", session.Title, strings.Join(formatted, "、")),
		map[string]interface{}{"session_id": sessionID, "dates": formatted})

	resp, err := toEnrollmentResponse(enrollment)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ── 转换 ──

func toSessionResponse(s *model.TrainingSession) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:          s.SessionID,
		Title:       s.Title,
		Description: s.Description,
		Mode:        s.Mode,
		IsLive:      s.IsLive,
		DayOfWeek:   s.DayOfWeek,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
	if s.ZoomLink != nil {
		resp.ZoomLink = *s.ZoomLink
	}
	if s.Location != nil {
		resp.Location = *s.Location
	}
	if s.CreatedBy != nil {
		resp.CreatedBy = *s.CreatedBy
	}
	return resp
}

func toEnrollmentResponse(e *model.Enrollment) (dto.EnrollmentResponse, error) {
	dates, derived, err := trainingSchedule(e)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	resp := dto.EnrollmentResponse{
		EnrollmentID:   e.EnrollmentID,
		SessionID:      e.SessionID,
		CandidateID:    e.CandidateID,
		EnrolledAt:     e.EnrolledAt.UTC().Format(time.RFC3339),
		ProjectedDates: FormatDates(dates),
		Derived:        derived,
	}
	if len(dates) > 0 {
		resp.LastSessionDate = FormatDate(dates[len(dates)-1])
	}
	return resp, nil
}
