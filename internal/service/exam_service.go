package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
	"github.com/savalagikadappa/infosys/pkg/realtime"
)

// ── 考试分配模块业务错误 ──

var (
	ErrNotEnrolled           = errors.New("未报名该课程")
	ErrNotYetEligible        = errors.New("培训尚未结束，暂不可预约考试")
	ErrAlreadyScheduled      = errors.New("该课程已预约考试")
	ErrCandidateDoubleBooked = errors.New("当日已有其他考试")
	ErrNoExaminerAvailable   = errors.New("当日无考官可用")
	ErrExaminersFullyBooked  = errors.New("当日考官已约满")
	ErrNoEligibleCandidate   = errors.New("当日无可分配的候选人")
)

// NotYetEligibleError 携带最后一次培训日期
type NotYetEligibleError struct {
	LastDate time.Time
}

func (e *NotYetEligibleError) Error() string {
	return fmt.Sprintf("%s（最后一次培训：%s，考试日期须晚于该日）", ErrNotYetEligible.Error(), FormatDate(e.LastDate))
}

func (e *NotYetEligibleError) Unwrap() error { return ErrNotYetEligible }

// ExamService 考试预约与分配业务接口
type ExamService interface {
	// EligibleSessions 候选人在某日可预约考试的课程
	EligibleSessions(ctx context.Context, candidateID, date string) ([]dto.EligibleSessionResponse, error)
	// Schedule 候选人预约考试，自动分配负载最低的考官
	Schedule(ctx context.Context, candidateID string, req *dto.ScheduleExamRequest) (*dto.AllocationResponse, error)
	// AllocateForExaminer 考官为自己分配当日最早完成培训的候选人
	AllocateForExaminer(ctx context.Context, examinerID, date string) (*dto.AllocationResponse, error)
	// ListMine 候选人的考试安排（按日期升序）
	ListMine(ctx context.Context, candidateID string) ([]dto.AllocationResponse, error)
	// ListByDate 某日全部考试安排
	ListByDate(ctx context.Context, date string) ([]dto.AllocationResponse, error)
	// CompletePast 将 now 之前日期的考试标记为已完成
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

type examService struct {
	repo     *repository.Repository
	cache    AvailableDatesCache
	events   EventPublisher
	notifier Notifier
	resolver identityResolver
	capacity int
	logger   *zap.Logger
}

// NewExamService 创建 ExamService 实例
func NewExamService(
	cfg *config.Config,
	repo *repository.Repository,
	cache AvailableDatesCache,
	events EventPublisher,
	notifier Notifier,
	logger *zap.Logger,
) ExamService {
	if events == nil {
		events = noopPublisher{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &examService{
		repo:     repo,
		cache:    cache,
		events:   events,
		notifier: notifier,
		resolver: identityResolver{repo: repo},
		capacity: cfg.Exam.ExaminerDailyCapacity,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// EligibleSessions
// ════════════════════════════════════════════════════════════

func (s *examService) EligibleSessions(ctx context.Context, candidateID, date string) ([]dto.EligibleSessionResponse, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	list, err := evaluateEligibility(ctx, s.repo, candidateID, d, s.logger)
	if err != nil {
		s.logger.Error("计算可预约课程失败", zap.String("candidate_id", candidateID), zap.Error(err))
		return nil, storeErr(err)
	}

	out := make([]dto.EligibleSessionResponse, len(list))
	for i, es := range list {
		out[i] = dto.EligibleSessionResponse{
			SessionID:       es.SessionID,
			Title:           es.Title,
			DayOfWeek:       es.DayOfWeek,
			LastSessionDate: FormatDate(es.LastDate),
		}
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// Schedule 前置条件按顺序校验，首个失败即返回
// ════════════════════════════════════════════════════════════

func (s *examService) Schedule(ctx context.Context, candidateID string, req *dto.ScheduleExamRequest) (*dto.AllocationResponse, error) {
	// 1. 参数
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" || strings.TrimSpace(req.Date) == "" {
		return nil, ErrMissingParameter
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	// 2. 报名
	enrollment, err := s.repo.Enrollment.GetBySessionAndCandidate(ctx, sessionID, candidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		s.logger.Error("查询报名记录失败", zap.Error(err))
		return nil, storeErr(err)
	}

	// 3. 培训已结束
	last, err := lastTrainingDate(enrollment)
	if err != nil {
		s.logger.Error("计算培训日期失败", zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
		return nil, err
	}
	if !eligibleOn(date, last) {
		return nil, &NotYetEligibleError{LastDate: last}
	}

	// 4-5. 锁外预检，快速失败
	if err := checkCandidateFree(ctx, s.repo, candidateID, sessionID, date); err != nil {
		return nil, s.classify("预约考试预检失败", err)
	}

	// 4-8. 日期锁内复核并写入
	var created *model.ExamAllocation
	err = s.repo.Tx.WithDateLock(ctx, date, func(tx *repository.Repository) error {
		if err := checkCandidateFree(ctx, tx, candidateID, sessionID, date); err != nil {
			return err
		}
		examinerID, err := pickExaminer(ctx, tx, date, s.capacity)
		if err != nil {
			return err
		}
		a := &model.ExamAllocation{
			ExaminerID:  examinerID,
			CandidateID: candidateID,
			SessionID:   sessionID,
			Date:        date,
			Status:      model.AllocationStatusAllocated,
		}
		if err := tx.Allocation.Create(ctx, a); err != nil {
			return allocationConflict(err)
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, s.classify("写入考试分配失败", err)
	}

	s.logger.Info("考试已分配",
		zap.String("allocation_id", created.AllocationID),
		zap.String("examiner_id", created.ExaminerID),
		zap.String("date", FormatDate(date)),
	)
	return s.afterAllocation(ctx, created, enrollment.Session)
}

// ════════════════════════════════════════════════════════════
// AllocateForExaminer 考官主动认领
// ════════════════════════════════════════════════════════════

func (s *examService) AllocateForExaminer(ctx context.Context, examinerID, date string) (*dto.AllocationResponse, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	var created *model.ExamAllocation
	var session *model.TrainingSession
	err = s.repo.Tx.WithDateLock(ctx, d, func(tx *repository.Repository) error {
		available, err := tx.Availability.Exists(ctx, examinerID, d)
		if err != nil {
			return err
		}
		if !available {
			return ErrNoExaminerAvailable
		}
		load, err := tx.Allocation.LoadByDate(ctx, d)
		if err != nil {
			return err
		}
		if load[examinerID] >= s.capacity {
			return ErrExaminersFullyBooked
		}

		pick, err := earliestEligibleEnrollment(ctx, tx, d, s.logger)
		if err != nil {
			return err
		}
		a := &model.ExamAllocation{
			ExaminerID:  examinerID,
			CandidateID: pick.CandidateID,
			SessionID:   pick.SessionID,
			Date:        d,
			Status:      model.AllocationStatusAllocated,
		}
		if err := tx.Allocation.Create(ctx, a); err != nil {
			return allocationConflict(err)
		}
		created = a
		session = pick.Session
		return nil
	})
	if err != nil {
		return nil, s.classify("考官分配考试失败", err)
	}

	s.logger.Info("考官已认领考试",
		zap.String("allocation_id", created.AllocationID),
		zap.String("candidate_id", created.CandidateID),
		zap.String("date", FormatDate(d)),
	)
	return s.afterAllocation(ctx, created, session)
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *examService) ListMine(ctx context.Context, candidateID string) ([]dto.AllocationResponse, error) {
	list, err := s.repo.Allocation.ListByCandidate(ctx, candidateID)
	if err != nil {
		s.logger.Error("查询考试安排失败", zap.Error(err))
		return nil, storeErr(err)
	}
	out, err := s.resolver.allocations(ctx, list)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *examService) ListByDate(ctx context.Context, date string) ([]dto.AllocationResponse, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.Allocation.ListByDate(ctx, d)
	if err != nil {
		s.logger.Error("按日期查询考试失败", zap.Error(err))
		return nil, storeErr(err)
	}
	out, err := s.resolver.allocations(ctx, list)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *examService) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.Allocation.CompleteBefore(ctx, NormalizeDate(now))
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// ── 内部辅助 ──

// checkCandidateFree 同一课程只能考一次，同一天只能考一场
func checkCandidateFree(ctx context.Context, repo *repository.Repository, candidateID, sessionID string, date time.Time) error {
	booked, err := repo.Allocation.ExistsForCandidateSession(ctx, candidateID, sessionID)
	if err != nil {
		return err
	}
	if booked {
		return ErrAlreadyScheduled
	}
	busy, err := repo.Allocation.ExistsForCandidateDate(ctx, candidateID, date)
	if err != nil {
		return err
	}
	if busy {
		return ErrCandidateDoubleBooked
	}
	return nil
}

// pickExaminer 当日负载最低的可用考官
func pickExaminer(ctx context.Context, repo *repository.Repository, date time.Time, capacity int) (string, error) {
	avail, err := repo.Availability.ListByDate(ctx, date)
	if err != nil {
		return "", err
	}
	load, err := repo.Allocation.LoadByDate(ctx, date)
	if err != nil {
		return "", err
	}
	return selectExaminer(avail, load, capacity)
}

// selectExaminer 按负载升序稳定排序，负载相同保持登记顺序
func selectExaminer(avail []model.ExaminerAvailability, load map[string]int, capacity int) (string, error) {
	if len(avail) == 0 {
		return "", ErrNoExaminerAvailable
	}
	ids := make([]string, len(avail))
	for i, a := range avail {
		ids[i] = a.ExaminerID
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return load[ids[i]] < load[ids[j]]
	})
	if load[ids[0]] >= capacity {
		return "", ErrExaminersFullyBooked
	}
	return ids[0], nil
}

// earliestEligibleEnrollment 当日可考的报名中首次培训最早者
// 同日按报名时间、候选人 ID 排序
func earliestEligibleEnrollment(ctx context.Context, repo *repository.Repository, date time.Time, logger *zap.Logger) (*model.Enrollment, error) {
	enrollments, err := repo.Enrollment.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	booked, err := repo.Allocation.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]bool, len(booked))
	for _, a := range booked {
		busy[a.CandidateID] = true
	}

	type candidate struct {
		enrollment *model.Enrollment
		first      time.Time
	}
	var pool []candidate
	for i := range enrollments {
		e := &enrollments[i]
		if busy[e.CandidateID] {
			continue
		}
		dates, _, err := trainingSchedule(e)
		if err != nil {
			logger.Warn("跳过无法推算培训日期的报名",
				zap.String("enrollment_id", e.EnrollmentID),
				zap.Error(err),
			)
			continue
		}
		if len(dates) == 0 || !eligibleOn(date, dates[len(dates)-1]) {
			continue
		}
		pool = append(pool, candidate{enrollment: e, first: dates[0]})
	}

	sort.Slice(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if !a.first.Equal(b.first) {
			return a.first.Before(b.first)
		}
		if !a.enrollment.EnrolledAt.Equal(b.enrollment.EnrolledAt) {
			return a.enrollment.EnrolledAt.Before(b.enrollment.EnrolledAt)
		}
		return a.enrollment.CandidateID < b.enrollment.CandidateID
	})

	for _, c := range pool {
		scheduled, err := repo.Allocation.ExistsForCandidateSession(ctx, c.enrollment.CandidateID, c.enrollment.SessionID)
		if err != nil {
			return nil, err
		}
		if !scheduled {
			return c.enrollment, nil
		}
	}
	return nil, ErrNoEligibleCandidate
}

// allocationConflict 唯一约束冲突映射为对应业务错误，同时保留约束错误
func allocationConflict(err error) error {
	switch pkgerrors.ConstraintOf(err) {
	case repository.ConstraintAllocationCandidateSession:
		return fmt.Errorf("%w: %w", ErrAlreadyScheduled, err)
	case repository.ConstraintAllocationCandidateDate:
		return fmt.Errorf("%w: %w", ErrCandidateDoubleBooked, err)
	}
	return err
}

// classify 业务错误原样返回，其余记录日志并归为存储错误
func (s *examService) classify(msg string, err error) error {
	for _, biz := range []error{
		ErrAlreadyScheduled,
		ErrCandidateDoubleBooked,
		ErrNoExaminerAvailable,
		ErrExaminersFullyBooked,
		ErrNoEligibleCandidate,
	} {
		if errors.Is(err, biz) {
			return err
		}
	}
	s.logger.Error(msg, zap.Error(err))
	return storeErr(err)
}

// afterAllocation 失效缓存、广播事件、发送通知，并解析展示字段
func (s *examService) afterAllocation(ctx context.Context, a *model.ExamAllocation, session *model.TrainingSession) (*dto.AllocationResponse, error) {
	s.cache.Invalidate(ctx)
	s.events.Emit(ctx, realtime.EventExamAllocated)

	title := a.SessionID
	if session != nil {
		title = session.Title
	}
	payload := map[string]string{
		"allocation_id": a.AllocationID,
		"session_id":    a.SessionID,
		"date":          FormatDate(a.Date),
	}
	s.notifier.Notify(ctx, a.CandidateID, model.NotificationExam,
		"考试已安排",
		fmt.Sprintf("您的《%s》实操考试安排在 %s。", title, FormatDate(a.Date)),
		payload)
	s.notifier.Notify(ctx, a.ExaminerID, model.NotificationExam,
		"新的考试安排",
		fmt.Sprintf("您在 %s 有一场《%s》实操考试。", FormatDate(a.Date), title),
		payload)

	resp, err := s.resolver.allocation(ctx, a)
	if err != nil {
		// 分配已提交，展示字段解析失败时返回基础信息
		s.logger.Warn("解析考试展示字段失败", zap.Error(err))
		return &dto.AllocationResponse{
			ID:          a.AllocationID,
			ExaminerID:  a.ExaminerID,
			CandidateID: a.CandidateID,
			SessionID:   a.SessionID,
			Date:        FormatDate(a.Date),
			Status:      a.Status,
		}, nil
	}
	return resp, nil
}
