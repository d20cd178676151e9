package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
)

// EligibleSession 某日可预约考试的报名课程
type EligibleSession struct {
	SessionID string
	Title     string
	DayOfWeek string
	LastDate  time.Time
}

// trainingSchedule 返回报名对应的培训日期
// 旧数据未保存培训日期时按报名时间推算，derived=true
func trainingSchedule(e *model.Enrollment) (dates []time.Time, derived bool, err error) {
	if len(e.ProjectedDates) > 0 {
		dates = make([]time.Time, len(e.ProjectedDates))
		for i, d := range e.ProjectedDates {
			dates[i] = NormalizeDate(d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		return dates, false, nil
	}

	dayName := e.DayOfWeek
	if e.Session != nil && e.Session.DayOfWeek != "" {
		dayName = e.Session.DayOfWeek
	}
	weekday, err := ParseWeekday(dayName)
	if err != nil {
		return nil, true, fmt.Errorf("报名 %s: %w", e.EnrollmentID, err)
	}
	dates, err = Project(e.EnrolledAt, weekday, TrainingOccurrences)
	return dates, true, err
}

// lastTrainingDate 最后一次培训日期
func lastTrainingDate(e *model.Enrollment) (time.Time, error) {
	dates, _, err := trainingSchedule(e)
	if err != nil {
		return time.Time{}, err
	}
	if len(dates) == 0 {
		return time.Time{}, fmt.Errorf("报名 %s 无培训日期", e.EnrollmentID)
	}
	return dates[len(dates)-1], nil
}

// eligibleOn 考试日期必须晚于最后一次培训（同日不可）
func eligibleOn(proposed, lastDate time.Time) bool {
	return NormalizeDate(proposed).After(NormalizeDate(lastDate))
}

// evaluateEligibility 列出候选人在 proposed 日可预约考试的课程
// 结果按 LastDate、SessionID 排序，重复调用结果一致
// 无法推算培训日期的报名被跳过，不影响其余课程
func evaluateEligibility(ctx context.Context, repo *repository.Repository, candidateID string, proposed time.Time, logger *zap.Logger) ([]EligibleSession, error) {
	enrollments, err := repo.Enrollment.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	allocations, err := repo.Allocation.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	scheduled := make(map[string]bool, len(allocations))
	for _, a := range allocations {
		scheduled[a.SessionID] = true
	}

	result := make([]EligibleSession, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		if scheduled[e.SessionID] {
			continue
		}
		last, err := lastTrainingDate(e)
		if err != nil {
			logger.Warn("跳过无法推算培训日期的报名",
				zap.String("enrollment_id", e.EnrollmentID),
				zap.String("session_id", e.SessionID),
				zap.Error(err),
			)
			continue
		}
		if !eligibleOn(proposed, last) {
			continue
		}
		es := EligibleSession{SessionID: e.SessionID, DayOfWeek: e.DayOfWeek, LastDate: last}
		if e.Session != nil {
			es.Title = e.Session.Title
			es.DayOfWeek = e.Session.DayOfWeek
		}
		result = append(result, es)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastDate.Equal(result[j].LastDate) {
			return result[i].LastDate.Before(result[j].LastDate)
		}
		return result[i].SessionID < result[j].SessionID
	})
	return result, nil
}
