package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/internal/model"
)

func TestTrainingSchedule_LegacyEnrollmentDerived(t *testing.T) {
	enrolledAt := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	stored := &model.Enrollment{EnrollmentID: "e1", DayOfWeek: "Monday", EnrolledAt: enrolledAt}
	stored.ProjectedDates, _ = Project(enrolledAt, time.Monday, TrainingOccurrences)
	legacy := &model.Enrollment{
		EnrollmentID: "e2",
		DayOfWeek:    "Monday",
		EnrolledAt:   enrolledAt,
		Session:      &model.TrainingSession{DayOfWeek: "Monday"},
	}

	want, derived, err := trainingSchedule(stored)
	if err != nil || derived {
		t.Fatalf("已保存日期不应推算: derived=%v err=%v", derived, err)
	}
	got, derived, err := trainingSchedule(legacy)
	if err != nil || !derived {
		t.Fatalf("旧数据应推算: derived=%v err=%v", derived, err)
	}
	if len(got) != len(want) {
		t.Fatalf("推算日期数量不一致: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("第 %d 次培训日期不一致: %s vs %s", i, FormatDate(got[i]), FormatDate(want[i]))
		}
	}
}

func TestTrainingSchedule_LegacyInvalidWeekday(t *testing.T) {
	e := &model.Enrollment{EnrollmentID: "e1", DayOfWeek: "Someday", EnrolledAt: time.Now()}
	if _, _, err := trainingSchedule(e); err == nil {
		t.Error("星期无效时应返回错误")
	}
}

func TestEligibleOn_StrictlyAfterLastDate(t *testing.T) {
	last := mustDate(t, "2025-01-27")
	if eligibleOn(last, last) {
		t.Error("最后一次培训当天不可预约考试")
	}
	if eligibleOn(last.AddDate(0, 0, -1), last) {
		t.Error("最后一次培训之前不可预约考试")
	}
	if !eligibleOn(last.AddDate(0, 0, 1), last) {
		t.Error("最后一次培训次日应可预约考试")
	}
}

func TestEvaluateEligibility_Monotonic(t *testing.T) {
	repo, st := newMockRepository()
	st.addSession("s-mon", "多旋翼基础", "Monday")
	st.enroll(t, "s-mon", "cand-1", time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), false)

	last := mustDate(t, "2025-01-27")
	ctx := context.Background()
	for offset := -10; offset <= 10; offset++ {
		d := last.AddDate(0, 0, offset)
		list, err := evaluateEligibility(ctx, repo, "cand-1", d, zap.NewNop())
		if err != nil {
			t.Fatalf("evaluateEligibility 返回错误: %v", err)
		}
		want := offset > 0
		if got := len(list) == 1; got != want {
			t.Errorf("%s 资格期望 %v，实际 %v", FormatDate(d), want, got)
		}
	}
}

func TestEvaluateEligibility_SortedAndSkipsScheduled(t *testing.T) {
	repo, st := newMockRepository()
	st.addSession("s-b", "固定翼进阶", "Wednesday")
	st.addSession("s-a", "多旋翼基础", "Monday")
	st.addSession("s-c", "航拍实务", "Friday")
	anchor := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	st.enroll(t, "s-b", "cand-1", anchor, false)
	st.enroll(t, "s-a", "cand-1", anchor, true)
	st.enroll(t, "s-c", "cand-1", anchor, false)

	ctx := context.Background()
	list, err := evaluateEligibility(ctx, repo, "cand-1", mustDate(t, "2025-03-01"), zap.NewNop())
	if err != nil {
		t.Fatalf("evaluateEligibility 返回错误: %v", err)
	}
	order := []string{"s-a", "s-b", "s-c"}
	if len(list) != len(order) {
		t.Fatalf("期望 %d 门课程，实际 %d", len(order), len(list))
	}
	for i, id := range order {
		if list[i].SessionID != id {
			t.Errorf("第 %d 项期望 %s，实际 %s", i, id, list[i].SessionID)
		}
	}
	if list[0].Title != "多旋翼基础" || FormatDate(list[0].LastDate) != "2025-01-27" {
		t.Errorf("展示字段错误: %+v", list[0])
	}

	st.addAllocation(t, "exam-1", "cand-1", "s-b", mustDate(t, "2025-02-20"))
	list, _ = evaluateEligibility(ctx, repo, "cand-1", mustDate(t, "2025-03-01"), zap.NewNop())
	for _, es := range list {
		if es.SessionID == "s-b" {
			t.Error("已预约考试的课程不应再出现")
		}
	}
	again, _ := evaluateEligibility(ctx, repo, "cand-1", mustDate(t, "2025-03-01"), zap.NewNop())
	if len(again) != len(list) || again[0].SessionID != list[0].SessionID {
		t.Error("重复调用结果应一致")
	}
}
