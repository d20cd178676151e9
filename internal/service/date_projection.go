package service

import (
	"errors"
	"strings"
	"time"

	"github.com/savalagikadappa/infosys/internal/model"
)

// ── 日期推算模块业务错误 ──

var (
	ErrInvalidWeekday   = errors.New("无效的星期取值")
	ErrMissingParameter = errors.New("缺少必填参数")
	ErrInvalidDate      = errors.New("日期格式错误，应为 yyyy-mm-dd")
)

// TrainingOccurrences 每门课程的培训次数
const TrainingOccurrences = 4

// trainingDays 课程允许设置的上课日
var trainingDays = map[time.Weekday]bool{
	time.Monday:    true,
	time.Tuesday:   true,
	time.Wednesday: true,
	time.Thursday:  true,
	time.Friday:    true,
}

// NormalizeDate 归一化为 UTC 零点
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 yyyy-mm-dd 或 RFC 3339 日期并归一化
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingParameter
	}
	if d, err := time.ParseInLocation(model.DateLayout, s, time.UTC); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NormalizeDate(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// FormatDate 输出 yyyy-mm-dd
func FormatDate(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}

// ParseWeekday 解析英文星期名（不区分大小写）
func ParseWeekday(name string) (time.Weekday, error) {
	name = strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return 0, ErrInvalidWeekday
}

// ParseTrainingDay 解析课程上课日，仅允许周一至周五
func ParseTrainingDay(name string) (time.Weekday, error) {
	d, err := ParseWeekday(name)
	if err != nil {
		return 0, err
	}
	if !trainingDays[d] {
		return 0, ErrInvalidWeekday
	}
	return d, nil
}

// Project 从 anchor 当天起推算 count 个 weekday 日期
// anchor 恰好是 weekday 时第一个日期即 anchor 当天；之后每次 +7 天
func Project(anchor time.Time, weekday time.Weekday, count int) ([]time.Time, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, ErrInvalidWeekday
	}
	if count <= 0 {
		return []time.Time{}, nil
	}

	start := NormalizeDate(anchor)
	offset := (int(weekday) - int(start.Weekday()) + 7) % 7
	first := start.AddDate(0, 0, offset)

	dates := make([]time.Time, count)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, 7*i)
	}
	return dates, nil
}

// FormatDates 批量格式化
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = FormatDate(d)
	}
	return out
}
