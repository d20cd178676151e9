package dto

// ── 考官可用日期 DTO ──

// ToggleAvailabilityRequest 切换可用状态
type ToggleAvailabilityRequest struct {
	Date string `json:"date" binding:"required,isodate"`
}

// ToggleAvailabilityResponse 切换结果
type ToggleAvailabilityResponse struct {
	Available bool   `json:"available"`
	Date      string `json:"date"`
}

// ExaminerCalendarResponse 考官日历：可用日期与已分配考试
type ExaminerCalendarResponse struct {
	AvailableDates []string             `json:"available_dates"`
	Exams          []AllocationResponse `json:"exams"`
}
