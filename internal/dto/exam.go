package dto

// ── 考试分配 DTO ──

// EligibleSessionsRequest 可预约课程查询
type EligibleSessionsRequest struct {
	Date string `form:"date"`
}

// ScheduleExamRequest 候选人预约考试
type ScheduleExamRequest struct {
	SessionID string `json:"session_id"`
	Date      string `json:"date"`
}

// AllocateExamRequest 考官主动分配
type AllocateExamRequest struct {
	Date string `json:"date" binding:"required,isodate"`
}

// ExamsByDateRequest 按日期查询
type ExamsByDateRequest struct {
	Date string `form:"date" binding:"required,isodate"`
}

// AvailableDatesRequest 开放日期查询
type AvailableDatesRequest struct {
	Fresh bool `form:"fresh"`
}

// ExportExamsRequest 导出区间
type ExportExamsRequest struct {
	From string `form:"from" binding:"required,isodate"`
	To   string `form:"to"   binding:"required,isodate"`
}

// EligibleSessionResponse 可预约课程
type EligibleSessionResponse struct {
	SessionID       string `json:"session_id"`
	Title           string `json:"title"`
	DayOfWeek       string `json:"day_of_week"`
	LastSessionDate string `json:"last_session_date"`
}

// AllocationResponse 考试分配结果（含展示字段）
type AllocationResponse struct {
	ID             string `json:"id"`
	ExaminerID     string `json:"examiner_id"`
	ExaminerEmail  string `json:"examiner_email,omitempty"`
	CandidateID    string `json:"candidate_id"`
	CandidateEmail string `json:"candidate_email,omitempty"`
	SessionID      string `json:"session_id"`
	SessionTitle   string `json:"session_title,omitempty"`
	Date           string `json:"date"`
	Status         string `json:"status"`
}
