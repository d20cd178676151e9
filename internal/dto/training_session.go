package dto

// ── 培训课程 DTO ──

// CreateSessionRequest 创建培训课程
type CreateSessionRequest struct {
	Title       string `json:"title"       binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Mode        string `json:"mode"        binding:"required,oneof=online offline"`
	ZoomLink    string `json:"zoom_link"   binding:"omitempty,url,max=500"`
	Location    string `json:"location"    binding:"max=200"`
	IsLive      bool   `json:"is_live"`
	DayOfWeek   string `json:"day_of_week" binding:"required"`
}

// SessionResponse 课程信息
type SessionResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Mode        string               `json:"mode"`
	ZoomLink    string               `json:"zoom_link,omitempty"`
	Location    string               `json:"location,omitempty"`
	IsLive      bool                 `json:"is_live"`
	DayOfWeek   string               `json:"day_of_week"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   string               `json:"created_at"`
	Enrollments []EnrollmentResponse `json:"enrollments,omitempty"`
}

// EnrollmentResponse 报名信息（含培训日期）
type EnrollmentResponse struct {
	EnrollmentID    string   `json:"enrollment_id"`
	SessionID       string   `json:"session_id"`
	CandidateID     string   `json:"candidate_id"`
	CandidateEmail  string   `json:"candidate_email,omitempty"`
	EnrolledAt      string   `json:"enrolled_at"`
	ProjectedDates  []string `json:"projected_dates"`
	LastSessionDate string   `json:"last_session_date"`
	Derived         bool     `json:"derived"` // 培训日期由报名时间推算
}

// EnrolledSessionResponse 候选人已报名课程
type EnrolledSessionResponse struct {
	Session    SessionResponse    `json:"session"`
	Enrollment EnrollmentResponse `json:"enrollment"`
}
