package model

import "time"

// 培训方式
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// TrainingSession 培训课程表 对应 training_sessions
// 每周固定一天上课，共四次
type TrainingSession struct {
	SessionID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	Title       string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string  `gorm:"type:text;not null;default:''"                  json:"description"`
	Mode        string  `gorm:"type:varchar(10);not null"                      json:"mode"` // online | offline
	ZoomLink    *string `gorm:"type:varchar(500)"                              json:"zoom_link,omitempty"`
	Location    *string `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	IsLive      bool    `gorm:"not null;default:false"                         json:"is_live"`
	DayOfWeek   string  `gorm:"type:varchar(10);not null"                      json:"day_of_week"` // Monday..Friday
	BaseModel

	// 关联
	Enrollments []Enrollment `gorm:"foreignKey:SessionID;references:SessionID" json:"enrollments,omitempty"`
}

// TableName 指定表名
func (TrainingSession) TableName() string { return "training_sessions" }

// Enrollment 报名记录表 对应 enrollments
// 创建后不可修改，随课程级联删除
type Enrollment struct {
	EnrollmentID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	SessionID      string    `gorm:"type:uuid;not null"                             json:"session_id"`
	CandidateID    string    `gorm:"type:uuid;not null"                             json:"candidate_id"`
	DayOfWeek      string    `gorm:"type:varchar(10);not null"                      json:"day_of_week"`
	EnrolledAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"enrolled_at"`
	ProjectedDates DateArray `gorm:"type:date[]"                                    json:"projected_dates,omitempty"` // NULL 为旧数据

	// 关联
	Session *TrainingSession `gorm:"foreignKey:SessionID;references:SessionID" json:"session,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }
