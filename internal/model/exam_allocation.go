package model

import "time"

// 考试分配状态
const (
	AllocationStatusAllocated = "allocated"
	AllocationStatusCompleted = "completed"
)

// ExamAllocation 考试分配表 对应 exam_allocations
// 唯一约束：(candidate_id, session_id)、(candidate_id, date)
type ExamAllocation struct {
	AllocationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"allocation_id"`
	ExaminerID   string    `gorm:"type:uuid;not null"                             json:"examiner_id"`
	CandidateID  string    `gorm:"type:uuid;not null"                             json:"candidate_id"`
	SessionID    string    `gorm:"type:uuid;not null"                             json:"session_id"`
	Date         time.Time `gorm:"type:date;not null"                             json:"date"`
	Status       string    `gorm:"type:varchar(20);not null;default:'allocated'"  json:"status"` // allocated | completed
	VersionedModel
}

// TableName 指定表名
func (ExamAllocation) TableName() string { return "exam_allocations" }
