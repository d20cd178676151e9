package model

import "time"

// ExaminerAvailability 考官可用日期表 对应 examiner_availabilities
// 仅通过切换接口增删
type ExaminerAvailability struct {
	AvailabilityID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_id"`
	ExaminerID     string    `gorm:"type:uuid;not null"                             json:"examiner_id"`
	Date           time.Time `gorm:"type:date;not null"                             json:"date"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ExaminerAvailability) TableName() string { return "examiner_availabilities" }
