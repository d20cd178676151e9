package model

import "gorm.io/datatypes"

// 通知类型
const (
	NotificationEnrollment = "enrollment"
	NotificationExam       = "exam_allocated"
)

// Notification 通知消息表 对应 notifications
type Notification struct {
	NotificationID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string         `gorm:"type:uuid;not null"                             json:"user_id"`
	Type           string         `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string         `gorm:"type:text;not null"                             json:"content"`
	Payload        datatypes.JSON `gorm:"type:jsonb"                                     json:"payload,omitempty"`
	IsRead         bool           `gorm:"not null;default:false"                         json:"is_read"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
