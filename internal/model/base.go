package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期列的文本格式
const DateLayout = "2006-01-02"

// ── PostgreSQL DATE[] 自定义类型 ──

// DateArray 对应 PostgreSQL DATE[] 类型，实现 GORM Scanner/Valuer 接口。
// 元素统一为 UTC 零点。
type DateArray []time.Time

// Scan 将 PostgreSQL 返回的 {2025-01-06,2025-01-13} 文本解析为 []time.Time。
func (a *DateArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("DateArray.Scan: unsupported type %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*a = DateArray{}
		return nil
	}
	parts := strings.Split(s, ",")
	arr := make(DateArray, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseInLocation(DateLayout, strings.Trim(strings.TrimSpace(p), `"`), time.UTC)
		if err != nil {
			return fmt.Errorf("DateArray.Scan: invalid element %q: %w", p, err)
		}
		arr = append(arr, d)
	}
	*a = arr
	return nil
}

// Value 将 []time.Time 序列化为 PostgreSQL {2025-01-06,2025-01-13} 文本。
func (a DateArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	parts := make([]string, len(a))
	for i, d := range a {
		parts[i] = d.UTC().Format(DateLayout)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// VersionedModel 支持乐观锁的审计字段
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}
