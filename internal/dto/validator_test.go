package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestISODateValidator(t *testing.T) {
	v := validator.New()
	if err := RegisterValidators(v); err != nil {
		t.Fatalf("注册校验规则失败: %v", err)
	}

	tests := []struct {
		date string
		ok   bool
	}{
		{"2025-01-28", true},
		{"2025-01-28T10:00:00Z", true},
		{"2025-02-30", false},
		{"28/01/2025", false},
		{"", false},
	}
	for _, tt := range tests {
		err := v.Var(tt.date, "isodate")
		if (err == nil) != tt.ok {
			t.Errorf("isodate(%q) = %v，期望通过=%v", tt.date, err, tt.ok)
		}
	}
}
