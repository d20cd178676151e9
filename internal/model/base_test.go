package model

import (
	"testing"
	"time"
)

func TestDateArray_ScanValue(t *testing.T) {
	var a DateArray
	if err := a.Scan([]byte("{2025-01-06,2025-01-13}")); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(a) != 2 {
		t.Fatalf("期望 2 个日期，得到 %d", len(a))
	}
	want := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	if !a[1].Equal(want) {
		t.Errorf("期望 %v，得到 %v", want, a[1])
	}

	v, err := a.Value()
	if err != nil {
		t.Fatalf("Value 失败: %v", err)
	}
	if v != "{2025-01-06,2025-01-13}" {
		t.Errorf("序列化结果错误: %v", v)
	}
}

func TestDateArray_NullAndEmpty(t *testing.T) {
	var a DateArray
	if err := a.Scan(nil); err != nil || a != nil {
		t.Errorf("NULL 应解析为 nil，得到 %v, %v", a, err)
	}
	if err := a.Scan("{}"); err != nil || a == nil || len(a) != 0 {
		t.Errorf("{} 应解析为空切片，得到 %v, %v", a, err)
	}
	var nilArr DateArray
	if v, _ := nilArr.Value(); v != nil {
		t.Errorf("nil 应序列化为 NULL，得到 %v", v)
	}
}

func TestDateArray_InvalidElement(t *testing.T) {
	var a DateArray
	if err := a.Scan("{2025-13-40}"); err == nil {
		t.Error("非法日期应返回错误")
	}
	if err := a.Scan(42); err == nil {
		t.Error("不支持的类型应返回错误")
	}
}
