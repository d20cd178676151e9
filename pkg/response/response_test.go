package response

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := NewPagination(tt.total, 1, tt.pageSize).TotalPages; got != tt.want {
			t.Errorf("total=%d size=%d: 期望 %d 页，实际 %d", tt.total, tt.pageSize, tt.want, got)
		}
	}
}
