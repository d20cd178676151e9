package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=candidate examiner trainer coordinator"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}
