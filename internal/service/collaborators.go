package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
)

// ErrStoreUnavailable 存储层读写失败
var ErrStoreUnavailable = errors.New("存储服务暂不可用")

// storeErr 将未识别的存储错误归类为 ErrStoreUnavailable，保留原始错误链
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// EventPublisher 数据变更事件（pkg/realtime.Hub 实现）
type EventPublisher interface {
	Emit(ctx context.Context, eventType string)
}

type noopPublisher struct{}

func (noopPublisher) Emit(context.Context, string) {}

// ── 展示字段解析 ──

// identityResolver 将模型中的 ID 解析为展示字段，仅用于响应
type identityResolver struct {
	repo *repository.Repository
}

func (r identityResolver) allocations(ctx context.Context, list []model.ExamAllocation) ([]dto.AllocationResponse, error) {
	if len(list) == 0 {
		return []dto.AllocationResponse{}, nil
	}

	userSet := make(map[string]struct{})
	sessionSet := make(map[string]struct{})
	for _, a := range list {
		userSet[a.ExaminerID] = struct{}{}
		userSet[a.CandidateID] = struct{}{}
		sessionSet[a.SessionID] = struct{}{}
	}

	users, err := r.repo.User.ListByIDs(ctx, keys(userSet))
	if err != nil {
		return nil, err
	}
	sessions, err := r.repo.Session.ListByIDs(ctx, keys(sessionSet))
	if err != nil {
		return nil, err
	}

	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.UserID] = u.Email
	}
	titles := make(map[string]string, len(sessions))
	for _, s := range sessions {
		titles[s.SessionID] = s.Title
	}

	out := make([]dto.AllocationResponse, len(list))
	for i, a := range list {
		out[i] = dto.AllocationResponse{
			ID:             a.AllocationID,
			ExaminerID:     a.ExaminerID,
			ExaminerEmail:  emails[a.ExaminerID],
			CandidateID:    a.CandidateID,
			CandidateEmail: emails[a.CandidateID],
			SessionID:      a.SessionID,
			SessionTitle:   titles[a.SessionID],
			Date:           FormatDate(a.Date),
			Status:         a.Status,
		}
	}
	return out, nil
}

func (r identityResolver) allocation(ctx context.Context, a *model.ExamAllocation) (*dto.AllocationResponse, error) {
	out, err := r.allocations(ctx, []model.ExamAllocation{*a})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
