package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/repository"
)

// UserService 用户业务接口
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{Role: req.Role, Keyword: req.Keyword}
	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	return out, total, nil
}
