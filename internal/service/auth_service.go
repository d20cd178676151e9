package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
	"github.com/savalagikadappa/infosys/pkg/jwt"
)

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailExists         = errors.New("邮箱已被注册")
	ErrInvalidRole         = errors.New("无效的角色")
	ErrInvalidRefreshToken = errors.New("刷新令牌无效或已失效")
)

// TokenBlacklist Token 黑名单（pkg/redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例；blacklist 为 nil 时登出仅依赖 Token 过期
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if !model.IsValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefreshToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Error("查询 Token 黑名单失败", zap.Error(err))
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidRefreshToken
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	// 旧的 Refresh Token 作废
	s.revoke(ctx, claims)
	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return nil
	}
	s.revoke(ctx, claims)
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ── 内部辅助 ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// revoke 将 Token 加入黑名单直至其自然过期
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil {
		return
	}
	ttl := claims.RemainingTTL(time.Now())
	if ttl == 0 {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("加入 Token 黑名单失败", zap.Error(err))
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
