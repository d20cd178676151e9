package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/model"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
}

// UserFilter 用户列表过滤条件，零值表示不过滤
type UserFilter struct {
	Role    string
	Keyword string // 姓名或邮箱模糊匹配
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return pkgerrors.FromDB(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&users).Error
	return users, err
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		pattern := "%" + escapeLike(kw) + "%"
		db = db.Where("(name ILIKE ? OR email ILIKE ?)", pattern, pattern)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 协调员面板按角色分组展示
	if err := db.Offset(offset).Limit(limit).
		Order("role ASC").Order("name ASC").Order("user_id ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
