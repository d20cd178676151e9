package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUniqueViolation 存储层唯一约束拒绝写入
var ErrUniqueViolation = errors.New("违反唯一约束")

// ErrForeignKeyViolation 仍被其他记录引用，无法删除
var ErrForeignKeyViolation = errors.New("记录仍被引用")

// PostgreSQL SQLSTATE
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// UniqueViolation 携带被触发的约束名，便于上层映射为业务错误
type UniqueViolation struct {
	Constraint string
	Err        error
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("违反唯一约束 %s: %v", e.Constraint, e.Err)
}

func (e *UniqueViolation) Unwrap() []error {
	return []error{ErrUniqueViolation, e.Err}
}

// FromDB 将驱动层错误翻译为仓储层错误；无法识别的错误原样返回
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return &UniqueViolation{Constraint: pgErr.ConstraintName, Err: err}
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}
	return err
}

// ConstraintOf 返回唯一约束冲突的约束名，非唯一约束错误返回空串
func ConstraintOf(err error) string {
	var uv *UniqueViolation
	if errors.As(err, &uv) {
		return uv.Constraint
	}
	return ""
}
