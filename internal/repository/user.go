package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"campushub.realtime/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

// querier pgxpool.Pool 与 pgx.Tx 共有的方法
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UserRepository 用户数据访问
// 网关只读身份、只写 last_seen_at，其余字段由 CRUD 服务维护
type UserRepository struct {
	db querier
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db querier) *UserRepository {
	return &UserRepository{db: db}
}

// Resolve 通过用户ID解析身份
func (r *UserRepository) Resolve(ctx context.Context, userID string) (*model.Identity, error) {
	query := `
		SELECT id, name, university
		FROM users WHERE id = $1
	`
	identity := &model.Identity{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&identity.UserID,
		&identity.DisplayName,
		&identity.ScopeTag,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user %s: %w", userID, err)
	}
	return identity, nil
}

// TouchLastSeen 更新最后在线时间
func (r *UserRepository) TouchLastSeen(ctx context.Context, userID string) error {
	query := `UPDATE users SET last_seen_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("touch last seen %s: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
