package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	appErrors "campushub.realtime/internal/errors"
	"campushub.realtime/internal/model"
	"campushub.realtime/internal/repository"
)

// IdentityStore 身份存储（只读）
type IdentityStore interface {
	Resolve(ctx context.Context, userID string) (*model.Identity, error)
}

// Gate 握手认证关卡
// 连接被接纳之前必须通过 Authenticate，失败时不产生任何状态变更
type Gate struct {
	tokens  *TokenService
	store   IdentityStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewGate 创建认证关卡，timeout 为握手超时，<=0 表示不限制
func NewGate(tokens *TokenService, store IdentityStore, timeout time.Duration, logger *slog.Logger) *Gate {
	return &Gate{
		tokens:  tokens,
		store:   store,
		timeout: timeout,
		logger:  logger.With("component", "auth_gate"),
	}
}

// Authenticate 校验令牌并解析身份
func (g *Gate) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, appErrors.ErrMissingCredential
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		return nil, appErrors.ErrInvalidCredential.Wrap(err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	identity, err := g.store.Resolve(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, appErrors.ErrIdentityNotFound.Wrap(err)
		}
		g.logger.Error("identity lookup failed",
			"user_id", claims.UserID,
			"error", err,
		)
		return nil, appErrors.ErrIdentityLookup.Wrap(err)
	}
	if identity == nil {
		return nil, appErrors.ErrIdentityNotFound
	}

	return identity, nil
}

// ExtractToken 从握手请求中取出令牌
// 优先 query 参数 token，其次 Authorization: Bearer
func ExtractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IsAuthError 是否为客户端凭证问题（区别于身份存储故障）
func IsAuthError(err error) bool {
	return appErrors.Is(err, appErrors.ErrMissingCredential) ||
		appErrors.Is(err, appErrors.ErrInvalidCredential) ||
		appErrors.Is(err, appErrors.ErrIdentityNotFound)
}
