package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"campushub.realtime/internal/config"
	"campushub.realtime/internal/connection"
	"campushub.realtime/internal/model"
)

const defaultPresenceTTL = 2 * time.Minute

// deleteIfOwner 仅当 Key 仍属于该连接时删除，避免旧连接清掉新连接的在线状态
var deleteIfOwner = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return 0
end
local ok, p = pcall(cjson.decode, v)
if ok and p.connectionId == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// PresenceStore Redis 在线状态镜像
// 供 CRUD 层查询谁在线、在哪个节点；实时层自身不读取它
type PresenceStore struct {
	client *redis.Client
	nodeID int64
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient 创建 Redis 客户端
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// NewPresenceStore 创建在线状态存储
func NewPresenceStore(client *redis.Client, nodeID int64, ttl time.Duration, logger *slog.Logger) *PresenceStore {
	if ttl <= 0 {
		ttl = defaultPresenceTTL
	}
	return &PresenceStore{
		client: client,
		nodeID: nodeID,
		ttl:    ttl,
		logger: logger.With("component", "presence_store"),
	}
}

func (s *PresenceStore) encode(record connection.Record) ([]byte, error) {
	presence := model.Presence{
		UserID:       record.UserID,
		NodeID:       s.nodeID,
		ConnectionID: record.ConnectionID,
		ScopeTag:     record.ScopeTag,
		Status:       record.Status,
		ConnectedAt:  record.ConnectedAt,
	}
	data, err := json.Marshal(presence)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal presence: %w", err)
	}
	return data, nil
}

// Set 写入在线状态，新连接覆盖旧连接
func (s *PresenceStore) Set(ctx context.Context, record connection.Record) error {
	data, err := s.encode(record)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, BuildPresenceKey(record.UserID), data, s.ttl).Err(); err != nil {
		return err
	}

	s.logger.Debug("presence set",
		"user_id", record.UserID,
		"conn_id", record.ConnectionID,
		"node_id", s.nodeID)
	return nil
}

// Refresh 续期 TTL；Key 已过期时按 record 重新写入
func (s *PresenceStore) Refresh(ctx context.Context, record connection.Record) error {
	ok, err := s.client.Expire(ctx, BuildPresenceKey(record.UserID), s.ttl).Result()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.Set(ctx, record)
}

// Delete 删除在线状态，仅当 Key 仍属于 connectionID
func (s *PresenceStore) Delete(ctx context.Context, userID, connectionID string) (bool, error) {
	n, err := deleteIfOwner.Run(ctx, s.client, []string{BuildPresenceKey(userID)}, connectionID).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get 查询在线状态，用户不在线返回 nil
func (s *PresenceStore) Get(ctx context.Context, userID string) (*model.Presence, error) {
	data, err := s.client.Get(ctx, BuildPresenceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var presence model.Presence
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}
	return &presence, nil
}

// Ping 检查 Redis 连接
func (s *PresenceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 关闭连接
func (s *PresenceStore) Close() error {
	return s.client.Close()
}
