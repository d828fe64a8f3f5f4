package redis

const (
	// PresenceKeyPrefix 在线状态 Key 前缀
	PresenceKeyPrefix = "im:presence:"
)

// BuildPresenceKey 构建在线状态 Key
// Key: im:presence:{userId}
func BuildPresenceKey(userID string) string {
	return PresenceKeyPrefix + userID
}
