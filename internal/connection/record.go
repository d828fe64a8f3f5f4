package connection

import "time"

// Record 一条在线连接的元数据
// UserID、DisplayName、ScopeTag 在握手时确定，连接存活期内不再校验
type Record struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	ScopeTag     string    `json:"scopeTag"`
	ConnectedAt  time.Time `json:"connectedAt"`
	Status       string    `json:"status,omitempty"`
}
