package model

import "time"

// Identity 握手时从身份存储解析出的用户身份，连接存续期间不再校验
type Identity struct {
	UserID      string `json:"userId"`      // 用户ID
	DisplayName string `json:"displayName"` // 显示名
	ScopeTag    string `json:"scopeTag"`    // 所属学校/组织
}

// Presence 在线状态镜像（写入 Redis，供 CRUD 层查询谁在线）
type Presence struct {
	UserID       string    `json:"userId"`
	NodeID       int64     `json:"nodeId"`
	ConnectionID string    `json:"connectionId"`
	ScopeTag     string    `json:"scopeTag"`
	Status       string    `json:"status,omitempty"`
	ConnectedAt  time.Time `json:"connectedAt"`
}
