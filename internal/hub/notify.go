package hub

import (
	"encoding/json"
	"errors"
	"fmt"

	appErrors "campushub.realtime/internal/errors"
)

// 通知目标类型
const (
	KindUser  = "user"
	KindScope = "scope"
	KindRoom  = "room"
	KindAll   = "all"
)

var ErrInvalidNotification = errors.New("invalid notification")

// Notification CRUD 层写入成功后推送给在线客户端的通知
// NATS 通知桥和 REST /notify 共用同一格式
type Notification struct {
	Kind   string          `json:"kind"`
	Target string          `json:"target,omitempty"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Validate 校验通知格式
func (n Notification) Validate() error {
	if n.Event == "" {
		return fmt.Errorf("%w: event is required", ErrInvalidNotification)
	}
	switch n.Kind {
	case KindUser, KindScope, KindRoom:
		if n.Target == "" {
			return fmt.Errorf("%w: target is required for kind %s", ErrInvalidNotification, n.Kind)
		}
	case KindAll:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidNotification, n.Kind)
	}
	return nil
}

// Notify 按通知类型分发，返回投递数；目标用户不在线不算错误
func (h *Hub) Notify(n Notification) (int, error) {
	if err := n.Validate(); err != nil {
		return 0, err
	}

	var payload any
	if len(n.Data) > 0 {
		payload = n.Data
	}

	switch n.Kind {
	case KindUser:
		err := h.SendToUser(n.Target, n.Event, payload)
		if appErrors.Is(err, appErrors.ErrNotConnected) {
			h.logger.Debug("delivery miss", "event", n.Event, "target_user_id", n.Target)
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return 1, nil
	case KindScope:
		return h.SendToScope(n.Target, n.Event, payload)
	case KindRoom:
		return h.SendToRoom(n.Target, n.Event, payload)
	default:
		return h.BroadcastAll(n.Event, payload)
	}
}
