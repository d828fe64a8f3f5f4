package hub

import (
	"context"
	"fmt"

	"campushub.realtime/internal/connection"
	"campushub.realtime/internal/model"
	"campushub.realtime/internal/protocol"
)

// Admit 接纳已通过认证的连接，返回时注册表和房间已更新
// 必须在连接开始读之前调用
func (h *Hub) Admit(conn Conn, identity model.Identity) error {
	return h.call(func() {
		h.admit(conn, identity)
	})
}

func (h *Hub) admit(conn Conn, identity model.Identity) {
	record := connection.Record{
		ConnectionID: conn.ID(),
		UserID:       identity.UserID,
		DisplayName:  identity.DisplayName,
		ScopeTag:     identity.ScopeTag,
		ConnectedAt:  h.now(),
	}

	if prev, ok := h.registry.Lookup(identity.UserID); ok {
		h.logger.Debug("registry slot overwritten",
			"user_id", identity.UserID,
			"prev_conn_id", prev.ConnectionID,
			"conn_id", conn.ID())
	}

	h.clients[conn.ID()] = &client{conn: conn, identity: identity}
	h.registry.Register(identity.UserID, record)

	h.rooms.Join(conn, RoomGlobal)
	if identity.ScopeTag != "" {
		h.rooms.Join(conn, ScopeRoom(identity.ScopeTag))
	}

	h.broadcastEvent(ScopeRoom(identity.ScopeTag), conn.ID(), protocol.EventPresenceOnline, protocol.Payload{
		protocol.FieldUserID:    identity.UserID,
		protocol.FieldAuthor:    identity.DisplayName,
		protocol.FieldScopeTag:  identity.ScopeTag,
		protocol.FieldTimestamp: h.timestamp(),
	})

	h.touchLastSeen(identity.UserID)
	h.mirrorPresence(record)

	h.logger.Info("connection admitted",
		"conn_id", conn.ID(),
		"user_id", identity.UserID,
		"scope", identity.ScopeTag,
		"online", h.registry.Count())
}

// Disconnect 连接关闭后的清理，重复调用无副作用
func (h *Hub) Disconnect(connID string) error {
	return h.do(func() {
		h.disconnect(connID)
	})
}

func (h *Hub) disconnect(connID string) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}

	delete(h.clients, connID)
	h.rooms.LeaveAll(connID)

	userID := c.identity.UserID
	h.touchLastSeen(userID)

	// 注册表已被同一用户的新连接占用时，用户仍在线
	if !h.registry.UnregisterIf(userID, connID) {
		h.logger.Info("stale connection closed", "conn_id", connID, "user_id", userID)
		return
	}

	h.broadcastEvent(ScopeRoom(c.identity.ScopeTag), connID, protocol.EventPresenceOffline, protocol.Payload{
		protocol.FieldUserID:    userID,
		protocol.FieldAuthor:    c.identity.DisplayName,
		protocol.FieldScopeTag:  c.identity.ScopeTag,
		protocol.FieldTimestamp: h.timestamp(),
	})
	h.removePresence(userID, connID)

	h.logger.Info("connection closed",
		"conn_id", connID,
		"user_id", userID,
		"online", h.registry.Count())
}

// TransportError 传输层错误只记录，不关闭连接也不改状态
func (h *Hub) TransportError(connID string, err error) {
	h.logger.Warn("transport error", "conn_id", connID, "error", err)
}

// connection.Handler

func (h *Hub) OnMessage(c *connection.Conn, data []byte) {
	if err := h.Dispatch(c.ID(), data); err != nil {
		h.logger.Debug("dispatch rejected", "conn_id", c.ID(), "error", err)
	}
}

func (h *Hub) OnError(c *connection.Conn, err error) {
	h.TransportError(c.ID(), err)
}

func (h *Hub) OnClose(c *connection.Conn) {
	if err := h.Disconnect(c.ID()); err != nil {
		h.logger.Debug("disconnect after stop", "conn_id", c.ID(), "error", err)
	}
}

// 副作用失败由 worker pool 记录日志

func (h *Hub) touchLastSeen(userID string) {
	if h.toucher == nil {
		return
	}
	h.detach("touch_last_seen", func(ctx context.Context) error {
		if err := h.toucher.TouchLastSeen(ctx, userID); err != nil {
			return fmt.Errorf("touch last seen %s: %w", userID, err)
		}
		return nil
	})
}

func (h *Hub) mirrorPresence(record connection.Record) {
	if h.presence == nil {
		return
	}
	h.detach("presence_set", func(ctx context.Context) error {
		if err := h.presence.Set(ctx, record); err != nil {
			return fmt.Errorf("mirror presence %s: %w", record.UserID, err)
		}
		return nil
	})
}

func (h *Hub) removePresence(userID, connID string) {
	if h.presence == nil {
		return
	}
	h.detach("presence_delete", func(ctx context.Context) error {
		if _, err := h.presence.Delete(ctx, userID, connID); err != nil {
			return fmt.Errorf("delete presence %s: %w", userID, err)
		}
		return nil
	})
}
