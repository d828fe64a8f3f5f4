package hub

import (
	"fmt"

	"campushub.realtime/internal/connection"
	appErrors "campushub.realtime/internal/errors"
	"campushub.realtime/internal/protocol"
)

// 以下方法供 REST 层和 NATS 通知桥调用，可在任意 goroutine 上使用
// 服务端发起的投递不排除任何连接

// SendToUser 向用户当前连接投递事件，用户不在线返回 ErrNotConnected
func (h *Hub) SendToUser(userID, event string, payload any) error {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		return appErrors.ErrInvalidParams.Wrap(err)
	}

	delivered := false
	if err := h.call(func() {
		delivered = h.deliverToUser(userID, data)
	}); err != nil {
		return err
	}
	if !delivered {
		return appErrors.ErrNotConnected
	}
	return nil
}

// SendToScope 向组织房间广播，返回投递数
func (h *Hub) SendToScope(scopeTag, event string, payload any) (int, error) {
	return h.sendToRoom(ScopeRoom(scopeTag), event, payload)
}

// SendToRoom 向任意房间广播，返回投递数
func (h *Hub) SendToRoom(room, event string, payload any) (int, error) {
	return h.sendToRoom(room, event, payload)
}

func (h *Hub) sendToRoom(room, event string, payload any) (int, error) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		return 0, appErrors.ErrInvalidParams.Wrap(err)
	}

	var n int
	if err := h.call(func() {
		n = h.broadcast(room, "", data)
	}); err != nil {
		return 0, err
	}
	return n, nil
}

// BroadcastAll 向所有已接纳连接广播，返回投递数
// 不依赖 global 房间，离开 global 的连接同样收到
func (h *Hub) BroadcastAll(event string, payload any) (int, error) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		return 0, appErrors.ErrInvalidParams.Wrap(err)
	}

	var n int
	if err := h.call(func() {
		for _, c := range h.clients {
			if h.send(c.conn, data) {
				n++
			}
		}
	}); err != nil {
		return 0, err
	}
	return n, nil
}

// ListConnections 注册表快照
func (h *Hub) ListConnections() []connection.Record {
	var records []connection.Record
	if err := h.call(func() {
		records = h.registry.All()
	}); err != nil {
		return nil
	}
	return records
}

// ConnectionCount 在线用户数
func (h *Hub) ConnectionCount() int {
	var n int
	if err := h.call(func() {
		n = h.registry.Count()
	}); err != nil {
		return 0
	}
	return n
}

// Count 实现 health.ConnectionCounter
func (h *Hub) Count() int {
	return h.ConnectionCount()
}

// Lookup 查询用户当前连接
func (h *Hub) Lookup(userID string) (connection.Record, bool) {
	var (
		record connection.Record
		ok     bool
	)
	if err := h.call(func() {
		record, ok = h.registry.Lookup(userID)
	}); err != nil {
		return connection.Record{}, false
	}
	return record, ok
}

// RoomsOf 连接已加入的房间
func (h *Hub) RoomsOf(connID string) ([]string, error) {
	var rooms []string
	if err := h.call(func() {
		rooms = h.rooms.RoomsOf(connID)
	}); err != nil {
		return nil, err
	}
	return rooms, nil
}

// RoomSize 房间成员数
func (h *Hub) RoomSize(room string) (int, error) {
	var n int
	if err := h.call(func() {
		n = h.rooms.Size(room)
	}); err != nil {
		return 0, fmt.Errorf("room size %s: %w", room, err)
	}
	return n, nil
}
