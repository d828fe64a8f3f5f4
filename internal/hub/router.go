package hub

import (
	"encoding/json"

	"github.com/google/uuid"

	"campushub.realtime/internal/protocol"
)

// Dispatch 处理一条入站帧
// 解码在调用方 goroutine 完成，路由在 hub 循环中按入队顺序执行
func (h *Hub) Dispatch(connID string, data []byte) error {
	env, err := protocol.Decode(data)
	if err != nil {
		h.TransportError(connID, err)
		return nil
	}

	return h.do(func() {
		h.route(connID, env)
	})
}

func (h *Hub) route(connID string, env *protocol.Envelope) {
	sender, ok := h.clients[connID]
	if !ok {
		// 未接纳或已断开的连接不会触达任何处理逻辑
		h.logger.Debug("event from unknown connection", "conn_id", connID, "event", env.Event)
		return
	}

	switch env.Event {
	case protocol.EventQuestionNew:
		h.handleQuestionNew(sender, env.Data)
	case protocol.EventAnswerNew:
		h.relayToRoom(sender, env.Data, "questionId", protocol.EventAnswerPosted, true)
	case protocol.EventChatMessage:
		h.handleChatMessage(sender, env.Data)
	case protocol.EventTypingStart, protocol.EventTypingStop:
		h.relayToRoom(sender, env.Data, "questionId", env.Event, false)
	case protocol.EventQuestionLike:
		h.relayToRoom(sender, env.Data, "questionId", protocol.EventQuestionLiked, false)
	case protocol.EventConnectionRequest:
		h.handleTargeted(sender, env.Data, protocol.EventConnectionRequested, false)
	case protocol.EventMessagePrivate:
		h.handleTargeted(sender, env.Data, protocol.EventMessagePrivate, true)
	case protocol.EventRoomJoin:
		h.handleRoomJoin(sender, env.Data)
	case protocol.EventRoomLeave:
		h.handleRoomLeave(sender, env.Data)
	case protocol.EventStatusUpdate:
		h.handleStatusUpdate(sender, env.Data)
	default:
		h.logger.Debug("unknown event ignored", "conn_id", connID, "event", env.Event)
	}
}

// stamp 写入发送者身份，full 为 false 时只写 userId 和 author
func (h *Hub) stamp(sender *client, p protocol.Payload, full bool) protocol.Payload {
	p[protocol.FieldUserID] = sender.identity.UserID
	p[protocol.FieldAuthor] = sender.identity.DisplayName
	if full {
		p[protocol.FieldAuthorInitial] = protocol.Initial(sender.identity.DisplayName)
		p[protocol.FieldTimestamp] = h.timestamp()
	}
	return p
}

func (h *Hub) handleQuestionNew(sender *client, raw json.RawMessage) {
	p := h.stamp(sender, protocol.ParsePayload(raw), true)
	p[protocol.FieldScopeTag] = sender.identity.ScopeTag

	h.broadcastEvent(ScopeRoom(sender.identity.ScopeTag), sender.conn.ID(), protocol.EventQuestionPosted, p)

	trending := p.Pick("id", "title", protocol.FieldAuthor, protocol.FieldScopeTag, protocol.FieldTimestamp)
	h.broadcastEvent(RoomGlobal, sender.conn.ID(), protocol.EventQuestionTrending, trending)
}

func (h *Hub) handleChatMessage(sender *client, raw json.RawMessage) {
	p := h.stamp(sender, protocol.ParsePayload(raw), true)
	ensureMessageID(p)
	h.broadcastEvent(p.String("sessionId"), sender.conn.ID(), protocol.EventChatMessage, p)
}

// relayToRoom 转发到载荷字段 roomKey 指定的房间
func (h *Hub) relayToRoom(sender *client, raw json.RawMessage, roomKey, event string, full bool) {
	p := h.stamp(sender, protocol.ParsePayload(raw), full)
	h.broadcastEvent(p.String(roomKey), sender.conn.ID(), event, p)
}

// handleTargeted 定向投递给 targetUserId 当前连接，不在线时静默丢弃
func (h *Hub) handleTargeted(sender *client, raw json.RawMessage, event string, withMessageID bool) {
	p := h.stamp(sender, protocol.ParsePayload(raw), true)
	if withMessageID {
		ensureMessageID(p)
	}

	target := p.String("targetUserId")
	data, err := protocol.Encode(event, p)
	if err != nil {
		h.logger.Error("encode event failed", "event", event, "error", err)
		return
	}

	if !h.deliverToUser(target, data) {
		h.logger.Debug("delivery miss",
			"event", event,
			"user_id", sender.identity.UserID,
			"target_user_id", target)
	}
}

func (h *Hub) handleRoomJoin(sender *client, raw json.RawMessage) {
	room := protocol.StringOrField(raw, "room")
	if h.rooms.Join(sender.conn, room) {
		h.logger.Debug("room joined", "conn_id", sender.conn.ID(), "room", room)
	}
}

func (h *Hub) handleRoomLeave(sender *client, raw json.RawMessage) {
	room := protocol.StringOrField(raw, "room")
	if h.rooms.Leave(sender.conn.ID(), room) {
		h.logger.Debug("room left", "conn_id", sender.conn.ID(), "room", room)
	}
}

func (h *Hub) handleStatusUpdate(sender *client, raw json.RawMessage) {
	userID := sender.identity.UserID
	status := protocol.StringOrField(raw, "status")

	if h.registry.SetStatus(userID, status) {
		if record, ok := h.registry.Lookup(userID); ok {
			h.mirrorPresence(record)
		}
	}

	h.broadcastEvent(ScopeRoom(sender.identity.ScopeTag), sender.conn.ID(), protocol.EventPresenceStatus, protocol.Payload{
		protocol.FieldUserID: userID,
		protocol.FieldAuthor: sender.identity.DisplayName,
		"status":             status,
	})
}

// broadcastEvent 编码后发给房间内除 except 外的所有成员
func (h *Hub) broadcastEvent(room, except, event string, payload protocol.Payload) int {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		h.logger.Error("encode event failed", "event", event, "error", err)
		return 0
	}
	return h.broadcast(room, except, data)
}

func (h *Hub) broadcast(room, except string, data []byte) int {
	n := 0
	for _, conn := range h.rooms.Members(room) {
		if conn.ID() == except {
			continue
		}
		if h.send(conn, data) {
			n++
		}
	}
	return n
}

func (h *Hub) deliverToUser(userID string, data []byte) bool {
	record, ok := h.registry.Lookup(userID)
	if !ok {
		return false
	}
	c, ok := h.clients[record.ConnectionID]
	if !ok {
		return false
	}
	return h.send(c.conn, data)
}

// send 投递失败只记录，不影响其他接收者
func (h *Hub) send(conn Conn, data []byte) bool {
	if err := conn.Send(data); err != nil {
		h.logger.Debug("send failed", "conn_id", conn.ID(), "error", err)
		return false
	}
	return true
}

func ensureMessageID(p protocol.Payload) {
	if p.String(protocol.FieldMessageID) == "" {
		p[protocol.FieldMessageID] = uuid.NewString()
	}
}
