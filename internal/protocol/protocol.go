package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrEmptyEvent = errors.New("event name is empty")

// 入站事件
const (
	EventQuestionNew       = "question:new"
	EventAnswerNew         = "answer:new"
	EventChatMessage       = "chat:message"
	EventTypingStart       = "typing:start"
	EventTypingStop        = "typing:stop"
	EventQuestionLike      = "question:like"
	EventConnectionRequest = "connection:request"
	EventMessagePrivate    = "message:private"
	EventRoomJoin          = "room:join"
	EventRoomLeave         = "room:leave"
	EventStatusUpdate      = "status:update"
)

// 出站事件
const (
	EventQuestionPosted      = "question:posted"
	EventQuestionTrending    = "question:trending"
	EventAnswerPosted        = "answer:posted"
	EventQuestionLiked       = "question:liked"
	EventConnectionRequested = "connection:requested"
	EventPresenceOnline      = "presence:online"
	EventPresenceOffline     = "presence:offline"
	EventPresenceStatus      = "presence:status"
)

// 发送者身份字段
const (
	FieldUserID        = "userId"
	FieldAuthor        = "author"
	FieldAuthorInitial = "authorInitial"
	FieldScopeTag      = "scopeTag"
	FieldTimestamp     = "timestamp"
	FieldMessageID     = "messageId"
)

// Envelope 线上帧 {"event": name, "data": payload}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode 解析入站帧
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return nil, ErrEmptyEvent
	}
	return &env, nil
}

// Encode 编码出站帧
func Encode(event string, data any) ([]byte, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Payload 开放的事件载荷，未知字段原样透传
type Payload map[string]any

// ParsePayload 解析对象载荷；非对象或缺失时返回空载荷
// 数字保留原始文本，转发时不丢精度
func ParsePayload(raw json.RawMessage) Payload {
	p := Payload{}
	if len(raw) == 0 {
		return p
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return p
	}
	return Payload(obj)
}

// String 读取字段的字符串形式，缺失返回空串
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Clone 浅拷贝
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Pick 只保留指定字段
func (p Payload) Pick(keys ...string) Payload {
	out := make(Payload, len(keys))
	for _, k := range keys {
		if v, ok := p[k]; ok {
			out[k] = v
		}
	}
	return out
}

// StringOrField 载荷可以是 "value" 或 {"<key>": "value"}
func StringOrField(raw json.RawMessage, key string) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ParsePayload(raw).String(key)
}

// Initial 显示名首字母（大写）
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
