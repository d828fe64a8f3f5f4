package connection

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrUnsupportedFrame = errors.New("unsupported frame type")
)

// Handler 连接事件回调，由 hub 实现
// OnMessage 按接收顺序串行调用；OnClose 只调用一次
type Handler interface {
	OnMessage(c *Conn, data []byte)
	OnError(c *Conn, err error)
	OnClose(c *Conn)
}

// Options 传输参数
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (o Options) withDefaults() Options {
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 * 1024
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	return o
}

// Conn 一个已通过认证的 websocket 连接
type Conn struct {
	id        string
	ws        *websocket.Conn
	opts      Options
	logger    *slog.Logger
	send      chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewConn 包装已升级的 websocket 连接
func NewConn(id string, ws *websocket.Conn, opts Options, logger *slog.Logger) *Conn {
	opts = opts.withDefaults()
	return &Conn{
		id:        id,
		ws:        ws,
		opts:      opts,
		logger:    logger.With("conn_id", id),
		send:      make(chan []byte, opts.SendBuffer),
		closeChan: make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Start 启动读写循环
func (c *Conn) Start(h Handler) {
	go c.writePump(h)
	go c.readPump(h)
}

// Send 非阻塞入队；缓冲区满时丢弃并返回 ErrSendBufferFull
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Close 关闭连接，可重复调用
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeChan)
		// 尽力通知对端，失败不影响关闭
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.opts.WriteWait))
		err = c.ws.Close()
	})
	return err
}

// Done 连接关闭后可读
func (c *Conn) Done() <-chan struct{} {
	return c.closeChan
}

func (c *Conn) readPump(h Handler) {
	defer func() {
		c.Close()
		h.OnClose(c)
	}()

	c.ws.SetReadLimit(c.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.OnError(c, err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			h.OnError(c, ErrUnsupportedFrame)
			continue
		}

		h.OnMessage(c, data)
	}
}

func (c *Conn) writePump(h Handler) {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				h.OnError(c, err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		case <-c.closeChan:
			return
		}
	}
}
