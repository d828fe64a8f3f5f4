package hub

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campushub.realtime/internal/connection"
	"campushub.realtime/internal/model"
	"campushub.realtime/internal/workerpool"
)

var ErrHubStopped = errors.New("hub stopped")

// Conn hub 视角的连接
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// LastSeenToucher 更新最后在线时间
type LastSeenToucher interface {
	TouchLastSeen(ctx context.Context, userID string) error
}

// PresenceMirror 在线状态的外部镜像
type PresenceMirror interface {
	Set(ctx context.Context, record connection.Record) error
	Delete(ctx context.Context, userID, connectionID string) (bool, error)
}

// Scheduler 执行与调用方解耦的后台任务
type Scheduler interface {
	Go(name string, task workerpool.Task) bool
}

// Options hub 依赖
type Options struct {
	Logger    *slog.Logger
	Scheduler Scheduler
	Toucher   LastSeenToucher // 可选
	Presence  PresenceMirror  // 可选
	QueueSize int
	Now       func() time.Time
}

// client 已接纳的连接
type client struct {
	conn     Conn
	identity model.Identity
}

// Hub 实时层的唯一控制线程
// 注册表、房间和连接表只在 Run 所在的 goroutine 上读写，外部调用通过 tasks 投递
type Hub struct {
	registry *connection.Registry
	rooms    *Rooms
	clients  map[string]*client // connID -> client

	tasks chan func()
	done  chan struct{}

	scheduler Scheduler
	toucher   LastSeenToucher
	presence  PresenceMirror
	now       func() time.Time
	logger    *slog.Logger
}

// New 创建 hub，需调用 Run 启动
func New(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 4096
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Hub{
		registry:  connection.NewRegistry(),
		rooms:     NewRooms(),
		clients:   make(map[string]*client),
		tasks:     make(chan func(), opts.QueueSize),
		done:      make(chan struct{}),
		scheduler: opts.Scheduler,
		toucher:   opts.Toucher,
		presence:  opts.Presence,
		now:       opts.Now,
		logger:    opts.Logger.With("component", "hub"),
	}
}

// Run 事件循环，ctx 取消后关闭所有连接并清空状态
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			close(h.done)
			h.logger.Info("hub stopped")
			return
		case task := <-h.tasks:
			task()
		}
	}
}

// Wait 阻塞直到 hub 停止
func (h *Hub) Wait() {
	<-h.done
}

// Done hub 停止后可读
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) shutdown() {
	for _, c := range h.clients {
		if err := c.conn.Close(); err != nil {
			h.logger.Debug("close connection failed", "conn_id", c.conn.ID(), "error", err)
		}
	}
	h.logger.Info("all connections closed", "count", len(h.clients))

	h.clients = make(map[string]*client)
	h.registry = connection.NewRegistry()
	h.rooms.Reset()
}

// do 投递任务，不等待执行
func (h *Hub) do(fn func()) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.tasks <- fn:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// call 投递任务并等待执行完成
func (h *Hub) call(fn func()) error {
	finished := make(chan struct{})
	if err := h.do(func() {
		fn()
		close(finished)
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-h.done:
		// 停止前可能刚好执行完
		select {
		case <-finished:
			return nil
		default:
			return ErrHubStopped
		}
	}
}

// detach 后台执行副作用，失败只记录日志
func (h *Hub) detach(name string, task workerpool.Task) {
	if h.scheduler == nil {
		return
	}
	if !h.scheduler.Go(name, task) {
		h.logger.Warn("side effect dropped", "task", name)
	}
}

func (h *Hub) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}
