package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	StatusConnected     = "connected"
	StatusDisconnected  = "disconnected"
	StatusNotConfigured = "not configured"
)

// Status 健康状态
type Status struct {
	Service     string `json:"service"`
	NATS        string `json:"nats"`
	Redis       string `json:"redis"`
	Postgres    string `json:"postgres"`
	Connections int    `json:"connections"`
}

// ConnectionCounter 连接计数器接口
type ConnectionCounter interface {
	Count() int
}

// Pinger Redis / PostgreSQL 连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// NATSConn *nats.Conn 的连接状态
type NATSConn interface {
	IsConnected() bool
}

// Checker 健康检查器
type Checker struct {
	nc          NATSConn
	redis       Pinger
	postgres    Pinger
	connCounter ConnectionCounter
	timeout     time.Duration
}

// NewChecker 创建健康检查器，依赖为 nil 时视为未配置
func NewChecker(nc NATSConn, redis, postgres Pinger, connCounter ConnectionCounter) *Checker {
	return &Checker{
		nc:          nc,
		redis:       redis,
		postgres:    postgres,
		connCounter: connCounter,
		timeout:     2 * time.Second,
	}
}

func (h *Checker) ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return StatusNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return StatusDisconnected
	}
	return StatusConnected
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Service: "realtime",
	}

	// 检查 NATS
	switch {
	case h.nc == nil:
		status.NATS = StatusNotConfigured
	case h.nc.IsConnected():
		status.NATS = StatusConnected
	default:
		status.NATS = StatusDisconnected
	}

	status.Redis = h.ping(ctx, h.redis)
	status.Postgres = h.ping(ctx, h.postgres)

	// 连接数
	if h.connCounter != nil {
		status.Connections = h.connCounter.Count()
	}

	return status
}

// IsReady 握手依赖身份存储，PostgreSQL 不可用时不接收新连接
// Redis 和 NATS 只影响在线镜像和下行通知
func (h *Checker) IsReady(status *Status) bool {
	return status.Postgres != StatusDisconnected
}

// ServeHTTP HTTP 健康检查端点，总是返回 200
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())
	writeJSON(w, http.StatusOK, status)
}

// ServeReady 就绪检查端点
func (h *Checker) ServeReady(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	code := http.StatusOK
	if !h.IsReady(status) {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
