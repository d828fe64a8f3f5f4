package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campushub.realtime/internal/auth"
	"campushub.realtime/internal/config"
	"campushub.realtime/internal/connection"
	"campushub.realtime/internal/health"
	"campushub.realtime/internal/hub"
	"campushub.realtime/internal/snowflake"
)

// Deps 服务依赖
type Deps struct {
	Gate   *auth.Gate
	Tokens *auth.TokenService
	Hub    *hub.Hub
	Health *health.Checker
	IDs    *snowflake.Node
	Logger *slog.Logger
}

type Server struct {
	cfg        *config.Config
	gate       *auth.Gate
	tokens     *auth.TokenService
	hub        *hub.Hub
	health     *health.Checker
	ids        *snowflake.Node
	upgrader   websocket.Upgrader
	connOpts   connection.Options
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
}

func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:    cfg,
		gate:   deps.Gate,
		tokens: deps.Tokens,
		hub:    deps.Hub,
		health: deps.Health,
		ids:    deps.IDs,
		connOpts: connection.Options{
			WriteWait:      cfg.Server.WriteWait,
			PongWait:       cfg.Server.PongWait,
			MaxMessageSize: cfg.Server.MaxMessageSize,
			SendBuffer:     cfg.Server.SendBuffer,
		},
		logger: deps.Logger.With("component", "server"),
	}

	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// 非浏览器客户端不带 Origin
			return origin == "" || originAllowed(cfg.Server.AllowedOrigins, origin)
		},
	}

	s.engine = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: cfg.Server.HandshakeTimeout,
	}
	return s
}

// setupRouter 设置路由
func (s *Server) setupRouter() *gin.Engine {
	if s.cfg.Server.Mode != "" {
		gin.SetMode(s.cfg.Server.Mode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))
	r.Use(CORS(s.cfg.Server.AllowedOrigins))

	r.GET("/health", gin.WrapH(s.health))
	r.GET("/ready", gin.WrapF(s.health.ServeReady))

	// 实时连接入口
	r.GET("/ws", s.handleWebSocket)

	// 供 CRUD 层调用的接口
	v1 := r.Group("/api/v1/realtime")
	v1.Use(JWTAuth(s.tokens))
	{
		v1.GET("/connections", s.listConnections)
		v1.GET("/connections/count", s.connectionCount)
		v1.GET("/connections/:userId", s.getConnection)
		v1.POST("/notify", s.notify)
	}

	return r
}

// Handler HTTP 处理器（测试使用）
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	s.logger.Info("realtime server starting", "addr", s.cfg.Server.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收新请求；已升级的 websocket 连接由 hub 关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
