package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/jackc/pgx/v5/pgxpool"

	"campushub.realtime/internal/auth"
	"campushub.realtime/internal/config"
	"campushub.realtime/internal/connection"
	"campushub.realtime/internal/health"
	"campushub.realtime/internal/hub"
	imNats "campushub.realtime/internal/nats"
	imRedis "campushub.realtime/internal/redis"
	"campushub.realtime/internal/repository"
	"campushub.realtime/internal/server"
	"campushub.realtime/internal/snowflake"
	"campushub.realtime/internal/workerpool"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 初始化 Redis 客户端
	presence := imRedis.NewPresenceStore(imRedis.NewClient(cfg.Redis), cfg.Server.NodeID, cfg.Redis.PresenceTTL, logger)
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())

	// 初始化 NATS 客户端
	natsClient, err := imNats.NewClient(cfg.NATS, logger)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 后台副作用
	pool := workerpool.New(cfg.Workers.Count, cfg.Workers.QueueSize, cfg.Workers.TaskTimeout, logger)

	users := repository.NewUserRepository(db)
	tokens := auth.NewTokenService(cfg.JWT.SecretKey, cfg.JWT.AccessExpire)

	h := hub.New(hub.Options{
		Logger:    logger,
		Scheduler: pool,
		Toucher:   users,
		Presence:  presence,
	})
	hubCtx, stopHub := context.WithCancel(ctx)
	go h.Run(hubCtx)

	// 在线状态续期
	refresher := connection.NewRefresher(h.ListConnections, presence, cfg.Redis.RefreshInterval, logger)
	go refresher.Start(hubCtx)

	// 下行通知桥
	subscriber := imNats.NewNotifySubscriber(natsClient, h, cfg.NATS.NotifySubject, logger)
	if err := subscriber.Start(); err != nil {
		logger.Error("Failed to start notify subscriber", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, server.Deps{
		Gate:   auth.NewGate(tokens, users, cfg.Server.HandshakeTimeout, logger),
		Tokens: tokens,
		Hub:    h,
		Health: health.NewChecker(natsClient.Conn(), presence, db, h),
		IDs:    snowflake.NewNode(cfg.Server.NodeID),
		Logger: logger,
	})
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Realtime server started",
		"addr", cfg.Server.Addr,
		"node_id", cfg.Server.NodeID)

	// 优雅关闭：HTTP 停止接收新握手，同时按顺序停止实时层
	wait := gfshutdown.GracefulShutdown(
		ctx,
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
			"realtime": func(ctx context.Context) error {
				if err := subscriber.Stop(); err != nil {
					logger.Warn("Failed to stop notify subscriber", "error", err)
				}
				stopHub()
				h.Wait()
				pool.Shutdown(ctx)

				natsClient.Close()
				if err := presence.Close(); err != nil {
					logger.Warn("Failed to close Redis", "error", err)
				}
				db.Close()
				return nil
			},
		},
	)

	exitCode := <-wait
	logger.Info("Realtime server stopped", "exit_code", exitCode)
	os.Exit(exitCode)
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
