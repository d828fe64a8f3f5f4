package connection

import (
	"context"
	"log/slog"
	"time"
)

// PresenceRefresher 续期在线状态的外部存储
// 记录不存在时应按 record 重新写入
type PresenceRefresher interface {
	Refresh(ctx context.Context, record Record) error
}

// Refresher 定期为所有在线用户续期 presence TTL
type Refresher struct {
	snapshot func() []Record
	store    PresenceRefresher
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRefresher 创建续期器，snapshot 返回当前注册表快照
func NewRefresher(snapshot func() []Record, store PresenceRefresher, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Refresher{
		snapshot: snapshot,
		store:    store,
		interval: interval,
		timeout:  interval / 2,
		logger:   logger.With("component", "presence_refresher"),
	}
}

// Start 启动续期循环（阻塞，应在 goroutine 中调用）
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("presence refresher started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("presence refresher stopped")
			return
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

// refreshAll 续期一轮，单个失败只记录
func (r *Refresher) refreshAll(ctx context.Context) int {
	records := r.snapshot()
	if len(records) == 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	failed := 0
	for _, record := range records {
		if err := r.store.Refresh(ctx, record); err != nil {
			failed++
			r.logger.Debug("presence refresh failed",
				"user_id", record.UserID,
				"error", err)
		}
	}

	if failed > 0 {
		r.logger.Warn("presence refresh completed with failures",
			"total", len(records),
			"failed", failed)
	}
	return len(records) - failed
}
