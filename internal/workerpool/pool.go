package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task 后台任务，ctx 带有单任务超时
type Task func(ctx context.Context) error

type job struct {
	name string
	task Task
}

// Pool Worker Pool 实现
// 用于最后在线时间、在线状态镜像这类不阻塞调用方的副作用，
// 任务失败只写日志，不回传给提交者
type Pool struct {
	workers     int
	taskTimeout time.Duration
	taskQueue   chan job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
	mu          sync.RWMutex
	closed      bool
	logger      *slog.Logger
}

// New 创建一个新的 Worker Pool
// workers: worker 数量
// queueSize: 任务队列大小
// taskTimeout: 单个任务的超时时间，<=0 时使用 5s
func New(workers, queueSize int, taskTimeout time.Duration, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	if taskTimeout <= 0 {
		taskTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		workers:     workers,
		taskTimeout: taskTimeout,
		taskQueue:   make(chan job, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.With("component", "workerpool"),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	pool.logger.Info("Worker pool started",
		"workers", workers,
		"queue_size", queueSize)

	return pool
}

// worker 工作协程，队列关闭后把剩余任务执行完再退出
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for j := range p.taskQueue {
		p.run(id, j)
	}
}

func (p *Pool) run(id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panic recovered",
				"worker_id", id,
				"task", j.name,
				"panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(p.ctx, p.taskTimeout)
	defer cancel()

	if err := j.task(ctx); err != nil {
		p.logger.Warn("Task failed",
			"worker_id", id,
			"task", j.name,
			"error", err)
	}
}

// Go 提交一个分离任务，不返回结果句柄
// 队列满或已关闭时丢弃任务并记录日志，返回是否已入队
func (p *Pool) Go(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Debug("Task dropped, pool closed", "task", name)
		return false
	}

	select {
	case p.taskQueue <- job{name: name, task: task}:
		return true
	default:
		p.logger.Warn("Task dropped, queue full", "task", name)
		return false
	}
}

// Shutdown 优雅关闭 Worker Pool
// 停止接收新任务，等待已入队任务完成；ctx 到期时取消仍在执行的任务
func (p *Pool) Shutdown(ctx context.Context) {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.taskQueue)
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			p.cancel()
			<-done
		}
		p.cancel()
		p.logger.Info("Worker pool shutdown completed")
	})
}
