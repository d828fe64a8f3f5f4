package nats

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"campushub.realtime/internal/hub"
)

// Notifier 通知投递方，由 hub 实现
type Notifier interface {
	Notify(n hub.Notification) (int, error)
}

// NotifySubscriber 下行通知桥：CRUD 层发布，网关投递给在线连接
type NotifySubscriber struct {
	client   *Client
	notifier Notifier
	subject  string
	sub      *nats.Subscription
	logger   *slog.Logger
}

// NewNotifySubscriber 创建通知订阅者，subject 为空时使用 SubjectNotify
func NewNotifySubscriber(client *Client, notifier Notifier, subject string, logger *slog.Logger) *NotifySubscriber {
	if subject == "" {
		subject = SubjectNotify
	}
	return &NotifySubscriber{
		client:   client,
		notifier: notifier,
		subject:  subject,
		logger:   logger.With("component", "notify_subscriber"),
	}
}

// Start 开始订阅
func (s *NotifySubscriber) Start() error {
	sub, err := s.client.Subscribe(s.subject, s.HandleNotify)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Info("notify subscriber started", "subject", s.subject)
	return nil
}

// Stop 取消订阅
func (s *NotifySubscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

// HandleNotify 处理一条通知，错误只记录
func (s *NotifySubscriber) HandleNotify(data []byte) {
	var n hub.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		s.logger.Error("Failed to unmarshal notification", "error", err)
		return
	}

	delivered, err := s.notifier.Notify(n)
	if err != nil {
		s.logger.Warn("notification not delivered",
			"kind", n.Kind,
			"target", n.Target,
			"event", n.Event,
			"error", err)
		return
	}

	s.logger.Debug("notification delivered",
		"kind", n.Kind,
		"target", n.Target,
		"event", n.Event,
		"delivered", delivered)
}
