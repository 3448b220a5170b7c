package messaging

import (
	"context"
	"time"

	"github.com/wyfcoding/latticepricing/pkg/logger"
)

// OutboxStore outbox 表的读写
type OutboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id string) error
	MarkAttempt(ctx context.Context, id string, attempts int, status, lastErr string) error
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
}

// MessageSender 消息投递，pkg/mq.KafkaProducer 实现该接口
type MessageSender interface {
	SendRaw(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}

// RelayObserver 投递结果回调，用于指标
type RelayObserver interface {
	ObserveOutbox(status string)
}

// RelayConfig 投递参数
type RelayConfig struct {
	Topic       string
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
	Retention   time.Duration
}

// OutboxRelay 周期性地把 pending 消息投递到 Kafka
type OutboxRelay struct {
	store    OutboxStore
	sender   MessageSender
	observer RelayObserver
	cfg      RelayConfig
}

// NewOutboxRelay observer 可为 nil
func NewOutboxRelay(store OutboxStore, sender MessageSender, observer RelayObserver, cfg RelayConfig) *OutboxRelay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	return &OutboxRelay{store: store, sender: sender, observer: observer, cfg: cfg}
}

// Run 阻塞直到 ctx 取消
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	logger.Info(ctx, "outbox relay started", "topic", r.cfg.Topic, "interval", r.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.ProcessOnce(ctx); err != nil {
				logger.Error(ctx, "outbox relay batch failed", "error", err)
			}
		case <-cleanup.C:
			n, err := r.store.DeleteSentBefore(ctx, time.Now().Add(-r.cfg.Retention))
			if err != nil {
				logger.Warn(ctx, "outbox cleanup failed", "error", err)
			} else if n > 0 {
				logger.Info(ctx, "outbox cleanup", "deleted", n)
			}
		}
	}
}

// ProcessOnce 投递一批消息，返回成功条数
// 单条失败只累加重试次数，超过上限后标记为 failed。
func (r *OutboxRelay) ProcessOnce(ctx context.Context) (int, error) {
	messages, err := r.store.FetchPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, msg := range messages {
		headers := map[string]string{
			"event_id":   msg.EventID,
			"event_type": msg.EventType,
		}
		if err := r.sender.SendRaw(ctx, r.cfg.Topic, msg.EventKey, []byte(msg.Payload), headers); err != nil {
			attempts := msg.Attempts + 1
			status := StatusPending
			if attempts >= r.cfg.MaxAttempts {
				status = StatusFailed
			}
			if markErr := r.store.MarkAttempt(ctx, msg.ID, attempts, status, err.Error()); markErr != nil {
				return sent, markErr
			}
			r.observe(status)
			logger.Warn(ctx, "outbox message delivery failed", "id", msg.ID, "attempts", attempts, "error", err)
			continue
		}
		if err := r.store.MarkSent(ctx, msg.ID); err != nil {
			return sent, err
		}
		r.observe(StatusSent)
		sent++
	}
	return sent, nil
}

func (r *OutboxRelay) observe(status string) {
	if r.observer != nil {
		r.observer.ObserveOutbox(status)
	}
}
