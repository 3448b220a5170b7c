package messaging

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
	"github.com/wyfcoding/latticepricing/pkg/contextx"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// OutboxMessage 待投递的领域事件
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	EventID   string    `gorm:"type:varchar(36);index"`
	EventType string    `gorm:"type:varchar(100);index"`
	EventKey  string    `gorm:"type:varchar(64)"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	Attempts  int       `gorm:"not null;default:0"`
	LastError string    `gorm:"type:varchar(512)"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "pricing_outbox_messages"
}

// OutboxEventPublisher 实现 domain.EventPublisher，使用 Outbox 模式
// ctx 中带有 gorm 事务时消息随业务数据一起提交。
type OutboxEventPublisher struct {
	db  *gorm.DB
	now func() time.Time
}

var _ domain.EventPublisher = (*OutboxEventPublisher)(nil)

// NewOutboxEventPublisher 创建新的 OutboxEventPublisher 实例
func NewOutboxEventPublisher(db *gorm.DB) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db, now: time.Now}
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OutboxMessage{})
}

// Publish 写入一条待投递消息
func (p *OutboxEventPublisher) Publish(ctx context.Context, eventType, key string, event any) error {
	message, err := newOutboxMessage(eventType, key, event, p.now())
	if err != nil {
		return err
	}
	return p.getDB(ctx).WithContext(ctx).Create(message).Error
}

func (p *OutboxEventPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return p.db
}

func newOutboxMessage(eventType, key string, event any, now time.Time) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		ID:        uuid.NewString(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		EventKey:  key,
		Payload:   string(payload),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// gormOutboxStore 基于 gorm 的 OutboxStore 实现
type gormOutboxStore struct {
	db *gorm.DB
}

// NewGormOutboxStore 创建 outbox 存储
func NewGormOutboxStore(db *gorm.DB) OutboxStore {
	return &gormOutboxStore{db: db}
}

func (s *gormOutboxStore) FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error) {
	var messages []OutboxMessage
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (s *gormOutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": StatusSent, "updated_at": time.Now()}).Error
}

func (s *gormOutboxStore) MarkAttempt(ctx context.Context, id string, attempts int, status, lastErr string) error {
	lastErr = truncateUTF8(lastErr, maxLastErrorLen)
	return s.db.WithContext(ctx).Model(&OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   attempts,
			"status":     status,
			"last_error": lastErr,
			"updated_at": time.Now(),
		}).Error
}

const maxLastErrorLen = 512

// truncateUTF8 截断到不超过 n 字节，且不切开多字节字符
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *gormOutboxStore) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", StatusSent, before).
		Delete(&OutboxMessage{})
	return res.RowsAffected, res.Error
}
