package domain

import "context"

// EventPublisher 事件发布者接口
// ctx 中携带事务时，实现应与业务数据在同一事务中落库（Outbox）。
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, event any) error
}
