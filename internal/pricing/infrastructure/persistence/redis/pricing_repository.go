package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

const (
	defaultResultTTL = 15 * time.Minute
	maxWatchRetries  = 3
)

// PricingRedisRepository 最新定价结果缓存
type PricingRedisRepository struct {
	client       redis.UniversalClient
	resultPrefix string
	ttl          time.Duration
}

var _ domain.PricingResultCache = (*PricingRedisRepository)(nil)

// NewPricingRedisRepository ttl <= 0 时使用默认 15 分钟
func NewPricingRedisRepository(client redis.UniversalClient, ttl time.Duration) *PricingRedisRepository {
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &PricingRedisRepository{
		client:       client,
		resultPrefix: "pricing_result:",
		ttl:          ttl,
	}
}

func (r *PricingRedisRepository) SetLatest(ctx context.Context, result *domain.PricingResult) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	key := r.resultKey(result.Symbol)
	// WATCH 乐观锁：并发写同一 symbol 时只保留更新的结果
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var existing domain.PricingResult
			if json.Unmarshal(cur, &existing) == nil && newerThan(&existing, result) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}
	for i := 0; i < maxWatchRetries; i++ {
		err = r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// newerThan a 是否晚于 b：先比计算时间，同一毫秒内比主键
func newerThan(a, b *domain.PricingResult) bool {
	if a.CalculatedAt != b.CalculatedAt {
		return a.CalculatedAt > b.CalculatedAt
	}
	return a.ID > b.ID
}

func (r *PricingRedisRepository) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if symbol == "" {
		return nil, nil
	}
	data, err := r.client.Get(ctx, r.resultKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result domain.PricingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *PricingRedisRepository) resultKey(symbol string) string {
	return fmt.Sprintf("%s%s", r.resultPrefix, symbol)
}
