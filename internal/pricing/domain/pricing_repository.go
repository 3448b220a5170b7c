package domain

import (
	"context"
)

// PricingRepository 定价结果仓储接口
type PricingRepository interface {
	// WithTx 在同一事务中执行 fn，事务句柄通过 ctx 传递
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
	SavePricingResult(ctx context.Context, result *PricingResult) error
	// GetLatestPricingResult 不存在时返回 (nil, nil)
	GetLatestPricingResult(ctx context.Context, symbol string) (*PricingResult, error)
	GetPricingResultHistory(ctx context.Context, symbol string, limit int) ([]*PricingResult, error)
}

// PricingResultCache 最新定价结果缓存
type PricingResultCache interface {
	SetLatest(ctx context.Context, result *PricingResult) error
	// GetLatest 未命中时返回 (nil, nil)
	GetLatest(ctx context.Context, symbol string) (*PricingResult, error)
}
