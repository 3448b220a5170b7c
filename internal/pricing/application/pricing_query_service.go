package application

import (
	"context"

	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
	"github.com/wyfcoding/latticepricing/pkg/logger"
)

const defaultHistoryLimit = 50

// PricingQueryService 处理所有定价相关的查询操作（Queries）。
type PricingQueryService struct {
	repo         domain.PricingRepository
	cache        domain.PricingResultCache
	historyLimit int
}

// NewPricingQueryService 构造函数。cache 可为 nil；historyLimit <= 0 时使用默认值。
func NewPricingQueryService(repo domain.PricingRepository, cache domain.PricingResultCache, historyLimit int) *PricingQueryService {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &PricingQueryService{
		repo:         repo,
		cache:        cache,
		historyLimit: historyLimit,
	}
}

// GetLatestResult 获取最新定价结果，先查缓存，未命中时查库并回填缓存
func (s *PricingQueryService) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	if symbol == "" {
		return nil, ErrSymbolRequired
	}

	if s.cache != nil {
		cached, err := s.cache.GetLatest(ctx, symbol)
		if err != nil {
			logger.Warn(ctx, "pricing cache read failed", "symbol", symbol, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	result, err := s.repo.GetLatestPricingResult(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrResultNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, result); err != nil {
			logger.Warn(ctx, "pricing cache backfill failed", "symbol", symbol, "error", err)
		}
	}
	return result, nil
}

// GetHistory 按计算时间倒序返回历史结果，limit 超出上限时截断
func (s *PricingQueryService) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	if symbol == "" {
		return nil, ErrSymbolRequired
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.repo.GetPricingResultHistory(ctx, symbol, limit)
}
