package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
	"github.com/wyfcoding/latticepricing/pkg/logger"
)

const defaultBatchConcurrency = 4

// MetricsRecorder 定价指标记录
type MetricsRecorder interface {
	ObservePricing(optionType, exerciseStyle string, elapsed time.Duration, errorCode string)
	ObserveBatch(total, failures int)
}

// CommandOption PricingCommandService 可选项
type CommandOption func(*PricingCommandService)

// WithMetricsRecorder 设置指标记录器
func WithMetricsRecorder(r MetricsRecorder) CommandOption {
	return func(s *PricingCommandService) { s.recorder = r }
}

// WithBatchConcurrency 设置批量定价并发度
func WithBatchConcurrency(n int) CommandOption {
	return func(s *PricingCommandService) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) CommandOption {
	return func(s *PricingCommandService) { s.now = now }
}

// PricingCommandService 处理定价相关的命令操作
// 结果与 OptionPriced 事件在同一事务中写入（Outbox），缓存刷新失败不影响结果。
type PricingCommandService struct {
	pricer           *domain.BinomialPricer
	repo             domain.PricingRepository
	cache            domain.PricingResultCache
	publisher        domain.EventPublisher
	recorder         MetricsRecorder
	batchConcurrency int
	now              func() time.Time
}

// NewPricingCommandService 创建新的 PricingCommandService 实例，cache 与 publisher 可为 nil
func NewPricingCommandService(pricer *domain.BinomialPricer, repo domain.PricingRepository, cache domain.PricingResultCache, publisher domain.EventPublisher, opts ...CommandOption) *PricingCommandService {
	s := &PricingCommandService{
		pricer:           pricer,
		repo:             repo,
		cache:            cache,
		publisher:        publisher,
		batchConcurrency: defaultBatchConcurrency,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PriceOption 期权定价
func (c *PricingCommandService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*PriceOptionResult, error) {
	start := time.Now()
	res, err := c.priceOption(ctx, cmd)
	if c.recorder != nil {
		c.recorder.ObservePricing(cmd.OptionType, cmd.ExerciseStyle, time.Since(start), ErrorCode(err))
	}
	return res, err
}

func (c *PricingCommandService) priceOption(ctx context.Context, cmd PriceOptionCommand) (*PriceOptionResult, error) {
	if cmd.Symbol == "" {
		return nil, ErrSymbolRequired
	}

	spec, market, err := cmd.toDomain()
	if err != nil {
		c.publishError(ctx, cmd, err)
		return nil, err
	}
	valuation, err := c.pricer.Price(spec, market)
	if err != nil {
		c.publishError(ctx, cmd, err)
		return nil, err
	}

	now := c.now()
	result := domain.NewPricingResult(cmd.Symbol, spec, market, valuation, now)

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.SavePricingResult(txCtx, result); err != nil {
			return err
		}
		if c.publisher == nil {
			return nil
		}
		return c.publisher.Publish(txCtx, domain.OptionPricedEventType, cmd.Symbol, newOptionPricedEvent(result, valuation, now))
	})
	if err != nil {
		logger.Error(ctx, "failed to persist pricing result", "symbol", cmd.Symbol, "error", err)
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetLatest(ctx, result); err != nil {
			logger.Warn(ctx, "failed to cache pricing result", "symbol", cmd.Symbol, "error", err)
		}
	}

	logger.Info(ctx, "option priced",
		"symbol", cmd.Symbol,
		"option_type", spec.Kind,
		"exercise_style", spec.Style,
		"steps", market.Steps,
		"barrier", spec.IsBarrier(),
		"price", valuation.Price,
	)
	return &PriceOptionResult{Result: result, Valuation: valuation}, nil
}

// BatchPriceOptions 批量定价
// 各合约并发定价，单个失败只记录在 Errors 中，不中断整个批次。
func (c *PricingCommandService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	if cmd.BatchID == "" {
		cmd.BatchID = uuid.NewString()
	}

	n := len(cmd.Contracts)
	results := make([]*domain.PricingResult, n)
	itemErrs := make([]error, n)
	durations := make([]time.Duration, n)

	var g errgroup.Group
	g.SetLimit(c.batchConcurrency)
	for i := range cmd.Contracts {
		i := i
		g.Go(func() error {
			start := time.Now()
			res, err := c.PriceOption(ctx, cmd.Contracts[i])
			durations[i] = time.Since(start)
			if err != nil {
				itemErrs[i] = err
				return nil
			}
			results[i] = res.Result
			return nil
		})
	}
	_ = g.Wait()

	out := &BatchPricingResult{BatchID: cmd.BatchID, Results: results}
	var total time.Duration
	for i, err := range itemErrs {
		total += durations[i]
		if err == nil {
			out.SuccessCount++
			continue
		}
		out.FailureCount++
		out.Errors = append(out.Errors, BatchItemError{
			Index:     i,
			Symbol:    cmd.Contracts[i].Symbol,
			Error:     err.Error(),
			ErrorCode: ErrorCode(err),
		})
	}
	if n > 0 {
		out.AverageTime = total.Seconds() / float64(n)
	}

	if c.recorder != nil {
		c.recorder.ObserveBatch(n, out.FailureCount)
	}
	if c.publisher != nil {
		now := c.now()
		event := domain.BatchPricingCompletedEvent{
			BatchID:        out.BatchID,
			Symbols:        extractSymbols(cmd.Contracts),
			TotalContracts: n,
			SuccessCount:   out.SuccessCount,
			FailureCount:   out.FailureCount,
			AverageTime:    out.AverageTime,
			CompletedAt:    now.UnixMilli(),
			OccurredOn:     now,
		}
		if err := c.publisher.Publish(ctx, domain.BatchPricingCompletedEventType, out.BatchID, event); err != nil {
			logger.Warn(ctx, "failed to publish batch pricing event", "batch_id", out.BatchID, "error", err)
		}
	}

	logger.Info(ctx, "batch pricing completed",
		"batch_id", out.BatchID,
		"total", n,
		"success", out.SuccessCount,
		"failure", out.FailureCount,
	)
	return out, nil
}

// publishError 尽力发布定价错误事件
func (c *PricingCommandService) publishError(ctx context.Context, cmd PriceOptionCommand, cause error) {
	logger.Warn(ctx, "option pricing rejected", "symbol", cmd.Symbol, "error", cause)
	if c.publisher == nil {
		return
	}
	now := c.now()
	event := domain.PricingErrorEvent{
		Symbol:     cmd.Symbol,
		OptionType: cmd.OptionType,
		Error:      cause.Error(),
		ErrorCode:  ErrorCode(cause),
		OccurredAt: now.UnixMilli(),
		OccurredOn: now,
	}
	if err := c.publisher.Publish(ctx, domain.PricingErrorEventType, cmd.Symbol, event); err != nil {
		logger.Warn(ctx, "failed to publish pricing error event", "symbol", cmd.Symbol, "error", err)
	}
}

func newOptionPricedEvent(r *domain.PricingResult, v *domain.Valuation, now time.Time) domain.OptionPricedEvent {
	event := domain.OptionPricedEvent{
		ResultID:         r.ID,
		Symbol:           r.Symbol,
		OptionType:       r.OptionType,
		ExerciseStyle:    r.ExerciseStyle,
		StrikePrice:      r.StrikePrice.InexactFloat64(),
		Maturity:         r.Maturity,
		OptionPrice:      v.Price,
		UnderlyingPrice:  r.UnderlyingPrice.InexactFloat64(),
		Volatility:       r.Volatility,
		RiskFreeRate:     r.RiskFreeRate,
		Steps:            r.Steps,
		BarrierDirection: r.BarrierDirection,
		KnockKind:        r.KnockKind,
		KnockedNodes:     v.Crossed.Len(),
		PricingModel:     r.PricingModel,
		CalculatedAt:     r.CalculatedAt,
		OccurredOn:       now,
	}
	if r.BarrierLevel.Valid {
		event.BarrierLevel = r.BarrierLevel.Decimal.InexactFloat64()
	}
	return event
}

// IsClientError 是否为调用方输入错误
func IsClientError(err error) bool {
	return errors.Is(err, ErrSymbolRequired) || domain.IsValidationError(err)
}

// ErrorCode 错误码，nil 返回空串
func ErrorCode(err error) string {
	if errors.Is(err, ErrSymbolRequired) {
		return "SYMBOL_REQUIRED"
	}
	return domain.ErrorCode(err)
}

// 辅助函数：提取合约符号
func extractSymbols(contracts []PriceOptionCommand) []string {
	symbols := make([]string, 0, len(contracts))
	seen := make(map[string]bool)

	for _, contract := range contracts {
		if !seen[contract.Symbol] {
			symbols = append(symbols, contract.Symbol)
			seen[contract.Symbol] = true
		}
	}

	return symbols
}
