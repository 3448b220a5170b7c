package application

import (
	"errors"

	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

var (
	// ErrSymbolRequired 未提供合约代码
	ErrSymbolRequired = errors.New("pricing: symbol is required")
	// ErrResultNotFound 指定合约没有定价结果
	ErrResultNotFound = errors.New("pricing: result not found")
)

// BarrierCommand 障碍条款
type BarrierCommand struct {
	Level     float64
	Direction string // UP / DOWN
	Knock     string // IN / OUT
}

// PriceOptionCommand 期权定价命令
type PriceOptionCommand struct {
	Symbol          string
	OptionType      string
	ExerciseStyle   string
	StrikePrice     float64
	Maturity        float64 // 年
	UnderlyingPrice float64
	Volatility      float64
	RiskFreeRate    float64
	Steps           int
	Barrier         *BarrierCommand
}

// BatchPriceOptionsCommand 批量定价命令
type BatchPriceOptionsCommand struct {
	Contracts []PriceOptionCommand
	BatchID   string
}

// PriceOptionResult 单次定价结果
type PriceOptionResult struct {
	Result    *domain.PricingResult
	Valuation *domain.Valuation
}

// BatchItemError 批量中单个合约的失败原因
type BatchItemError struct {
	Index     int    `json:"index"`
	Symbol    string `json:"symbol"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// BatchPricingResult 批量定价结果，Results 与输入顺序一致，失败项为 nil
type BatchPricingResult struct {
	BatchID      string
	Results      []*domain.PricingResult
	Errors       []BatchItemError
	SuccessCount int
	FailureCount int
	AverageTime  float64
}

// toDomain 解析命令为领域对象
func (cmd PriceOptionCommand) toDomain() (domain.PayoffSpec, domain.MarketParameters, error) {
	market := domain.MarketParameters{
		Volatility: cmd.Volatility,
		Spot:       cmd.UnderlyingPrice,
		Rate:       cmd.RiskFreeRate,
		Steps:      cmd.Steps,
	}
	kind, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return domain.PayoffSpec{}, market, err
	}
	style, err := domain.ParseExerciseStyle(cmd.ExerciseStyle)
	if err != nil {
		return domain.PayoffSpec{}, market, err
	}
	if cmd.Barrier == nil {
		spec, err := domain.NewVanillaSpec(kind, style, cmd.StrikePrice, cmd.Maturity)
		return spec, market, err
	}

	dir, err := domain.ParseBarrierDirection(cmd.Barrier.Direction)
	if err != nil {
		return domain.PayoffSpec{}, market, err
	}
	knock, err := domain.ParseKnockKind(cmd.Barrier.Knock)
	if err != nil {
		return domain.PayoffSpec{}, market, err
	}
	spec, err := domain.NewBarrierSpec(kind, style, cmd.StrikePrice, cmd.Maturity,
		domain.Barrier{Level: cmd.Barrier.Level, Direction: dir, Knock: knock})
	return spec, market, err
}
