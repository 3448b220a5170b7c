package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingResult 定价结果实体
// 保存一次二叉树定价的输入、CRR 参数、价格以及价值网格快照。
type PricingResult struct {
	ID               uint                `json:"id"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Symbol           string              `json:"symbol"`
	PricingModel     PricingModelType    `json:"pricing_model"`
	OptionType       OptionType          `json:"option_type"`
	ExerciseStyle    ExerciseStyle       `json:"exercise_style"`
	StrikePrice      decimal.Decimal     `json:"strike_price"`
	Maturity         float64             `json:"maturity"`
	UnderlyingPrice  decimal.Decimal     `json:"underlying_price"`
	Volatility       float64             `json:"volatility"`
	RiskFreeRate     float64             `json:"risk_free_rate"`
	Steps            int                 `json:"steps"`
	BarrierLevel     decimal.NullDecimal `json:"barrier_level"`
	BarrierDirection BarrierDirection    `json:"barrier_direction,omitempty"`
	KnockKind        KnockKind           `json:"knock_kind,omitempty"`
	OptionPrice      decimal.Decimal     `json:"option_price"`
	UpFactor         float64             `json:"up_factor"`
	DownFactor       float64             `json:"down_factor"`
	Probability      float64             `json:"probability"`
	ValueLattice     [][]float64         `json:"value_lattice"`
	AfterLattice     [][]float64         `json:"after_lattice,omitempty"`
	CalculatedAt     int64               `json:"calculated_at"`
}

// NewPricingResult 由一次定价的输入输出构建结果实体
func NewPricingResult(symbol string, spec PayoffSpec, market MarketParameters, v *Valuation, now time.Time) *PricingResult {
	res := &PricingResult{
		Symbol:          symbol,
		PricingModel:    PricingModelBinomialCRR,
		OptionType:      spec.Kind,
		ExerciseStyle:   spec.Style,
		StrikePrice:     decimal.NewFromFloat(spec.Strike),
		Maturity:        spec.Maturity,
		UnderlyingPrice: decimal.NewFromFloat(market.Spot),
		Volatility:      market.Volatility,
		RiskFreeRate:    market.Rate,
		Steps:           market.Steps,
		OptionPrice:     decimal.NewFromFloat(v.Price),
		UpFactor:        v.Params.Up,
		DownFactor:      v.Params.Down,
		Probability:     v.Params.Q,
		ValueLattice:    v.Values.Rows(),
		CalculatedAt:    now.UnixMilli(),
	}
	if spec.Barrier != nil {
		res.BarrierLevel = decimal.NewNullDecimal(decimal.NewFromFloat(spec.Barrier.Level))
		res.BarrierDirection = spec.Barrier.Direction
		res.KnockKind = spec.Barrier.Knock
	}
	if v.After != nil {
		res.AfterLattice = v.After.Rows()
	}
	return res
}
