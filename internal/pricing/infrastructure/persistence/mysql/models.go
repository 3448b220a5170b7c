package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

// PricingResultModel 定价结果数据库模型
// 价值网格按行数组以 JSON 文本保存。
type PricingResultModel struct {
	ID               uint        `gorm:"primaryKey;autoIncrement"`
	CreatedAt        time.Time   `gorm:"column:created_at"`
	UpdatedAt        time.Time   `gorm:"column:updated_at"`
	Symbol           string      `gorm:"column:symbol;type:varchar(32);index:idx_symbol_calc,priority:1;not null"`
	PricingModel     string      `gorm:"column:pricing_model;type:varchar(32)"`
	OptionType       string      `gorm:"column:option_type;type:varchar(8);not null"`
	ExerciseStyle    string      `gorm:"column:exercise_style;type:varchar(16);not null"`
	StrikePrice      string      `gorm:"column:strike_price;type:decimal(32,18);not null"`
	Maturity         float64     `gorm:"column:maturity;not null"`
	UnderlyingPrice  string      `gorm:"column:underlying_price;type:decimal(32,18);not null"`
	Volatility       float64     `gorm:"column:volatility;not null"`
	RiskFreeRate     float64     `gorm:"column:risk_free_rate;not null"`
	Steps            int         `gorm:"column:steps;not null"`
	BarrierLevel     *string     `gorm:"column:barrier_level;type:decimal(32,18)"`
	BarrierDirection string      `gorm:"column:barrier_direction;type:varchar(8)"`
	KnockKind        string      `gorm:"column:knock_kind;type:varchar(8)"`
	OptionPrice      string      `gorm:"column:option_price;type:decimal(32,18);not null"`
	UpFactor         float64     `gorm:"column:up_factor"`
	DownFactor       float64     `gorm:"column:down_factor"`
	Probability      float64     `gorm:"column:probability"`
	ValueLattice     [][]float64 `gorm:"column:value_lattice;type:text;serializer:json"`
	AfterLattice     [][]float64 `gorm:"column:after_lattice;type:text;serializer:json"`
	CalculatedAt     int64       `gorm:"column:calculated_at;type:bigint;index:idx_symbol_calc,priority:2;not null"`
}

func (PricingResultModel) TableName() string { return "pricing_results" }

// mapping helpers

func toPricingResultModel(res *domain.PricingResult) *PricingResultModel {
	if res == nil {
		return nil
	}
	m := &PricingResultModel{
		ID:               res.ID,
		CreatedAt:        res.CreatedAt,
		UpdatedAt:        res.UpdatedAt,
		Symbol:           res.Symbol,
		PricingModel:     string(res.PricingModel),
		OptionType:       string(res.OptionType),
		ExerciseStyle:    string(res.ExerciseStyle),
		StrikePrice:      res.StrikePrice.String(),
		Maturity:         res.Maturity,
		UnderlyingPrice:  res.UnderlyingPrice.String(),
		Volatility:       res.Volatility,
		RiskFreeRate:     res.RiskFreeRate,
		Steps:            res.Steps,
		BarrierDirection: string(res.BarrierDirection),
		KnockKind:        string(res.KnockKind),
		OptionPrice:      res.OptionPrice.String(),
		UpFactor:         res.UpFactor,
		DownFactor:       res.DownFactor,
		Probability:      res.Probability,
		ValueLattice:     res.ValueLattice,
		AfterLattice:     res.AfterLattice,
		CalculatedAt:     res.CalculatedAt,
	}
	if res.BarrierLevel.Valid {
		level := res.BarrierLevel.Decimal.String()
		m.BarrierLevel = &level
	}
	return m
}

func toPricingResult(m *PricingResultModel) *domain.PricingResult {
	if m == nil {
		return nil
	}
	strike, _ := decimal.NewFromString(m.StrikePrice)
	spot, _ := decimal.NewFromString(m.UnderlyingPrice)
	price, _ := decimal.NewFromString(m.OptionPrice)

	res := &domain.PricingResult{
		ID:               m.ID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Symbol:           m.Symbol,
		PricingModel:     domain.PricingModelType(m.PricingModel),
		OptionType:       domain.OptionType(m.OptionType),
		ExerciseStyle:    domain.ExerciseStyle(m.ExerciseStyle),
		StrikePrice:      strike,
		Maturity:         m.Maturity,
		UnderlyingPrice:  spot,
		Volatility:       m.Volatility,
		RiskFreeRate:     m.RiskFreeRate,
		Steps:            m.Steps,
		BarrierDirection: domain.BarrierDirection(m.BarrierDirection),
		KnockKind:        domain.KnockKind(m.KnockKind),
		OptionPrice:      price,
		UpFactor:         m.UpFactor,
		DownFactor:       m.DownFactor,
		Probability:      m.Probability,
		ValueLattice:     m.ValueLattice,
		AfterLattice:     m.AfterLattice,
		CalculatedAt:     m.CalculatedAt,
	}
	if m.BarrierLevel != nil {
		if level, err := decimal.NewFromString(*m.BarrierLevel); err == nil {
			res.BarrierLevel = decimal.NewNullDecimal(level)
		}
	}
	return res
}
