package application

import "github.com/wyfcoding/latticepricing/internal/pricing/domain"

// PricingResultDTO 定价结果 DTO
type PricingResultDTO struct {
	ID               uint        `json:"id"`
	Symbol           string      `json:"symbol"`
	PricingModel     string      `json:"pricing_model"`
	OptionType       string      `json:"option_type"`
	ExerciseStyle    string      `json:"exercise_style"`
	StrikePrice      string      `json:"strike_price"`
	Maturity         float64     `json:"maturity"`
	UnderlyingPrice  string      `json:"underlying_price"`
	Volatility       float64     `json:"volatility"`
	RiskFreeRate     float64     `json:"risk_free_rate"`
	Steps            int         `json:"steps"`
	BarrierLevel     string      `json:"barrier_level,omitempty"`
	BarrierDirection string      `json:"barrier_direction,omitempty"`
	KnockKind        string      `json:"knock_kind,omitempty"`
	OptionPrice      string      `json:"option_price"`
	UpFactor         float64     `json:"up_factor"`
	DownFactor       float64     `json:"down_factor"`
	Probability      float64     `json:"probability"`
	ValueLattice     [][]float64 `json:"value_lattice,omitempty"`
	AfterLattice     [][]float64 `json:"after_lattice,omitempty"`
	CalculatedAt     int64       `json:"calculated_at"`
}

// PriceOptionDTO 单次定价响应
type PriceOptionDTO struct {
	Price             float64             `json:"price"`
	Params            domain.CRRParams    `json:"params"`
	Result            *PricingResultDTO   `json:"result"`
	UnderlyingLattice [][]float64         `json:"underlying_lattice"`
	ValueLattice      [][]float64         `json:"value_lattice"`
	AfterLattice      [][]float64         `json:"after_lattice,omitempty"`
	CrossedNodes      []domain.Coordinate `json:"crossed_nodes,omitempty"`
}

// BatchPricingDTO 批量定价响应
type BatchPricingDTO struct {
	BatchID      string              `json:"batch_id"`
	Results      []*PricingResultDTO `json:"results"`
	Errors       []BatchItemError    `json:"errors,omitempty"`
	SuccessCount int                 `json:"success_count"`
	FailureCount int                 `json:"failure_count"`
	AverageTime  float64             `json:"average_time"`
}

// ToPricingResultDTO 转换实体，withLattices 为 false 时省略网格快照
func ToPricingResultDTO(r *domain.PricingResult, withLattices bool) *PricingResultDTO {
	if r == nil {
		return nil
	}
	dto := &PricingResultDTO{
		ID:               r.ID,
		Symbol:           r.Symbol,
		PricingModel:     string(r.PricingModel),
		OptionType:       string(r.OptionType),
		ExerciseStyle:    string(r.ExerciseStyle),
		StrikePrice:      r.StrikePrice.String(),
		Maturity:         r.Maturity,
		UnderlyingPrice:  r.UnderlyingPrice.String(),
		Volatility:       r.Volatility,
		RiskFreeRate:     r.RiskFreeRate,
		Steps:            r.Steps,
		BarrierDirection: string(r.BarrierDirection),
		KnockKind:        string(r.KnockKind),
		OptionPrice:      r.OptionPrice.String(),
		UpFactor:         r.UpFactor,
		DownFactor:       r.DownFactor,
		Probability:      r.Probability,
		CalculatedAt:     r.CalculatedAt,
	}
	if r.BarrierLevel.Valid {
		dto.BarrierLevel = r.BarrierLevel.Decimal.String()
	}
	if withLattices {
		dto.ValueLattice = r.ValueLattice
		dto.AfterLattice = r.AfterLattice
	}
	return dto
}

// ToPriceOptionDTO 转换单次定价结果
func ToPriceOptionDTO(res *PriceOptionResult) *PriceOptionDTO {
	if res == nil || res.Valuation == nil {
		return nil
	}
	v := res.Valuation
	dto := &PriceOptionDTO{
		Price:             v.Price,
		Params:            v.Params,
		Result:            ToPricingResultDTO(res.Result, false),
		UnderlyingLattice: v.Underlying.Rows(),
		ValueLattice:      v.Values.Rows(),
		CrossedNodes:      v.Crossed.Coordinates(),
	}
	if v.After != nil {
		dto.AfterLattice = v.After.Rows()
	}
	return dto
}

// ToBatchPricingDTO 转换批量结果，失败项不出现在 Results 中
func ToBatchPricingDTO(res *BatchPricingResult) *BatchPricingDTO {
	if res == nil {
		return nil
	}
	dto := &BatchPricingDTO{
		BatchID:      res.BatchID,
		Results:      make([]*PricingResultDTO, 0, res.SuccessCount),
		Errors:       res.Errors,
		SuccessCount: res.SuccessCount,
		FailureCount: res.FailureCount,
		AverageTime:  res.AverageTime,
	}
	for _, r := range res.Results {
		if r != nil {
			dto.Results = append(dto.Results, ToPricingResultDTO(r, false))
		}
	}
	return dto
}
