package domain

import (
	"errors"
	"time"
)

const (
	OptionPricedEventType          = "OptionPriced"
	PricingErrorEventType          = "PricingError"
	BatchPricingCompletedEventType = "BatchPricingCompleted"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	ResultID         uint             `json:"result_id"`
	Symbol           string           `json:"symbol"`
	OptionType       OptionType       `json:"option_type"`
	ExerciseStyle    ExerciseStyle    `json:"exercise_style"`
	StrikePrice      float64          `json:"strike_price"`
	Maturity         float64          `json:"maturity"`
	OptionPrice      float64          `json:"option_price"`
	UnderlyingPrice  float64          `json:"underlying_price"`
	Volatility       float64          `json:"volatility"`
	RiskFreeRate     float64          `json:"risk_free_rate"`
	Steps            int              `json:"steps"`
	BarrierLevel     float64          `json:"barrier_level,omitempty"`
	BarrierDirection BarrierDirection `json:"barrier_direction,omitempty"`
	KnockKind        KnockKind        `json:"knock_kind,omitempty"`
	KnockedNodes     int              `json:"knocked_nodes"`
	PricingModel     PricingModelType `json:"pricing_model"`
	CalculatedAt     int64            `json:"calculated_at"`
	OccurredOn       time.Time        `json:"occurred_on"`
}

// PricingErrorEvent 定价错误事件
type PricingErrorEvent struct {
	Symbol     string    `json:"symbol"`
	OptionType string    `json:"option_type"`
	Error      string    `json:"error"`
	ErrorCode  string    `json:"error_code"`
	OccurredAt int64     `json:"occurred_at"`
	OccurredOn time.Time `json:"occurred_on"`
}

// BatchPricingCompletedEvent 批量定价完成事件
type BatchPricingCompletedEvent struct {
	BatchID        string    `json:"batch_id"`
	Symbols        []string  `json:"symbols"`
	TotalContracts int       `json:"total_contracts"`
	SuccessCount   int       `json:"success_count"`
	FailureCount   int       `json:"failure_count"`
	AverageTime    float64   `json:"average_time"`
	CompletedAt    int64     `json:"completed_at"`
	OccurredOn     time.Time `json:"occurred_on"`
}

// ErrorCode 把领域错误映射为事件中的错误码
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidOptionKind):
		return "INVALID_OPTION_KIND"
	case errors.Is(err, ErrInvalidStyle):
		return "INVALID_STYLE"
	case errors.Is(err, ErrInvalidParameter):
		return "INVALID_PARAMETER"
	default:
		return "INTERNAL"
	}
}
