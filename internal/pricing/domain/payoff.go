package domain

import (
	"fmt"
	"math"
)

// Barrier 障碍条款
type Barrier struct {
	Level     float64          // 障碍价
	Direction BarrierDirection // 穿越方向
	Knock     KnockKind        // 敲入 / 敲出
}

// Crossed 标的价格 s 是否已越过障碍
func (b Barrier) Crossed(s float64) bool {
	if b.Direction == BarrierDirectionUp {
		return s >= b.Level
	}
	return s <= b.Level
}

// Validate 校验障碍条款
func (b Barrier) Validate() error {
	if !positiveFinite(b.Level) {
		return fmt.Errorf("%w: barrier level must be positive and finite, got %v", ErrInvalidParameter, b.Level)
	}
	if !b.Direction.Valid() {
		return fmt.Errorf("%w: barrier direction %q", ErrInvalidParameter, b.Direction)
	}
	if !b.Knock.Valid() {
		return fmt.Errorf("%w: knock kind %q", ErrInvalidParameter, b.Knock)
	}
	return nil
}

// PayoffSpec 期权条款
// Barrier 为 nil 表示普通期权，否则为障碍期权。
type PayoffSpec struct {
	Kind     OptionType
	Style    ExerciseStyle
	Strike   float64
	Maturity float64 // 到期时间（年）
	Barrier  *Barrier
}

// NewVanillaSpec 创建普通期权条款
func NewVanillaSpec(kind OptionType, style ExerciseStyle, strike, maturity float64) (PayoffSpec, error) {
	spec := PayoffSpec{Kind: kind, Style: style, Strike: strike, Maturity: maturity}
	if err := spec.Validate(); err != nil {
		return PayoffSpec{}, err
	}
	return spec, nil
}

// NewBarrierSpec 创建障碍期权条款
func NewBarrierSpec(kind OptionType, style ExerciseStyle, strike, maturity float64, barrier Barrier) (PayoffSpec, error) {
	spec := PayoffSpec{Kind: kind, Style: style, Strike: strike, Maturity: maturity, Barrier: &barrier}
	if err := spec.Validate(); err != nil {
		return PayoffSpec{}, err
	}
	return spec, nil
}

// Validate 校验条款，顺序：类型 -> 行权方式 -> 数值参数 -> 障碍
func (p PayoffSpec) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOptionKind, p.Kind)
	}
	if !p.Style.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStyle, p.Style)
	}
	if !positiveFinite(p.Strike) {
		return fmt.Errorf("%w: strike must be positive and finite, got %v", ErrInvalidParameter, p.Strike)
	}
	if !positiveFinite(p.Maturity) {
		return fmt.Errorf("%w: maturity must be positive and finite, got %v", ErrInvalidParameter, p.Maturity)
	}
	if p.Barrier != nil {
		return p.Barrier.Validate()
	}
	return nil
}

// IsBarrier 是否为障碍期权
func (p PayoffSpec) IsBarrier() bool {
	return p.Barrier != nil
}

// Payoff 到期收益
func (p PayoffSpec) Payoff(s float64) float64 {
	if p.Kind == OptionTypeCall {
		return math.Max(0, s-p.Strike)
	}
	return math.Max(0, p.Strike-s)
}
