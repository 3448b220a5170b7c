// 包 定价服务的领域模型
package domain

import (
	"fmt"
	"strings"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// ExerciseStyle 行权方式
type ExerciseStyle string

const (
	ExerciseStyleEuropean ExerciseStyle = "EUROPEAN" // 仅到期日行权
	ExerciseStyleAmerican ExerciseStyle = "AMERICAN" // 任意节点可提前行权
)

// BarrierDirection 障碍穿越方向
type BarrierDirection string

const (
	BarrierDirectionUp   BarrierDirection = "UP"   // 标的价格 >= 障碍价即视为穿越
	BarrierDirectionDown BarrierDirection = "DOWN" // 标的价格 <= 障碍价即视为穿越
)

// KnockKind 敲入 / 敲出
type KnockKind string

const (
	KnockIn  KnockKind = "IN"  // 穿越后生效
	KnockOut KnockKind = "OUT" // 穿越后作废
)

// PricingModelType 定价模型
type PricingModelType string

const (
	PricingModelBinomialCRR PricingModelType = "BINOMIAL_CRR"
)

// Valid 校验期权类型
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// Valid 校验行权方式
func (s ExerciseStyle) Valid() bool {
	return s == ExerciseStyleEuropean || s == ExerciseStyleAmerican
}

// Valid 校验障碍方向
func (d BarrierDirection) Valid() bool {
	return d == BarrierDirectionUp || d == BarrierDirectionDown
}

// Valid 校验敲入敲出类型
func (k KnockKind) Valid() bool {
	return k == KnockIn || k == KnockOut
}

// ParseOptionType 解析期权类型，大小写不敏感
func ParseOptionType(s string) (OptionType, error) {
	t := OptionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOptionKind, s)
	}
	return t, nil
}

// ParseExerciseStyle 解析行权方式，大小写不敏感
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	style := ExerciseStyle(strings.ToUpper(strings.TrimSpace(s)))
	if !style.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStyle, s)
	}
	return style, nil
}

// ParseBarrierDirection 解析障碍方向
func ParseBarrierDirection(s string) (BarrierDirection, error) {
	d := BarrierDirection(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: barrier direction %q", ErrInvalidParameter, s)
	}
	return d, nil
}

// ParseKnockKind 解析敲入敲出类型，兼容 "knock-in" / "knock-out" 写法
func ParseKnockKind(s string) (KnockKind, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "KNOCK-")
	v = strings.TrimPrefix(v, "KNOCK_")
	k := KnockKind(v)
	if !k.Valid() {
		return "", fmt.Errorf("%w: knock kind %q", ErrInvalidParameter, s)
	}
	return k, nil
}
