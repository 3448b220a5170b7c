package domain

import (
	"fmt"
	"math"
)

// MarketParameters 市场参数
type MarketParameters struct {
	Volatility float64 // 年化波动率 σ
	Spot       float64 // 标的当前价格 S0
	Rate       float64 // 无风险利率 r（连续复利）
	Steps      int     // 二叉树步数 N
}

// Validate 校验市场参数
func (m MarketParameters) Validate() error {
	if !positiveFinite(m.Volatility) {
		return fmt.Errorf("%w: volatility must be positive and finite, got %v", ErrInvalidParameter, m.Volatility)
	}
	if !positiveFinite(m.Spot) {
		return fmt.Errorf("%w: spot must be positive and finite, got %v", ErrInvalidParameter, m.Spot)
	}
	if !finite(m.Rate) {
		return fmt.Errorf("%w: rate must be finite, got %v", ErrInvalidParameter, m.Rate)
	}
	if m.Steps < 1 {
		return fmt.Errorf("%w: steps must be >= 1, got %d", ErrInvalidParameter, m.Steps)
	}
	return nil
}

// CRRParams Cox-Ross-Rubinstein 参数，每次定价只计算一次
type CRRParams struct {
	Dt       float64 `json:"dt"`       // 单步时长 T/N
	Up       float64 `json:"up"`       // 上涨因子 exp(σ√dt)
	Down     float64 `json:"down"`     // 下跌因子 1/up
	Q        float64 `json:"q"`        // 风险中性上涨概率
	Discount float64 `json:"discount"` // 单步折现因子 exp(-r·dt)
}

// DeriveCRR 由到期时间和市场参数推导 CRR 参数
// q 不做截断：参数导致 q 落在 [0,1] 之外时结果仍按公式计算（存在套利，但算术上合法）。
func DeriveCRR(maturity float64, m MarketParameters) CRRParams {
	dt := maturity / float64(m.Steps)
	up := math.Exp(m.Volatility * math.Sqrt(dt))
	down := 1 / up
	return CRRParams{
		Dt:       dt,
		Up:       up,
		Down:     down,
		Q:        (math.Exp(m.Rate*dt) - down) / (up - down),
		Discount: math.Exp(-m.Rate * dt),
	}
}
