package domain

import (
	"fmt"
	"math"
)

// DefaultMaxSteps 核心引擎允许的最大步数（网格深度上限减一）
const DefaultMaxSteps = MaxLatticeDepth - 1

// Valuation 一次二叉树定价的完整输出
type Valuation struct {
	Price      float64   // 期权价格，即 Values 的根节点
	Params     CRRParams // 本次使用的 CRR 参数
	Underlying *Lattice  // 标的价格网格
	Values     *Lattice  // 期权价值网格（敲入时为 before 网格）
	After      *Lattice  // 敲入后的普通期权网格，仅敲入期权非空
	Crossed    NodeSet   // 越过障碍的节点，普通期权为空
}

// BinomialPricer CRR 二叉树定价器
// 无状态，可被多个 goroutine 并发使用；每次调用独立分配网格。
type BinomialPricer struct {
	maxSteps int
}

// NewBinomialPricer 创建定价器，maxSteps <= 0 或超过核心上限时使用 DefaultMaxSteps
func NewBinomialPricer(maxSteps int) *BinomialPricer {
	if maxSteps <= 0 || maxSteps > DefaultMaxSteps {
		maxSteps = DefaultMaxSteps
	}
	return &BinomialPricer{maxSteps: maxSteps}
}

// MaxSteps 步数上限
func (p *BinomialPricer) MaxSteps() int {
	return p.maxSteps
}

// Price 对期权定价
// 所有校验在构建网格之前完成，失败时不返回任何网格。
func (p *BinomialPricer) Price(spec PayoffSpec, market MarketParameters) (*Valuation, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := market.Validate(); err != nil {
		return nil, err
	}
	if market.Steps > p.maxSteps {
		return nil, fmt.Errorf("%w: steps %d exceeds limit %d", ErrInvalidParameter, market.Steps, p.maxSteps)
	}
	if spec.Barrier != nil {
		if err := checkBarrierSide(*spec.Barrier, market.Spot); err != nil {
			return nil, err
		}
	}

	params := DeriveCRR(spec.Maturity, market)
	if !positiveFinite(params.Up) || !positiveFinite(params.Down) || params.Up == params.Down || !finite(params.Q) {
		return nil, fmt.Errorf("%w: degenerate CRR parameters up=%v down=%v q=%v", ErrInvalidParameter, params.Up, params.Down, params.Q)
	}
	if top := market.Spot * math.Pow(params.Up, float64(market.Steps)); !finite(top) {
		return nil, fmt.Errorf("%w: underlying lattice overflows (S0*u^N = %v)", ErrInvalidParameter, top)
	}
	underlying, err := NewUnderlyingLattice(market.Steps+1, market.Spot, params.Up, params.Down)
	if err != nil {
		return nil, err
	}

	e := &induction{spec: spec, params: params, underlying: underlying, steps: market.Steps}
	v := &Valuation{Params: params, Underlying: underlying}

	switch {
	case spec.Barrier == nil:
		v.Values = e.vanilla()
	case spec.Barrier.Knock == KnockOut:
		v.Crossed = ClassifyBarrierNodes(underlying, *spec.Barrier)
		v.Values = e.knockOut(v.Crossed)
	default:
		v.Crossed = ClassifyBarrierNodes(underlying, *spec.Barrier)
		v.Values, v.After = e.knockIn(v.Crossed)
	}
	// q 极大时回溯会溢出为 Inf/NaN，即使标的网格本身有限
	if !v.Values.allFinite() || !v.After.allFinite() {
		return nil, fmt.Errorf("%w: non-finite valuation (u=%v d=%v q=%v)", ErrInvalidParameter, params.Up, params.Down, params.Q)
	}
	v.Price = v.Values.Root()
	return v, nil
}

// checkBarrierSide 向上障碍必须高于现价，向下障碍必须低于现价。
// 错误一侧的障碍按参数错误拒绝，不按"开盘即触碰"定价（敲出为 0，敲入退化为香草）。
func checkBarrierSide(b Barrier, spot float64) error {
	if b.Direction == BarrierDirectionUp && b.Level <= spot {
		return fmt.Errorf("%w: up barrier %v must be above spot %v", ErrInvalidParameter, b.Level, spot)
	}
	if b.Direction == BarrierDirectionDown && b.Level >= spot {
		return fmt.Errorf("%w: down barrier %v must be below spot %v", ErrInvalidParameter, b.Level, spot)
	}
	return nil
}

// induction 单次定价的回溯上下文
type induction struct {
	spec       PayoffSpec
	params     CRRParams
	underlying *Lattice
	steps      int
}

// fixedFunc 返回 (value, true) 时节点取固定值，跳过持有/行权计算
type fixedFunc func(row, col int) (float64, bool)

// terminal 创建价值网格并填入到期收益
func (e *induction) terminal() *Lattice {
	values := &Lattice{depth: e.underlying.depth, data: make([]float64, len(e.underlying.data))}
	last := e.steps
	for col := 0; col <= last; col++ {
		values.set(last, col, e.spec.Payoff(e.underlying.at(last, col)))
	}
	return values
}

func (e *induction) vanilla() *Lattice {
	values := e.terminal()
	e.backward(values, nil)
	return values
}

// backward 从倒数第二行回溯到根节点
// hold = discount * (q*V[row+1][col+1] + (1-q)*V[row+1][col])
func (e *induction) backward(values *Lattice, fixed fixedFunc) {
	q, disc := e.params.Q, e.params.Discount
	american := e.spec.Style == ExerciseStyleAmerican
	for row := e.steps - 1; row >= 0; row-- {
		for col := 0; col <= row; col++ {
			if fixed != nil {
				if v, ok := fixed(row, col); ok {
					values.set(row, col, v)
					continue
				}
			}
			hold := disc * (q*values.at(row+1, col+1) + (1-q)*values.at(row+1, col))
			if american {
				hold = math.Max(hold, e.spec.Payoff(e.underlying.at(row, col)))
			}
			values.set(row, col, hold)
		}
	}
}
