package domain

import (
	"fmt"
	"math"
)

// NewUnderlyingLattice 构建标的价格网格
// 节点 (row, col) = spot * up^col * down^(row-col)
func NewUnderlyingLattice(depth int, spot, up, down float64) (*Lattice, error) {
	if !positiveFinite(spot) || !positiveFinite(up) || !positiveFinite(down) {
		return nil, fmt.Errorf("%w: underlying lattice needs positive finite spot/up/down, got %v/%v/%v",
			ErrInvalidParameter, spot, up, down)
	}
	return BuildLattice(depth, func(row, col int) float64 {
		return spot * math.Pow(up, float64(col)) * math.Pow(down, float64(row-col))
	})
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
