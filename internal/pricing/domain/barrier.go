package domain

// Coordinate 网格坐标
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NodeSet 网格节点集合，与 Lattice 使用相同的三角形下标
type NodeSet struct {
	depth int
	in    []bool
	size  int
}

// ClassifyBarrierNodes 一次遍历标的网格，标记所有越过障碍的节点
func ClassifyBarrierNodes(underlying *Lattice, barrier Barrier) NodeSet {
	set := NodeSet{depth: underlying.depth, in: make([]bool, len(underlying.data))}
	for i, s := range underlying.data {
		if barrier.Crossed(s) {
			set.in[i] = true
			set.size++
		}
	}
	return set
}

// Contains 坐标是否在集合中，越界坐标返回 false
func (s NodeSet) Contains(row, col int) bool {
	if row < 0 || row >= s.depth || col < 0 || col > row {
		return false
	}
	return s.in[rowOffset(row)+col]
}

// Len 集合大小
func (s NodeSet) Len() int {
	return s.size
}

// Coordinates 按行、列顺序列出集合中的坐标
func (s NodeSet) Coordinates() []Coordinate {
	out := make([]Coordinate, 0, s.size)
	for row := 0; row < s.depth; row++ {
		base := rowOffset(row)
		for col := 0; col <= row; col++ {
			if s.in[base+col] {
				out = append(out, Coordinate{Row: row, Col: col})
			}
		}
	}
	return out
}

func (s NodeSet) contains(row, col int) bool {
	return s.in[rowOffset(row)+col]
}

// knockOut 敲出：越过障碍的节点价值恒为 0
func (e *induction) knockOut(crossed NodeSet) *Lattice {
	values := e.terminal()
	last := e.steps
	for col := 0; col <= last; col++ {
		if crossed.contains(last, col) {
			values.set(last, col, 0)
		}
	}
	e.backward(values, func(row, col int) (float64, bool) {
		if crossed.contains(row, col) {
			return 0, true
		}
		return 0, false
	})
	return values
}

// knockIn 敲入：返回 (before, after)
// after 为始终有效的普通期权网格；before 的终端行初始为 0，
// 越过障碍的坐标（任意行）取 after 的值，其余节点按常规公式对 before 自身的子节点回溯。
func (e *induction) knockIn(crossed NodeSet) (before, after *Lattice) {
	after = e.vanilla()
	before = &Lattice{depth: after.depth, data: make([]float64, len(after.data))}
	for i, hit := range crossed.in {
		if hit {
			before.data[i] = after.data[i]
		}
	}
	e.backward(before, func(row, col int) (float64, bool) {
		if crossed.contains(row, col) {
			return after.at(row, col), true
		}
		return 0, false
	})
	return before, after
}
