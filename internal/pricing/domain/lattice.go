package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// MaxLatticeDepth 网格最大行数
const MaxLatticeDepth = 1000

// NodeFunc 根据坐标 (row, col) 计算节点值
type NodeFunc func(row, col int) float64

// Lattice 二叉树三角网格
// 第 row 行有 row+1 个节点，col 表示上涨次数。
// 所有节点存放在一段连续的缓冲区中，第 row 行起始偏移为 row*(row+1)/2。
type Lattice struct {
	depth int
	data  []float64
}

// NewLattice 创建深度为 depth 的零值网格
func NewLattice(depth int) (*Lattice, error) {
	if depth < 1 || depth > MaxLatticeDepth {
		return nil, fmt.Errorf("%w: lattice depth must be in [1, %d], got %d", ErrInvalidParameter, MaxLatticeDepth, depth)
	}
	return &Lattice{
		depth: depth,
		data:  make([]float64, nodeCount(depth)),
	}, nil
}

// BuildLattice 创建网格并用 fn 填充每个节点
func BuildLattice(depth int, fn NodeFunc) (*Lattice, error) {
	l, err := NewLattice(depth)
	if err != nil {
		return nil, err
	}
	for row := 0; row < depth; row++ {
		base := rowOffset(row)
		for col := 0; col <= row; col++ {
			l.data[base+col] = fn(row, col)
		}
	}
	return l, nil
}

// Depth 网格行数
func (l *Lattice) Depth() int {
	return l.depth
}

// Len 节点总数
func (l *Lattice) Len() int {
	return len(l.data)
}

// At 读取 (row, col) 节点
func (l *Lattice) At(row, col int) (float64, error) {
	if err := l.check(row, col); err != nil {
		return 0, err
	}
	return l.at(row, col), nil
}

// Set 写入 (row, col) 节点
func (l *Lattice) Set(row, col int, v float64) error {
	if err := l.check(row, col); err != nil {
		return err
	}
	l.set(row, col, v)
	return nil
}

// Row 返回第 row 行的副本
func (l *Lattice) Row(row int) ([]float64, error) {
	if row < 0 || row >= l.depth {
		return nil, fmt.Errorf("%w: row %d not in [0, %d)", ErrIndexOutOfRange, row, l.depth)
	}
	out := make([]float64, row+1)
	copy(out, l.data[rowOffset(row):rowOffset(row)+row+1])
	return out, nil
}

// Rows 以二维切片形式返回全部节点的副本
func (l *Lattice) Rows() [][]float64 {
	rows := make([][]float64, l.depth)
	for row := range rows {
		rows[row] = make([]float64, row+1)
		copy(rows[row], l.data[rowOffset(row):rowOffset(row)+row+1])
	}
	return rows
}

// Root 根节点 (0, 0)
func (l *Lattice) Root() float64 {
	return l.data[0]
}

// Clone 深拷贝
func (l *Lattice) Clone() *Lattice {
	data := make([]float64, len(l.data))
	copy(data, l.data)
	return &Lattice{depth: l.depth, data: data}
}

// Equal 判断两个网格是否逐位相同
func (l *Lattice) Equal(other *Lattice) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.depth != other.depth {
		return false
	}
	for i, v := range l.data {
		if math.Float64bits(v) != math.Float64bits(other.data[i]) {
			return false
		}
	}
	return true
}

// allFinite 所有节点均为有限值；nil 视为通过
func (l *Lattice) allFinite() bool {
	if l == nil {
		return true
	}
	for _, v := range l.data {
		if !finite(v) {
			return false
		}
	}
	return true
}

// String 终端展示：每行缩进 (depth-row-1)*4 个空格，每个值保留两位小数
func (l *Lattice) String() string {
	var b strings.Builder
	for row := 0; row < l.depth; row++ {
		b.WriteString(strings.Repeat(" ", (l.depth-row-1)*4))
		for col := 0; col <= row; col++ {
			fmt.Fprintf(&b, "%6.2f ", l.at(row, col))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// MarshalJSON 按行输出
func (l *Lattice) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Rows())
}

func (l *Lattice) check(row, col int) error {
	if row < 0 || row >= l.depth || col < 0 || col > row {
		return fmt.Errorf("%w: (%d, %d) in lattice of depth %d", ErrIndexOutOfRange, row, col, l.depth)
	}
	return nil
}

// at / set 供引擎内部循环使用，坐标由循环边界保证合法
func (l *Lattice) at(row, col int) float64 {
	return l.data[rowOffset(row)+col]
}

func (l *Lattice) set(row, col int, v float64) {
	l.data[rowOffset(row)+col] = v
}

func rowOffset(row int) int {
	return row * (row + 1) / 2
}

func nodeCount(depth int) int {
	return depth * (depth + 1) / 2
}
