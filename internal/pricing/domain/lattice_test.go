package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

func TestNewLatticeDepthBounds(t *testing.T) {
	for _, depth := range []int{0, -1, domain.MaxLatticeDepth + 1} {
		_, err := domain.NewLattice(depth)
		require.ErrorIs(t, err, domain.ErrInvalidParameter, "depth %d", depth)
	}

	l, err := domain.NewLattice(domain.MaxLatticeDepth)
	require.NoError(t, err)
	require.Equal(t, domain.MaxLatticeDepth, l.Depth())
}

func TestNewLatticeIsTriangularAndZeroFilled(t *testing.T) {
	l, err := domain.NewLattice(4)
	require.NoError(t, err)
	require.Equal(t, 10, l.Len())

	rows := l.Rows()
	require.Len(t, rows, 4)
	for row, values := range rows {
		require.Len(t, values, row+1)
		for _, v := range values {
			require.Zero(t, v)
		}
	}
}

func TestLatticeAtSetBounds(t *testing.T) {
	l, err := domain.NewLattice(3)
	require.NoError(t, err)

	cases := []struct {
		name     string
		row, col int
	}{
		{"column past row", 1, 2},
		{"negative row", -1, 0},
		{"negative column", 2, -1},
		{"row past depth", 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.At(tc.row, tc.col)
			require.ErrorIs(t, err, domain.ErrIndexOutOfRange)
			require.ErrorIs(t, l.Set(tc.row, tc.col, 1), domain.ErrIndexOutOfRange)
		})
	}

	require.NoError(t, l.Set(2, 2, 7.5))
	v, err := l.At(2, 2)
	require.NoError(t, err)
	require.Equal(t, 7.5, v)

	_, err = l.Row(3)
	require.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestLatticeRowAndCloneAreCopies(t *testing.T) {
	l, err := domain.BuildLattice(3, func(row, col int) float64 { return float64(10*row + col) })
	require.NoError(t, err)

	row, err := l.Row(2)
	require.NoError(t, err)
	require.Equal(t, []float64{20, 21, 22}, row)
	row[0] = -1

	clone := l.Clone()
	require.NoError(t, clone.Set(2, 0, 99))

	v, err := l.At(2, 0)
	require.NoError(t, err)
	require.Equal(t, 20.0, v)
	require.False(t, l.Equal(clone))
	require.True(t, l.Equal(l.Clone()))
}

func TestLatticeString(t *testing.T) {
	l, err := domain.BuildLattice(2, func(row, col int) float64 { return float64(row + col + 1) })
	require.NoError(t, err)

	want := "      1.00 \n" +
		"  2.00   3.00 \n"
	assert.Equal(t, want, l.String())
}

func TestLatticeMarshalJSON(t *testing.T) {
	l, err := domain.BuildLattice(2, func(row, col int) float64 { return float64(row*2 + col) })
	require.NoError(t, err)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	require.JSONEq(t, `[[0],[2,3]]`, string(data))
}

func TestUnderlyingLattice(t *testing.T) {
	l, err := domain.NewUnderlyingLattice(3, 100, 1.1, 0.9)
	require.NoError(t, err)

	want := [][]float64{
		{100},
		{90, 110},
		{81, 99, 121},
	}
	got := l.Rows()
	for row := range want {
		require.InDeltaSlice(t, want[row], got[row], 1e-9, "row %d", row)
	}
}

func TestUnderlyingLatticeRejectsBadInputs(t *testing.T) {
	_, err := domain.NewUnderlyingLattice(3, 0, 1.1, 0.9)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = domain.NewUnderlyingLattice(3, 100, -1.1, 0.9)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	_, err = domain.NewUnderlyingLattice(0, 100, 1.1, 0.9)
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}
