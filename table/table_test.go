package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFillsGridWithSingleCells(t *testing.T) {
	tbl := New(2, 3)
	require.Equal(t, 2, tbl.Rows())
	require.Equal(t, 3, tbl.Columns())

	cells := tbl.Cells()
	require.Len(t, cells, 6)
	for _, c := range cells {
		assert.Equal(t, 1, c.RowSpan)
		assert.Equal(t, 1, c.ColumnSpan)
		assert.Same(t, c, tbl.CellAt(c.Row, c.Column))
	}
}

// 被跨行单元格覆盖的位置必须返回拥有者单元格本身。
func TestCellAtReturnsOwningCell(t *testing.T) {
	tbl := New(6, 2)
	span, err := tbl.Merge(2, 1, 3, 1)
	require.NoError(t, err)

	assert.Same(t, span, tbl.CellAt(2, 1))
	assert.Same(t, span, tbl.CellAt(3, 1))
	assert.Same(t, span, tbl.CellAt(4, 1))
	assert.NotSame(t, span, tbl.CellAt(5, 1))
	assert.Equal(t, 2, tbl.CellAt(3, 1).Row)
	assert.True(t, span.EndsIn(4))
	assert.False(t, span.EndsIn(3))
}

func TestMergeKeepsTopLeftContent(t *testing.T) {
	tbl := New(2, 2)
	tbl.CellAt(0, 0).Text = "kept"
	tbl.CellAt(0, 1).Text = "dropped"

	cell, err := tbl.Merge(0, 0, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "kept", cell.Text)
	assert.Equal(t, 1, cell.LastColumn())
	assert.Len(t, tbl.Cells(), 3)
}

func TestMergeErrors(t *testing.T) {
	tbl := New(3, 3)
	_, err := tbl.Merge(1, 1, 3, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = tbl.Merge(0, 0, 0, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = tbl.Merge(0, 0, 2, 2)
	require.NoError(t, err)
	_, err = tbl.Merge(1, 1, 1, 2)
	assert.ErrorIs(t, err, ErrOverlap)
}

func TestCellAtPanicsOutsideGrid(t *testing.T) {
	tbl := New(1, 1)
	assert.Panics(t, func() { tbl.CellAt(1, 0) })
	assert.Panics(t, func() { tbl.CellAt(0, -1) })
	assert.Panics(t, func() { New(1, 0) })
}

func TestStylesCellOverride(t *testing.T) {
	s := NewStyles()
	s.Cell = CellStyle{Padding: Uniform(1), Border: Uniform(0.2)}
	grey := Color{R: 240, G: 240, B: 240}

	plain := &Cell{}
	styled := &Cell{Style: &CellStyle{Padding: Uniform(3), Background: &grey}}

	assert.Equal(t, Uniform(1), s.CellStyle(plain).Padding)
	got := s.CellStyle(styled)
	assert.Equal(t, Uniform(3), got.Padding)
	assert.Equal(t, Uniform(0.2), got.Border)
	require.NotNil(t, got.Background)
	assert.Equal(t, grey, *got.Background)
}

func TestStylesSetters(t *testing.T) {
	s := NewStyles()
	s.SetColumnWidth(0, 30)
	s.SetColumnRelative(1, 2)
	s.SetRowHeight(0, 10)
	s.SetRowMinHeight(1, 5)

	require.NotNil(t, s.ColumnStyle(0).Width)
	assert.Equal(t, 30.0, *s.ColumnStyle(0).Width)
	require.NotNil(t, s.ColumnStyle(1).RelativeWidth)
	assert.Nil(t, s.ColumnStyle(2).Width)
	require.NotNil(t, s.RowStyle(0).Height)
	assert.Equal(t, 5.0, s.RowStyle(1).MinHeight)
	assert.Nil(t, s.RowStyle(1).Height)
}
