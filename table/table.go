// Package table 定义只读的表格模型：行列网格、合并单元格以及样式查询接口。
//
// 布局引擎只通过 CellAt 与 StyleResolver 读取表格，不会修改其中任何数据。
package table

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange 表示合并区域越出网格或跨度小于 1。
	ErrOutOfRange = errors.New("table: span out of range")
	// ErrOverlap 表示合并区域与已有的合并单元格重叠。
	ErrOverlap = errors.New("table: span overlaps a merged cell")
)

// Cell 是网格中的一个（可能跨行跨列的）单元格。
type Cell struct {
	Row        int
	Column     int
	RowSpan    int
	ColumnSpan int
	Text       string
	// Style 覆盖表格默认的单元格样式，nil 时使用默认值。
	Style *CellStyle
}

// LastRow 返回单元格覆盖的最后一行。
func (c *Cell) LastRow() int { return c.Row + c.RowSpan - 1 }

// LastColumn 返回单元格覆盖的最后一列。
func (c *Cell) LastColumn() int { return c.Column + c.ColumnSpan - 1 }

// EndsIn 报告单元格是否在 row 行纵向结束。
func (c *Cell) EndsIn(row int) bool { return row == c.LastRow() }

// Covers 报告 (row, col) 是否落在单元格范围内。
func (c *Cell) Covers(row, col int) bool {
	return row >= c.Row && row <= c.LastRow() && col >= c.Column && col <= c.LastColumn()
}

func (c *Cell) merged() bool { return c.RowSpan > 1 || c.ColumnSpan > 1 }

// Table 保存 rows × columns 的网格。owner 记录每个位置所属的单元格。
type Table struct {
	rows    int
	columns int
	owner   [][]*Cell

	// HeaderRows 为在每个分页片段顶部重复的前导行数。
	HeaderRows int
}

// New 创建一个每个位置都是独立 1x1 单元格的表格。
func New(rows, columns int) *Table {
	if rows < 0 || columns < 1 {
		panic(fmt.Sprintf("table: invalid grid %dx%d", rows, columns))
	}
	t := &Table{rows: rows, columns: columns, owner: make([][]*Cell, rows)}
	for r := 0; r < rows; r++ {
		t.owner[r] = make([]*Cell, columns)
		for c := 0; c < columns; c++ {
			t.owner[r][c] = &Cell{Row: r, Column: c, RowSpan: 1, ColumnSpan: 1}
		}
	}
	return t
}

// Rows 返回行数。
func (t *Table) Rows() int { return t.rows }

// Columns 返回列数。
func (t *Table) Columns() int { return t.columns }

// Merge 将 [row,row+rowSpan) × [col,col+colSpan) 合并为一个单元格。
// 左上角单元格的文本与样式被保留。
func (t *Table) Merge(row, col, rowSpan, colSpan int) (*Cell, error) {
	if rowSpan < 1 || colSpan < 1 || row < 0 || col < 0 ||
		row+rowSpan > t.rows || col+colSpan > t.columns {
		return nil, fmt.Errorf("merge (%d,%d) span %dx%d in %dx%d grid: %w",
			row, col, rowSpan, colSpan, t.rows, t.columns, ErrOutOfRange)
	}
	for r := row; r < row+rowSpan; r++ {
		for c := col; c < col+colSpan; c++ {
			if t.owner[r][c].merged() {
				return nil, fmt.Errorf("merge (%d,%d) span %dx%d at (%d,%d): %w",
					row, col, rowSpan, colSpan, r, c, ErrOverlap)
			}
		}
	}
	cell := t.owner[row][col]
	cell.RowSpan = rowSpan
	cell.ColumnSpan = colSpan
	for r := row; r < row+rowSpan; r++ {
		for c := col; c < col+colSpan; c++ {
			t.owner[r][c] = cell
		}
	}
	return cell, nil
}

// CellAt 返回覆盖 (row, col) 的单元格。位置被合并单元格覆盖时，
// 返回的是跨越该位置的那个单元格本身，因此 CellAt(r, c).Row 可能小于 r。
func (t *Table) CellAt(row, col int) *Cell {
	if row < 0 || row >= t.rows || col < 0 || col >= t.columns {
		panic(fmt.Sprintf("table: cell (%d,%d) outside %dx%d grid", row, col, t.rows, t.columns))
	}
	return t.owner[row][col]
}

// Cells 按行优先顺序返回所有拥有者单元格，每个单元格只出现一次。
func (t *Table) Cells() []*Cell {
	out := make([]*Cell, 0, t.rows*t.columns)
	for r := 0; r < t.rows; r++ {
		for c := 0; c < t.columns; c++ {
			cell := t.owner[r][c]
			if cell.Row == r && cell.Column == c {
				out = append(out, cell)
			}
		}
	}
	return out
}
