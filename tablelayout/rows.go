package tablelayout

import (
	"fmt"
	"math"

	"github.com/ByLCY/folio/table"
)

type rowOutcome int

const (
	// rowRefused：剩余空间不足以满足行的固定或最小高度，行没有被开始。
	rowRefused rowOutcome = iota
	// rowPartial：行已放置，但至少一个单元格的内容需要在下一片段继续。
	rowPartial
	// rowComplete：行内所有单元格内容都已放下。
	rowComplete
)

// layoutRow 布局 cur.Row 行并写入下一行的上边界。
//
// 第一遍只布局在本行纵向结束的单元格，它们决定行高。若有单元格没有放完，
// 第二遍再按已确定的行底布局跨到后续行的单元格。行底在第一遍之后不会再变，
// 因此不需要第三遍。
func (a *Area) layoutRow(cur Cursor) (Cursor, rowOutcome) {
	t := a.l.table
	row := cur.Row
	if row < 0 || row >= t.Rows() {
		panic(fmt.Sprintf("tablelayout: row %d outside table of %d rows", row, t.Rows()))
	}
	top, ok := a.rowPos[row]
	if !ok {
		panic(fmt.Sprintf("tablelayout: row %d has no top position", row))
	}

	rs := a.l.styles.RowStyle(row)
	exact := rs.Height != nil
	bottom := top + rs.MinHeight
	if exact {
		bottom = top + *rs.Height
	}
	if bottom > a.band.MaxBottom {
		a.l.log.Debugf("row %d refused: needs bottom %.2f, band ends at %.2f", row, bottom, a.band.MaxBottom)
		return cur, rowRefused
	}

	next := cur.Clone()
	all := true
	for col := 0; col < t.Columns(); {
		cell := t.CellAt(row, col)
		if cell.EndsIn(row) {
			st := a.l.styles.CellStyle(cell)
			maxBottom := a.band.MaxBottom
			if exact {
				maxBottom = top + *rs.Height
			}
			maxBottom -= st.Padding.Bottom + st.Border.Bottom
			area, done := a.layoutCell(&next, cell, st, maxBottom)
			all = all && done
			if !exact {
				bottom = math.Max(bottom, area.Bottom()+st.Padding.Bottom+st.Border.Bottom)
			}
		}
		col = cell.LastColumn() + 1
	}

	if !all {
		for col := 0; col < t.Columns(); {
			cell := t.CellAt(row, col)
			if !cell.EndsIn(row) {
				st := a.l.styles.CellStyle(cell)
				_, done := a.layoutCell(&next, cell, st, bottom-st.Padding.Bottom-st.Border.Bottom)
				all = all && done
			}
			col = cell.LastColumn() + 1
		}
	}

	a.rowPos[row+1] = bottom
	if !all {
		a.l.log.Debugf("row %d partial: bottom %.2f", row, bottom)
		return next, rowPartial
	}
	return next, rowComplete
}

// layoutCell 为 cell 创建新的内容区域，并在 cur 中记录其续排位置。
func (a *Area) layoutCell(cur *Cursor, cell *table.Cell, st table.CellStyle, maxBottom float64) (CellArea, bool) {
	b := Bounds{
		Left:   a.cols.Positions[cell.Column] + st.Padding.Left + st.Border.Left,
		Right:  a.cols.Positions[cell.LastColumn()+1] - st.Padding.Right - st.Border.Right,
		Top:    a.cellTop(cell) + st.Padding.Top + st.Border.Top,
		Bottom: maxBottom,
	}
	area, pos, done := a.l.cells.LayoutCell(cell, b, cur.Columns[cell.Column])
	if area == nil || pos == nil {
		panic(fmt.Sprintf("tablelayout: cell (%d,%d) layouter returned no area or position", cell.Row, cell.Column))
	}
	cur.Columns[cell.Column] = pos
	a.setCell(cell, a.l.pool.Put(area))
	return area, done
}

// cellTop 返回单元格在本片段中的上边界。起始行在本片段之前的跨行单元格
// 从本片段第一行的顶部开始。
func (a *Area) cellTop(cell *table.Cell) float64 {
	if cell.Row >= a.start.HeaderRows && cell.Row < a.start.Row {
		return a.rowPos[a.start.Row]
	}
	if y, ok := a.rowPos[cell.Row]; ok {
		return y
	}
	return a.rowPos[a.start.Row]
}
