package tablelayout

import "github.com/ByLCY/folio/table"

// Start 返回片段开始时的 Cursor。
func (a *Area) Start() Cursor { return a.start.Clone() }

// End 返回片段结束时的 Cursor，即下一片段的起点。
func (a *Area) End() Cursor { return a.end.Clone() }

// Band 返回片段的可用空间。
func (a *Area) Band() Band { return a.band }

// ColumnPositions 返回 N+1 个列边界。
func (a *Area) ColumnPositions() []float64 { return append([]float64(nil), a.cols.Positions...) }

// ColumnWidths 返回 N 个列宽。
func (a *Area) ColumnWidths() []float64 { return append([]float64(nil), a.cols.Widths...) }

// TableWidth 返回表格宽度。
func (a *Area) TableWidth() float64 { return a.cols.TableWidth }

// RowPosition 返回第 r 个行边界。只有本片段中出现的行才有位置。
func (a *Area) RowPosition(r int) (float64, bool) {
	y, ok := a.rowPos[r]
	return y, ok
}

// HeaderRowCount 返回表头行数。
func (a *Area) HeaderRowCount() int { return a.start.HeaderRows }

// ShowsHeader 报告本片段是否在顶部重复显示了表头。
func (a *Area) ShowsHeader() bool { return a.header }

// HeaderOffset 返回复用的表头区域相对其原始位置的平移量。
// 表头在本片段重新布局时为 (0, 0)。
func (a *Area) HeaderOffset() (dx, dy float64) { return a.headerOffsetX, a.headerOffsetY }

// Top 返回片段的上边界。
func (a *Area) Top() float64 { return a.band.Top }

// Bottom 返回最后放置的行的下边界；被拒绝的行不计入。
func (a *Area) Bottom() float64 { return a.bottom }

// CellArea 返回拥有者位置 (row, col) 的内容区域。
func (a *Area) CellArea(row, col int) (CellArea, bool) {
	h := a.CellHandle(row, col)
	if h == 0 {
		return nil, false
	}
	return a.l.pool.Area(h), true
}

// CellHandle 返回拥有者位置 (row, col) 的区域句柄，没有时为 0。
func (a *Area) CellHandle(row, col int) Handle {
	cells, ok := a.cells[row]
	if !ok || col < 0 || col >= len(cells) {
		return 0
	}
	return cells[col]
}

// VisibleRows 返回本片段放置的表体行范围 [first, last]。
// 部分放置的最后一行也计入。
func (a *Area) VisibleRows() (first, last int, ok bool) {
	first = a.start.Row
	last = a.end.Row - 1
	if a.partial {
		last = a.end.Row
	}
	return first, last, last >= first
}

// DisplayedRows 依次返回本片段需要绘制的行：重复的表头行与可见的表体行。
func (a *Area) DisplayedRows() []int {
	var rows []int
	if a.header {
		for r := 0; r < a.start.HeaderRows; r++ {
			rows = append(rows, r)
		}
	}
	if first, last, ok := a.VisibleRows(); ok {
		for r := first; r <= last; r++ {
			rows = append(rows, r)
		}
	}
	return rows
}

// CellBoundingRect 返回单元格在本片段中的外框，行跨度被裁剪到可见范围。
// 续排片段中的表头单元格使用表头的行范围。没有可见行时返回零值。
func (a *Area) CellBoundingRect(cell *table.Cell) Rect {
	first, last, ok := a.VisibleRows()
	if a.header && cell.Row < a.start.HeaderRows {
		first, last, ok = 0, a.start.HeaderRows-1, true
	}
	if !ok {
		return Rect{}
	}
	r0 := max(cell.Row, first)
	r1 := min(cell.LastRow(), last)
	if r1 < r0 {
		return Rect{}
	}
	x0 := a.cols.Positions[cell.Column]
	x1 := a.cols.Positions[cell.LastColumn()+1]
	y0 := a.rowPos[r0]
	y1 := a.rowPos[r1+1]
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// RowRect 返回第 row 行横跨整个表格的矩形。
func (a *Area) RowRect(row int) (Rect, bool) {
	y0, ok0 := a.rowPos[row]
	y1, ok1 := a.rowPos[row+1]
	if !ok0 || !ok1 || len(a.cols.Positions) == 0 {
		return Rect{}, false
	}
	return Rect{X: a.cols.Positions[0], Y: y0, Width: a.cols.TableWidth, Height: y1 - y0}, true
}

// TableRect 返回本片段中表格（含重复表头）的外框。
func (a *Area) TableRect() Rect {
	rows := a.DisplayedRows()
	if len(rows) == 0 {
		return Rect{}
	}
	top := a.rowPos[rows[0]]
	bottom := a.rowPos[rows[len(rows)-1]+1]
	return Rect{X: a.cols.Positions[0], Y: top, Width: a.cols.TableWidth, Height: bottom - top}
}
