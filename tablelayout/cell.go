package tablelayout

import "github.com/ByLCY/folio/table"

// Bounds 是交给单元格内容布局的矩形（已扣除 padding 与边框）。
type Bounds struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Width 返回矩形宽度。
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Rect 是几何查询返回的矩形。
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Empty 报告矩形是否为空。
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// ContentPos 记录单元格内容在分页处的续排位置。
// Offset 由 CellLayouter 自行解释，State 可携带任意附加状态。
type ContentPos struct {
	Offset int
	State  any
}

// CellArea 是单元格内容的布局结果。
type CellArea interface {
	// Bottom 返回已放置内容的底边。
	Bottom() float64
}

// CellLayouter 在给定矩形内布局单元格内容。
//
// from 为 nil 表示从头开始。返回值依次为布局结果、下一次续排的位置
// 以及内容是否已全部放下。返回的位置不能为 nil。
type CellLayouter interface {
	LayoutCell(cell *table.Cell, b Bounds, from *ContentPos) (CellArea, *ContentPos, bool)
}

// CellLayouterFunc 让普通函数实现 CellLayouter。
type CellLayouterFunc func(cell *table.Cell, b Bounds, from *ContentPos) (CellArea, *ContentPos, bool)

func (f CellLayouterFunc) LayoutCell(cell *table.Cell, b Bounds, from *ContentPos) (CellArea, *ContentPos, bool) {
	return f(cell, b, from)
}
