// Package tablelayout 把表格逐页切分为片段（fragment）并计算每个片段的几何：
// 列位置、行位置与单元格内容区域。
//
// 每个片段由分页驱动分配一个 Band，调用 Area.Layout 接收上一个片段
// 返回的 Cursor 并返回推进后的 Cursor。放不下的行不是错误，只是让 Layout
// 提前结束，驱动随后在新的一页上以返回的 Cursor 继续。
package tablelayout

import (
	"github.com/olekukonko/ll"

	"github.com/ByLCY/folio/table"
)

// Band 是分页驱动为一个片段提供的空间。
type Band struct {
	Left      float64
	Right     float64
	Top       float64
	MaxBottom float64
}

// Option 配置 Layouter。
type Option func(*Layouter)

// WithLogger 设置调试日志。
func WithLogger(l *ll.Logger) Option {
	return func(lt *Layouter) {
		if l != nil {
			lt.log = l
		}
	}
}

// WithPool 让多个表格共享同一个 Pool。
func WithPool(p *Pool) Option {
	return func(lt *Layouter) {
		if p != nil {
			lt.pool = p
		}
	}
}

// Layouter 持有一个表格的布局协作者，按顺序为其创建片段。
type Layouter struct {
	table  *table.Table
	styles table.StyleResolver
	cells  CellLayouter
	pool   *Pool
	log    *ll.Logger

	// live 记录仍持有引用的表头快照。
	live map[*HeaderSnapshot]struct{}
}

// NewLayouter 创建 Layouter。任何协作者为 nil 都会 panic。
func NewLayouter(t *table.Table, styles table.StyleResolver, cells CellLayouter, opts ...Option) *Layouter {
	switch {
	case t == nil:
		panic("tablelayout: nil table")
	case styles == nil:
		panic("tablelayout: nil style resolver")
	case cells == nil:
		panic("tablelayout: nil cell layouter")
	}
	lt := &Layouter{
		table:  t,
		styles: styles,
		cells:  cells,
		live:   map[*HeaderSnapshot]struct{}{},
	}
	for _, opt := range opts {
		opt(lt)
	}
	if lt.pool == nil {
		lt.pool = NewPool()
	}
	if lt.log == nil {
		lt.log = ll.New("tablelayout")
		lt.log.Disable()
	}
	return lt
}

// Table 返回正在布局的表格。
func (lt *Layouter) Table() *table.Table { return lt.table }

// Pool 返回单元格区域所在的 Pool。
func (lt *Layouter) Pool() *Pool { return lt.pool }

// Start 返回指向表格开头的 Cursor。
func (lt *Layouter) Start() Cursor { return NewCursor(lt.table) }

// NewArea 为 band 创建尚未布局的片段。
func (lt *Layouter) NewArea(band Band) *Area {
	return &Area{
		l:      lt,
		band:   band,
		rowPos: map[int]float64{},
		cells:  map[int][]Handle{},
	}
}

// Finish 释放 cur 中表头快照持有的引用。表格的最后一个片段布局完毕后调用。
func (lt *Layouter) Finish(cur Cursor) {
	if cur.Header != nil {
		lt.dropSnapshot(cur.Header)
	}
}

func (lt *Layouter) dropSnapshot(s *HeaderSnapshot) {
	if _, ok := lt.live[s]; !ok {
		return
	}
	delete(lt.live, s)
	for _, row := range s.Areas {
		for _, h := range row {
			if h != 0 {
				lt.pool.Release(h)
			}
		}
	}
}

// Area 是一个片段的布局结果。
type Area struct {
	l    *Layouter
	band Band

	start, end Cursor
	cols       ColumnLayout

	rowPos map[int]float64
	cells  map[int][]Handle

	// header 表示本片段在顶部重复显示了表头行。
	header        bool
	headerOffsetX float64
	headerOffsetY float64

	partial  bool
	bottom   float64
	laidOut  bool
	released bool
}

// Layout 从 cur 开始尽可能多地放置行，返回推进后的 Cursor 以及表格是否已完成。
// 每个 Area 只能调用一次。
func (a *Area) Layout(cur Cursor) (Cursor, bool) {
	if a.laidOut {
		panic("tablelayout: area laid out twice")
	}
	a.laidOut = true
	t := a.l.table
	if len(cur.Columns) != t.Columns() {
		panic("tablelayout: cursor does not belong to this table")
	}
	cur = cur.Clone()
	a.start = cur.Clone()
	a.bottom = a.band.Top

	if cur.Done(t) {
		a.end = cur.Clone()
		a.l.log.Debugf("fragment empty: table already complete at row %d", cur.Row)
		return cur, true
	}

	a.cols = SolveColumns(a.band.Left, a.band.Right, t.Columns(), a.l.styles)
	first := cur.Header == nil
	if first {
		top := a.band.Top
		if cur.Row == 0 && !cur.Started() {
			top += a.l.styles.Format().Margin.Top
		}
		a.rowPos[cur.Row] = top
		a.bottom = top
	} else if !a.placeHeader(&cur) {
		a.end = cur.Clone()
		return cur, false
	}

	complete := true
	for complete && cur.Row < t.Rows() {
		var out rowOutcome
		row := cur.Row
		cur, out = a.layoutRow(cur)
		switch out {
		case rowComplete:
			a.bottom = a.rowPos[row+1]
			a.clearEnded(&cur, row)
			cur.Row++
		case rowPartial:
			a.bottom = a.rowPos[row+1]
			a.partial = true
			complete = false
		case rowRefused:
			a.bottom = a.rowPos[row]
			complete = false
		}
	}

	// 表头行在本片段中完成时建立快照。表头行跨页续排时，由完成它的片段建立。
	if first && cur.HeaderRows > 0 && cur.Row >= cur.HeaderRows && a.start.Row < cur.HeaderRows {
		cur.Header = a.snapshot(cur.HeaderRows)
	}

	a.end = cur.Clone()
	a.l.log.Debugf("fragment rows %d..%d bottom=%.2f partial=%v done=%v",
		a.start.Row, cur.Row, a.bottom, a.partial, complete)
	return cur, complete
}

// placeHeader 在续排片段顶部放置表头。列宽与快照相同时复用快照中的区域，
// 否则按当前列宽重新布局表头并刷新快照。
func (a *Area) placeHeader(cur *Cursor) bool {
	snap := cur.Header
	h := cur.HeaderRows
	if !sameWidths(snap.ColumnWidths, a.cols.Widths) {
		return a.reflowHeader(cur)
	}
	a.headerOffsetY = a.band.Top - snap.Positions[0]
	a.headerOffsetX = a.cols.Positions[0] - snap.X
	for r := 0; r <= h; r++ {
		a.rowPos[r] = snap.Positions[r] + a.headerOffsetY
	}
	for r := 0; r < h; r++ {
		row := make([]Handle, len(snap.Areas[r]))
		for c, hd := range snap.Areas[r] {
			if hd != 0 {
				a.l.pool.Retain(hd)
				row[c] = hd
			}
		}
		a.cells[r] = row
	}
	a.header = true
	a.rowPos[cur.Row] = a.rowPos[h]
	a.bottom = a.rowPos[h]
	return true
}

func (a *Area) reflowHeader(cur *Cursor) bool {
	h := cur.HeaderRows
	hc := Cursor{HeaderRows: h, Columns: make([]*ContentPos, len(cur.Columns))}
	a.rowPos[0] = a.band.Top
	for hc.Row < h {
		var out rowOutcome
		hc, out = a.layoutRow(hc)
		if out != rowComplete {
			a.l.log.Infof("header does not fit in band %.2f..%.2f", a.band.Top, a.band.MaxBottom)
			for r := 0; r < h; r++ {
				a.dropRow(r)
			}
			a.rowPos = map[int]float64{}
			return false
		}
		hc.Row++
	}
	a.l.log.Debugf("header reflowed for column widths %v", a.cols.Widths)
	a.l.dropSnapshot(cur.Header)
	cur.Header = a.snapshot(h)
	a.header = true
	a.rowPos[cur.Row] = a.rowPos[h]
	a.bottom = a.rowPos[h]
	return true
}

// snapshot 记录本片段中表头的几何，并为其中的区域各增加一个引用。
func (a *Area) snapshot(h int) *HeaderSnapshot {
	s := &HeaderSnapshot{
		Positions:    make([]float64, h+1),
		Areas:        make([][]Handle, h),
		X:            a.cols.Positions[0],
		ColumnWidths: append([]float64(nil), a.cols.Widths...),
	}
	for r := 0; r < h; r++ {
		// 在之前片段中已完成的表头行不在本片段中，高度记为 0。
		y, ok := a.rowPos[r]
		if !ok {
			y = a.rowPos[a.start.Row]
		}
		s.Positions[r] = y
		row := make([]Handle, a.l.table.Columns())
		for c, hd := range a.cells[r] {
			if hd != 0 {
				a.l.pool.Retain(hd)
				row[c] = hd
			}
		}
		s.Areas[r] = row
	}
	s.Positions[h] = a.rowPos[h]
	a.l.live[s] = struct{}{}
	return s
}

// clearEnded 丢弃在 row 行结束的单元格的续排位置。跨到后续行的单元格保留位置。
func (a *Area) clearEnded(cur *Cursor, row int) {
	t := a.l.table
	for col := 0; col < t.Columns(); {
		cell := t.CellAt(row, col)
		if cell.EndsIn(row) {
			cur.Columns[cell.Column] = nil
		}
		col = cell.LastColumn() + 1
	}
}

func (a *Area) setCell(cell *table.Cell, h Handle) {
	row, ok := a.cells[cell.Row]
	if !ok {
		row = make([]Handle, a.l.table.Columns())
		a.cells[cell.Row] = row
	}
	if old := row[cell.Column]; old != 0 {
		a.l.pool.Release(old)
	}
	row[cell.Column] = h
}

func (a *Area) dropRow(r int) {
	for _, h := range a.cells[r] {
		if h != 0 {
			a.l.pool.Release(h)
		}
	}
	delete(a.cells, r)
}

// Release 释放本片段持有的全部区域引用。仍被表头快照或其他片段引用的区域不会被回收。
func (a *Area) Release() {
	if a.released {
		return
	}
	a.released = true
	for r := range a.cells {
		a.dropRow(r)
	}
}

func sameWidths(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if d := a[i] - b[i]; d > epsilon || d < -epsilon {
			return false
		}
	}
	return true
}

const epsilon = 1e-9
