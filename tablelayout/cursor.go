package tablelayout

import "github.com/ByLCY/folio/table"

// HeaderSnapshot 保存表头行在建立它的片段中的几何与内容区域，
// 供之后的片段重复显示。快照创建后不再修改。
type HeaderSnapshot struct {
	// Positions 有 HeaderRows+1 个元素，最后一个是表头块的下边界。
	Positions []float64
	// Areas[row][col] 为表头单元格区域，0 表示该位置被跨度覆盖。
	Areas [][]Handle
	// X 为表头布局时第 0 列的横坐标。
	X float64
	// ColumnWidths 为表头布局时的列宽。
	ColumnWidths []float64
}

// Height 返回表头块高度。
func (s *HeaderSnapshot) Height() float64 {
	return s.Positions[len(s.Positions)-1] - s.Positions[0]
}

// Cursor 是表格内的续排位置，按值传递：Layout 接收一个 Cursor
// 并返回推进后的副本。
type Cursor struct {
	// Row 是下一个要布局的行。
	Row int
	// HeaderRows 是在每个片段顶部重复的行数。
	HeaderRows int
	// Columns[col] 是从 col 列开始的单元格内容的续排位置，nil 表示尚未开始。
	Columns []*ContentPos
	// Header 在表头行全部完成之后设置，没有表头行时始终为 nil。
	Header *HeaderSnapshot
}

// NewCursor 返回指向表格开头的 Cursor。
func NewCursor(t *table.Table) Cursor {
	if t == nil {
		panic("tablelayout: nil table")
	}
	h := t.HeaderRows
	if h < 0 {
		h = 0
	}
	if h > t.Rows() {
		h = t.Rows()
	}
	return Cursor{HeaderRows: h, Columns: make([]*ContentPos, t.Columns())}
}

// Clone 复制 Cursor。表头快照本身不可变，因此共享。
func (c Cursor) Clone() Cursor {
	out := c
	out.Columns = append([]*ContentPos(nil), c.Columns...)
	return out
}

// Started 报告当前行是否已有部分内容被放置。
func (c Cursor) Started() bool {
	for _, p := range c.Columns {
		if p != nil {
			return true
		}
	}
	return false
}

// Done 报告表格是否已全部布局。
func (c Cursor) Done(t *table.Table) bool { return c.Row >= t.Rows() }
