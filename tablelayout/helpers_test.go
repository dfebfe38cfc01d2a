package tablelayout

import (
	"testing"

	"github.com/ByLCY/folio/table"
)

const lineHeight = 10.0

type stubArea struct {
	bottom   float64
	lines    int
	disposed *int
}

func (s *stubArea) Bottom() float64 { return s.bottom }

func (s *stubArea) Dispose() {
	if s.disposed != nil {
		*s.disposed++
	}
}

// lineCells 把每个单元格视为若干固定高度的行。未登记的单元格只有一行。
type lineCells struct {
	lines    map[[2]int]int
	overflow bool
	calls    int
	disposed int
}

func newLineCells() *lineCells { return &lineCells{lines: map[[2]int]int{}} }

func (l *lineCells) set(row, col, n int) { l.lines[[2]int{row, col}] = n }

func (l *lineCells) LayoutCell(cell *table.Cell, b Bounds, from *ContentPos) (CellArea, *ContentPos, bool) {
	l.calls++
	total, ok := l.lines[[2]int{cell.Row, cell.Column}]
	if !ok {
		total = 1
	}
	start := 0
	if from != nil {
		start = from.Offset
	}
	n := 0
	y := b.Top
	for start+n < total && (l.overflow || y+lineHeight <= b.Bottom+epsilon) {
		y += lineHeight
		n++
	}
	area := &stubArea{bottom: y, lines: n, disposed: &l.disposed}
	return area, &ContentPos{Offset: start + n}, start+n >= total
}

// paginate 把表格布局到一系列 band 中，直到完成。
func paginate(t *testing.T, lt *Layouter, band func(i int) Band) []*Area {
	t.Helper()
	cur := lt.Start()
	var areas []*Area
	for i := 0; i < 100; i++ {
		a := lt.NewArea(band(i))
		next, done := a.Layout(cur)
		areas = append(areas, a)
		cur = next
		if done {
			lt.Finish(cur)
			return areas
		}
	}
	t.Fatalf("table did not finish within 100 fragments")
	return nil
}

func pages(height float64) func(int) Band {
	return func(int) Band { return Band{Left: 0, Right: 100, Top: 0, MaxBottom: height} }
}

func ptr(v float64) *float64 { return &v }
