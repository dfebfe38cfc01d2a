package layout

import (
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/tablelayout"
)

// lineEpsilon 吸收行高累加的浮点误差。
const lineEpsilon = 1e-6

// textCells 用 Typesetter 排版单元格文本，按行切分到各个片段。
// 续排位置的 Offset 是下一行的行号；片段间列宽变化时按新宽度重新折行，
// 行号只是近似对应。
type textCells struct {
	res   ResourceSet
	ts    Typesetter
	debug DebugOptions
	texts map[*table.Cell]cellText

	boxes map[boxKey]TextBox
	// err 记录第一个排版错误，由分页驱动在每个片段之后检查。
	err error
}

type boxKey struct {
	cell  *table.Cell
	width float64
}

var _ tablelayout.CellLayouter = (*textCells)(nil)

func newTextCells(res ResourceSet, ctx *flowContext, texts map[*table.Cell]cellText) *textCells {
	return &textCells{
		res:   res,
		ts:    ctx.typesetter,
		debug: ctx.debug,
		texts: texts,
		boxes: map[boxKey]TextBox{},
	}
}

// textArea 是一个片段中单元格放下的文本行。
type textArea struct {
	box    TextBox
	bottom float64
}

func (a *textArea) Bottom() float64 { return a.bottom }

// LayoutCell 从 from 指向的行开始放置文本，直到下一行越过 b.Bottom。
// 一行都放不下时返回空区域，续排位置保持不变。
func (c *textCells) LayoutCell(cell *table.Cell, b tablelayout.Bounds, from *tablelayout.ContentPos) (tablelayout.CellArea, *tablelayout.ContentPos, bool) {
	start := 0
	if from != nil {
		start = from.Offset
	}
	empty := &textArea{box: TextBox{X: b.Left, Y: b.Top, Width: b.Width()}, bottom: b.Top}

	ct, ok := c.texts[cell]
	if !ok || ct.content == "" {
		return empty, &tablelayout.ContentPos{Offset: start}, true
	}
	full, err := c.compose(cell, ct, b.Width())
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return empty, &tablelayout.ContentPos{Offset: start}, true
	}

	lines := make([]TextLine, 0, len(full.Lines))
	y := b.Top
	next := start
	for ; next < len(full.Lines); next++ {
		ln := full.Lines[next]
		if len(lines) == 0 {
			ln.GapBefore = 0
		}
		if y+ln.GapBefore+ln.Height > b.Bottom+lineEpsilon {
			break
		}
		y += ln.GapBefore + ln.Height
		lines = append(lines, ln)
	}

	box := full
	box.X = b.Left
	box.Y = b.Top
	box.Lines = lines
	box.Height = y - b.Top
	return &textArea{box: box, bottom: y}, &tablelayout.ContentPos{Offset: next}, next >= len(full.Lines)
}

func (c *textCells) compose(cell *table.Cell, ct cellText, width float64) (TextBox, error) {
	key := boxKey{cell: cell, width: width}
	if tb, ok := c.boxes[key]; ok {
		return tb, nil
	}
	tb, _, err := composeTextBox(ct.style, ct.attrs, ct.content, 0, 0, width, c.res, ct.data, c.ts, c.debug, ct.wrap)
	if err != nil {
		return TextBox{}, err
	}
	c.boxes[key] = tb
	return tb, nil
}
