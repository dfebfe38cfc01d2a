package layout

import (
	"fmt"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/tablelayout"
)

// handleTable 把表格切分为片段：每个片段占用当前页剩余的内容区域，
// 放不下的行从下一页继续，表头行在每个续排片段顶部重复。
func handleTable(cmd *dsl.Command, ctx *flowContext, res ResourceSet) error {
	spec, err := buildTable(cmd, ctx, res)
	if err != nil {
		return err
	}
	cells := newTextCells(res, ctx, spec.texts)
	lt := tablelayout.NewLayouter(spec.table, spec.styles, cells, tablelayout.WithLogger(ctx.log))

	cur := lt.Start()
	defer func() { lt.Finish(cur) }()

	fragment := 0
	for {
		band := tablelayout.Band{
			Left:      ctx.baseX,
			Right:     ctx.baseX + ctx.width,
			Top:       ctx.cursorY,
			MaxBottom: ctx.collector.maxContentY(),
		}
		area := lt.NewArea(band)
		next, done := area.Layout(cur)
		if cells.err != nil {
			area.Release()
			cur = next
			return fmt.Errorf("table 单元格排版失败: %w", cells.err)
		}

		moved := progressed(cur, next)
		if moved {
			if acc := ctx.acc(); acc != nil {
				acc.appendTable(spec.fragmentBox(area, fragment))
			}
			ctx.cursorY = area.Bottom()
			fragment++
		}
		area.Release()
		cur = next
		if done {
			break
		}

		if !moved && (!ctx.allowPageBreak || band.Top <= ctx.collector.contentTop()) {
			return fmt.Errorf("table 第 %d 行在空白页上也放不下", cur.Row)
		}
		ctx.log.Debugf("table continues on a new page at row %d (fragment %d)", cur.Row, fragment)
		ctx.pageBreak()
	}

	ctx.cursorY += spec.styles.Format().Margin.Bottom + blockSpacing
	return nil
}

// progressed 报告片段是否放下了新的内容：完成了至少一行，或推进了某个单元格的续排位置。
func progressed(from, to tablelayout.Cursor) bool {
	if to.Row != from.Row {
		return true
	}
	offset := func(p *tablelayout.ContentPos) int {
		if p == nil {
			return 0
		}
		return p.Offset
	}
	for i := range to.Columns {
		if offset(to.Columns[i]) != offset(from.Columns[i]) {
			return true
		}
	}
	return false
}

// fragmentBox 将片段转换为可渲染的 TableBox。行与单元格样式在此时从
// 样式表读取，跨行单元格在每个片段中只输出一次。
func (s *tableSpec) fragmentBox(a *tablelayout.Area, index int) TableBox {
	t := s.table
	f := s.styles.Format()
	rect := a.TableRect()
	box := TableBox{
		X:               rect.X,
		Y:               rect.Y,
		Width:           rect.Width,
		Height:          rect.Height,
		ColumnPositions: a.ColumnPositions(),
		Background:      f.Background,
		BorderColor:     defaultBorderColor,
		Fragment:        index,
		Continued:       index > 0,
	}
	if f.BorderColor != nil {
		box.BorderColor = *f.BorderColor
	}

	dx, dy := a.HeaderOffset()
	seen := map[*table.Cell]bool{}
	for _, r := range a.DisplayedRows() {
		rr, ok := a.RowRect(r)
		if !ok {
			continue
		}
		header := r < a.HeaderRowCount()
		box.Rows = append(box.Rows, TableRow{
			Index:      r,
			Y:          rr.Y,
			Height:     rr.Height,
			IsHeader:   header,
			Background: s.styles.RowStyle(r).Background,
		})
		for col := 0; col < t.Columns(); {
			cell := t.CellAt(r, col)
			col = cell.LastColumn() + 1
			if seen[cell] {
				continue
			}
			seen[cell] = true
			br := a.CellBoundingRect(cell)
			if br.Empty() {
				continue
			}
			st := s.styles.CellStyle(cell)
			tc := TableCell{
				Row:        cell.Row,
				Column:     cell.Column,
				RowSpan:    cell.RowSpan,
				ColumnSpan: cell.ColumnSpan,
				X:          br.X,
				Y:          br.Y,
				Width:      br.Width,
				Height:     br.Height,
				Border:     st.Border,
				Background: st.Background,
			}
			if ca, ok := a.CellArea(cell.Row, cell.Column); ok {
				if ta, ok := ca.(*textArea); ok {
					tc.Text = ta.box
					if header && a.ShowsHeader() {
						tc.Text.X += dx
						tc.Text.Y += dy
					}
				}
			}
			box.Cells = append(box.Cells, tc)
		}
	}
	return box
}
