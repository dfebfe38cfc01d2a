package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/table"
)

const (
	cellPadding = 1.2
	cellBorder  = 0.2
)

var (
	defaultBorderColor = Color{R: 200, G: 200, B: 200}
	headerBackground   = Color{R: 248, G: 248, B: 248}
)

// textAttributes 是行声明后由其中单元格继承的文本属性。
var textAttributes = []string{"font", "size", "color", "line-height", "align", "wrap"}

// tableSpec 是从 table 语句构建出的表格模型、样式与单元格文本。
type tableSpec struct {
	table  *table.Table
	styles *table.Styles
	texts  map[*table.Cell]cellText
}

// cellText 记录单元格文本及其排版属性，data 为 each 展开后的绑定作用域。
type cellText struct {
	style   string
	attrs   map[string]string
	content string
	data    any
	wrap    string
}

type rowDef struct {
	cmd    *dsl.Command
	header bool
	data   any
}

type placement struct {
	row, col         int
	rowSpan, colSpan int
	text             cellText
	style            *table.CellStyle
}

// buildTable 将 table 语句转换为表格模型。单元格依次填入下一个空闲列，
// 跳过上方跨行单元格占据的位置。
func buildTable(cmd *dsl.Command, ctx *flowContext, res ResourceSet) (*tableSpec, error) {
	if cmd.Block == nil {
		return nil, fmt.Errorf("table 语句缺少内容")
	}
	styleName, attrs := parseArgs(cmd.Args, false)
	attrs = mergeStyleAttributes(styleName, attrs, res.Styles)

	var rows []rowDef
	var columns []*dsl.Command
	if err := collectRows(cmd.Block, ctx.data, true, &rows, &columns); err != nil {
		return nil, err
	}

	fixed := 0
	if v := attrs["columns"]; v != "" {
		n, err := parseCount("columns", v)
		if err != nil {
			return nil, fmt.Errorf("table: %w", err)
		}
		fixed = n
	}

	cells, width, err := placeCells(rows, fixed, ctx, res)
	if err != nil {
		return nil, err
	}
	width = max(width, len(columns))
	if fixed > 0 {
		width = fixed
	}
	if width == 0 {
		return nil, fmt.Errorf("table 需要至少一个单元格")
	}

	t := table.New(len(rows), width)
	t.HeaderRows = countHeaderRows(rows)
	if v := attrs["header-rows"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("table: header-rows 需要非负整数，实际为 %q", v)
		}
		t.HeaderRows = min(max(t.HeaderRows, n), len(rows))
	}

	styles := table.NewStyles()
	styles.Table = tableFormat(attrs, res)
	styles.Cell = table.CellStyle{Padding: table.Uniform(cellPadding), Border: table.Uniform(cellBorder)}
	if v := attrs["padding"]; v != "" {
		styles.Cell.Padding = table.Uniform(parseLength(v))
	}
	if v := attrs["border"]; v != "" {
		styles.Cell.Border = table.Uniform(parseLength(v))
	}
	if err := applyColumns(styles, columns, width, res); err != nil {
		return nil, err
	}
	for r, def := range rows {
		applyRowStyle(styles, r, def, t.HeaderRows, res)
	}

	spec := &tableSpec{table: t, styles: styles, texts: map[*table.Cell]cellText{}}
	for _, p := range cells {
		cell := t.CellAt(p.row, p.col)
		if p.rowSpan > 1 || p.colSpan > 1 {
			if cell, err = t.Merge(p.row, p.col, p.rowSpan, p.colSpan); err != nil {
				return nil, fmt.Errorf("单元格 (%d,%d): %w", p.row, p.col, err)
			}
		}
		cell.Text = p.text.content
		cell.Style = p.style
		spec.texts[cell] = p.text
	}
	if err := applyLineMinimums(styles, t, spec.texts, res); err != nil {
		return nil, err
	}
	return spec, nil
}

// applyLineMinimums 为没有声明 height 或 min-height 的行设置最小行高：
// 行内单行单元格的一行文字加上下内边距与边框。这样放不下第一行文字的行
// 会整行移到下一页，而不是在页底留下没有内容的残行。
func applyLineMinimums(styles *table.Styles, t *table.Table, texts map[*table.Cell]cellText, res ResourceSet) error {
	declared := map[int]bool{}
	for r, rs := range styles.Rows {
		declared[r] = rs.Height != nil || rs.MinHeight > 0
	}
	for _, cell := range t.Cells() {
		ct := texts[cell]
		if cell.RowSpan != 1 || ct.content == "" || declared[cell.Row] {
			continue
		}
		st, err := resolveTextStyle(ct.style, mergeStyleAttributes(ct.style, ct.attrs, res.Styles), res)
		if err != nil {
			return err
		}
		cs := styles.CellStyle(cell)
		need := st.lineHeight + cs.Padding.Top + cs.Padding.Bottom + cs.Border.Top + cs.Border.Bottom
		if rs := styles.Rows[cell.Row]; need > rs.MinHeight {
			styles.SetRowMinHeight(cell.Row, need)
		}
	}
	return nil
}

// collectRows 按出现顺序收集 header/row 语句，并展开 each 语句。
func collectRows(block *dsl.Block, data any, top bool, rows *[]rowDef, columns *[]*dsl.Command) error {
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		switch cmd.Name {
		case "column":
			if !top {
				return fmt.Errorf("column 只能在 table 中直接声明")
			}
			*columns = append(*columns, cmd)
		case "header":
			for _, r := range *rows {
				if !r.header {
					return fmt.Errorf("header 行必须位于所有 row 之前")
				}
			}
			*rows = append(*rows, rowDef{cmd: cmd, header: true, data: data})
		case "row":
			*rows = append(*rows, rowDef{cmd: cmd, data: data})
		case "each":
			path, name := parseEach(cmd.Args)
			if path == "" {
				return fmt.Errorf("each 语句缺少数据路径")
			}
			if cmd.Block == nil {
				return fmt.Errorf("each %s 缺少行定义", path)
			}
			items, ok := binding.Each(data, path)
			if !ok {
				return fmt.Errorf("each %s: 数据路径不存在或不是数组", path)
			}
			for _, item := range items {
				if err := collectRows(cmd.Block, binding.With(data, name, item), false, rows, columns); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// parseEach 解析 "each a.b[0].c as name"，省略 as 时变量名为 item。
func parseEach(args []*dsl.Lexeme) (string, string) {
	name := "item"
	end := len(args)
	for i, a := range args {
		if a.Type == "Ident" && a.Value == "as" && i+1 < len(args) {
			name = args[i+1].Value
			end = i
			break
		}
	}
	var b strings.Builder
	for _, a := range args[:end] {
		b.WriteString(a.Value)
	}
	return b.String(), name
}

func countHeaderRows(rows []rowDef) int {
	n := 0
	for n < len(rows) && rows[n].header {
		n++
	}
	return n
}

func placeCells(rows []rowDef, fixed int, ctx *flowContext, res ResourceSet) ([]placement, int, error) {
	occupied := map[[2]int]bool{}
	var out []placement
	width := 0
	for r, def := range rows {
		if def.cmd.Block == nil {
			return nil, 0, fmt.Errorf("%s 缺少 cell 定义", def.cmd.Name)
		}
		rowStyle, rowAttrs := parseArgs(def.cmd.Args, false)
		rowAttrs = mergeStyleAttributes(rowStyle, rowAttrs, res.Styles)

		col, n := 0, 0
		for _, stmt := range def.cmd.Block.Statements {
			if stmt.Command == nil || stmt.Command.Name != "cell" {
				continue
			}
			c := stmt.Command
			style, attrs := parseArgs(c.Args, true)
			attrs = inheritAttributes(rowAttrs, mergeStyleAttributes(style, attrs, res.Styles), textAttributes...)
			colSpan, err := parseCount("colspan", attrs["colspan"])
			if err != nil {
				return nil, 0, fmt.Errorf("第 %d 行: %w", r, err)
			}
			rowSpan, err := parseCount("rowspan", attrs["rowspan"])
			if err != nil {
				return nil, 0, fmt.Errorf("第 %d 行: %w", r, err)
			}
			rowSpan = min(rowSpan, len(rows)-r)

			for occupied[[2]int{r, col}] {
				col++
			}
			if fixed > 0 && col+colSpan > fixed {
				return nil, 0, fmt.Errorf("第 %d 行第 %d 列的单元格超出 columns %d", r, col, fixed)
			}
			for dr := 0; dr < rowSpan; dr++ {
				for dc := 0; dc < colSpan; dc++ {
					key := [2]int{r + dr, col + dc}
					if occupied[key] {
						return nil, 0, fmt.Errorf("第 %d 行第 %d 列的单元格与跨行单元格重叠", r, col)
					}
					occupied[key] = true
				}
			}

			wrap := ctx.textWrap
			if v := strings.TrimSpace(attrs["wrap"]); v != "" {
				wrap = normalizeWrap(v)
			}
			out = append(out, placement{
				row: r, col: col, rowSpan: rowSpan, colSpan: colSpan,
				text: cellText{
					style:   style,
					attrs:   attrs,
					content: extractText(c.Block),
					data:    def.data,
					wrap:    wrap,
				},
				style: cellStyle(attrs, res),
			})
			col += colSpan
			width = max(width, col)
			n++
		}
		if n == 0 {
			return nil, 0, fmt.Errorf("%s 中至少需要一个 cell", def.cmd.Name)
		}
	}
	return out, width, nil
}

func tableFormat(attrs map[string]string, res ResourceSet) table.Format {
	var f table.Format
	if v := attrs["width"]; v != "" {
		if l := ParseRawLengthStr(v); l.IsPercent() {
			f.Width = table.Percent(l.Value)
		} else if w := l.ToMM(); w > 0 {
			f.Width = table.Fixed(w)
		}
	}
	switch strings.ToLower(attrs["align"]) {
	case "right", "end":
		f.Align = table.AlignRight
	case "center", "middle":
		f.Align = table.AlignCenter
	case "justify":
		f.Align = table.AlignJustify
	}
	if v := attrs["margin"]; v != "" {
		f.Margin = table.Uniform(parseLength(v))
	}
	for key, side := range map[string]*float64{
		"margin-top":    &f.Margin.Top,
		"margin-right":  &f.Margin.Right,
		"margin-bottom": &f.Margin.Bottom,
		"margin-left":   &f.Margin.Left,
	} {
		if v := attrs[key]; v != "" {
			*side = parseLength(v)
		}
	}
	if c, ok := lookupColor(attrs["background"], res); ok {
		f.Background = &c
	}
	if c, ok := lookupColor(attrs["border-color"], res); ok {
		f.BorderColor = &c
	}
	return f
}

// cellStyle 返回 padding/border/background 属性声明的样式，没有声明时为 nil。
func cellStyle(attrs map[string]string, res ResourceSet) *table.CellStyle {
	var cs table.CellStyle
	set := false
	if v := attrs["padding"]; v != "" {
		cs.Padding = table.Uniform(parseLength(v))
		set = true
	}
	if v := attrs["border"]; v != "" {
		cs.Border = table.Uniform(parseLength(v))
		set = true
	}
	if c, ok := lookupColor(attrs["background"], res); ok {
		cs.Background = &c
		set = true
	}
	if !set {
		return nil
	}
	return &cs
}

// applyColumns 处理 column 语句：width 为 mm 时是固定列宽，为百分比时
// 等同于 relative（剩余宽度的比例）。
func applyColumns(styles *table.Styles, columns []*dsl.Command, width int, res ResourceSet) error {
	for i, cmd := range columns {
		style, attrs := parseArgs(cmd.Args, false)
		attrs = mergeStyleAttributes(style, attrs, res.Styles)
		idx := i
		if v := attrs["index"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("column: index 需要非负整数，实际为 %q", v)
			}
			idx = n
		}
		if idx >= width {
			return fmt.Errorf("column %d 超出表格列数 %d", idx, width)
		}
		if v := attrs["width"]; v != "" {
			if l := ParseRawLengthStr(v); l.IsPercent() {
				styles.SetColumnRelative(idx, l.Value/100)
			} else {
				styles.SetColumnWidth(idx, l.ToMM())
			}
		}
		if v := attrs["relative"]; v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("column %d: relative 需要非负数，实际为 %q", idx, v)
			}
			styles.SetColumnRelative(idx, f)
		}
	}
	return nil
}

func applyRowStyle(styles *table.Styles, r int, def rowDef, headerRows int, res ResourceSet) {
	style, attrs := parseArgs(def.cmd.Args, false)
	attrs = mergeStyleAttributes(style, attrs, res.Styles)
	if v := attrs["height"]; v != "" {
		styles.SetRowHeight(r, parseLength(v))
	}
	if v := attrs["min-height"]; v != "" {
		styles.SetRowMinHeight(r, parseLength(v))
	}
	rs := styles.Rows[r]
	if c, ok := lookupColor(attrs["background"], res); ok {
		rs.Background = &c
	} else if r < headerRows {
		bg := headerBackground
		rs.Background = &bg
	}
	styles.Rows[r] = rs
}
