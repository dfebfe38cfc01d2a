package layout

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/folio/dsl"
)

// linesTypesetter 每个 "\n" 分隔的片段输出一行，行高等于字号。
type linesTypesetter struct{}

func (linesTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error) {
	var out []TextLine
	for _, s := range strings.Split(content, "\n") {
		out = append(out, TextLine{Content: s, Width: float64(len(s)), Height: fontSize})
	}
	return out, nil
}

func tableFromDSL(t *testing.T, body string, data any) (*tableSpec, error) {
	t.Helper()
	doc, err := dsl.ParseString("doc T v1 { page A4 { " + body + " } }")
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	res, err := collectResources(doc)
	if err != nil {
		t.Fatalf("收集资源失败: %v", err)
	}
	cmd := firstPage(doc).Block.Statements[0].Command
	return buildTable(cmd, &flowContext{data: data, textWrap: "anywhere"}, res)
}

func buildDoc(t *testing.T, src string, data any, ts Typesetter) (*Result, error) {
	t.Helper()
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	return Build(doc, data, BuildOptions{Typesetter: ts})
}

func TestBuildTablePlacesSpans(t *testing.T) {
	spec, err := tableFromDSL(t, `table {
    header { cell { "A" } cell { "B" } cell { "C" } }
    row { cell rowspan 2 { "x" } cell colspan 2 background #eeeeee { "y" } }
    row { cell { "z" } cell { "w" } }
  }`, nil)
	if err != nil {
		t.Fatalf("构建表格失败: %v", err)
	}
	tb := spec.table
	if tb.Rows() != 3 || tb.Columns() != 3 || tb.HeaderRows != 1 {
		t.Fatalf("网格错误: rows=%d cols=%d header=%d", tb.Rows(), tb.Columns(), tb.HeaderRows)
	}
	x := tb.CellAt(1, 0)
	if x != tb.CellAt(2, 0) || x.RowSpan != 2 || x.Text != "x" {
		t.Fatalf("rowspan 单元格错误: %+v", x)
	}
	y := tb.CellAt(1, 2)
	if y.Column != 1 || y.ColumnSpan != 2 || y.Text != "y" {
		t.Fatalf("colspan 单元格错误: %+v", y)
	}
	if got := spec.styles.CellStyle(y).Background; got == nil || *got != (Color{R: 238, G: 238, B: 238}) {
		t.Fatalf("单元格背景错误: %v", got)
	}
	if tb.CellAt(2, 1).Text != "z" || tb.CellAt(2, 2).Text != "w" {
		t.Fatalf("跨行单元格之后的位置错误: %q %q", tb.CellAt(2, 1).Text, tb.CellAt(2, 2).Text)
	}
	if bg := spec.styles.RowStyle(0).Background; bg == nil || *bg != headerBackground {
		t.Fatalf("表头行默认背景错误: %v", bg)
	}
	if bg := spec.styles.RowStyle(1).Background; bg != nil {
		t.Fatalf("表体行不应有默认背景: %v", bg)
	}
}

func TestBuildTableAttributes(t *testing.T) {
	spec, err := tableFromDSL(t, `table width 80% align center margin-top 4mm header-rows 2 border-color #ff0000 {
    column width 30mm
    column relative 1
    row height 12mm { cell { "a" } cell { "b" } }
    row min-height 5mm { cell { "c" } cell { "d" } }
    row { cell { "e" } cell { "f" } }
  }`, nil)
	if err != nil {
		t.Fatalf("构建表格失败: %v", err)
	}
	f := spec.styles.Format()
	if f.Width.Value != 80 || f.Margin.Top != 4 || f.BorderColor == nil || f.BorderColor.R != 255 {
		t.Fatalf("表格格式错误: %+v", f)
	}
	if spec.table.HeaderRows != 2 {
		t.Fatalf("header-rows 应生效: %d", spec.table.HeaderRows)
	}
	if w := spec.styles.ColumnStyle(0).Width; w == nil || *w != 30 {
		t.Fatalf("固定列宽错误: %v", w)
	}
	if r := spec.styles.ColumnStyle(1).RelativeWidth; r == nil || *r != 1 {
		t.Fatalf("相对列宽错误: %v", r)
	}
	if h := spec.styles.RowStyle(0).Height; h == nil || *h != 12 {
		t.Fatalf("固定行高错误: %v", h)
	}
	if m := spec.styles.RowStyle(1).MinHeight; !eq(m, 5) {
		t.Fatalf("声明的最小行高不应被覆盖: %g", m)
	}
	want := defaultFontSize*1.4 + 2*(cellPadding+cellBorder)
	if m := spec.styles.RowStyle(2).MinHeight; !eq(m, want) {
		t.Fatalf("默认最小行高应为一行文字加内边距: got=%g want=%g", m, want)
	}
}

func TestBuildTableErrors(t *testing.T) {
	cases := map[string]string{
		"overlap":      `table { row { cell { "a" } cell rowspan 2 { "b" } } row { cell colspan 2 { "c" } } }`,
		"too wide":     `table columns 2 { row { cell colspan 3 { "a" } } }`,
		"late header":  `table { row { cell { "a" } } header { cell { "h" } } }`,
		"empty row":    `table { row { } }`,
		"missing each": `table { each missing as x { row { cell { "a" } } } }`,
		"bad span":     `table { row { cell colspan 0 { "a" } } }`,
	}
	for name, body := range cases {
		if _, err := tableFromDSL(t, body, map[string]any{}); err == nil {
			t.Fatalf("%s: 期望错误", name)
		}
	}
}

func TestBuildTableEachBindsRows(t *testing.T) {
	data := map[string]any{
		"title": "Q3",
		"lines": []any{
			map[string]any{"sku": "a-1", "qty": 2.0},
			map[string]any{"sku": "b-2", "qty": 5.0},
		},
	}
	src := `doc T v1 { page A4 margin 10mm {
  table {
    header { cell { "SKU" } cell { "${title}" } }
    each lines as line { row { cell { "${line.sku}" } cell { "${line.qty}" } } }
  }
} }`
	res, err := buildDoc(t, src, data, &stubTypesetter{})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	tables := res.Pages[0].Tables
	if len(tables) != 1 {
		t.Fatalf("应生成 1 个表格片段，实际 %d", len(tables))
	}
	var texts []string
	for _, c := range tables[0].Cells {
		texts = append(texts, c.Text.Lines[0].Content)
	}
	if diff := cmp.Diff([]string{"SKU", "Q3", "a-1", "2", "b-2", "5"}, texts); diff != "" {
		t.Fatalf("单元格文本不符 (-want +got):\n%s", diff)
	}
}

func TestLongTableRepeatsHeaderOnEveryPage(t *testing.T) {
	const n = 60
	items := make([]any, n)
	for i := range items {
		items[i] = map[string]any{"sku": fmt.Sprintf("sku-%d", i), "qty": float64(i)}
	}
	src := `doc T v1 { page A5 margin 10mm {
  table {
    header { cell { "SKU" } cell { "Qty" } }
    each items as it { row { cell { "${it.sku}" } cell { "${it.qty}" } } }
  }
} }`
	res, err := buildDoc(t, src, map[string]any{"items": items}, &stubTypesetter{})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if len(res.Pages) < 3 {
		t.Fatalf("60 行的表格应跨至少 3 页，实际 %d 页", len(res.Pages))
	}

	var body []int
	for p, page := range res.Pages {
		if len(page.Tables) != 1 {
			t.Fatalf("第 %d 页应有 1 个表格片段，实际 %d", p, len(page.Tables))
		}
		tb := page.Tables[0]
		if tb.Fragment != p || tb.Continued != (p > 0) {
			t.Fatalf("第 %d 页片段编号错误: fragment=%d continued=%v", p, tb.Fragment, tb.Continued)
		}
		head := tb.Rows[0]
		if head.Index != 0 || !head.IsHeader || !eq(head.Y, 10) {
			t.Fatalf("第 %d 页应以表头开始: %+v", p, head)
		}
		if got := tb.Cells[0].Text; got.Lines[0].Content != "SKU" || !eq(got.Y, head.Y+cellPadding+cellBorder) {
			t.Fatalf("第 %d 页表头文字位置错误: y=%g content=%q", p, got.Y, got.Lines[0].Content)
		}
		for i, row := range tb.Rows {
			if i > 0 && !eq(tb.Rows[i-1].Y+tb.Rows[i-1].Height, row.Y) {
				t.Fatalf("第 %d 页第 %d 行与上一行不相接", p, row.Index)
			}
			if row.Y+row.Height > page.Height-page.Margin.Bottom+1e-6 {
				t.Fatalf("第 %d 页第 %d 行超出内容区域", p, row.Index)
			}
			if !row.IsHeader {
				body = append(body, row.Index)
			}
		}
	}
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("每个表体行应恰好出现一次 (-want +got):\n%s", diff)
	}
	last := res.Pages[len(res.Pages)-1].Tables[0]
	if got := last.Cells[len(last.Cells)-2].Text.Lines[0].Content; got != "sku-59" {
		t.Fatalf("最后一行文本错误: %q", got)
	}
}

func TestTallCellContinuesOnNextPage(t *testing.T) {
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%d", i)
	}
	src := fmt.Sprintf(`doc T v1 { page A5 margin 10mm { table { row { cell { %q } } } } }`, strings.Join(lines, "\n"))
	res, err := buildDoc(t, src, nil, linesTypesetter{})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("单元格应分在 2 页，实际 %d 页", len(res.Pages))
	}
	var got []string
	for p, page := range res.Pages {
		tb := page.Tables[0]
		if len(tb.Rows) != 1 || tb.Rows[0].Index != 0 {
			t.Fatalf("第 %d 页应只显示第 0 行: %+v", p, tb.Rows)
		}
		text := tb.Cells[0].Text
		if len(text.Lines) == 0 || text.Lines[0].GapBefore != 0 {
			t.Fatalf("第 %d 页的首行不应有行前间距", p)
		}
		if text.Y+text.Height > page.Height-page.Margin.Bottom {
			t.Fatalf("第 %d 页文字超出内容区域", p)
		}
		for _, ln := range text.Lines {
			got = append(got, ln.Content)
		}
	}
	if diff := cmp.Diff(lines, got); diff != "" {
		t.Fatalf("续排后的文字应完整且有序 (-want +got):\n%s", diff)
	}
}

func TestRowTallerThanPageIsAnError(t *testing.T) {
	src := `doc T v1 { page A5 margin 10mm { table { row height 300mm { cell { "x" } } } } }`
	if _, err := buildDoc(t, src, nil, &stubTypesetter{}); err == nil || !strings.Contains(err.Error(), "放不下") {
		t.Fatalf("超过页面高度的固定行高应报错，实际 %v", err)
	}
}

func TestTableMovesToNextPageWhenNoRowFits(t *testing.T) {
	filler := strings.Repeat("x\n", 27) + "x"
	src := fmt.Sprintf(`doc T v1 { page A5 margin 10mm {
  text { %q }
  table { row height 40mm { cell { "a" } } }
} }`, filler)
	res, err := buildDoc(t, src, nil, linesTypesetter{})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if len(res.Pages) != 2 || len(res.Pages[0].Tables) != 0 || len(res.Pages[1].Tables) != 1 {
		t.Fatalf("表格应整体移到第 2 页: %d 页", len(res.Pages))
	}
	if y := res.Pages[1].Tables[0].Y; !eq(y, 10) {
		t.Fatalf("第 2 页的表格应从内容顶部开始: %g", y)
	}
}
