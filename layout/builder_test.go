package layout

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
)

// stubTypesetter 每三个词输出一行，行高等于字号，不依赖具体宽度。
type stubTypesetter struct{}

func (s *stubTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error) {
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return []TextLine{{Height: fontSize}}, nil
	}
	var lines []TextLine
	for i := 0; i < len(parts); i += 3 {
		end := min(i+3, len(parts))
		lines = append(lines, TextLine{Content: strings.Join(parts[i:end], " "), Height: fontSize})
	}
	// GapBefore 保持 0，由 composeTextBox 按行高回填。
	return lines, nil
}

func buildWithRenderer(t *testing.T, dslText string, debugRaw bool) *Result {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(dslText))
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	res, err := Build(doc, nil, BuildOptions{Typesetter: &stubTypesetter{}, Debug: DebugOptions{RawUnits: debugRaw}})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

// longTable 生成 n 行表体的 table 语句，每行两个单元格。
func longTable(n int) string {
	var b strings.Builder
	b.WriteString("table {\n    header { cell { \"No\" } cell { \"Item\" } }\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "    row { cell { \"%d\" } cell { \"item %d\" } }\n", i, i)
	}
	b.WriteString("  }")
	return b.String()
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func eq(a, b float64) bool { return abs(a-b) < 1e-6 }

func TestTextAfterSplitTableFollowsLastFragment(t *testing.T) {
	src := `doc T v1 { page A5 margin 10mm {
  ` + longTable(50) + `
  text { "Total" }
} }`
	res := buildWithRenderer(t, src, false)
	if len(res.Pages) < 2 {
		t.Fatalf("50 行的表格应跨页，实际 %d 页", len(res.Pages))
	}
	last := res.Pages[len(res.Pages)-1]
	if len(last.Tables) != 1 || len(last.Texts) != 1 {
		t.Fatalf("末页应包含最后一个片段与其后的文本: tables=%d texts=%d", len(last.Tables), len(last.Texts))
	}
	frag, text := last.Tables[0], last.Texts[0]
	if !frag.Continued {
		t.Fatalf("末页片段应为续排片段")
	}
	if want := frag.Y + frag.Height + blockSpacing; !eq(text.Y, want) {
		t.Fatalf("文本应紧随最后一个片段: got=%g want=%g", text.Y, want)
	}
	for p, page := range res.Pages[:len(res.Pages)-1] {
		if len(page.Texts) != 0 {
			t.Fatalf("第 %d 页不应出现表格之后的文本", p)
		}
	}
}

func TestTableStartsBelowPrecedingText(t *testing.T) {
	src := `doc T v1 { page A5 margin 10mm {
  text { "Invoice 2024 Q3 summary" }
  ` + longTable(3) + `
} }`
	res := buildWithRenderer(t, src, false)
	page := res.Pages[0]
	if len(page.Texts) != 1 || len(page.Tables) != 1 {
		t.Fatalf("应生成 1 个文本与 1 个表格片段: texts=%d tables=%d", len(page.Texts), len(page.Tables))
	}
	text, frag := page.Texts[0], page.Tables[0]
	if want := text.Y + text.Height + blockSpacing; !eq(frag.Y, want) {
		t.Fatalf("表格应从文本下方开始: got=%g want=%g", frag.Y, want)
	}
	if frag.Continued || frag.Fragment != 0 {
		t.Fatalf("首个片段不应标记为续排: %+v", frag)
	}
}

// TestTableFragmentsUsePageMargins 验证 margin 的两值语义作用于每个片段的位置与宽度。
func TestTableFragmentsUsePageMargins(t *testing.T) {
	src := `doc T v1 { page A5 portrait margin 10mm 5mm {
  ` + longTable(60) + `
} }`
	res := buildWithRenderer(t, src, false)
	if len(res.Pages) < 2 {
		t.Fatalf("60 行的表格应跨页，实际 %d 页", len(res.Pages))
	}
	for p, page := range res.Pages {
		m := page.Margin
		if !(eq(m.Top, 10) && eq(m.Bottom, 10) && eq(m.Left, 5) && eq(m.Right, 5)) {
			t.Fatalf("2 值 margin 语义错误: %+v", m)
		}
		frag := page.Tables[0]
		if !eq(frag.X, 5) || !eq(frag.Width, page.Width-10) {
			t.Fatalf("第 %d 页片段应占满内容宽度: x=%g width=%g", p, frag.X, frag.Width)
		}
		if !eq(frag.Y, 10) && p > 0 {
			t.Fatalf("第 %d 页片段应从内容顶部开始: %g", p, frag.Y)
		}
		if frag.Y+frag.Height > page.Height-m.Bottom+1e-6 {
			t.Fatalf("第 %d 页片段超出下边距", p)
		}
	}
}

func TestTableInsideAlignedFlow(t *testing.T) {
	src := `doc T v1 { page A4 margin 10mm {
  flow width 100mm align center {
    table { row { cell { "a" } cell { "b" } } }
  }
} }`
	res := buildWithRenderer(t, src, false)
	frag := res.Pages[0].Tables[0]
	if !eq(frag.X, 55) || !eq(frag.Width, 100) {
		t.Fatalf("表格应使用 flow 的宽度与偏移: x=%g width=%g", frag.X, frag.Width)
	}
	if diff := abs(frag.ColumnPositions[1] - 105); diff > 1e-6 {
		t.Fatalf("两列应平分 flow 宽度: %v", frag.ColumnPositions)
	}
}

// TestCellTextHeightMatchesLines 断言每个片段中单元格文字的高度等于 Σ(line.Height + line.GapBefore)。
func TestCellTextHeightMatchesLines(t *testing.T) {
	var b strings.Builder
	b.WriteString("doc T v1 { page A5 margin 10mm { table { ")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `row { cell line-height 1.2x { "one two three four five six seven %d" } cell { "x" } } `, i)
	}
	b.WriteString("} } }")
	res := buildWithRenderer(t, b.String(), false)

	checked := 0
	for p, page := range res.Pages {
		for _, frag := range page.Tables {
			for _, c := range frag.Cells {
				if len(c.Text.Lines) == 0 {
					continue
				}
				total := 0.0
				for _, ln := range c.Text.Lines {
					total += ln.GapBefore + ln.Height
				}
				if !eq(total, c.Text.Height) {
					t.Fatalf("第 %d 页单元格 (%d,%d) 高度不一致: got=%g want=%g", p, c.Row, c.Column, c.Text.Height, total)
				}
				if c.Text.Y+c.Text.Height > c.Y+c.Height+1e-6 {
					t.Fatalf("第 %d 页单元格 (%d,%d) 的文字超出单元格", p, c.Row, c.Column)
				}
				checked++
			}
		}
	}
	if checked == 0 {
		t.Fatalf("未找到单元格文字进行校验")
	}
}

func TestCellAlignInheritsFromRow(t *testing.T) {
	src := `doc T v1 { page A4 margin 10mm {
  table {
    row align center { cell { "a" } cell align end { "b" } cell align start { "c" } }
  }
} }`
	res := buildWithRenderer(t, src, false)
	cells := res.Pages[0].Tables[0].Cells
	got := []string{cells[0].Text.Align, cells[1].Text.Align, cells[2].Text.Align}
	want := []string{"center", "right", "left"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("单元格 %d 对齐错误: got=%q want=%q", i, got[i], want[i])
		}
	}
}

func TestCellDebugRawUnits(t *testing.T) {
	src := `doc D v1 {
  resources {
    font Body { src: "embed:lmsans10-regular" }
    style Base { font: Body size: 12pt }
  }
  page A4 margin 10mm {
    table { row { cell Base line-height 6mm { "cccc dddd" } cell Base { "eeee" } } }
  }
}`
	res := buildWithRenderer(t, src, true)
	cells := res.Pages[0].Tables[0].Cells
	abs6 := cells[0].Text.Debug
	if abs6 == nil || abs6.RawUnits == nil || abs6.RawUnits.LineHeight == nil {
		t.Fatalf("单元格缺少 debug.rawUnits.lineHeight")
	}
	if lh := abs6.RawUnits.LineHeight; lh.Kind != "absolute" || lh.Unit != "mm" || lh.Value != 6 {
		t.Fatalf("行高应为 6mm 绝对值，实际: %#v", lh)
	}
	if fs := abs6.RawUnits.FontSize; fs == nil || fs.Unit != "pt" || fs.Value != 12 {
		t.Fatalf("字号应为 12pt，实际: %#v", fs)
	}
	if d := cells[1].Text.Debug; d == nil || d.RawUnits.LineHeight.Kind != "factor" {
		t.Fatalf("未设置行高的单元格应为 factor 语义")
	}

	plain := buildWithRenderer(t, src, false)
	if plain.Pages[0].Tables[0].Cells[0].Text.Debug != nil {
		t.Fatalf("未开启 RawUnits 时不应输出调试信息")
	}
}
