package canvasrenderer

import (
	"fmt"
	"math"
	"testing"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
)

// cellInset 是单元格默认内边距与边框之和（两侧）。
const cellInset = 2 * (1.2 + 0.2)

// 列宽恰好容纳一行文字时，紧随的显式换行与空格都不应产生空行或行首空白。
func TestCellTextAtExactColumnWidth(t *testing.T) {
	r := NewRenderer(".")
	font := layout.FontResource{Src: "embed:lmsans10-regular"}
	fontSizeMM := 12 * layout.PtToMm

	first := "SAMPLE-A"
	measured, err := r.LayoutLines(first, 1e6, font, fontSizeMM, fontSizeMM*1.2, "")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if len(measured) != 1 || measured[0].Width <= 0 {
		t.Fatalf("unexpected measurement: %+v", measured)
	}
	col := math.Ceil((measured[0].Width+cellInset+1e-5)*1e6) / 1e6

	src := fmt.Sprintf(`doc T v1 {
  resources {
    font Body { src: "embed:lmsans10-regular" }
    style Body { font: Body size: 12pt line-height: 1.2x }
  }
  page A4 margin 10mm {
    table {
      column width %.6fmm
      row { cell Body { %q } }
      row { cell Body { %q } }
    }
  }
}`, col, first+"\n"+first, first+" "+first)
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res, err := layout.Build(doc, nil, layout.BuildOptions{Typesetter: r})
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	cells := res.Pages[0].Tables[0].Cells
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	for i, c := range cells {
		lines := c.Text.Lines
		if len(lines) != 2 {
			t.Fatalf("cell %d: expected 2 lines without blank, got %d", i, len(lines))
		}
		if lines[0].Content != first || lines[1].Content != first {
			t.Fatalf("cell %d: unexpected lines %q / %q", i, lines[0].Content, lines[1].Content)
		}
		if lines[0].Width > c.Text.Width+1e-6 {
			t.Fatalf("cell %d: first line %g wider than content box %g", i, lines[0].Width, c.Text.Width)
		}
	}
}
