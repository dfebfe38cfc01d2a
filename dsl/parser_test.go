package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
)

const sampleDSL = `
doc Ledger v1 {
  meta {
    title: "Invoice"
    keywords: [
      "finance"
      "internal"
    ]
  }

  resources {
    font Body {
      src: "embed:lmsans10-regular"
    }

    color Accent = #0F62FE
  }

  page A4 portrait margin 18mm {
    flow {
      text Body size 12pt color #333 { "Hello, ${user.name}!" }

      table width 80% header-rows 1 {
        column width 50%
        header { cell { "Name" } cell colspan 2 { "Amount" } }
        each data.items[0].lines as line {
          row { cell { "${line.name}" } cell { "${line.qty}" } cell { "${line.price}" } }
        }
      }
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Ledger" {
		t.Fatalf("expected document name Ledger, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}

	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	for i, want := range []string{"meta", "resources", "page"} {
		if got := doc.Sections[i].Kind(); got != want {
			t.Fatalf("section %d: expected %s, got %s", i, want, got)
		}
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	if got := string(*title.Value.String); got != "Invoice" {
		t.Fatalf("expected title Invoice, got %s", got)
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected keywords array with 2 values, got %+v", keywords)
	}

	page := doc.Sections[2].Page
	if page.Spec.Size != "A4" {
		t.Fatalf("expected page size A4, got %s", page.Spec.Size)
	}
	if len(page.Spec.Params) != 3 || page.Spec.Params[0].Value != "portrait" || page.Spec.Params[2].Value != "18mm" {
		t.Fatalf("unexpected page params: %+v", page.Spec.Params)
	}

	pageFlow := page.Block.Statements[0].Command
	if pageFlow == nil || pageFlow.Name != "flow" {
		t.Fatalf("expected flow command, got %+v", page.Block.Statements[0])
	}

	textCmd := pageFlow.Block.Statements[0].Command
	if textCmd == nil || textCmd.Name != "text" || textCmd.Args[0].Value != "Body" {
		t.Fatalf("unexpected text command: %+v", textCmd)
	}
	if got := string(textCmd.Block.Statements[0].Text.Value); !strings.Contains(got, "${user.name}") {
		t.Fatalf("expected interpolation in text literal, got %s", got)
	}
	if textCmd.Pos.Line != 21 {
		t.Fatalf("expected text command on line 21, got %d", textCmd.Pos.Line)
	}

	tableCmd := pageFlow.Block.Statements[1].Command
	if tableCmd == nil || tableCmd.Name != "table" {
		t.Fatalf("expected table command, got %+v", pageFlow.Block.Statements[1])
	}
	if got := tokensToString(tableCmd.Args); got != "width 80% header-rows 1" {
		t.Fatalf("unexpected table args: %s", got)
	}

	var names []string
	for _, stmt := range tableCmd.Block.Statements {
		if stmt.Command != nil {
			names = append(names, stmt.Command.Name)
		}
	}
	if got := strings.Join(names, " "); got != "column header each" {
		t.Fatalf("unexpected table body: %s", got)
	}

	header := tableCmd.Block.Statements[1].Command
	if len(header.Block.Statements) != 2 {
		t.Fatalf("expected 2 header cells, got %d", len(header.Block.Statements))
	}
	span := header.Block.Statements[1].Command
	if span.Name != "cell" || tokensToString(span.Args) != "colspan 2" {
		t.Fatalf("unexpected spanning cell: %+v", span)
	}
	if got := string(span.Block.Statements[0].Text.Value); got != "Amount" {
		t.Fatalf("expected Amount, got %s", got)
	}

	each := tableCmd.Block.Statements[2].Command
	if got := tokensToString(each.Args); got != "data . items [ 0 ] . lines as line" {
		t.Fatalf("unexpected each args: %s", got)
	}
	row := each.Block.Statements[0].Command
	if row == nil || row.Name != "row" || len(row.Block.Statements) != 3 {
		t.Fatalf("expected row with 3 cells, got %+v", row)
	}
}

func TestParseFileReportsFilename(t *testing.T) {
	_, err := dsl.ParseFile("broken.folio", strings.NewReader("doc X v1 { page A4 { table { row { cell { \"a\" } } }"))
	if err == nil {
		t.Fatalf("expected error for unterminated block")
	}
	if !strings.Contains(err.Error(), "broken.folio") {
		t.Fatalf("expected filename in error, got %v", err)
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}
