package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/layout"
)

func TestFragmentRow(t *testing.T) {
	tb := layout.TableBox{
		Y:         10,
		Height:    42.26,
		Fragment:  1,
		Continued: true,
		Rows: []layout.TableRow{
			{Index: 0, IsHeader: true},
			{Index: 7},
			{Index: 8},
			{Index: 9},
		},
	}
	assert.Equal(t, []string{"2", "1", "1", "7..9", "10.0", "42.3", "true"}, fragmentRow(2, tb))

	headerOnly := layout.TableBox{Rows: []layout.TableRow{{Index: 0, IsHeader: true}}}
	assert.Equal(t, "-", fragmentRow(1, headerOnly)[3])
}

func TestInspectListsFragmentsOfExample(t *testing.T) {
	in := inputFlags{input: filepath.Join("examples", "invoice.folio"), dataFile: filepath.Join("examples", "invoice.json")}
	cmd := newInspectCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--in", in.input, "--data-file", in.dataFile})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, strings.ToUpper(text), "FRAGMENT")
	assert.GreaterOrEqual(t, strings.Count(text, "true"), 1, "long invoice should continue on a second page")
}

func TestRenderWritesPDFAndDebugJSON(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "out", "invoice.pdf")
	debugPath := filepath.Join(dir, "out", "layout.json")

	cmd := newRenderCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--in", filepath.Join("examples", "invoice.folio"),
		"--data-file", filepath.Join("examples", "invoice.json"),
		"--out", pdfPath,
		"--debug", debugPath,
	})
	require.NoError(t, cmd.Execute())

	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	dbg, err := os.ReadFile(debugPath)
	require.NoError(t, err)
	assert.Contains(t, string(dbg), `"tables"`)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	cmd := newRenderCmd()
	cmd.SetArgs([]string{"--in", filepath.Join("examples", "invoice.folio"), "--format", "svg"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "svg")
}

func TestLoadDataRejectsInvalidJSON(t *testing.T) {
	_, err := (&inputFlags{data: "{not json"}).loadData()
	require.Error(t, err)

	data, err := (&inputFlags{}).loadData()
	require.NoError(t, err)
	assert.Nil(t, data)
}
