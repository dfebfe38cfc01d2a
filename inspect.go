package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ByLCY/folio/layout"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
)

func newInspectCmd() *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "列出每页的表格片段及其显示的行",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := in.build(canvasrenderer.NewRenderer(filepath.Dir(in.input)), layout.DebugOptions{})
			if err != nil {
				return err
			}
			return printFragments(cmd.OutOrStdout(), result)
		},
	}
	in.register(cmd)
	return cmd
}

// printFragments 以表格形式输出每个表格片段的位置与行范围。
func printFragments(w io.Writer, result *layout.Result) error {
	tw := tablewriter.NewWriter(w)
	tw.Header("Page", "Fragment", "Header", "Body rows", "Y (mm)", "Height (mm)", "Continued")
	for p, page := range result.Pages {
		for _, tb := range page.Tables {
			if err := tw.Append(fragmentRow(p+1, tb)); err != nil {
				return err
			}
		}
	}
	return tw.Render()
}

func fragmentRow(page int, tb layout.TableBox) []string {
	header, first, last := 0, -1, -1
	for _, r := range tb.Rows {
		if r.IsHeader {
			header++
			continue
		}
		if first < 0 {
			first = r.Index
		}
		last = r.Index
	}
	body := "-"
	if first >= 0 {
		body = fmt.Sprintf("%d..%d", first, last)
	}
	return []string{
		strconv.Itoa(page),
		strconv.Itoa(tb.Fragment),
		strconv.Itoa(header),
		body,
		strconv.FormatFloat(tb.Y, 'f', 1, 64),
		strconv.FormatFloat(tb.Height, 'f', 1, 64),
		strconv.FormatBool(tb.Continued),
	}
}
