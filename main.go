package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/ll"
	"github.com/olekukonko/ll/lh"
	"github.com/spf13/cobra"

	"github.com/ByLCY/folio/dsl"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
	rasterrenderer "github.com/ByLCY/folio/renderer/raster"
)

// inputFlags 是 render 与 inspect 共用的输入参数。
type inputFlags struct {
	input    string
	data     string
	dataFile string
	verbose  bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "in", "examples/invoice.folio", "DSL 文件路径")
	cmd.Flags().StringVar(&f.data, "data", "", "绑定到 DSL 的 JSON 数据")
	cmd.Flags().StringVar(&f.dataFile, "data-file", "", "绑定到 DSL 的 JSON 数据文件")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "在 stderr 输出分页调试日志")
}

func main() {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "将 folio DSL 文档排版为分页的 PDF 或 PNG",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newInspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

func newRenderCmd() *cobra.Command {
	var (
		in            inputFlags
		output        string
		format        string
		dpmm          float64
		debug         string
		debugRawUnits bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "排版并输出 PDF 或 PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			}
			ts := canvasrenderer.NewRenderer(filepath.Dir(in.input))
			var r renderer.Renderer
			switch format {
			case "pdf", "":
				r = ts
			case "png":
				r = rasterrenderer.New(rasterrenderer.Options{BaseDir: filepath.Dir(in.input), DPMM: dpmm})
			default:
				return fmt.Errorf("不支持的输出格式 %q（可选 pdf、png）", format)
			}

			result, err := in.build(ts, layout.DebugOptions{RawUnits: debugRawUnits})
			if err != nil {
				return err
			}
			if debug != "" {
				if err := writeDebug(result, debug); err != nil {
					return err
				}
			}
			if err := write(r, result, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成 %s：%s（%d 页）\n", strings.ToUpper(format), output, len(result.Pages))
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&output, "out", "o", "output/invoice.pdf", "输出路径")
	cmd.Flags().StringVar(&format, "format", "", "输出格式 pdf 或 png，默认按输出文件扩展名判断")
	cmd.Flags().Float64Var(&dpmm, "dpmm", rasterrenderer.DefaultDPMM, "PNG 输出的每毫米像素数")
	cmd.Flags().StringVar(&debug, "debug", "", "布局调试 JSON 输出路径")
	cmd.Flags().BoolVar(&debugRawUnits, "debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")
	return cmd
}

// build 串联数据读取、解析与布局。
func (f *inputFlags) build(ts layout.Typesetter, debug layout.DebugOptions) (*layout.Result, error) {
	data, err := f.loadData()
	if err != nil {
		return nil, err
	}
	file, err := os.Open(f.input)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", f.input, err)
	}
	defer file.Close()

	doc, err := dsl.ParseFile(f.input, file)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}

	result, err := layout.Build(doc, data, layout.BuildOptions{
		Typesetter: ts,
		Logger:     f.logger(),
		Debug:      debug,
	})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return result, nil
}

func (f *inputFlags) loadData() (any, error) {
	raw := []byte(f.data)
	if f.dataFile != "" {
		b, err := os.ReadFile(f.dataFile)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

func (f *inputFlags) logger() *ll.Logger {
	log := ll.New("folio").Handler(lh.NewTextHandler(os.Stderr))
	if f.verbose {
		log.Enable()
	} else {
		log.Disable()
	}
	return log
}

func write(r renderer.Renderer, result *layout.Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	out, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
