// Package rasterrenderer 将布局结果绘制为 PNG 图片，多页时自上而下拼接，便于预览与快照对比。
package rasterrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
)

// DefaultDPMM 约等于 101.6 DPI。
const DefaultDPMM = 4.0

// pageGap 是拼接页面之间的间隔（像素）。
const pageGap = 16

// Options configures the raster renderer.
type Options struct {
	BaseDir string
	// DPMM 为每毫米像素数，<=0 时使用 DefaultDPMM
	DPMM float64
}

// Renderer 使用 github.com/fogleman/gg 绘制页面。
type Renderer struct {
	baseDir string
	dpmm    float64

	mu    sync.Mutex
	fonts map[string]*truetype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	src  string
	size float64
}

var _ renderer.Renderer = (*Renderer)(nil)

func New(opts Options) *Renderer {
	dpmm := opts.DPMM
	if dpmm <= 0 {
		dpmm = DefaultDPMM
	}
	return &Renderer{
		baseDir: opts.BaseDir,
		dpmm:    dpmm,
		fonts:   map[string]*truetype.Font{},
		faces:   map[faceKey]font.Face{},
	}
}

// Render 返回所有页面拼接后的 PNG。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil || len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	images := make([]image.Image, 0, len(result.Pages))
	width, height := 0, 0
	for i, page := range result.Pages {
		img, err := r.RenderPage(page, result.Resources)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		images = append(images, img)
		width = max(width, img.Bounds().Dx())
		height += img.Bounds().Dy()
	}
	height += pageGap * (len(images) - 1)

	dc := gg.NewContext(width, height)
	dc.SetRGB255(128, 128, 128)
	dc.Clear()
	y := 0
	for _, img := range images {
		dc.DrawImage(img, 0, y)
		y += img.Bounds().Dy() + pageGap
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage 绘制单个页面。
func (r *Renderer) RenderPage(page layout.Page, res layout.ResourceSet) (image.Image, error) {
	dc := gg.NewContext(r.px(page.Width), r.px(page.Height))
	dc.SetColor(color.White)
	dc.Clear()
	// 以毫米为用户坐标
	dc.Scale(r.dpmm, r.dpmm)

	for _, tb := range page.Texts {
		if err := r.drawTextBox(dc, tb, res); err != nil {
			return nil, err
		}
	}
	for _, tb := range page.Tables {
		if err := r.drawTable(dc, tb, res); err != nil {
			return nil, err
		}
	}
	return dc.Image(), nil
}

func (r *Renderer) px(mm float64) int { return int(mm*r.dpmm + 0.5) }

func (r *Renderer) drawTable(dc *gg.Context, tb layout.TableBox, res layout.ResourceSet) error {
	fill := func(c *layout.Color, x, y, w, h float64) {
		if c == nil || w <= 0 || h <= 0 {
			return
		}
		dc.SetRGB255(c.R, c.G, c.B)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
	}
	fill(tb.Background, tb.X, tb.Y, tb.Width, tb.Height)
	for _, row := range tb.Rows {
		fill(row.Background, tb.X, row.Y, tb.Width, row.Height)
	}
	for _, cell := range tb.Cells {
		fill(cell.Background, cell.X, cell.Y, cell.Width, cell.Height)
	}

	dc.SetRGB255(tb.BorderColor.R, tb.BorderColor.G, tb.BorderColor.B)
	for _, cell := range tb.Cells {
		x0, y0 := cell.X, cell.Y
		x1, y1 := cell.X+cell.Width, cell.Y+cell.Height
		b := cell.Border
		edge := func(w, ax, ay, bx, by float64) {
			if w <= 0 {
				return
			}
			// gg 的线宽不随 Scale 缩放，需换算为像素
			dc.SetLineWidth(w * r.dpmm)
			dc.DrawLine(ax, ay, bx, by)
			dc.Stroke()
		}
		edge(b.Top, x0, y0+b.Top/2, x1, y0+b.Top/2)
		edge(b.Bottom, x0, y1-b.Bottom/2, x1, y1-b.Bottom/2)
		edge(b.Left, x0+b.Left/2, y0, x0+b.Left/2, y1)
		edge(b.Right, x1-b.Right/2, y0, x1-b.Right/2, y1)
	}

	for _, cell := range tb.Cells {
		if err := r.drawTextBox(dc, cell.Text, res); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(dc *gg.Context, tb layout.TextBox, res layout.ResourceSet) error {
	if len(tb.Lines) == 0 {
		return nil
	}
	face, err := r.face(lookupFont(tb.Font, res.Fonts), tb.FontSize)
	if err != nil {
		return err
	}
	dc.Push()
	defer dc.Pop()
	// 字体按像素栅格化，绘制文字时回到像素坐标
	dc.Identity()
	dc.SetFontFace(face)
	dc.SetRGB255(tb.Color.R, tb.Color.G, tb.Color.B)

	ascent := float64(face.Metrics().Ascent.Round())
	ax := 0.0
	switch strings.ToLower(tb.Align) {
	case "center":
		ax = 0.5
	case "right", "end":
		ax = 1
	}
	y := tb.Y
	for _, ln := range tb.Lines {
		y += ln.GapBefore
		x := (tb.X + tb.Width*ax) * r.dpmm
		w, _ := dc.MeasureString(ln.Content)
		dc.DrawString(ln.Content, x-w*ax, y*r.dpmm+ascent)
		h := ln.Height
		if h <= 0 {
			h = tb.FontSize
		}
		y += h
	}
	return nil
}

// lookupFont 按名称查找字体，找不到时退回 Body。
func lookupFont(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if f, ok := fonts[name]; ok {
		return f
	}
	return fonts["Body"]
}

// face 返回 sizeMM 字号的字体面，字体加载失败时使用内置默认字体。
func (r *Renderer) face(res layout.FontResource, sizeMM float64) (font.Face, error) {
	src := res.Src
	if src == "" {
		src = "embed:" + fonts.Default
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := faceKey{src: src, size: sizeMM}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	ft, err := r.loadFont(src)
	if err != nil {
		var fbErr error
		if ft, fbErr = r.loadFont("embed:" + fonts.Default); fbErr != nil {
			return nil, err
		}
	}
	f := truetype.NewFace(ft, &truetype.Options{
		Size:    sizeMM * layout.MmToPt,
		DPI:     r.dpmm * 25.4,
		Hinting: font.HintingFull,
	})
	r.faces[key] = f
	return f, nil
}

func (r *Renderer) loadFont(src string) (*truetype.Font, error) {
	if ft, ok := r.fonts[src]; ok {
		return ft, nil
	}
	var data []byte
	var err error
	if strings.HasPrefix(src, "embed:") {
		data, err = fonts.Load(src)
	} else {
		path := src
		if !filepath.IsAbs(path) {
			if r.baseDir == "" {
				return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s", src)
			}
			path = filepath.Join(r.baseDir, path)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	ft, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	r.fonts[src] = ft
	return ft, nil
}
