package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
)

// defaultFontSize 为 12pt，单位 mm。
const defaultFontSize = 12 * PtToMm

// textStyle 是合并样式之后的文本排版参数，长度单位均为 mm。
type textStyle struct {
	fontName   string
	font       FontResource
	fontSize   float64
	lineHeight float64
	color      Color
	align      string

	rawSize       Length
	rawLineHeight LineHeightSpec
}

// resolveTextStyle 解析 font/size/line-height/color/align 属性，attrs 需已合并命名样式。
func resolveTextStyle(style string, attrs map[string]string, res ResourceSet) (textStyle, error) {
	ts := textStyle{
		fontName: attrs["font"],
		color:    resolveColor(attrs["color"], res),
		align:    normalizeAlign(attrs["align"]),
	}
	if ts.fontName == "" {
		ts.fontName = style
	}
	if ts.fontName == "" {
		ts.fontName = "Body"
	}
	font, err := resolveFontResource(ts.fontName, res)
	if err != nil {
		return textStyle{}, err
	}
	ts.font = font

	ts.rawSize = ParseRawLengthStr(attrs["size"])
	ts.fontSize = ts.rawSize.ToMM()
	if ts.fontSize <= 0 || ts.rawSize.IsPercent() {
		ts.rawSize = Length{Value: 12, Unit: UnitPT}
		ts.fontSize = defaultFontSize
	}
	ts.rawLineHeight = ParseLineHeight(attrs["line-height"])
	ts.lineHeight = ts.rawLineHeight.Resolve(Length{Value: ts.fontSize, Unit: UnitMM}, UnitMM)
	return ts, nil
}

func composeTextBox(style string, attrs map[string]string, content string, x, y, width float64, res ResourceSet, data any, ts Typesetter, debug DebugOptions, wrap string) (TextBox, float64, error) {
	attrs = mergeStyleAttributes(style, attrs, res.Styles)
	st, err := resolveTextStyle(style, attrs, res)
	if err != nil {
		return TextBox{}, 0, err
	}

	if data != nil {
		content = binding.Interpolate(content, data)
	}

	lines, err := layoutLines(content, width, st.font, st.fontSize, st.lineHeight, ts, wrap)
	if err != nil {
		return TextBox{}, 0, err
	}

	totalHeight := 0.0
	defaultLeading := math.Max(st.lineHeight-st.fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = st.fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}

	tb := TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: st.lineHeight,
		Font:       st.fontName,
		FontSize:   st.fontSize,
		Color:      st.color,
		Lines:      lines,
		Height:     totalHeight,
		Align:      st.align,
		Wrap:       wrap,
	}
	if debug.RawUnits {
		size := RawLengthJSON{Value: st.rawSize.Value, Unit: UnitToString(st.rawSize.Unit)}
		lh := st.rawLineHeight.JSON()
		tb.Debug = &TextBoxDebug{RawUnits: &RawUnits{FontSize: &size, LineHeight: &lh}}
	}
	return tb, totalHeight, nil
}

func resolveFontResource(name string, res ResourceSet) (FontResource, error) {
	if font, ok := res.Fonts[name]; ok {
		return font, nil
	}
	if font, ok := res.Fonts["Body"]; ok {
		return font, nil
	}
	for _, font := range res.Fonts {
		return font, nil
	}
	return FontResource{}, fmt.Errorf("字体 %s 未定义，且没有可用的默认字体", name)
}

func layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, ts Typesetter, wrap string) ([]TextLine, error) {
	if ts == nil {
		lines := strings.Split(content, "\n")
		out := make([]TextLine, 0, len(lines))
		leading := math.Max(lineHeight-fontSize, 0)
		for _, l := range lines {
			out = append(out, TextLine{
				Content:   l,
				Width:     width,
				Height:    fontSize,
				GapBefore: leading,
			})
		}
		out[0].GapBefore = 0
		return out, nil
	}
	lines, err := ts.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Content: "", Width: width, Height: fontSize}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

func inferFlowWidth(block *dsl.Block, res ResourceSet, maxWidth float64, ts Typesetter) float64 {
	if block == nil {
		return 0
	}
	var width float64
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		var w float64
		switch stmt.Command.Name {
		case "text":
			w = inferTextWidth(stmt.Command, res, maxWidth, ts)
		case "flow":
			w = inferFlowWidth(stmt.Command.Block, res, maxWidth, ts)
		case "table":
			_, attrs := parseArgs(stmt.Command.Args, false)
			w = parseDimension(attrs["width"], maxWidth)
		}
		width = math.Max(width, w)
	}
	return width
}

// inferTextWidth 测量文本不折行时的最宽一行，测量失败时退回按字数估算。
func inferTextWidth(cmd *dsl.Command, res ResourceSet, maxWidth float64, ts Typesetter) float64 {
	if cmd.Block == nil {
		return 0
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, res.Styles)
	if v := attrs["width"]; v != "" {
		return parseDimension(v, maxWidth)
	}
	content := extractText(cmd.Block)
	if content == "" {
		return 0
	}
	estimate := estimateTextWidth(content, parseFontSize(attrs["size"]))
	if ts == nil {
		return estimate
	}
	st, err := resolveTextStyle(styleName, attrs, res)
	if err != nil {
		return estimate
	}
	lines, err := layoutLines(content, math.MaxFloat64, st.font, st.fontSize, st.lineHeight, ts, "nowrap")
	if err != nil {
		return estimate
	}
	maxW := 0.0
	for _, ln := range lines {
		maxW = math.Max(maxW, ln.Width)
	}
	if maxW <= 0 {
		return estimate
	}
	return maxW
}

func estimateTextWidth(content string, fontSize float64) float64 {
	if fontSize <= 0 {
		fontSize = 12
	}
	maxChars := 0
	for _, line := range strings.Split(content, "\n") {
		maxChars = max(maxChars, utf8.RuneCountInString(line))
	}
	if maxChars == 0 {
		maxChars = utf8.RuneCountInString(content)
	}
	return fontSize * 0.55 * float64(maxChars+1)
}
