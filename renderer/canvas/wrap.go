package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/folio/layout"
)

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// fontSize/lineHeight 入参均为 mm，创建字体面时换算为 pt。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}
	if wrap == "" {
		wrap = "anywhere"
	}
	lines := greedyWrapTokens(content, width, face, wrap)
	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: "", Height: textHeight}}
	}
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = textHeight
		}
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

// lineBuilder 累积当前行的内容与宽度（mm），超过 limit 时换行。
type lineBuilder struct {
	limit float64
	lines []layout.TextLine
	b     strings.Builder
	width float64
}

// emit 结束当前行；force 为 true 时即使当前行为空也输出一个空行。
func (lb *lineBuilder) emit(force bool) {
	if lb.b.Len() == 0 && !force {
		return
	}
	lb.lines = append(lb.lines, layout.TextLine{Content: lb.b.String(), Width: lb.width})
	lb.b.Reset()
	lb.width = 0
}

// add 追加一段宽度为 w 的文本。因宽度换行时，落在新行行首的空白被丢弃。
func (lb *lineBuilder) add(s string, w float64) {
	if lb.width > 0 && lb.width+w > lb.limit {
		lb.emit(false)
		if strings.TrimSpace(s) == "" {
			return
		}
	}
	lb.b.WriteString(s)
	lb.width += w
}

func greedyWrapTokens(content string, width float64, face *canvas.FontFace, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	// nowrap：仅按显式换行划分
	if wrap == "nowrap" {
		parts := strings.Split(content, "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, layout.TextLine{Content: p, Width: face.TextWidth(p)})
		}
		return lines
	}

	lb := &lineBuilder{limit: limit}
	// break-word：不考虑空白，逐字符按宽度切分
	if wrap == "break-word" {
		for _, r := range content {
			switch r {
			case '\r':
			case '\n':
				lb.emit(true)
			default:
				s := string(r)
				lb.add(s, face.TextWidth(s))
			}
		}
		lb.emit(true)
		return lb.lines
	}

	// 默认（anywhere/normal）：优先在空白处换行，单词超过整行宽度时在词内拆分
	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			lb.emit(true)
			continue
		}
		if w := face.TextWidth(token); w <= limit {
			lb.add(token, w)
			continue
		}
		for _, chunk := range splitTokenByWidth(token, limit, face) {
			lb.add(chunk, face.TextWidth(chunk))
		}
	}
	lb.emit(true)
	return lb.lines
}

// tokenizeContent 将文本切成空白段、非空白段与 "\n"。
func tokenizeContent(s string) []string {
	var tokens []string
	var b strings.Builder
	space := false
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '\r':
			continue
		case r == '\n':
			flush()
			tokens = append(tokens, "\n")
			continue
		}
		if isSpace := unicode.IsSpace(r); b.Len() == 0 || isSpace != space {
			flush()
			space = isSpace
		}
		b.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var cur []rune
	for _, r := range token {
		cur = append(cur, r)
		if len(cur) > 1 && face.TextWidth(string(cur)) > limit {
			parts = append(parts, string(cur[:len(cur)-1]))
			cur = cur[len(cur)-1:]
		}
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}
