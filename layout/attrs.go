package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/dsl"
)

// parseArgs 将 "[Style] key value ..." 形式的参数拆成样式名与属性表。
// 只有参数个数为奇数时首个标识符才被视为样式名；也可以用 style 属性指定。
func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}

	cursor := 0
	var style string
	if allowStyle && len(args)%2 == 1 && args[0].Type == "Ident" {
		style = args[0].Value
		cursor = 1
	}

	for cursor < len(args)-1 {
		key := args[cursor].Value
		val := args[cursor+1].Value
		result[key] = val
		cursor += 2
	}
	if v, ok := result["style"]; ok {
		if style == "" {
			style = v
		}
		delete(result, "style")
	}

	return style, result
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if style != "" {
		if s, ok := styles[style]; ok {
			for k, v := range s.Props {
				out[k] = v
			}
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

// inheritAttributes 返回 parent 中 keys 列出的、且 child 未声明的属性与 child 的合并结果。
func inheritAttributes(parent, child map[string]string, keys ...string) map[string]string {
	out := make(map[string]string, len(child)+len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(parent[k]); v != "" {
			out[k] = v
		}
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var builder strings.Builder
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			builder.WriteString(string(stmt.Text.Value))
		}
	}
	return builder.String()
}

func normalizeWrap(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "auto", "anywhere", "overflow-wrap:anywhere", "overflow-anywhere":
		return "anywhere"
	case "break-word", "word-break:break-word":
		return "break-word"
	case "nowrap", "no-wrap":
		return "nowrap"
	case "normal":
		return "normal"
	default:
		return "anywhere"
	}
}

func normalizeAlign(v string) string {
	switch v = strings.ToLower(strings.TrimSpace(v)); v {
	case "start":
		return "left"
	case "end":
		return "right"
	case "left", "center", "right":
		return v
	default:
		return ""
	}
}

// parseLength 将 DSL 长度转换为 mm，无单位的数字按 mm 处理，非法值为 0。
func parseLength(value string) float64 {
	return ParseRawLengthStr(value).ToMM()
}

func parseDimension(value string, reference float64) float64 {
	if value == "" {
		return 0
	}
	return ParseRawLengthStr(value).Of(reference)
}

func parseFontSize(value string) float64 {
	if value == "" {
		return 12
	}
	num := trimUnit(value)
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 12
	}
	return f
}

func parseCount(key, value string) (int, error) {
	if value == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s 需要正整数，实际为 %q", key, value)
	}
	return n, nil
}

func trimUnit(value string) string {
	for _, suffix := range []string{"pt", "mm", "cm", "in", "%"} {
		if strings.HasSuffix(value, suffix) {
			return strings.TrimSuffix(value, suffix)
		}
	}
	return value
}

func alignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch strings.ToLower(align) {
	case "center", "middle":
		return (container - width) / 2
	case "right", "end":
		return container - width
	default:
		return 0
	}
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var builder strings.Builder
		for _, part := range val.Expr.Parts {
			builder.WriteString(part.Value)
		}
		return builder.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}

var defaultTextColor = Color{R: 30, G: 30, B: 30}

func resolveColor(value string, res ResourceSet) Color {
	if c, ok := lookupColor(value, res); ok {
		return c
	}
	return defaultTextColor
}

// lookupColor 解析颜色名或 #hex，value 为空或无法解析时 ok 为 false。
func lookupColor(value string, res ResourceSet) (Color, bool) {
	if value == "" {
		return Color{}, false
	}
	if c, ok := res.Colors[value]; ok {
		return c, true
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c, true
		}
	}
	return Color{}, false
}

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		r := strings.Repeat(string(value[0]), 2)
		g := strings.Repeat(string(value[1]), 2)
		b := strings.Repeat(string(value[2]), 2)
		return Color{
			R: mustHex(r),
			G: mustHex(g),
			B: mustHex(b),
		}, nil
	case 6, 8:
		return Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}
