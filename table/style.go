package table

// LengthKind 区分表格宽度的声明方式。
type LengthKind int

const (
	LengthAuto    LengthKind = iota // 未声明，占满父容器
	LengthFixed                     // 绝对宽度（mm）
	LengthPercent                   // 父容器宽度的百分比
)

// Length 是带类型的表格宽度。
type Length struct {
	Kind  LengthKind `json:"kind"`
	Value float64    `json:"value"`
}

// Fixed 返回绝对宽度。
func Fixed(v float64) Length { return Length{Kind: LengthFixed, Value: v} }

// Percent 返回百分比宽度。
func Percent(v float64) Length { return Length{Kind: LengthPercent, Value: v} }

// Alignment 是表格在父容器内的水平对齐方式。
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
	AlignJustify
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Insets 描述四边的宽度（padding、边框、外边距），单位 mm。
type Insets struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Uniform 返回四边相同的 Insets。
func Uniform(v float64) Insets { return Insets{Top: v, Right: v, Bottom: v, Left: v} }

// Format 是表格级样式。
type Format struct {
	Width       Length
	Align       Alignment
	Margin      Insets
	Background  *Color
	BorderColor *Color
}

// ColumnStyle 描述列宽。Width 与 RelativeWidth 都为空时该列平分剩余宽度。
type ColumnStyle struct {
	Width         *float64
	RelativeWidth *float64
}

// RowStyle 描述行高。Height 非空时为固定行高，否则 MinHeight 为最小行高。
type RowStyle struct {
	Height     *float64
	MinHeight  float64
	Background *Color
}

// CellStyle 描述单元格内边距、边框宽度与背景。
type CellStyle struct {
	Padding    Insets
	Border     Insets
	Background *Color
}

// StyleResolver 按列、行、单元格查询已解析的样式。
type StyleResolver interface {
	Format() Format
	ColumnStyle(col int) ColumnStyle
	RowStyle(row int) RowStyle
	CellStyle(cell *Cell) CellStyle
}

// Styles 是基于 map 的 StyleResolver 实现。
type Styles struct {
	Table   Format
	Columns map[int]ColumnStyle
	Rows    map[int]RowStyle
	// Cell 为所有单元格的默认样式，Cell.Style 中的非零字段会覆盖它。
	Cell CellStyle
}

var _ StyleResolver = (*Styles)(nil)

// NewStyles 返回空样式表。
func NewStyles() *Styles {
	return &Styles{Columns: map[int]ColumnStyle{}, Rows: map[int]RowStyle{}}
}

func (s *Styles) Format() Format { return s.Table }

func (s *Styles) ColumnStyle(col int) ColumnStyle { return s.Columns[col] }

func (s *Styles) RowStyle(row int) RowStyle { return s.Rows[row] }

// CellStyle 合并默认样式与单元格自身样式。
func (s *Styles) CellStyle(cell *Cell) CellStyle {
	out := s.Cell
	if cell == nil || cell.Style == nil {
		return out
	}
	mergeCellStyle(&out, cell.Style)
	return out
}

// SetColumnWidth 声明固定列宽。
func (s *Styles) SetColumnWidth(col int, w float64) {
	cs := s.Columns[col]
	cs.Width = &w
	s.Columns[col] = cs
}

// SetColumnRelative 声明相对列宽权重。
func (s *Styles) SetColumnRelative(col int, weight float64) {
	cs := s.Columns[col]
	cs.RelativeWidth = &weight
	s.Columns[col] = cs
}

// SetRowHeight 声明固定行高。
func (s *Styles) SetRowHeight(row int, h float64) {
	rs := s.Rows[row]
	rs.Height = &h
	s.Rows[row] = rs
}

// SetRowMinHeight 声明最小行高。
func (s *Styles) SetRowMinHeight(row int, h float64) {
	rs := s.Rows[row]
	rs.MinHeight = h
	s.Rows[row] = rs
}

// mergeCellStyle 将 src 中的非零字段复制到 dst。
func mergeCellStyle(dst, src *CellStyle) {
	if src.Padding != (Insets{}) {
		dst.Padding = src.Padding
	}
	if src.Border != (Insets{}) {
		dst.Border = src.Border
	}
	if src.Background != nil {
		dst.Background = src.Background
	}
}
