package tablelayout

import (
	"math"

	"github.com/ByLCY/folio/table"
)

// ColumnLayout 是列宽求解的结果。
type ColumnLayout struct {
	TableWidth float64
	// Positions 有 N+1 个元素，Positions[N] 是最后一列的右边界。
	Positions []float64
	// Widths 有 N 个元素，Widths[i] = Positions[i+1] - Positions[i]。
	Widths []float64
}

// SolveColumns 根据表格格式与列样式计算 [left, right] 内的列位置。
//
// 固定宽度列先扣除自身宽度；相对宽度列按权重瓜分剩余宽度；未声明的列
// 按权重 0 的相对列处理，平分 (1-min(权重和,1)) 比例的保留宽度。
// 权重和不小于 1 时未声明的列宽度为 0。
func SolveColumns(left, right float64, columns int, styles table.StyleResolver) ColumnLayout {
	if columns < 1 {
		panic("tablelayout: table without columns")
	}
	if styles == nil {
		panic("tablelayout: nil style resolver")
	}
	format := styles.Format()
	parentWidth := right - left
	tableWidth := resolveTableWidth(format, parentWidth)

	widths := make([]float64, columns)
	available := tableWidth
	var relative []int
	relSum := 0.0
	unspecified := 0
	for col := 0; col < columns; col++ {
		cs := styles.ColumnStyle(col)
		switch {
		case cs.RelativeWidth != nil:
			relative = append(relative, col)
			relSum += *cs.RelativeWidth
		case cs.Width != nil:
			widths[col] = *cs.Width
			available -= *cs.Width
		default:
			relative = append(relative, col)
			unspecified++
		}
	}

	reserved := (1 - math.Min(relSum, 1)) * available
	available -= reserved
	if unspecified > 0 {
		reserved /= float64(unspecified)
	}
	for _, col := range relative {
		cs := styles.ColumnStyle(col)
		if cs.RelativeWidth == nil {
			widths[col] = reserved
			continue
		}
		w := 0.0
		if relSum != 0 {
			w = *cs.RelativeWidth * available / relSum
		}
		widths[col] = math.Max(w, 0)
	}
	// 固定宽度列可能为负值，位置表必须单调。
	for i, w := range widths {
		if w < 0 {
			widths[i] = 0
		}
	}

	offset := format.Margin.Left
	switch format.Align {
	case table.AlignRight:
		offset += parentWidth - tableWidth
	case table.AlignCenter:
		offset += (parentWidth - tableWidth) / 2
	}
	positions := make([]float64, columns+1)
	x := left + offset
	for col := 0; col <= columns; col++ {
		positions[col] = x
		if col < columns {
			x += widths[col]
		}
	}
	return ColumnLayout{TableWidth: tableWidth, Positions: positions, Widths: widths}
}

func resolveTableWidth(f table.Format, parentWidth float64) float64 {
	full := parentWidth - f.Margin.Left - f.Margin.Right
	if f.Width.Value == 0 || f.Align == table.AlignJustify {
		return full
	}
	switch f.Width.Kind {
	case table.LengthFixed:
		return f.Width.Value
	case table.LengthPercent:
		return f.Width.Value*(parentWidth/100) - f.Margin.Left - f.Margin.Right
	default:
		return full
	}
}
