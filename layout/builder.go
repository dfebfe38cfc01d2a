package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/olekukonko/ll"

	"github.com/ByLCY/folio/dsl"
)

const blockSpacing = 3.0

// Build 根据 DSL AST 生成页面、文本与表格的布局结果。表格按页切分，
// 跨页时表头在每页顶部重复。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	meta := collectMeta(doc)
	pageSection := firstPage(doc)
	if pageSection == nil {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}

	pages, err := buildPages(pageSection, res, data, opts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      meta,
	}, nil
}

func buildPages(section *dsl.PageSection, res ResourceSet, data any, opts BuildOptions) ([]Page, error) {
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return nil, err
	}
	if section.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}

	margin := resolveMargin(section.Spec.Params)
	collector := newPageCollector(width, height, margin)
	log := opts.logger()
	log.Debugf("page %s %.1fx%.1fmm margin %+v", section.Spec.Size, width, height, margin)

	// 根上下文从内容区域顶部开始排版。
	root := &flowContext{
		baseX:          margin.Left,
		baseY:          collector.contentTop(),
		width:          width - margin.Left - margin.Right,
		cursorY:        collector.contentTop(),
		data:           data,
		typesetter:     opts.Typesetter,
		debug:          opts.Debug,
		log:            log,
		collector:      collector,
		margin:         margin,
		allowPageBreak: true,
		textWrap:       "anywhere",
	}

	if err := processBlock(section.Block, root, res); err != nil {
		return nil, err
	}

	pages := collector.pages()
	log.Debugf("layout produced %d page(s)", len(pages))
	return pages, nil
}

// processBlock 依次处理 block 内的 flow、text、table 命令，其余命令忽略。
func processBlock(block *dsl.Block, ctx *flowContext, res ResourceSet) error {
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		var err error
		switch cmd.Name {
		case "flow":
			err = handleFlow(cmd, ctx, res)
		case "text":
			err = handleText(cmd, ctx, res)
		case "table":
			err = handleTable(cmd, ctx, res)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("%s (%d:%d): %w", cmd.Name, cmd.Pos.Line, cmd.Pos.Column, err)
		}
	}
	return nil
}

func handleFlow(cmd *dsl.Command, parent *flowContext, res ResourceSet) error {
	if cmd.Block == nil {
		return fmt.Errorf("flow 语句缺少子内容")
	}
	styleName, attrs := parseArgs(cmd.Args, false)
	attrs = mergeStyleAttributes(styleName, attrs, res.Styles)
	width := parent.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, parent.width); w > 0 && w <= parent.width {
			width = w
		}
	} else if a := strings.ToLower(attrs["align"]); a == "center" || a == "right" || a == "end" {
		if inferred := inferFlowWidth(cmd.Block, res, parent.width, parent.typesetter); inferred > 0 {
			width = math.Min(inferred, parent.width)
		}
	}

	offset := alignOffset(parent.width, width, attrs["align"])

	// 折行策略由子 text 与表格单元格继承（默认 anywhere）
	flowWrap := parent.textWrap
	if v, ok := attrs["wrap"]; ok && strings.TrimSpace(v) != "" {
		flowWrap = normalizeWrap(v)
	}

	child := &flowContext{
		baseX:          parent.baseX + offset,
		baseY:          parent.cursorY,
		width:          width,
		cursorY:        parent.cursorY,
		data:           parent.data,
		typesetter:     parent.typesetter,
		debug:          parent.debug,
		log:            parent.log,
		parent:         parent,
		collector:      parent.collector,
		margin:         parent.margin,
		allowPageBreak: parent.allowPageBreak,
		textAlign:      normalizeAlign(attrs["align"]),
		textWrap:       flowWrap,
	}

	if err := processBlock(cmd.Block, child, res); err != nil {
		return err
	}

	if child.cursorY > parent.cursorY {
		parent.cursorY = child.cursorY + blockSpacing
	}
	return nil
}

func handleText(cmd *dsl.Command, ctx *flowContext, res ResourceSet) error {
	if cmd.Block == nil {
		return fmt.Errorf("text 语句缺少文本块")
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, res.Styles)
	// 若未显式设置 align，则继承自父 flow
	if strings.TrimSpace(attrs["align"]) == "" && ctx.textAlign != "" {
		attrs["align"] = ctx.textAlign
	}
	content := extractText(cmd.Block)
	if content == "" {
		return fmt.Errorf("text 语句缺少文本内容")
	}

	// 计算折行策略：text 覆盖 flow，默认 anywhere
	effWrap := ctx.textWrap
	if v, ok := attrs["wrap"]; ok && strings.TrimSpace(v) != "" {
		effWrap = normalizeWrap(v)
	}
	tb, height, err := composeTextBox(styleName, attrs, content, ctx.baseX, ctx.cursorY, ctx.width, res, ctx.data, ctx.typesetter, ctx.debug, effWrap)
	if err != nil {
		return err
	}
	ctx.ensureSpace(height)
	tb.X = ctx.baseX
	tb.Y = ctx.cursorY
	if acc := ctx.acc(); acc != nil {
		acc.appendText(tb)
	}
	ctx.cursorY += height + blockSpacing
	return nil
}

type pageAccumulator struct {
	texts  []TextBox
	tables []TableBox
}

func (p *pageAccumulator) appendText(tb TextBox) {
	p.texts = append(p.texts, tb)
}

func (p *pageAccumulator) appendTable(t TableBox) {
	p.tables = append(p.tables, t)
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	current int
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{
		width:  width,
		height: height,
		margin: margin,
	}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

func (pc *pageCollector) maxContentY() float64 { return pc.height - pc.margin.Bottom }

func (pc *pageCollector) contentTop() float64 { return pc.margin.Top }

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:  pc.width,
			Height: pc.height,
			Margin: pc.margin,
			Texts:  acc.texts,
			Tables: acc.tables,
		}
	}
	return out
}

type flowContext struct {
	baseX          float64
	baseY          float64
	width          float64
	cursorY        float64
	data           any
	typesetter     Typesetter
	debug          DebugOptions
	log            *ll.Logger
	parent         *flowContext
	collector      *pageCollector
	margin         Margin
	allowPageBreak bool
	// textAlign 继承自父 flow 的对齐方式（left/center/right），用于未显式声明 align 的子 text。
	textAlign string
	// textWrap 继承自父 flow 的折行方式（anywhere(默认)/break-word/nowrap）。
	textWrap string
}

func (ctx *flowContext) ensureSpace(height float64) {
	if !ctx.allowPageBreak || ctx.collector == nil {
		return
	}
	if ctx.cursorY+height <= ctx.collector.maxContentY() {
		return
	}
	ctx.pageBreak()
}

func (ctx *flowContext) pageBreak() {
	if ctx.collector == nil {
		return
	}
	if ctx.parent != nil {
		ctx.parent.pageBreak()
		ctx.baseY = ctx.parent.cursorY
		ctx.cursorY = ctx.baseY
		return
	}
	ctx.collector.newPage()
	ctx.baseX = ctx.margin.Left
	ctx.baseY = ctx.collector.contentTop()
	ctx.cursorY = ctx.baseY
}

func (ctx *flowContext) acc() *pageAccumulator {
	if ctx.collector == nil {
		return nil
	}
	return ctx.collector.curr()
}
