package tablelayout

import "fmt"

// Handle 是 Pool 中单元格内容区域的引用计数索引。零值表示“没有区域”。
type Handle int

// Disposer 由需要显式释放资源的 CellArea 实现，引用计数归零时调用。
type Disposer interface {
	Dispose()
}

type poolEntry struct {
	area CellArea
	refs int
}

// Pool 保存所有片段创建的单元格区域。表头区域被多个片段共享显示，
// 每个持有者各占一个引用，最后一个引用释放时区域被回收。
//
// Pool 不是并发安全的。
type Pool struct {
	entries map[Handle]*poolEntry
	next    Handle
}

// NewPool 创建空的 Pool。
func NewPool() *Pool {
	return &Pool{entries: map[Handle]*poolEntry{}, next: 1}
}

// Put 登记新区域并返回引用计数为 1 的句柄。
func (p *Pool) Put(area CellArea) Handle {
	if area == nil {
		panic("tablelayout: nil cell area")
	}
	h := p.next
	p.next++
	p.entries[h] = &poolEntry{area: area, refs: 1}
	return h
}

// Retain 为句柄增加一个引用。
func (p *Pool) Retain(h Handle) {
	p.entry(h).refs++
}

// Release 释放一个引用，计数归零时移除区域。
func (p *Pool) Release(h Handle) {
	e := p.entry(h)
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(p.entries, h)
	if d, ok := e.area.(Disposer); ok {
		d.Dispose()
	}
}

// Area 返回句柄对应的区域。
func (p *Pool) Area(h Handle) CellArea {
	return p.entry(h).area
}

// Refs 返回句柄当前的引用数，已回收的句柄返回 0。
func (p *Pool) Refs(h Handle) int {
	if e, ok := p.entries[h]; ok {
		return e.refs
	}
	return 0
}

// Len 返回仍存活的区域数量。
func (p *Pool) Len() int { return len(p.entries) }

func (p *Pool) entry(h Handle) *poolEntry {
	e, ok := p.entries[h]
	if !ok {
		panic(fmt.Sprintf("tablelayout: dead cell area handle %d", h))
	}
	return e
}
