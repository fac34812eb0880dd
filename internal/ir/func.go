// func.go - 函数、基本块与模块

package ir

import (
	"fmt"
	"strconv"
)

// ============================================================================
// 模块
// ============================================================================

// Module 一组函数
type Module struct {
	Name  string
	Funcs []*Func
}

// NewModule 创建模块
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddFunc 向模块添加函数
func (m *Module) AddFunc(fn *Func) {
	m.Funcs = append(m.Funcs, fn)
}

// Func 按名字查找函数
func (m *Module) Func(name string) *Func {
	for _, fn := range m.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// ============================================================================
// 函数
// ============================================================================

// Func IR 函数
type Func struct {
	Name    string
	RetType *Type
	Params  []*Param
	Blocks  []*Block

	names      map[string]bool // 已占用的值名
	blockNames map[string]bool // 已占用的块名
}

// NewFunc 创建函数
func NewFunc(name string, ret *Type) *Func {
	return &Func{
		Name:       name,
		RetType:    ret,
		names:      make(map[string]bool),
		blockNames: make(map[string]bool),
	}
}

// AddParam 添加参数
func (f *Func) AddParam(t *Type, name string) *Param {
	p := &Param{typ: t, index: len(f.Params), parent: f}
	p.name = f.uniqueName(name)
	f.Params = append(f.Params, p)
	return p
}

// NewBlock 在函数末尾创建基本块
func (f *Func) NewBlock(name string) *Block {
	b := &Block{parent: f}
	b.name = f.uniqueBlockName(name)
	f.Blocks = append(f.Blocks, b)
	return b
}

// Entry 返回入口块
func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Block 按名字查找基本块
func (f *Func) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.name == name {
			return b
		}
	}
	return nil
}

// NumInstrs 返回指令总数
func (f *Func) NumInstrs() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Instrs)
	}
	return n
}

// Instrs 按块顺序返回所有指令
func (f *Func) Instrs() []*Instr {
	out := make([]*Instr, 0, f.NumInstrs())
	for _, b := range f.Blocks {
		out = append(out, b.Instrs...)
	}
	return out
}

// RemoveUnreachableBlocks 删除从入口不可达的块，返回删除的块数
//
// 可达块中 phi 来自这些块的来源一并删除。
// 不可达块定义的值若仍被可达代码使用，改为 undef。
func (f *Func) RemoveUnreachableBlocks() int {
	reachable := make(map[*Block]bool, len(f.Blocks))
	for _, b := range ReversePostOrder(f) {
		reachable[b] = true
	}
	if len(reachable) == len(f.Blocks) {
		return 0
	}

	var kept, dead []*Block
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		} else {
			dead = append(dead, b)
		}
	}

	for _, b := range dead {
		for _, s := range b.Succs() {
			if !reachable[s] {
				continue
			}
			for _, phi := range s.Instrs {
				if !phi.IsPhi() {
					break
				}
				for n := phi.NumIncoming() - 1; n >= 0; n-- {
					if phi.IncomingBlock(n) == b {
						phi.RemoveIncoming(n)
					}
				}
			}
		}
	}

	// 先断开不可达块之间的引用，剩下的使用者都在可达块中
	for _, b := range dead {
		for _, inst := range b.Instrs {
			inst.DropAllReferences()
		}
	}
	for _, b := range dead {
		for _, inst := range append([]*Instr(nil), b.Instrs...) {
			if HasUses(inst) {
				ReplaceAllUsesWith(inst, Undef(inst.Type()))
			}
			inst.EraseFromParent()
		}
		delete(f.blockNames, b.name)
		b.parent = nil
	}

	f.Blocks = kept
	return len(dead)
}

// ----------------------------------------------------------------------------
// 名字管理
// ----------------------------------------------------------------------------

// uniqueName 占用一个未使用的名字，冲突时追加数字后缀
func (f *Func) uniqueName(base string) string {
	if base == "" {
		return ""
	}
	if !f.names[base] {
		f.names[base] = true
		return base
	}
	for n := 1; ; n++ {
		candidate := base + strconv.Itoa(n)
		if !f.names[candidate] {
			f.names[candidate] = true
			return candidate
		}
	}
}

func (f *Func) releaseName(name string) {
	if name != "" {
		delete(f.names, name)
	}
}

func (f *Func) uniqueBlockName(base string) string {
	if base == "" {
		base = "bb"
	}
	if !f.blockNames[base] {
		f.blockNames[base] = true
		return base
	}
	for n := 1; ; n++ {
		candidate := base + strconv.Itoa(n)
		if !f.blockNames[candidate] {
			f.blockNames[candidate] = true
			return candidate
		}
	}
}

// SetName 给值重新命名
func (f *Func) SetName(v Value, name string) {
	t, ok := v.(tracked)
	if !ok {
		return
	}
	f.releaseName(t.Name())
	t.setName(f.uniqueName(name))
}

// ============================================================================
// 基本块
// ============================================================================

// Block 基本块
type Block struct {
	name   string
	Instrs []*Instr
	parent *Func
}

func (b *Block) Name() string  { return b.name }
func (b *Block) Parent() *Func { return b.parent }
func (b *Block) Ident() string { return "%" + b.name }

// Terminator 返回块的终止指令，没有则返回 nil
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

// Succs 返回后继块
func (b *Block) Succs() []*Block {
	term := b.Terminator()
	if term == nil {
		return nil
	}
	return term.Successors()
}

// Preds 返回前驱块（按函数中块的顺序，去重）
func (b *Block) Preds() []*Block {
	var preds []*Block
	for _, other := range b.parent.Blocks {
		for _, s := range other.Succs() {
			if s == b {
				preds = append(preds, other)
				break
			}
		}
	}
	return preds
}

// IndexOf 返回指令在块中的下标，不存在返回 -1
func (b *Block) IndexOf(inst *Instr) int {
	for i, x := range b.Instrs {
		if x == inst {
			return i
		}
	}
	return -1
}

// FirstNonPhi 返回第一条非 phi 指令的下标
func (b *Block) FirstNonPhi() int {
	for i, inst := range b.Instrs {
		if !inst.IsPhi() {
			return i
		}
	}
	return len(b.Instrs)
}

// insert 在下标 idx 处插入指令
func (b *Block) insert(idx int, inst *Instr) {
	if idx < 0 || idx > len(b.Instrs) {
		panic(fmt.Sprintf("ir: insert position %d out of range in %s", idx, b.name))
	}
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[idx+1:], b.Instrs[idx:])
	b.Instrs[idx] = inst
	inst.parent = b
	inst.fn = b.parent
}

func (b *Block) remove(inst *Instr) {
	idx := b.IndexOf(inst)
	if idx < 0 {
		return
	}
	b.Instrs = append(b.Instrs[:idx], b.Instrs[idx+1:]...)
}
