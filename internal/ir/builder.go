// builder.go - 指令构建器
//
// Builder 维护一个插入点：新指令插入到插入点位置，插入点随后前移，
// 因此连续创建的指令保持创建顺序。

package ir

import "fmt"

// Builder 指令构建器
type Builder struct {
	block *Block
	pos   int // 插入下标，-1 表示块末尾
}

// NewBuilder 创建构建器，插入点位于 bb 末尾
func NewBuilder(bb *Block) *Builder {
	return &Builder{block: bb, pos: -1}
}

// SetInsertPointAtEnd 插入点设为块末尾
func (b *Builder) SetInsertPointAtEnd(bb *Block) {
	b.block = bb
	b.pos = -1
}

// SetInsertPointAfter 插入点设为 inst 之后
func (b *Builder) SetInsertPointAfter(inst *Instr) {
	b.block = inst.parent
	b.pos = inst.parent.IndexOf(inst) + 1
}

// SetInsertPointBefore 插入点设为 inst 之前
func (b *Builder) SetInsertPointBefore(inst *Instr) {
	b.block = inst.parent
	b.pos = inst.parent.IndexOf(inst)
}

// SetInsertPoint 插入点设为 bb 的第 idx 条指令之前
func (b *Builder) SetInsertPoint(bb *Block, idx int) {
	b.block = bb
	b.pos = idx
}

// Block 返回当前插入块
func (b *Builder) Block() *Block { return b.block }

func (b *Builder) insert(inst *Instr, name string) *Instr {
	if b.block == nil {
		panic("ir: builder has no insert point")
	}
	if b.pos < 0 {
		b.block.insert(len(b.block.Instrs), inst)
	} else {
		b.block.insert(b.pos, inst)
		b.pos++
	}
	if !inst.typ.IsVoid() {
		inst.name = b.block.parent.uniqueName(name)
	}
	return inst
}

func sameType(op string, a, c Value) {
	if a.Type() != c.Type() {
		panic(fmt.Sprintf("ir: %s operand types differ: %s vs %s", op, a.Type(), c.Type()))
	}
}

// ============================================================================
// phi
// ============================================================================

// CreatePhi 创建 phi，预留 n 个来源
func (b *Builder) CreatePhi(t *Type, n int, name string) *Instr {
	inst := newInstr(OpPhi, t)
	inst.operands = make([]Value, 0, n)
	inst.blocks = make([]*Block, 0, n)
	return b.insert(inst, name)
}

// ============================================================================
// 类型转换
// ============================================================================

// CreateCast 创建转换指令
func (b *Builder) CreateCast(op Op, v Value, to *Type, name string) *Instr {
	from := v.Type()
	switch op {
	case OpZExt, OpSExt:
		if !from.IsInt() || !to.IsInt() || from.Bits() >= to.Bits() {
			panic(fmt.Sprintf("ir: invalid %s from %s to %s", op, from, to))
		}
	case OpTrunc:
		if !from.IsInt() || !to.IsInt() || from.Bits() <= to.Bits() {
			panic(fmt.Sprintf("ir: invalid trunc from %s to %s", from, to))
		}
	case OpBitCast:
		if from.IsPointer() != to.IsPointer() || (!from.IsPointer() && from.PrimitiveBits() != to.PrimitiveBits()) {
			panic(fmt.Sprintf("ir: invalid bitcast from %s to %s", from, to))
		}
	default:
		panic(fmt.Sprintf("ir: %s is not a cast", op))
	}
	return b.insert(newInstr(op, to, v), name)
}

func (b *Builder) CreateZExt(v Value, to *Type, name string) *Instr {
	return b.CreateCast(OpZExt, v, to, name)
}

func (b *Builder) CreateSExt(v Value, to *Type, name string) *Instr {
	return b.CreateCast(OpSExt, v, to, name)
}

func (b *Builder) CreateTrunc(v Value, to *Type, name string) *Instr {
	return b.CreateCast(OpTrunc, v, to, name)
}

// CreateBitCast 创建位重解释，类型相同时直接返回 v
func (b *Builder) CreateBitCast(v Value, to *Type, name string) Value {
	if v.Type() == to {
		return v
	}
	return b.CreateCast(OpBitCast, v, to, name)
}

// CreateZExtOrTrunc 按位宽选择 zext / trunc，位宽相同直接返回 v
func (b *Builder) CreateZExtOrTrunc(v Value, to *Type, name string) Value {
	switch from := v.Type().Bits(); {
	case from < to.Bits():
		return b.CreateZExt(v, to, name)
	case from > to.Bits():
		return b.CreateTrunc(v, to, name)
	default:
		return v
	}
}

// CreateSExtOrTrunc 按位宽选择 sext / trunc，位宽相同直接返回 v
func (b *Builder) CreateSExtOrTrunc(v Value, to *Type, name string) Value {
	switch from := v.Type().Bits(); {
	case from < to.Bits():
		return b.CreateSExt(v, to, name)
	case from > to.Bits():
		return b.CreateTrunc(v, to, name)
	default:
		return v
	}
}

// ============================================================================
// 二元运算
// ============================================================================

// CreateBinOp 创建二元运算
func (b *Builder) CreateBinOp(op Op, x, y Value, name string) *Instr {
	if !op.IsBinary() {
		panic(fmt.Sprintf("ir: %s is not a binary operator", op))
	}
	sameType(op.String(), x, y)
	return b.insert(newInstr(op, x.Type(), x, y), name)
}

func (b *Builder) CreateAdd(x, y Value, name string) *Instr { return b.CreateBinOp(OpAdd, x, y, name) }
func (b *Builder) CreateSub(x, y Value, name string) *Instr { return b.CreateBinOp(OpSub, x, y, name) }
func (b *Builder) CreateAnd(x, y Value, name string) *Instr { return b.CreateBinOp(OpAnd, x, y, name) }
func (b *Builder) CreateOr(x, y Value, name string) *Instr  { return b.CreateBinOp(OpOr, x, y, name) }
func (b *Builder) CreateXor(x, y Value, name string) *Instr { return b.CreateBinOp(OpXor, x, y, name) }

// CreateShl 按常量位数左移
func (b *Builder) CreateShl(x Value, amount int, name string) *Instr {
	return b.CreateBinOp(OpShl, x, ConstUint64(x.Type(), uint64(amount)), name)
}

// CreateLShr 按常量位数逻辑右移
func (b *Builder) CreateLShr(x Value, amount int, name string) *Instr {
	return b.CreateBinOp(OpLShr, x, ConstUint64(x.Type(), uint64(amount)), name)
}

// CreateAShr 按常量位数算术右移
func (b *Builder) CreateAShr(x Value, amount int, name string) *Instr {
	return b.CreateBinOp(OpAShr, x, ConstUint64(x.Type(), uint64(amount)), name)
}

// ============================================================================
// 比较与选择
// ============================================================================

// CreateICmp 创建整数比较，结果为 i1
func (b *Builder) CreateICmp(pred Predicate, x, y Value, name string) *Instr {
	sameType("icmp", x, y)
	inst := newInstr(OpICmp, Int(1), x, y)
	inst.pred = pred
	return b.insert(inst, name)
}

// CreateSelect 创建选择指令
func (b *Builder) CreateSelect(cond, x, y Value, name string) *Instr {
	if cond.Type() != Int(1) {
		panic(fmt.Sprintf("ir: select condition must be i1, got %s", cond.Type()))
	}
	sameType("select", x, y)
	return b.insert(newInstr(OpSelect, x.Type(), cond, x, y), name)
}

// ============================================================================
// 内存
// ============================================================================

// CreateLoad 创建对齐加载
func (b *Builder) CreateLoad(ptr Value, align int, name string) *Instr {
	pt := ptr.Type()
	if !pt.IsPointer() {
		panic(fmt.Sprintf("ir: load from non-pointer %s", pt))
	}
	inst := newInstr(OpLoad, pt.Elem(), ptr)
	inst.align = align
	return b.insert(inst, name)
}

// CreateStore 创建对齐存储
func (b *Builder) CreateStore(v, ptr Value, align int) *Instr {
	pt := ptr.Type()
	if !pt.IsPointer() || pt.Elem() != v.Type() {
		panic(fmt.Sprintf("ir: store of %s through %s", v.Type(), pt))
	}
	inst := newInstr(OpStore, Void(), v, ptr)
	inst.align = align
	return b.insert(inst, "")
}

// CreateGEP 创建指针偏移：ptr + idx 个元素
func (b *Builder) CreateGEP(ptr Value, idx Value, name string) *Instr {
	if !ptr.Type().IsPointer() || !idx.Type().IsInt() {
		panic(fmt.Sprintf("ir: invalid getelementptr on %s", ptr.Type()))
	}
	return b.insert(newInstr(OpGEP, ptr.Type(), ptr, idx), name)
}

// CreateConstGEP 创建常量下标的指针偏移
func (b *Builder) CreateConstGEP(ptr Value, idx int, name string) *Instr {
	return b.CreateGEP(ptr, ConstUint64(Int(32), uint64(idx)), name)
}

// CreateAlloca 创建栈上分配
func (b *Builder) CreateAlloca(t *Type, align int, name string) *Instr {
	inst := newInstr(OpAlloca, Pointer(t, 0))
	inst.align = align
	return b.insert(inst, name)
}

// ============================================================================
// 向量
// ============================================================================

// CreateInsertElement 创建向量元素插入
func (b *Builder) CreateInsertElement(vec, elem Value, idx int, name string) *Instr {
	vt := vec.Type()
	if !vt.IsVector() || vt.Elem() != elem.Type() {
		panic(fmt.Sprintf("ir: insertelement of %s into %s", elem.Type(), vt))
	}
	return b.insert(newInstr(OpInsertElement, vt, vec, elem, ConstUint64(Int(32), uint64(idx))), name)
}

// CreateExtractElement 创建向量元素提取
func (b *Builder) CreateExtractElement(vec Value, idx int, name string) *Instr {
	vt := vec.Type()
	if !vt.IsVector() {
		panic(fmt.Sprintf("ir: extractelement from %s", vt))
	}
	return b.insert(newInstr(OpExtractElement, vt.Elem(), vec, ConstUint64(Int(32), uint64(idx))), name)
}

// ============================================================================
// 终止指令
// ============================================================================

// CreateBr 创建无条件跳转
func (b *Builder) CreateBr(dest *Block) *Instr {
	inst := newInstr(OpBr, Void())
	inst.blocks = []*Block{dest}
	return b.insert(inst, "")
}

// CreateCondBr 创建条件跳转
func (b *Builder) CreateCondBr(cond Value, then, els *Block) *Instr {
	if cond.Type() != Int(1) {
		panic(fmt.Sprintf("ir: branch condition must be i1, got %s", cond.Type()))
	}
	inst := newInstr(OpCondBr, Void(), cond)
	inst.blocks = []*Block{then, els}
	return b.insert(inst, "")
}

// CreateSwitch 创建多路跳转
func (b *Builder) CreateSwitch(v Value, def *Block, cases []*Const, dests []*Block) *Instr {
	if len(cases) != len(dests) {
		panic("ir: switch case / destination count mismatch")
	}
	inst := newInstr(OpSwitch, Void(), v)
	inst.blocks = []*Block{def}
	for i, c := range cases {
		sameType("switch", v, c)
		inst.appendOperand(c)
		inst.blocks = append(inst.blocks, dests[i])
	}
	return b.insert(inst, "")
}

// CreateRet 创建返回，v 为 nil 表示 ret void
func (b *Builder) CreateRet(v Value) *Instr {
	if v == nil {
		return b.insert(newInstr(OpRet, Void()), "")
	}
	return b.insert(newInstr(OpRet, Void(), v), "")
}

// CreateUnreachable 创建 unreachable
func (b *Builder) CreateUnreachable() *Instr {
	return b.insert(newInstr(OpUnreachable, Void()), "")
}
