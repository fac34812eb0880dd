// instr.go - IR 指令
//
// 指令集合是封闭的：所有操作码都在 Op 枚举中列出。
// 指令本身也是值（其结果），void 指令的结果类型为 void。

package ir

import "fmt"

// ============================================================================
// 操作码
// ============================================================================

// Op 指令操作码
type Op int

const (
	OpInvalid Op = iota // 解析器的前向引用占位

	// 控制流合并
	OpPhi

	// 类型转换
	OpZExt
	OpSExt
	OpTrunc
	OpBitCast

	// 算术运算
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem

	// 位运算
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	// 比较与选择
	OpICmp
	OpSelect

	// 内存
	OpLoad
	OpStore
	OpGEP
	OpAlloca

	// 向量
	OpInsertElement
	OpExtractElement

	// 终止指令
	OpBr
	OpCondBr
	OpSwitch
	OpRet
	OpUnreachable
)

var opNames = map[Op]string{
	OpInvalid:        "<invalid>",
	OpPhi:            "phi",
	OpZExt:           "zext",
	OpSExt:           "sext",
	OpTrunc:          "trunc",
	OpBitCast:        "bitcast",
	OpAdd:            "add",
	OpSub:            "sub",
	OpMul:            "mul",
	OpUDiv:           "udiv",
	OpSDiv:           "sdiv",
	OpURem:           "urem",
	OpSRem:           "srem",
	OpAnd:            "and",
	OpOr:             "or",
	OpXor:            "xor",
	OpShl:            "shl",
	OpLShr:           "lshr",
	OpAShr:           "ashr",
	OpICmp:           "icmp",
	OpSelect:         "select",
	OpLoad:           "load",
	OpStore:          "store",
	OpGEP:            "getelementptr",
	OpAlloca:         "alloca",
	OpInsertElement:  "insertelement",
	OpExtractElement: "extractelement",
	OpBr:             "br",
	OpCondBr:         "br",
	OpSwitch:         "switch",
	OpRet:            "ret",
	OpUnreachable:    "unreachable",
}

// String 返回操作码的文本形式
func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsBinary 检查是否为二元算术/位运算
func (op Op) IsBinary() bool {
	return op >= OpAdd && op <= OpAShr
}

// IsCast 检查是否为类型转换
func (op Op) IsCast() bool {
	return op >= OpZExt && op <= OpBitCast
}

// IsShift 检查是否为移位运算
func (op Op) IsShift() bool {
	return op == OpShl || op == OpLShr || op == OpAShr
}

// BinaryOpByName 按名字查找二元操作码
func BinaryOpByName(name string) (Op, bool) {
	for op := OpAdd; op <= OpAShr; op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return OpInvalid, false
}

// CastOpByName 按名字查找转换操作码
func CastOpByName(name string) (Op, bool) {
	for op := OpZExt; op <= OpBitCast; op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return OpInvalid, false
}

// ============================================================================
// 比较谓词
// ============================================================================

// Predicate 整数比较谓词
type Predicate int

const (
	PredEQ Predicate = iota
	PredNE
	PredUGT
	PredUGE
	PredULT
	PredULE
	PredSGT
	PredSGE
	PredSLT
	PredSLE
)

var predNames = [...]string{"eq", "ne", "ugt", "uge", "ult", "ule", "sgt", "sge", "slt", "sle"}

func (p Predicate) String() string {
	if int(p) < len(predNames) {
		return predNames[p]
	}
	return fmt.Sprintf("pred(%d)", int(p))
}

// PredicateByName 按名字查找谓词
func PredicateByName(name string) (Predicate, bool) {
	for i, n := range predNames {
		if n == name {
			return Predicate(i), true
		}
	}
	return 0, false
}

// IsEquality 检查是否为 eq / ne
func (p Predicate) IsEquality() bool {
	return p == PredEQ || p == PredNE
}

// Unsigned 返回对应的无符号谓词（eq / ne 保持不变）
func (p Predicate) Unsigned() Predicate {
	switch p {
	case PredSGT:
		return PredUGT
	case PredSGE:
		return PredUGE
	case PredSLT:
		return PredULT
	case PredSLE:
		return PredULE
	default:
		return p
	}
}

// ============================================================================
// 指令
// ============================================================================

// Instr IR 指令
//
// 操作数布局：
//   - phi:      operands[i] 来自 blocks[i]
//   - br:       blocks[0] 为目标
//   - condbr:   operands[0] 为条件，blocks[0] / blocks[1] 为真 / 假分支
//   - switch:   operands[0] 为条件，operands[1:] 为 case 值；blocks[0] 为 default，blocks[1:] 为 case 目标
//   - store:    operands[0] 为值，operands[1] 为指针
//   - load:     operands[0] 为指针
//   - gep:      operands[0] 为指针，operands[1] 为元素下标
type Instr struct {
	op       Op
	typ      *Type
	name     string
	operands []Value
	blocks   []*Block
	pred     Predicate
	align    int
	parent   *Block
	fn       *Func
	uses     useList
}

func newInstr(op Op, typ *Type, operands ...Value) *Instr {
	inst := &Instr{op: op, typ: typ}
	for _, v := range operands {
		inst.appendOperand(v)
	}
	return inst
}

// NewForwardRef 创建前向引用占位值（由解析器在定义出现后替换）
func NewForwardRef(t *Type, name string) *Instr {
	return &Instr{op: OpInvalid, typ: t, name: name}
}

func (i *Instr) appendOperand(v Value) {
	i.operands = append(i.operands, v)
	addUser(v, i)
}

func (i *Instr) Op() Op             { return i.op }
func (i *Instr) Type() *Type        { return i.typ }
func (i *Instr) Name() string       { return i.name }
func (i *Instr) Parent() *Block     { return i.parent }
func (i *Instr) Pred() Predicate    { return i.pred }
func (i *Instr) Align() int         { return i.align }
func (i *Instr) SetAlign(a int)     { i.align = a }
func (i *Instr) NumOperands() int   { return len(i.operands) }
func (i *Instr) Operand(n int) Value { return i.operands[n] }
func (i *Instr) useList() *useList  { return &i.uses }
func (i *Instr) setName(n string)   { i.name = n }
func (i *Instr) parentFunc() *Func  { return i.fn }

// Ident 返回指令结果的引用形式
func (i *Instr) Ident() string {
	return "%" + i.name
}

// Operands 返回操作数的副本
func (i *Instr) Operands() []Value {
	out := make([]Value, len(i.operands))
	copy(out, i.operands)
	return out
}

// Blocks 返回指令引用的基本块（phi 的来源块或分支目标）
func (i *Instr) Blocks() []*Block {
	out := make([]*Block, len(i.blocks))
	copy(out, i.blocks)
	return out
}

// SetOperand 替换第 n 个操作数并维护使用者列表
func (i *Instr) SetOperand(n int, v Value) {
	old := i.operands[n]
	if old == v {
		return
	}
	if old != nil {
		removeUser(old, i)
	}
	i.operands[n] = v
	if v != nil {
		addUser(v, i)
	}
}

// IsTerminator 检查是否为终止指令
func (i *Instr) IsTerminator() bool {
	switch i.op {
	case OpBr, OpCondBr, OpSwitch, OpRet, OpUnreachable:
		return true
	default:
		return false
	}
}

// IsPhi 检查是否为 phi 指令
func (i *Instr) IsPhi() bool { return i.op == OpPhi }

// Successors 返回终止指令的后继块
func (i *Instr) Successors() []*Block {
	if !i.IsTerminator() {
		return nil
	}
	return i.Blocks()
}

// ----------------------------------------------------------------------------
// phi 辅助方法
// ----------------------------------------------------------------------------

// NumIncoming 返回 phi 的来源数量
func (i *Instr) NumIncoming() int { return len(i.operands) }

// IncomingValue 返回第 n 个来源值
func (i *Instr) IncomingValue(n int) Value { return i.operands[n] }

// IncomingBlock 返回第 n 个来源块
func (i *Instr) IncomingBlock(n int) *Block { return i.blocks[n] }

// AddIncoming 为 phi 添加来源
func (i *Instr) AddIncoming(v Value, from *Block) {
	if i.op != OpPhi {
		panic("ir: AddIncoming on non-phi instruction")
	}
	if v.Type() != i.typ {
		panic(fmt.Sprintf("ir: phi of type %s given incoming %s", i.typ, v.Type()))
	}
	i.appendOperand(v)
	i.blocks = append(i.blocks, from)
}

// SetIncomingValue 替换第 n 个来源值
func (i *Instr) SetIncomingValue(n int, v Value) {
	if v.Type() != i.typ {
		panic(fmt.Sprintf("ir: phi of type %s given incoming %s", i.typ, v.Type()))
	}
	i.SetOperand(n, v)
}

// RemoveIncoming 删除第 n 个来源
func (i *Instr) RemoveIncoming(n int) {
	if v := i.operands[n]; v != nil {
		removeUser(v, i)
	}
	i.operands = append(i.operands[:n], i.operands[n+1:]...)
	i.blocks = append(i.blocks[:n], i.blocks[n+1:]...)
}

// ----------------------------------------------------------------------------
// 删除
// ----------------------------------------------------------------------------

// DropAllReferences 断开指令对所有操作数的引用
func (i *Instr) DropAllReferences() {
	for _, v := range i.operands {
		if v != nil {
			removeUser(v, i)
		}
	}
	i.operands = nil
	i.blocks = nil
}

// EraseFromParent 从所在基本块中删除指令，指令必须已无使用者
func (i *Instr) EraseFromParent() {
	if len(i.uses.users) > 0 {
		panic(fmt.Sprintf("ir: erasing %s which still has %d users", i.Ident(), len(i.uses.users)))
	}
	i.DropAllReferences()
	if i.parent != nil {
		i.parent.remove(i)
	}
	if i.fn != nil {
		i.fn.releaseName(i.name)
	}
	i.parent = nil
}

// String 返回指令文本
func (i *Instr) String() string {
	return formatInstr(i, nil)
}
