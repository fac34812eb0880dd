// value.go - IR 值
//
// 值分为三类：常量、函数参数和指令结果。
// 参数和指令维护使用者列表（use list），支持 ReplaceAllUsesWith；
// 常量不可变且不跟踪使用者。

package ir

import (
	"fmt"
	"math/big"
)

// Value IR 值接口
type Value interface {
	Type() *Type
	Name() string
	// Ident 返回值在指令文本中的引用形式（%x、42、undef ...）
	Ident() string
}

// ============================================================================
// 使用者列表
// ============================================================================

// useList 记录使用某个值的指令，同一指令多次使用会出现多次
type useList struct {
	users []*Instr
}

func (u *useList) add(inst *Instr) {
	u.users = append(u.users, inst)
}

func (u *useList) remove(inst *Instr) {
	for i, user := range u.users {
		if user == inst {
			u.users = append(u.users[:i], u.users[i+1:]...)
			return
		}
	}
}

// tracked 带使用者列表的值
type tracked interface {
	Value
	useList() *useList
	setName(name string)
	parentFunc() *Func
}

func addUser(v Value, inst *Instr) {
	if t, ok := v.(tracked); ok {
		t.useList().add(inst)
	}
}

func removeUser(v Value, inst *Instr) {
	if t, ok := v.(tracked); ok {
		t.useList().remove(inst)
	}
}

// Users 返回使用 v 的指令（常量返回 nil）
func Users(v Value) []*Instr {
	t, ok := v.(tracked)
	if !ok {
		return nil
	}
	users := t.useList().users
	out := make([]*Instr, len(users))
	copy(out, users)
	return out
}

// HasUses 检查 v 是否仍被使用
func HasUses(v Value) bool {
	t, ok := v.(tracked)
	return ok && len(t.useList().users) > 0
}

// ReplaceAllUsesWith 将 from 的所有使用替换为 to
func ReplaceAllUsesWith(from, to Value) {
	if from == to {
		return
	}
	if from.Type() != to.Type() {
		panic(fmt.Sprintf("ir: replacing %s with value of different type %s", from.Type(), to.Type()))
	}
	for _, user := range Users(from) {
		for i, op := range user.operands {
			if op == from {
				user.SetOperand(i, to)
			}
		}
	}
}

// TakeName 将 from 的名字转移给 to，from 变为匿名
func TakeName(to, from Value) {
	src, ok := from.(tracked)
	if !ok {
		return
	}
	dst, ok := to.(tracked)
	if !ok {
		return
	}
	name := src.Name()
	fn := src.parentFunc()
	if fn == nil {
		fn = dst.parentFunc()
	}
	if fn != nil {
		fn.releaseName(src.Name())
		fn.releaseName(dst.Name())
	}
	src.setName("")
	dst.setName("")
	if fn != nil {
		name = fn.uniqueName(name)
	}
	dst.setName(name)
}

// ============================================================================
// 常量
// ============================================================================

// ConstKind 常量种类
type ConstKind int

const (
	ConstIntKind ConstKind = iota
	UndefKind
	PoisonKind
	NullKind
)

// Const 常量值
type Const struct {
	kind ConstKind
	typ  *Type
	val  *big.Int // 仅 ConstIntKind 使用，取值范围 [0, 2^bits)
}

// ConstInt 创建整数常量，v 按位宽截断（负数按补码处理）
func ConstInt(t *Type, v *big.Int) *Const {
	if !t.IsInt() {
		panic(fmt.Sprintf("ir: integer constant of type %s", t))
	}
	return &Const{kind: ConstIntKind, typ: t, val: TruncBig(v, t.Bits())}
}

// ConstUint64 创建整数常量
func ConstUint64(t *Type, v uint64) *Const {
	return ConstInt(t, new(big.Int).SetUint64(v))
}

// ConstBool 创建 i1 常量
func ConstBool(b bool) *Const {
	if b {
		return ConstUint64(Int(1), 1)
	}
	return ConstUint64(Int(1), 0)
}

// Undef 创建未定义值
func Undef(t *Type) *Const { return &Const{kind: UndefKind, typ: t} }

// Poison 创建 poison 值
func Poison(t *Type) *Const { return &Const{kind: PoisonKind, typ: t} }

// Null 创建空指针常量
func Null(t *Type) *Const {
	if !t.IsPointer() {
		panic(fmt.Sprintf("ir: null constant of type %s", t))
	}
	return &Const{kind: NullKind, typ: t}
}

func (c *Const) Type() *Type     { return c.typ }
func (c *Const) Name() string    { return "" }
func (c *Const) Kind() ConstKind { return c.kind }

// Int 返回整数常量值的副本
func (c *Const) Int() *big.Int {
	if c.kind != ConstIntKind {
		return nil
	}
	return new(big.Int).Set(c.val)
}

// Uint64 返回整数常量的低 64 位
func (c *Const) Uint64() uint64 {
	if c.kind != ConstIntKind {
		return 0
	}
	return c.val.Uint64()
}

// IsUint64 检查常量值能否放入 uint64
func (c *Const) IsUint64() bool {
	return c.kind == ConstIntKind && c.val.IsUint64()
}

func (c *Const) Ident() string {
	switch c.kind {
	case UndefKind:
		return "undef"
	case PoisonKind:
		return "poison"
	case NullKind:
		return "null"
	}
	if c.typ.Bits() == 1 {
		if c.val.Sign() == 0 {
			return "false"
		}
		return "true"
	}
	return c.val.String()
}

func (c *Const) String() string {
	return c.typ.String() + " " + c.Ident()
}

// IsConst 检查值是否为常量
func IsConst(v Value) bool {
	_, ok := v.(*Const)
	return ok
}

// TruncBig 将 v 截断到 bits 位（结果非负）
func TruncBig(v *big.Int, bits int) *big.Int {
	mask := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	mask.Sub(mask, big.NewInt(1))
	return new(big.Int).And(v, mask)
}

// ============================================================================
// 函数参数
// ============================================================================

// Param 函数参数
type Param struct {
	name   string
	typ    *Type
	index  int
	parent *Func
	uses   useList
}

func (p *Param) Type() *Type        { return p.typ }
func (p *Param) Name() string       { return p.name }
func (p *Param) Ident() string      { return "%" + p.name }
func (p *Param) Index() int         { return p.index }
func (p *Param) Parent() *Func      { return p.parent }
func (p *Param) useList() *useList  { return &p.uses }
func (p *Param) setName(n string)   { p.name = n }
func (p *Param) parentFunc() *Func  { return p.parent }
