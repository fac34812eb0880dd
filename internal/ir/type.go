// type.go - IR 类型系统
//
// 类型在全局表中驻留（intern），同一结构的类型只有一个 *Type 实例，
// 因此可以直接用指针比较类型是否相同。
//
// 支持的类型：
// - void / label
// - iN：任意位宽的整数
// - <N x iM>：整数向量
// - T*：带类型的指针（含地址空间）

package ir

import (
	"fmt"
	"sync"
)

// ============================================================================
// 类型定义
// ============================================================================

// TypeKind 类型种类
type TypeKind int

const (
	VoidKind TypeKind = iota
	LabelKind
	IntKind
	VectorKind
	PointerKind
)

// Type IR 类型
type Type struct {
	kind      TypeKind
	bits      int   // 整数位宽
	elem      *Type // 向量元素 / 指针指向的类型
	length    int   // 向量长度
	addrSpace int   // 指针地址空间
}

type typeKey struct {
	kind      TypeKind
	bits      int
	elem      *Type
	length    int
	addrSpace int
}

var (
	typeMu    sync.Mutex
	typeTable = make(map[typeKey]*Type)

	voidType  = &Type{kind: VoidKind}
	labelType = &Type{kind: LabelKind}
)

func intern(k typeKey) *Type {
	typeMu.Lock()
	defer typeMu.Unlock()

	if t, ok := typeTable[k]; ok {
		return t
	}
	t := &Type{kind: k.kind, bits: k.bits, elem: k.elem, length: k.length, addrSpace: k.addrSpace}
	typeTable[k] = t
	return t
}

// ============================================================================
// 类型构造
// ============================================================================

// Void 返回 void 类型
func Void() *Type { return voidType }

// Label 返回基本块标签类型
func Label() *Type { return labelType }

// Int 返回 bits 位整数类型
func Int(bits int) *Type {
	if bits <= 0 {
		panic(fmt.Sprintf("ir: invalid integer width %d", bits))
	}
	return intern(typeKey{kind: IntKind, bits: bits})
}

// Vector 返回 <n x elem> 向量类型，元素必须是整数
func Vector(elem *Type, n int) *Type {
	if elem == nil || !elem.IsInt() {
		panic("ir: vector element must be an integer type")
	}
	if n <= 0 {
		panic(fmt.Sprintf("ir: invalid vector length %d", n))
	}
	return intern(typeKey{kind: VectorKind, elem: elem, length: n})
}

// Pointer 返回指向 elem 的指针类型
func Pointer(elem *Type, addrSpace int) *Type {
	if elem == nil {
		panic("ir: pointer to nil type")
	}
	return intern(typeKey{kind: PointerKind, elem: elem, addrSpace: addrSpace})
}

// ============================================================================
// 类型查询
// ============================================================================

func (t *Type) Kind() TypeKind { return t.kind }
func (t *Type) IsVoid() bool   { return t.kind == VoidKind }
func (t *Type) IsLabel() bool  { return t.kind == LabelKind }
func (t *Type) IsInt() bool    { return t.kind == IntKind }
func (t *Type) IsVector() bool { return t.kind == VectorKind }
func (t *Type) IsPointer() bool {
	return t.kind == PointerKind
}

// Bits 返回整数位宽，非整数返回 0
func (t *Type) Bits() int {
	if t.kind != IntKind {
		return 0
	}
	return t.bits
}

// Elem 返回向量元素类型或指针指向的类型
func (t *Type) Elem() *Type { return t.elem }

// Len 返回向量长度
func (t *Type) Len() int { return t.length }

// AddrSpace 返回指针的地址空间
func (t *Type) AddrSpace() int { return t.addrSpace }

// PrimitiveBits 返回整数或向量的总位数，其他类型返回 0
func (t *Type) PrimitiveBits() int {
	switch t.kind {
	case IntKind:
		return t.bits
	case VectorKind:
		return t.elem.bits * t.length
	default:
		return 0
	}
}

// String 返回类型的文本表示
func (t *Type) String() string {
	switch t.kind {
	case VoidKind:
		return "void"
	case LabelKind:
		return "label"
	case IntKind:
		return fmt.Sprintf("i%d", t.bits)
	case VectorKind:
		return fmt.Sprintf("<%d x %s>", t.length, t.elem)
	case PointerKind:
		if t.addrSpace != 0 {
			return fmt.Sprintf("%s addrspace(%d)*", t.elem, t.addrSpace)
		}
		return t.elem.String() + "*"
	default:
		return "<bad>"
	}
}
