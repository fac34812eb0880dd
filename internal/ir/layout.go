// layout.go - 数据布局
//
// DataLayout 回答与目标相关的尺寸和对齐问题。

package ir

// DataLayout 数据布局查询接口
type DataLayout interface {
	// PrefAlign 返回类型的首选对齐（字节）
	PrefAlign(t *Type) int
	// StoreSize 返回存储该类型实际写入的字节数
	StoreSize(t *Type) int
	// AllocSize 返回该类型在内存中占用的字节数（含对齐填充）
	AllocSize(t *Type) int
}

// DefaultLayout 默认数据布局
type DefaultLayout struct {
	MaxIntAlign int // 整数与向量的最大对齐
	PointerSize int // 指针字节数
}

// NewDefaultLayout 返回 64 位目标的默认布局
func NewDefaultLayout() *DefaultLayout {
	return &DefaultLayout{MaxIntAlign: 16, PointerSize: 8}
}

func (l *DefaultLayout) StoreSize(t *Type) int {
	switch t.Kind() {
	case IntKind, VectorKind:
		return (t.PrimitiveBits() + 7) / 8
	case PointerKind:
		return l.PointerSize
	default:
		return 0
	}
}

func (l *DefaultLayout) PrefAlign(t *Type) int {
	switch t.Kind() {
	case IntKind, VectorKind:
		a := nextPowerOf2(l.StoreSize(t))
		if l.MaxIntAlign > 0 && a > l.MaxIntAlign {
			a = l.MaxIntAlign
		}
		return a
	case PointerKind:
		return l.PointerSize
	default:
		return 1
	}
}

func (l *DefaultLayout) AllocSize(t *Type) int {
	size := l.StoreSize(t)
	align := l.PrefAlign(t)
	return (size + align - 1) / align * align
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// MinAlign 返回同时整除 a 和 b 的最大 2 的幂
func MinAlign(a, b int) int {
	x := a | b
	return x & -x
}
