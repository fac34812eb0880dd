package interp

import (
	"fmt"

	"github.com/holiman/uint256"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// nullGuard 地址 0 起的保护区，空指针访问总是越界
const nullGuard = 16

// Memory 小端字节内存，按 bump 方式分配
type Memory struct {
	layout ir.DataLayout
	bytes  []byte
}

// NewMemory 创建内存
func NewMemory(layout ir.DataLayout) *Memory {
	return &Memory{layout: layout, bytes: make([]byte, nullGuard)}
}

// Alloc 分配 t 类型的对象并返回地址，内容清零
func (m *Memory) Alloc(t *ir.Type, align int) uint64 {
	if align <= 0 {
		align = m.layout.PrefAlign(t)
	}
	size := m.layout.AllocSize(t)
	if size == 0 {
		size = 1
	}
	addr := (len(m.bytes) + align - 1) / align * align
	m.bytes = append(m.bytes, make([]byte, addr+size-len(m.bytes))...)
	return uint64(addr)
}

func (m *Memory) check(addr uint64, n int) error {
	if addr < nullGuard || addr+uint64(n) > uint64(len(m.bytes)) {
		return &lerrors.RuntimeError{
			Code:    lerrors.R0003,
			Message: fmt.Sprintf("access of %d bytes at 0x%x is out of bounds", n, addr),
		}
	}
	return nil
}

// Store 以小端写入 t 类型的值
func (m *Memory) Store(addr uint64, t *ir.Type, v Value) error {
	n := m.layout.StoreSize(t)
	if err := m.check(addr, n); err != nil {
		return err
	}
	raw, err := packBits(t, v)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		m.bytes[addr+uint64(i)] = byte(raw[i/8] >> (8 * uint(i%8)))
	}
	return nil
}

// Load 以小端读取 t 类型的值
func (m *Memory) Load(addr uint64, t *ir.Type) (Value, error) {
	n := m.layout.StoreSize(t)
	if err := checkWidth(t.PrimitiveBits()); err != nil {
		return Value{}, err
	}
	if err := m.check(addr, n); err != nil {
		return Value{}, err
	}
	var raw uint256.Int
	for i := 0; i < n; i++ {
		raw[i/8] |= uint64(m.bytes[addr+uint64(i)]) << (8 * uint(i%8))
	}
	return unpackBits(t, &raw)
}

// ============================================================================
// 位级打包：向量元素 0 位于最低位
// ============================================================================

func packBits(t *ir.Type, v Value) (*uint256.Int, error) {
	switch {
	case t.IsPointer():
		return new(uint256.Int).Set(&v.Int), nil
	case t.IsInt():
		if err := checkWidth(t.Bits()); err != nil {
			return nil, err
		}
		return mask(new(uint256.Int).Set(&v.Int), t.Bits()), nil
	case t.IsVector():
		if err := checkWidth(t.PrimitiveBits()); err != nil {
			return nil, err
		}
		bits := t.Elem().Bits()
		out := new(uint256.Int)
		for i := len(v.Elems) - 1; i >= 0; i-- {
			e := mask(new(uint256.Int).Set(&v.Elems[i]), bits)
			out.Lsh(out, uint(bits))
			out.Or(out, e)
		}
		return out, nil
	default:
		return nil, &lerrors.RuntimeError{Code: lerrors.R0006, Message: fmt.Sprintf("cannot pack %s", t)}
	}
}

func unpackBits(t *ir.Type, raw *uint256.Int) (Value, error) {
	switch {
	case t.IsPointer():
		return Value{Int: *raw}, nil
	case t.IsInt():
		if err := checkWidth(t.Bits()); err != nil {
			return Value{}, err
		}
		return Value{Int: *mask(new(uint256.Int).Set(raw), t.Bits())}, nil
	case t.IsVector():
		if err := checkWidth(t.PrimitiveBits()); err != nil {
			return Value{}, err
		}
		bits := t.Elem().Bits()
		elems := make([]uint256.Int, t.Len())
		for i := range elems {
			e := new(uint256.Int).Rsh(raw, uint(i*bits))
			elems[i] = *mask(e, bits)
		}
		return Value{Elems: elems}, nil
	default:
		return Value{}, &lerrors.RuntimeError{Code: lerrors.R0006, Message: fmt.Sprintf("cannot unpack %s", t)}
	}
}

func checkWidth(bits int) error {
	if bits > MaxBits {
		return &lerrors.RuntimeError{
			Code:    lerrors.R0002,
			Message: fmt.Sprintf("%d-bit values exceed the %d-bit interpreter limit", bits, MaxBits),
		}
	}
	return nil
}
