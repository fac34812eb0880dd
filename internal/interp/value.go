// Package interp 是 IR 的参考解释器，用于验证扩展前后的语义一致。
//
// 整数用 uint256 表示并按位宽截断，因此支持的最大位宽为 256。
// 向量按元素保存，指针是字节内存中的地址（小端）。
package interp

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/samber/lo"

	"github.com/tangzhangming/limbs/internal/ir"
)

// MaxBits 解释器支持的最大整数位宽
const MaxBits = 256

// Value 运行时值：整数 / 指针使用 Int，向量使用 Elems
type Value struct {
	Int   uint256.Int
	Elems []uint256.Int
}

// FromUint64 创建整数值
func FromUint64(v uint64) Value {
	var r Value
	r.Int.SetUint64(v)
	return r
}

// FromBig 创建整数值，负数按 256 位补码处理
func FromBig(b *big.Int) Value {
	var r Value
	v := new(big.Int).And(b, maxMask)
	r.Int.SetFromBig(v)
	return r
}

// FromElems 创建向量值
func FromElems(elems ...uint64) Value {
	return Value{Elems: lo.Map(elems, func(e uint64, _ int) uint256.Int {
		var u uint256.Int
		u.SetUint64(e)
		return u
	})}
}

// Big 返回整数值（无符号）
func (v Value) Big() *big.Int {
	return v.Int.ToBig()
}

// Uint64 返回整数值的低 64 位
func (v Value) Uint64() uint64 {
	return v.Int.Uint64()
}

// Format 按类型格式化值
func (v Value) Format(t *ir.Type) string {
	if t != nil && t.IsVector() {
		parts := lo.Map(v.Elems, func(e uint256.Int, _ int) string {
			return fmt.Sprintf("%s %s", t.Elem(), e.Dec())
		})
		return "<" + strings.Join(parts, ", ") + ">"
	}
	if t != nil && t.IsPointer() {
		return fmt.Sprintf("0x%x", v.Int.Uint64())
	}
	return v.Int.Dec()
}

var maxMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MaxBits), big.NewInt(1))

// ============================================================================
// 位宽辅助
// ============================================================================

// mask 将 x 截断到 bits 位
func mask(x *uint256.Int, bits int) *uint256.Int {
	if bits >= MaxBits {
		return x
	}
	m := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bits))
	m.Sub(m, uint256.NewInt(1))
	return x.And(x, m)
}

// signExtend 把 bits 位的 x 符号扩展到 256 位
func signExtend(x *uint256.Int, bits int) *uint256.Int {
	z := new(uint256.Int).Set(x)
	if bits >= MaxBits {
		return z
	}
	sign := new(uint256.Int).Rsh(z, uint(bits-1))
	if sign.Uint64()&1 == 0 {
		return z
	}
	high := new(uint256.Int).Lsh(new(uint256.Int).SetAllOne(), uint(bits))
	return z.Or(z, high)
}
