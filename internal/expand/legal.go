// Package expand 将超过 64 位的整数拆分为 64 位低段（Lo）和剩余高段（Hi）。
//
// 高段仍然超宽时会在同一次遍历中被继续拆分，因此 i192 最终变成三个 i64。
// 函数签名不会改变：超宽参数会使整个函数的扩展失败。
package expand

import (
	"fmt"

	"github.com/tangzhangming/limbs/internal/ir"
)

// LegalWidth 目标可以直接处理的最大整数位宽
const LegalWidth = 64

// legalBytes 低段的字节数
const legalBytes = LegalWidth / 8

// IsLegal 检查位宽是否合法
func IsLegal(bits int) bool {
	if bits <= 0 {
		panic("expand: zero-size integer")
	}
	return bits <= LegalWidth
}

// ShouldConvert 检查值是否为需要拆分的超宽整数
func ShouldConvert(v ir.Value) bool {
	t := v.Type()
	return t.IsInt() && !IsLegal(t.Bits())
}

// TypePair 拆分后的低段 / 高段类型
type TypePair struct {
	Lo, Hi *ir.Type
}

// SplitType 拆分超宽整数类型：Lo 为 i64，Hi 为剩余位数
func SplitType(t *ir.Type) TypePair {
	if !t.IsInt() || IsLegal(t.Bits()) {
		panic(fmt.Sprintf("expand: splitting legal type %s", t))
	}
	return TypePair{Lo: ir.Int(LegalWidth), Hi: ir.Int(t.Bits() - LegalWidth)}
}

// needsConversion 结果或任一操作数超宽的指令需要转换
func needsConversion(inst *ir.Instr) bool {
	if ShouldConvert(inst) {
		return true
	}
	for _, op := range inst.Operands() {
		if op != nil && ShouldConvert(op) {
			return true
		}
	}
	return false
}
