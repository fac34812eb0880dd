package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tangzhangming/limbs/internal/ir"
)

func TestIsLegal(t *testing.T) {
	assert.True(t, IsLegal(1))
	assert.True(t, IsLegal(64))
	assert.False(t, IsLegal(65))
	assert.False(t, IsLegal(256))
	assert.Panics(t, func() { IsLegal(0) })
}

func TestShouldConvert(t *testing.T) {
	assert.True(t, ShouldConvert(ir.ConstUint64(ir.Int(128), 1)))
	assert.False(t, ShouldConvert(ir.ConstUint64(ir.Int(64), 1)))
	// 向量和指针不按整数处理
	assert.False(t, ShouldConvert(ir.Undef(ir.Vector(ir.Int(32), 4))))
	assert.False(t, ShouldConvert(ir.Null(ir.Pointer(ir.Int(128), 0))))
}

func TestSplitType(t *testing.T) {
	tests := []struct {
		bits   int
		lo, hi int
	}{
		{65, 64, 1},
		{96, 64, 32},
		{128, 64, 64},
		{192, 64, 128},
		{200, 64, 136},
	}
	for _, tt := range tests {
		tys := SplitType(ir.Int(tt.bits))
		assert.Equal(t, ir.Int(tt.lo), tys.Lo, "i%d", tt.bits)
		assert.Equal(t, ir.Int(tt.hi), tys.Hi, "i%d", tt.bits)
	}
	assert.Panics(t, func() { SplitType(ir.Int(64)) })
	assert.Panics(t, func() { SplitType(ir.Vector(ir.Int(64), 4)) })
}

func TestNeedsConversion(t *testing.T) {
	fn := mustParse(t, `define i64 @f(i64 %a, i128* %p) {
entry:
  %x = zext i64 %a to i128
  %y = trunc i128 %x to i64
  %v = load i128, i128* %p
  %z = add i64 %y, 1
  ret i64 %z
}
`)
	got := make(map[string]bool)
	for _, inst := range fn.Instrs() {
		got[inst.Name()] = needsConversion(inst)
	}
	assert.Equal(t, map[string]bool{
		"x": true,
		"y": true,
		"v": true,
		"z": false,
		"":  false,
	}, got)
}
