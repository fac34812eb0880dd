package interp

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/parser"
)

func mustParse(t *testing.T, src string) *ir.Func {
	t.Helper()
	m, err := parser.ParseString(src, "test.ll")
	require.NoError(t, err)
	require.Len(t, m.Funcs, 1)
	return m.Funcs[0]
}

func call(t *testing.T, src string, args ...Value) Value {
	t.Helper()
	v, err := New(nil).Call(mustParse(t, src), args...)
	require.NoError(t, err)
	return v
}

func runtimeCode(t *testing.T, err error) string {
	t.Helper()
	var re *lerrors.RuntimeError
	require.True(t, errors.As(err, &re), "got %v", err)
	return re.Code
}

// ============================================================================
// 整数运算
// ============================================================================

func TestBinaryWraps(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []uint64
		want uint64
	}{
		{"add wraps at i8", "define i8 @f(i8 %a, i8 %b) {\n  %r = add i8 %a, %b\n  ret i8 %r\n}\n", []uint64{200, 100}, 44},
		{"sub wraps at i16", "define i16 @f(i16 %a, i16 %b) {\n  %r = sub i16 %a, %b\n  ret i16 %r\n}\n", []uint64{1, 2}, 0xffff},
		{"mul", "define i32 @f(i32 %a, i32 %b) {\n  %r = mul i32 %a, %b\n  ret i32 %r\n}\n", []uint64{0x10000, 0x10001}, 0x10000},
		{"udiv", "define i64 @f(i64 %a, i64 %b) {\n  %r = udiv i64 %a, %b\n  ret i64 %r\n}\n", []uint64{100, 7}, 14},
		{"sdiv", "define i8 @f(i8 %a, i8 %b) {\n  %r = sdiv i8 %a, %b\n  ret i8 %r\n}\n", []uint64{0xf9, 2}, 0xfd},
		{"srem", "define i8 @f(i8 %a, i8 %b) {\n  %r = srem i8 %a, %b\n  ret i8 %r\n}\n", []uint64{0xf9, 2}, 0xff},
		{"ashr", "define i8 @f(i8 %a) {\n  %r = ashr i8 %a, 4\n  ret i8 %r\n}\n", []uint64{0x80}, 0xf8},
		{"lshr", "define i8 @f(i8 %a) {\n  %r = lshr i8 %a, 4\n  ret i8 %r\n}\n", []uint64{0x80}, 0x08},
		{"oversized shift reads as zero", "define i8 @f(i8 %a) {\n  %r = shl i8 %a, 9\n  ret i8 %r\n}\n", []uint64{3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := make([]Value, len(tt.args))
			for i, a := range tt.args {
				args[i] = FromUint64(a)
			}
			assert.Equal(t, tt.want, call(t, tt.src, args...).Uint64())
		})
	}
}

func TestWideArithmetic(t *testing.T) {
	src := `define i200 @f(i200 %a, i200 %b) {
entry:
  %s = add i200 %a, %b
  %m = mul i200 %s, 3
  ret i200 %m
}
`
	a := new(big.Int).Lsh(big.NewInt(1), 199)
	b := big.NewInt(5)
	got := call(t, src, FromBig(a), FromBig(b))

	want := new(big.Int).Add(a, b)
	want.Mul(want, big.NewInt(3))
	want.And(want, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 200), big.NewInt(1)))
	assert.Zero(t, want.Cmp(got.Big()), "got %s", got.Big())
}

func TestCompare(t *testing.T) {
	preds := []struct {
		pred string
		want bool
	}{
		{"eq", false}, {"ne", true},
		{"ugt", true}, {"uge", true}, {"ult", false}, {"ule", false},
		{"sgt", false}, {"sge", false}, {"slt", true}, {"sle", true},
	}
	// 0xff 无符号大于 1，有符号为 -1 小于 1
	for _, p := range preds {
		t.Run(p.pred, func(t *testing.T) {
			src := "define i1 @f(i8 %a, i8 %b) {\n  %r = icmp " + p.pred + " i8 %a, %b\n  ret i1 %r\n}\n"
			got := call(t, src, FromUint64(0xff), FromUint64(1))
			assert.Equal(t, p.want, got.Uint64() == 1)
		})
	}
}

func TestCasts(t *testing.T) {
	src := `define i64 @f(i8 %a) {
entry:
  %s = sext i8 %a to i128
  %t = trunc i128 %s to i64
  ret i64 %t
}
`
	assert.Equal(t, ^uint64(0)-1, call(t, src, FromUint64(0xfe)).Uint64())

	src = `define i32 @f(<4 x i8> %v) {
entry:
  %b = bitcast <4 x i8> %v to i32
  ret i32 %b
}
`
	assert.Equal(t, uint64(0x44332211), call(t, src, FromElems(0x11, 0x22, 0x33, 0x44)).Uint64())
}

// ============================================================================
// 控制流
// ============================================================================

// phi 在块入口同时求值
func TestPhiSwap(t *testing.T) {
	src := `define i64 @swap(i64 %a, i64 %b, i64 %n) {
entry:
  br label %loop

loop:
  %x = phi i64 [ %a, %entry ], [ %y, %loop ]
  %y = phi i64 [ %b, %entry ], [ %x, %loop ]
  %i = phi i64 [ 0, %entry ], [ %i.next, %loop ]
  %i.next = add i64 %i, 1
  %done = icmp eq i64 %i.next, %n
  br i1 %done, label %exit, label %loop

exit:
  ret i64 %x
}
`
	assert.Equal(t, uint64(10), call(t, src, FromUint64(10), FromUint64(20), FromUint64(1)).Uint64())
	assert.Equal(t, uint64(20), call(t, src, FromUint64(10), FromUint64(20), FromUint64(2)).Uint64())
	assert.Equal(t, uint64(10), call(t, src, FromUint64(10), FromUint64(20), FromUint64(3)).Uint64())
}

func TestSwitch(t *testing.T) {
	src := `define i64 @sw(i128 %x) {
entry:
  switch i128 %x, label %other [ i128 1, label %one i128 18446744073709551616, label %big ]

one:
  ret i64 1

big:
  ret i64 2

other:
  ret i64 0
}
`
	fn := mustParse(t, src)
	m := New(nil)
	for _, tc := range []struct {
		in   *big.Int
		want uint64
	}{
		{big.NewInt(1), 1},
		{new(big.Int).Lsh(big.NewInt(1), 64), 2},
		{big.NewInt(7), 0},
	} {
		v, err := m.Call(fn, FromBig(tc.in))
		require.NoError(t, err)
		assert.Equal(t, tc.want, v.Uint64(), "switch on %s", tc.in)
	}
}

// ============================================================================
// 内存与向量
// ============================================================================

func TestAllocaGEP(t *testing.T) {
	src := `define i96 @f(i96 %a, i96 %b) {
entry:
  %arr = alloca <2 x i96>, align 16
  %p = bitcast <2 x i96>* %arr to i96*
  %q = getelementptr i96, i96* %p, i32 1
  store i96 %a, i96* %p
  store i96 %b, i96* %q
  %x = load i96, i96* %q
  ret i96 %x
}
`
	b := new(big.Int).Lsh(big.NewInt(3), 90)
	got := call(t, src, FromUint64(1), FromBig(b))
	assert.Zero(t, b.Cmp(got.Big()))
}

func TestMemoryLittleEndian(t *testing.T) {
	m := New(nil)
	addr := m.Mem.Alloc(ir.Int(32), 0)
	require.NoError(t, m.Mem.Store(addr, ir.Int(32), FromUint64(0x11223344)))

	b0, err := m.Mem.Load(addr, ir.Int(8))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x44), b0.Uint64())

	v, err := m.Mem.Load(addr, ir.Vector(ir.Int(16), 2))
	require.NoError(t, err)
	assert.Equal(t, FromElems(0x3344, 0x1122), v)
}

func TestMemoryAllocAlignment(t *testing.T) {
	m := New(nil)
	a := m.Mem.Alloc(ir.Int(8), 0)
	b := m.Mem.Alloc(ir.Int(128), 0)
	c := m.Mem.Alloc(ir.Int(8), 32)
	assert.GreaterOrEqual(t, a, uint64(nullGuard))
	assert.Zero(t, b%16)
	assert.Zero(t, c%32)
	assert.Greater(t, b, a)
}

func TestVectorInsertExtract(t *testing.T) {
	src := `define i32 @f(<4 x i32> %v, i32 %x) {
entry:
  %w = insertelement <4 x i32> %v, i32 %x, i32 3
  %e = extractelement <4 x i32> %w, i32 3
  %f = extractelement <4 x i32> %w, i32 0
  %r = add i32 %e, %f
  ret i32 %r
}
`
	got := call(t, src, FromElems(5, 6, 7, 8), FromUint64(100))
	assert.Equal(t, uint64(105), got.Uint64())
}

func TestUndefReadsAsZero(t *testing.T) {
	src := "define i128 @f() {\n  %r = or i128 undef, 1\n  ret i128 %r\n}\n"
	assert.Equal(t, uint64(1), call(t, src).Uint64())
}

// ============================================================================
// 错误
// ============================================================================

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []Value
		code string
	}{
		{
			name: "division by zero",
			src:  "define i64 @f(i64 %a) {\n  %r = udiv i64 %a, 0\n  ret i64 %r\n}\n",
			args: []Value{FromUint64(1)},
			code: lerrors.R0004,
		},
		{
			name: "null dereference",
			src:  "define i64 @f(i64* %p) {\n  %r = load i64, i64* %p\n  ret i64 %r\n}\n",
			args: []Value{FromUint64(0)},
			code: lerrors.R0003,
		},
		{
			name: "too wide",
			src:  "define i512 @f(i512 %a) {\n  %r = add i512 %a, 1\n  ret i512 %r\n}\n",
			args: []Value{FromUint64(1)},
			code: lerrors.R0002,
		},
		{
			name: "argument count",
			src:  "define void @f(i64 %a) {\n  ret void\n}\n",
			code: lerrors.R0005,
		},
		{
			name: "unreachable",
			src:  "define void @f() {\n  unreachable\n}\n",
			code: lerrors.R0006,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).Call(mustParse(t, tt.src), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, runtimeCode(t, err))
			assert.Contains(t, err.Error(), "@f: ")
		})
	}
}

func TestStepLimit(t *testing.T) {
	src := `define void @spin() {
entry:
  br label %loop

loop:
  br label %loop
}
`
	_, err := New(nil, WithMaxSteps(100)).Call(mustParse(t, src))
	require.Error(t, err)
	assert.Equal(t, lerrors.R0001, runtimeCode(t, err))

	var re *lerrors.RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "loop", re.Block)
	assert.Equal(t, "br label %loop", re.Inst)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "340282366920938463463374607431768211455",
		FromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))).Format(ir.Int(128)))
	assert.Equal(t, "<i32 1, i32 2>", FromElems(1, 2).Format(ir.Vector(ir.Int(32), 2)))
	assert.Equal(t, "0x20", FromUint64(32).Format(ir.Pointer(ir.Int(8), 0)))
}
