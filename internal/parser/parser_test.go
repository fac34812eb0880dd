package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/ir"
)

const loopSource = `define i128 @sum(i128* %p, i32 %n) {
entry:
  br label %loop

loop:
  %i = phi i32 [ 0, %entry ], [ %i.next, %loop ]
  %acc = phi i128 [ 0, %entry ], [ %acc.next, %loop ]
  %addr = getelementptr i128, i128* %p, i32 %i
  %v = load i128, i128* %addr, align 16
  %acc.next = add i128 %acc, %v
  %i.next = add i32 %i, 1
  %done = icmp eq i32 %i.next, %n
  br i1 %done, label %exit, label %loop

exit:
  ret i128 %acc.next
}
`

const vectorSource = `define void @g(<4 x i32> %v, i1 %c) {
entry:
  %slot = alloca i128, align 16
  %e = extractelement <4 x i32> %v, i32 2
  %w = insertelement <4 x i32> %v, i32 %e, i32 0
  %b = bitcast <4 x i32> %w to i128
  %s = select i1 %c, i128 %b, i128 undef
  store i128 %s, i128* %slot, align 16
  %big = lshr i256 115792089237316195423570985008687907853269984665640564039457584007913129639935, 200
  switch i1 %c, label %done [ i1 true, label %done ]

done:
  ret void
}
`

func parse(t *testing.T, src string) *ir.Module {
	t.Helper()
	p := New(src, "test.ll")
	m := p.Parse()
	for _, e := range p.Errors() {
		t.Errorf("parser error: %v", e)
	}
	require.False(t, p.HasErrors())
	return m
}

func TestParseRoundTrip(t *testing.T) {
	for _, src := range []string{loopSource, vectorSource} {
		m := parse(t, src)
		require.Len(t, m.Funcs, 1)
		assert.Equal(t, src, m.String())
		assert.NoError(t, ir.Verify(m.Funcs[0]))
	}
}

func TestParseModule(t *testing.T) {
	m := parse(t, loopSource+"\n"+vectorSource)
	require.Len(t, m.Funcs, 2)
	assert.Equal(t, loopSource+"\n"+vectorSource, m.String())
	assert.NotNil(t, m.Func("sum"))
	assert.NotNil(t, m.Func("g"))
}

func TestParseForwardReference(t *testing.T) {
	m := parse(t, loopSource)
	fn := m.Func("sum")

	loop := fn.Block("loop")
	require.NotNil(t, loop)
	acc := loop.Instrs[1]
	require.True(t, acc.IsPhi())

	// 回边来源应当是真正的 add 指令，而不是占位
	next := acc.IncomingValue(1).(*ir.Instr)
	assert.Equal(t, ir.OpAdd, next.Op())
	assert.Equal(t, "acc.next", next.Name())
	assert.Same(t, loop, acc.IncomingBlock(1))
}

func TestParseImplicitEntry(t *testing.T) {
	m := parse(t, "define i64 @id(i64 %x) {\n  ret i64 %x\n}\n")
	fn := m.Func("id")
	require.Len(t, fn.Blocks, 1)
	assert.Equal(t, "entry", fn.Blocks[0].Name())
}

func TestParseAnonymousValues(t *testing.T) {
	src := `define i128 @f(i128 %_0) {
entry:
  %_1 = add i128 %_0, 1
  ret i128 %_1
}
`
	m := parse(t, src)
	assert.Equal(t, src, m.String())
}

func TestParseTypes(t *testing.T) {
	src := `define i8 addrspace(1)* @f(<3 x i64>* %p, i8 addrspace(1)* %q) {
entry:
  ret i8 addrspace(1)* %q
}
`
	m := parse(t, src)
	fn := m.Func("f")
	assert.Equal(t, ir.Pointer(ir.Int(8), 1), fn.RetType)
	assert.Equal(t, ir.Pointer(ir.Vector(ir.Int(64), 3), 0), fn.Params[0].Type())
	assert.Equal(t, src, m.String())
}

func TestParseSourceMap(t *testing.T) {
	p := New(loopSource, "sum.ll")
	m := p.Parse()
	require.False(t, p.HasErrors())
	fn := m.Func("sum")

	add := fn.Block("loop").Instrs[4]
	span, ok := p.SourceMap().Lookup(add, fn)
	require.True(t, ok)
	assert.Equal(t, 10, span.Start.Line)
	assert.Equal(t, 3, span.Start.Column)
	assert.Equal(t, "sum.ll", span.Start.Filename)

	// 不在表中的指令退回到函数定义
	span, ok = p.SourceMap().Lookup(nil, fn)
	require.True(t, ok)
	assert.Equal(t, 1, span.Start.Line)

	span, ok = p.SourceMap().FuncNamed("sum")
	require.True(t, ok)
	assert.Equal(t, 1, span.Start.Line)
}

func TestParseErrors(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)

	tests := []struct {
		name string
		src  string
		code string
		line int
	}{
		{
			name: "undefined value",
			src:  "define i64 @f(i64 %x) {\nentry:\n  ret i64 %y\n}\n",
			code: "P0006",
			line: 3,
		},
		{
			name: "undefined block",
			src:  "define void @f() {\nentry:\n  br label %nowhere\n}\n",
			code: "P0007",
			line: 3,
		},
		{
			name: "unknown opcode",
			src:  "define void @f() {\nentry:\n  %x = frobnicate i64 1\n  ret void\n}\n",
			code: "P0005",
			line: 3,
		},
		{
			name: "type mismatch",
			src:  "define i64 @f(i32 %x) {\nentry:\n  ret i64 %x\n}\n",
			code: "P0009",
			line: 3,
		},
		{
			name: "redefinition",
			src:  "define i64 @f(i64 %x) {\nentry:\n  %x = add i64 %x, 1\n  ret i64 %x\n}\n",
			code: "P0008",
			line: 3,
		},
		{
			name: "invalid type",
			src:  "define i0 @f() {\nentry:\n  ret void\n}\n",
			code: "P0010",
			line: 1,
		},
		{
			name: "invalid cast",
			src:  "define i64 @f(i128 %x) {\nentry:\n  %y = zext i128 %x to i64\n  ret i64 %y\n}\n",
			code: "P0011",
			line: 3,
		},
		{
			name: "unexpected character",
			src:  "define void @f() {\nentry:\n  ret void #\n}\n",
			code: "P0001",
			line: 3,
		},
		{
			name: "missing comma",
			src:  "define i64 @f(i64 %x) {\nentry:\n  %y = add i64 %x 1\n  ret i64 %y\n}\n",
			code: "P0003",
			line: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.src, "bad.ll")
			p.Parse()
			require.True(t, p.HasErrors())
			first := p.Errors()[0]
			assert.Equal(t, tt.code, first.Code, first.Message)
			assert.Equal(t, tt.line, first.Pos.Line)
			assert.Error(t, p.Err())
		})
	}
}

func TestParseUndefinedSuggestion(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)

	src := "define i64 @f(i64 %value) {\nentry:\n  ret i64 %valu\n}\n"
	p := New(src, "bad.ll")
	p.Parse()
	require.Len(t, p.Errors(), 1)

	ce := p.Errors()[0].ToCompileError()
	assert.Equal(t, "P0006", ce.Code)
	assert.Equal(t, 3, ce.Line)
	assert.Equal(t, 11, ce.Column)
	assert.Equal(t, []string{"did you mean '%value'?"}, ce.Hints)
}

func TestParseRecoversAfterError(t *testing.T) {
	src := `define i64 @f(i64 %x) {
entry:
  %a = bogus i64 %x
  %b = add i64 %x, 1
  ret i64 %b
}

define i64 @g(i64 %x) {
entry:
  ret i64 %x
}
`
	p := New(src, "bad.ll")
	m := p.Parse()
	require.Len(t, p.Errors(), 1)
	assert.Equal(t, "P0005", p.Errors()[0].Code)
	assert.NotNil(t, m.Func("g"))
}

func TestParseString(t *testing.T) {
	m, err := ParseString(loopSource, "sum.ll")
	require.NoError(t, err)
	assert.Len(t, m.Funcs, 1)

	_, err = ParseString("define void @f() {\n  ret i64 %nope\n}\n", "bad.ll")
	assert.Error(t, err)
}
