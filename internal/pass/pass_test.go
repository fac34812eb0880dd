package pass

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tangzhangming/limbs/internal/expand"
	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/parser"
)

const addSrc = `define void @add(i128* %p, i128* %q) {
entry:
  %x = load i128, i128* %p
  %y = load i128, i128* %q
  %s = add i128 %x, %y
  store i128 %s, i128* %p
  ret void
}
`

const shiftSrc = `define void @shift(i128* %p) {
entry:
  %x = load i128, i128* %p
  %y = shl i128 %x, %x
  store i128 %y, i128* %p
  ret void
}
`

const legalSrc = `define i64 @legal(i64 %a) {
entry:
  %b = add i64 %a, 1
  ret i64 %b
}
`

func parse(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := parser.ParseString(src, "test.ll")
	require.NoError(t, err)
	return m
}

func TestStandardPipelineNames(t *testing.T) {
	assert.Equal(t, []string{"expand-large-ints"}, NewStandardPipeline(nil, false).Names())
	assert.Equal(t,
		[]string{"expand-large-ints", "verify", "verify-legal"},
		NewStandardPipeline(nil, true).Names())
}

func TestRunFuncReplacesOnSuccess(t *testing.T) {
	fn := parse(t, addSrc).Funcs[0]
	before := fn.String()

	m := NewStandardPipeline(nil, true)
	out, changed, err := m.RunFunc(context.Background(), fn)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotSame(t, fn, out)
	assert.Equal(t, before, fn.String(), "original must not change")
	require.NoError(t, ir.VerifyLegal(out, expand.LegalWidth))

	s := m.Stats().Snapshot()
	assert.Equal(t, int64(1), s.Functions)
	assert.Equal(t, int64(1), s.Modified)
	assert.Equal(t, int64(0), s.Failed)
	assert.Greater(t, s.Expanded, int64(0))
	assert.Greater(t, s.Erased, int64(0))
}

func TestRunFuncLegalFunction(t *testing.T) {
	fn := parse(t, legalSrc).Funcs[0]
	out, changed, err := NewStandardPipeline(nil, true).RunFunc(context.Background(), fn)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, fn, out)
}

func TestRunFuncLocatesFailure(t *testing.T) {
	fn := parse(t, shiftSrc).Funcs[0]
	before := fn.String()

	m := NewStandardPipeline(nil, true)
	out, changed, err := m.RunFunc(context.Background(), fn)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Same(t, fn, out)
	assert.Equal(t, before, fn.String())

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "expand-large-ints", pe.Pass)
	assert.Same(t, fn, pe.Func)
	require.NotNil(t, pe.Inst)
	assert.Same(t, fn.Entry().Instrs[1], pe.Inst)
	assert.True(t, errors.Is(err, lerrors.KindVariableShift))
	assert.Equal(t, int64(1), m.Stats().Snapshot().Failed)
}

func TestRunFuncCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewStandardPipeline(nil, false).RunFunc(ctx, parse(t, addSrc).Funcs[0])
	assert.ErrorIs(t, err, context.Canceled)
}

type failingPass struct{}

func (failingPass) Name() string { return "fail" }

func (failingPass) Run(context.Context, *ir.Func) (bool, error) {
	return false, errors.New("boom")
}

func TestErrorWithoutInstruction(t *testing.T) {
	m := NewManager()
	m.AddPass(failingPass{})
	fn := parse(t, legalSrc).Funcs[0]
	_, _, err := m.RunFunc(context.Background(), fn)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Nil(t, pe.Inst)
	assert.Equal(t, "fail: boom", err.Error())
}

func TestRunModule(t *testing.T) {
	src := strings.Join([]string{addSrc, shiftSrc, legalSrc}, "\n")
	for _, workers := range []int{1, 4} {
		mod := parse(t, src)
		orig := append([]*ir.Func(nil), mod.Funcs...)

		core, logs := observer.New(zap.InfoLevel)
		m := NewStandardPipeline(nil, true, WithParallelism(workers), WithLogger(zap.New(core)))
		n, err := m.RunModule(context.Background(), mod)

		assert.Equal(t, 1, n)
		require.Error(t, err)
		errs := multierr.Errors(err)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "@shift")

		assert.NotSame(t, orig[0], mod.Funcs[0], "rewritten function is swapped in")
		assert.Same(t, orig[1], mod.Funcs[1], "failed function is kept")
		assert.Same(t, orig[2], mod.Funcs[2], "legal function is kept")
		for _, fn := range []*ir.Func{mod.Funcs[0], mod.Funcs[2]} {
			assert.NoError(t, ir.VerifyLegal(fn, expand.LegalWidth))
		}

		s := m.Stats().Snapshot()
		assert.Equal(t, int64(3), s.Functions)
		assert.Equal(t, int64(1), s.Modified)
		assert.Equal(t, int64(1), s.Failed)
		assert.Equal(t, 1, logs.FilterMessage("module processed").Len())
	}
}

func TestVerifyLegalPassRejectsWideValues(t *testing.T) {
	fn := parse(t, addSrc).Funcs[0]
	_, err := VerifyLegalPass{}.Run(context.Background(), fn)
	assert.Error(t, err)

	_, err = VerifyPass{}.Run(context.Background(), fn)
	assert.NoError(t, err)
}

func TestDiagnostics(t *testing.T) {
	src := legalSrc + "\n" + shiftSrc
	p := parser.New(src, "in.ll")
	mod := p.Parse()
	require.False(t, p.HasErrors())

	_, err := NewStandardPipeline(nil, true).RunModule(context.Background(), mod)
	diags := Diagnostics(err, "in.ll", p.SourceMap())
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, lerrors.X0005, d.Code)
	assert.Equal(t, "in.ll", d.File)
	assert.Equal(t, 10, d.Line, "line of the shl in the second function")
	assert.Equal(t, 3, d.Column)
	assert.Contains(t, d.Notes, "in function @shift")

	m := NewManager()
	m.AddPass(failingPass{})
	_, _, err = m.RunFunc(context.Background(), mod.Funcs[0])
	diags = Diagnostics(err, "in.ll", p.SourceMap())
	require.Len(t, diags, 1)
	assert.Equal(t, lerrors.P0012, diags[0].Code)
	assert.Equal(t, "boom", diags[0].Message)
	assert.Equal(t, 1, diags[0].Line)

	assert.Empty(t, Diagnostics(nil, "in.ll", nil))
}
