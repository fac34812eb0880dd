package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/limbs/internal/i18n"
)

func plainFormatter() *Formatter {
	return &Formatter{ShowSource: true, ShowHints: true, TabWidth: 4}
}

// ============================================================================
// 扩展错误
// ============================================================================

func TestKindCodes(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	kinds := []Kind{
		KindUnsupportedConstant, KindUnmappedValue, KindUnsupportedBinaryOp, KindUnsupportedPredicate,
		KindVariableShift, KindIllegalArgument, KindUnhandledInstruction, KindMalformedVector,
	}
	for i, k := range kinds {
		assert.Equal(t, fmt.Sprintf("X%04d", i+1), k.Code())
		assert.True(t, IsExpandError(k.Code()))
		assert.NotEmpty(t, k.Error())
	}
	assert.Equal(t, "X0000", Kind(99).Code())
	assert.Equal(t,
		"comparisons other than equality are not supported for integer types larger than 64 bits",
		KindUnsupportedPredicate.Error())
}

type fakeInst string

func (f fakeInst) String() string { return string(f) }

func TestExpandErrorWrapsKind(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	err := NewExpandError(KindVariableShift, fakeInst("%y = shl i128 %x, %n"), "")
	err.Func = "f"

	var wrapped error = fmt.Errorf("expanding: %w", err)
	assert.True(t, stderrors.Is(wrapped, KindVariableShift))
	assert.False(t, stderrors.Is(wrapped, KindMalformedVector))

	var ee *ExpandError
	require.True(t, stderrors.As(wrapped, &ee))
	assert.Equal(t, X0005, ee.Code())
	assert.Equal(t,
		"@f: expansion of variable-sized shifts of > 64-bit-wide values is not supported (%y = shl i128 %x, %n)",
		ee.Error())
}

func TestExpandErrorDetail(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	err := NewExpandError(KindUnsupportedBinaryOp, nil, "%s", "mul")
	assert.Equal(t, "unhandled binary operator on an integer wider than 64 bits: mul", err.Error())
}

func TestFromExpandError(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	ee := &ExpandError{Kind: KindIllegalArgument, Func: "f", Detail: "i128 %x"}
	ce := FromExpandError(ee, "in.ll", 1, 1)
	assert.Equal(t, X0006, ce.Code)
	assert.Equal(t, "function has illegal integer argument", ce.Message)
	assert.Equal(t, []string{"i128 %x", "in function @f"}, ce.Notes)
	assert.Equal(t, []string{"function signatures are never changed; pass the value through memory instead"}, ce.Hints)
	assert.Equal(t, "in.ll:1:1: function has illegal integer argument", ce.Error())
}

// ============================================================================
// 建议
// ============================================================================

func TestFindSimilar(t *testing.T) {
	candidates := []string{"value", "acc.next", "i"}
	assert.Equal(t, "value", FindSimilar("valu", candidates, 2))
	assert.Equal(t, "acc.next", FindSimilar("acc.nxt", candidates, 2))
	assert.Equal(t, "", FindSimilar("completely", candidates, 2))
	assert.Equal(t, "", FindSimilar("x", nil, 2))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 0, levenshteinDistance("ABC", "abc"))
}

func TestSuggestions(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	hints := GetSuggestions(P0006, map[string]interface{}{
		"name":       "acc.nxt",
		"candidates": []string{"acc", "acc.next"},
	})
	assert.Equal(t, []string{"did you mean '%acc.next'?"}, hints)

	assert.Nil(t, GetSuggestions(P0006, nil))
	assert.Equal(t, []string{"element widths must divide 64 and each other evenly"}, GetSuggestions(X0008, nil))
}

// ============================================================================
// 格式化
// ============================================================================

func TestFormatCompileError(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	source := []string{
		"define i64 @f(i64 %value) {",
		"entry:",
		"  ret i64 %valu",
		"}",
	}
	err := &CompileError{
		Code:      P0006,
		Level:     LevelError,
		Message:   "use of undefined value '%valu'",
		File:      "bad.ll",
		Line:      3,
		Column:    11,
		EndColumn: 16,
		Hints:     []string{"did you mean '%value'?"},
	}
	want := strings.Join([]string{
		"error[P0006]: use of undefined value '%valu'",
		" --> bad.ll:3:11",
		"  |",
		"3 |   ret i64 %valu",
		"              ^^^^^",
		" = help: did you mean '%value'?",
		"",
	}, "\n")
	assert.Equal(t, want, plainFormatter().FormatCompileError(err, source))
}

func TestFormatRuntimeError(t *testing.T) {
	err := &RuntimeError{
		Code:    R0004,
		Message: "division by zero",
		Func:    "f",
		Block:   "entry",
		Inst:    "%r = udiv i64 %a, 0",
		Context: map[string]interface{}{"b": 2, "a": 1},
	}
	want := strings.Join([]string{
		"RuntimeError[R0004]: division by zero",
		"",
		"  a: 1",
		"  b: 2",
		"    at @f %entry",
		"      %r = udiv i64 %a, 0",
		"",
	}, "\n")
	f := plainFormatter()
	SetColorsEnabled(false)
	assert.Equal(t, want, f.FormatRuntimeError(err))
	assert.Equal(t, "@f: division by zero", err.Error())
}

func TestFormatCompileErrorsSummary(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	errs := []*CompileError{
		{Code: P0005, Message: "a", File: "x.ll", Line: 1, Column: 1},
		{Code: P0005, Message: "b", File: "x.ll", Line: 2, Column: 1},
	}
	out := plainFormatter().FormatCompileErrors(errs, nil)
	assert.True(t, strings.HasSuffix(out, "error: 2 errors found\n"), out)

	i18n.SetLanguage(i18n.LangChinese)
	defer i18n.SetLanguage(i18n.LangEnglish)
	out = plainFormatter().FormatCompileErrors(errs[:1], nil)
	assert.Contains(t, out, "发现 1 个错误")
}

func TestColors(t *testing.T) {
	painted := Paint("x", ColorRed)
	assert.NotEqual(t, "x", painted)
	assert.Equal(t, "x", Strip(painted))

	SetColorsEnabled(false)
	assert.Equal(t, "x", Red("x"))
}

// ============================================================================
// 报告器
// ============================================================================

func TestReporter(t *testing.T) {
	i18n.SetLanguage(i18n.LangEnglish)
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.SetFormatter(plainFormatter())
	r.SetSource("in.ll", "define void @f(i128 %x) {\n  ret void\n}\n")

	r.ReportError(FromExpandError(&ExpandError{Kind: KindIllegalArgument, Func: "f"}, "in.ll", 1, 16))
	r.ReportSimple("in.ll", 2, 3, "verification failed")
	r.Summary()

	assert.True(t, r.HasErrors())
	assert.Equal(t, 2, r.ErrorCount())
	assert.Equal(t, P0012, r.Errors()[1].Code)

	out := buf.String()
	assert.Contains(t, out, "error[X0006]: function has illegal integer argument")
	assert.Contains(t, out, "1 | define void @f(i128 %x) {")
	assert.Contains(t, out, " = note: in function @f")
	assert.Contains(t, out, "error[P0012]: verification failed")
	assert.Contains(t, out, "error: 2 errors found")
}
