// diagnose.go - 把流水线错误定位到源码

package pass

import (
	"errors"

	"go.uber.org/multierr"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/parser"
)

// Diagnostics 将 RunFunc / RunModule 返回的错误转换为带源码位置的诊断
//
// 找不到指令位置时退回到函数定义所在行；srcmap 为 nil 时位置为 1:1。
func Diagnostics(err error, file string, srcmap *parser.SourceMap) []*lerrors.CompileError {
	var out []*lerrors.CompileError
	for _, e := range multierr.Errors(err) {
		out = append(out, diagnose(e, file, srcmap))
	}
	return out
}

func diagnose(err error, file string, srcmap *parser.SourceMap) *lerrors.CompileError {
	line, col, endCol := 1, 1, 0
	var pe *Error
	if errors.As(err, &pe) && srcmap != nil {
		if span, ok := srcmap.Lookup(pe.Inst, pe.Func); ok {
			line, col = span.Start.Line, span.Start.Column
			if span.End.Line == span.Start.Line {
				endCol = span.End.Column
			}
		}
	}

	var ce *lerrors.CompileError
	var ee *lerrors.ExpandError
	if errors.As(err, &ee) {
		ce = lerrors.FromExpandError(ee, file, line, col)
	} else {
		ce = &lerrors.CompileError{
			Code:    lerrors.P0012,
			Level:   lerrors.LevelError,
			Message: err.Error(),
			File:    file,
			Line:    line,
			Column:  col,
		}
		if pe != nil {
			ce.Message = pe.Err.Error()
			ce.Notes = append(ce.Notes, "in pass "+pe.Pass, "in function @"+pe.Func.Name)
		}
	}
	ce.EndColumn = endCol
	return ce
}
