package errors

import (
	"fmt"
	"io"
	"strings"
)

// ============================================================================
// 错误报告器
// ============================================================================

// Reporter 收集诊断并输出到 w
type Reporter struct {
	w           io.Writer
	formatter   *Formatter
	sourceCache map[string][]string // 源代码缓存
	errors      []*CompileError
	warnings    []*CompileError
}

// NewReporter 创建错误报告器
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{
		w:           w,
		formatter:   NewFormatter(),
		sourceCache: make(map[string][]string),
	}
}

// SetFormatter 设置格式化器
func (r *Reporter) SetFormatter(f *Formatter) {
	r.formatter = f
}

// SetSource 设置源代码
func (r *Reporter) SetSource(filename string, content string) {
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// GetSourceLines 获取源代码行数组
func (r *Reporter) GetSourceLines(filename string) []string {
	return r.sourceCache[filename]
}

// ============================================================================
// 报告
// ============================================================================

// ReportError 报告诊断
func (r *Reporter) ReportError(err *CompileError) {
	if len(err.Hints) == 0 {
		err.Hints = GetSuggestions(err.Code, nil)
	}
	r.errors = append(r.errors, err)
	fmt.Fprint(r.w, r.formatter.FormatCompileError(err, r.GetSourceLines(err.File)))
}

// ReportWarning 报告警告
func (r *Reporter) ReportWarning(err *CompileError) {
	err.Level = LevelWarning
	r.warnings = append(r.warnings, err)
	fmt.Fprint(r.w, r.formatter.FormatCompileError(err, r.GetSourceLines(err.File)))
}

// ReportSimple 报告没有错误码的问题（例如 IR 校验失败）
func (r *Reporter) ReportSimple(file string, line, col int, message string) {
	r.ReportError(&CompileError{
		Code:    P0012,
		Level:   LevelError,
		Message: message,
		File:    file,
		Line:    line,
		Column:  col,
	})
}

// ReportRuntimeError 报告解释器错误
func (r *Reporter) ReportRuntimeError(err *RuntimeError) {
	fmt.Fprint(r.w, r.formatter.FormatRuntimeError(err))
}

// Summary 输出错误计数
func (r *Reporter) Summary() {
	if len(r.errors) == 0 {
		return
	}
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.formatter.colorize(errorCountMessage(len(r.errors)), ColorRed))
}

// ============================================================================
// 状态查询
// ============================================================================

// HasErrors 是否有错误
func (r *Reporter) HasErrors() bool {
	return len(r.errors) > 0
}

// ErrorCount 错误数量
func (r *Reporter) ErrorCount() int {
	return len(r.errors)
}

// Errors 获取所有错误
func (r *Reporter) Errors() []*CompileError {
	return r.errors
}

// Warnings 获取所有警告
func (r *Reporter) Warnings() []*CompileError {
	return r.warnings
}
