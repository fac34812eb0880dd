package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tangzhangming/limbs/internal/i18n"
)

// ============================================================================
// 错误标签
// ============================================================================

// Label 代码标签（用于标注错误位置）
type Label struct {
	Line    int    // 行号（1-based）
	Column  int    // 列号（1-based）
	Length  int    // 标注长度
	Message string // 标签消息
	Primary bool   // 是否为主要标签
}

// ============================================================================
// 诊断错误
// ============================================================================

// CompileError 带源码位置的诊断（解析错误、扩展错误）
type CompileError struct {
	Code      string   // 错误码 (X0003)
	Level     Level    // 错误级别
	Message   string   // 主消息
	File      string   // 文件路径
	Line      int      // 行号
	Column    int      // 列号
	EndColumn int      // 结束列
	Labels    []Label  // 代码标签
	Hints     []string // 修复建议
	Notes     []string // 附加说明
}

// Error 实现 error 接口
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// FromExpandError 将扩展错误定位到源码行
func FromExpandError(err *ExpandError, file string, line, column int) *CompileError {
	ce := &CompileError{
		Code:    err.Code(),
		Level:   LevelError,
		Message: err.Kind.Error(),
		File:    file,
		Line:    line,
		Column:  column,
	}
	if err.Detail != "" {
		ce.Notes = append(ce.Notes, err.Detail)
	}
	if err.Func != "" {
		ce.Notes = append(ce.Notes, "in function @"+err.Func)
	}
	ce.Hints = GetSuggestions(ce.Code, nil)
	return ce
}

// ============================================================================
// 解释器错误
// ============================================================================

// RuntimeError 解释执行错误
type RuntimeError struct {
	Code    string                 // 错误码 (R0003)
	Message string                 // 主消息
	Func    string                 // 函数名
	Block   string                 // 基本块名
	Inst    string                 // 出错的指令文本
	Context map[string]interface{} // 上下文变量
}

// Error 实现 error 接口
func (e *RuntimeError) Error() string {
	if e.Func == "" {
		return e.Message
	}
	return fmt.Sprintf("@%s: %s", e.Func, e.Message)
}

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 错误格式化器
type Formatter struct {
	Colors     bool // 是否使用颜色
	ShowSource bool // 是否显示源代码
	ShowHints  bool // 是否显示修复建议
	TabWidth   int  // Tab 宽度
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:     ColorsEnabled(),
		ShowSource: true,
		ShowHints:  true,
		TabWidth:   4,
	}
}

// FormatCompileError 格式化诊断
func (f *Formatter) FormatCompileError(err *CompileError, sourceLines []string) string {
	var sb strings.Builder

	// 错误头: error[X0003]: ...
	levelStr := f.colorize(err.Level.String(), f.levelColor(err.Level))
	codeStr := f.colorize(fmt.Sprintf("[%s]", err.Code), f.levelColor(err.Level))
	sb.WriteString(fmt.Sprintf("%s%s: %s\n", levelStr, codeStr, err.Message))

	// 位置: --> file.ll:5:12
	arrow := f.colorize("-->", ColorCyan)
	location := f.colorize(fmt.Sprintf("%s:%d:%d", err.File, err.Line, err.Column), ColorCyan)
	sb.WriteString(fmt.Sprintf(" %s %s\n", arrow, location))

	if f.ShowSource && len(sourceLines) > 0 && err.Line > 0 && err.Line <= len(sourceLines) {
		sb.WriteString(f.formatSourceContext(sourceLines, err.Line, err.Column, err.EndColumn, err.Labels))
	}

	if f.ShowHints {
		for _, hint := range err.Hints {
			hintLabel := f.colorize(" = help:", ColorCyan)
			sb.WriteString(fmt.Sprintf("%s %s\n", hintLabel, hint))
		}
	}

	for _, note := range err.Notes {
		noteLabel := f.colorize(" = note:", ColorCyan)
		sb.WriteString(fmt.Sprintf("%s %s\n", noteLabel, note))
	}

	return sb.String()
}

// FormatRuntimeError 格式化解释器错误
func (f *Formatter) FormatRuntimeError(err *RuntimeError) string {
	var sb strings.Builder

	levelStr := f.colorize("RuntimeError", ColorRed)
	codeStr := f.colorize(fmt.Sprintf("[%s]", err.Code), ColorRed)
	sb.WriteString(fmt.Sprintf("%s%s: %s\n", levelStr, codeStr, err.Message))

	// 上下文信息（按键排序保证输出稳定）
	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for k := range err.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\n")
		for _, key := range keys {
			keyStr := f.colorize(fmt.Sprintf("  %s:", key), ColorYellow)
			sb.WriteString(fmt.Sprintf("%s %v\n", keyStr, err.Context[key]))
		}
	}

	if err.Func != "" {
		atStr := f.colorize("at", ColorWhite)
		funcStr := f.colorize("@"+err.Func, ColorYellow)
		loc := ""
		if err.Block != "" {
			loc = " " + f.colorize("%"+err.Block, ColorCyan)
		}
		sb.WriteString(fmt.Sprintf("    %s %s%s\n", atStr, funcStr, loc))
		if err.Inst != "" && f.ShowSource {
			sb.WriteString("      " + NewSyntaxHighlighter().HighlightLine(strings.TrimSpace(err.Inst)) + "\n")
		}
	}

	return sb.String()
}

// formatSourceContext 格式化源代码上下文
func (f *Formatter) formatSourceContext(lines []string, errorLine, startCol, endCol int, labels []Label) string {
	var sb strings.Builder

	maxLine := errorLine
	for _, l := range labels {
		if l.Line > maxLine && l.Line <= len(lines) {
			maxLine = l.Line
		}
	}
	lineNumWidth := len(fmt.Sprintf("%d", maxLine))

	separator := f.colorize(strings.Repeat(" ", lineNumWidth)+" |", ColorBlue)
	sb.WriteString(separator + "\n")

	line := lines[errorLine-1]
	lineNum := f.colorize(fmt.Sprintf("%*d", lineNumWidth, errorLine), ColorBlue)
	pipe := f.colorize(" |", ColorBlue)
	sb.WriteString(fmt.Sprintf("%s%s %s\n", lineNum, pipe, f.expandTabs(line)))

	if endCol == 0 {
		endCol = startCol + 1
	}
	length := endCol - startCol
	if length < 1 {
		length = 1
	}
	actualCol := f.calculateActualColumn(line, startCol)
	underline := strings.Repeat(" ", lineNumWidth+3+actualCol-1) +
		f.colorize(strings.Repeat("^", length), ColorRed)
	sb.WriteString(underline + "\n")

	for _, label := range labels {
		if label.Line != errorLine && label.Line > 0 && label.Line <= len(lines) {
			line := lines[label.Line-1]
			lineNum := f.colorize(fmt.Sprintf("%*d", lineNumWidth, label.Line), ColorBlue)
			sb.WriteString(fmt.Sprintf("%s%s %s\n", lineNum, pipe, f.expandTabs(line)))

			if label.Message != "" {
				actualCol := f.calculateActualColumn(line, label.Column)
				msgLine := strings.Repeat(" ", lineNumWidth+3+actualCol-1) +
					f.colorize(strings.Repeat("^", label.Length)+" "+label.Message, f.labelColor(label.Primary))
				sb.WriteString(msgLine + "\n")
			}
		}
	}

	return sb.String()
}

// expandTabs 展开 Tab 为空格
func (f *Formatter) expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", f.TabWidth))
}

// calculateActualColumn 计算实际列位置（考虑 Tab）
func (f *Formatter) calculateActualColumn(line string, col int) int {
	if col <= 0 {
		return 1
	}
	actual := 1
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			actual += f.TabWidth
		} else {
			actual++
		}
	}
	return actual
}

// levelColor 获取错误级别对应的颜色
func (f *Formatter) levelColor(level Level) Color {
	switch level {
	case LevelError:
		return ColorRed
	case LevelWarning:
		return ColorYellow
	case LevelNote:
		return ColorCyan
	case LevelHelp:
		return ColorGreen
	default:
		return ColorWhite
	}
}

// labelColor 获取标签颜色
func (f *Formatter) labelColor(primary bool) Color {
	if primary {
		return ColorRed
	}
	return ColorYellow
}

// colorize 着色字符串
func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return Paint(s, color)
}

// ============================================================================
// 简便方法
// ============================================================================

// FormatCompileErrors 格式化多个诊断
func (f *Formatter) FormatCompileErrors(errs []*CompileError, sourceCache map[string][]string) string {
	var sb strings.Builder

	for i, err := range errs {
		if i > 0 {
			sb.WriteString("\n")
		}
		var lines []string
		if sourceCache != nil {
			lines = sourceCache[err.File]
		}
		sb.WriteString(f.FormatCompileError(err, lines))
	}

	if len(errs) > 0 {
		sb.WriteString("\n")
		sb.WriteString(f.colorize(errorCountMessage(len(errs)), ColorRed) + "\n")
	}

	return sb.String()
}

func errorCountMessage(n int) string {
	if i18n.GetLanguage() == i18n.LangChinese {
		return fmt.Sprintf("错误: 发现 %d 个错误", n)
	}
	if n == 1 {
		return "error: 1 error found"
	}
	return fmt.Sprintf("error: %d errors found", n)
}
