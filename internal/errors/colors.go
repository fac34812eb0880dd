package errors

import (
	"os"
	"runtime"
	"strings"
)

// Color 终端颜色
type Color int

const (
	ColorReset Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBoldRed
	ColorBoldGreen
)

// ANSI 颜色代码
var ansiCodes = map[Color]string{
	ColorReset:     "\033[0m",
	ColorRed:       "\033[31m",
	ColorGreen:     "\033[32m",
	ColorYellow:    "\033[33m",
	ColorBlue:      "\033[34m",
	ColorMagenta:   "\033[35m",
	ColorCyan:      "\033[36m",
	ColorWhite:     "\033[37m",
	ColorBoldRed:   "\033[1;31m",
	ColorBoldGreen: "\033[1;32m",
}

// colorsEnabled 是否启用颜色
var colorsEnabled = detectColorSupport()

// detectColorSupport 检测终端是否支持颜色
func detectColorSupport() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	term := os.Getenv("TERM")
	if term == "dumb" {
		return false
	}

	// Windows Terminal / ConEmu / ANSICON
	if runtime.GOOS == "windows" {
		return os.Getenv("WT_SESSION") != "" || os.Getenv("ConEmuANSI") == "ON" ||
			os.Getenv("ANSICON") != "" || term != ""
	}

	// 检查是否为 TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) != 0 {
			return true
		}
	}

	if os.Getenv("COLORTERM") != "" {
		return true
	}

	colorTerms := []string{"xterm", "screen", "vt100", "linux", "ansi", "cygwin"}
	for _, ct := range colorTerms {
		if strings.Contains(strings.ToLower(term), ct) {
			return true
		}
	}

	return false
}

// ColorsEnabled 检查颜色是否启用
func ColorsEnabled() bool {
	return colorsEnabled
}

// SetColorsEnabled 设置颜色启用状态
func SetColorsEnabled(enabled bool) {
	colorsEnabled = enabled
}

// Colorize 着色字符串（遵循全局开关）
func Colorize(s string, color Color) string {
	if !colorsEnabled {
		return s
	}
	return Paint(s, color)
}

// Paint 无条件着色
func Paint(s string, color Color) string {
	code, ok := ansiCodes[color]
	if !ok {
		return s
	}
	return code + s + ansiCodes[ColorReset]
}

func Red(s string) string       { return Colorize(s, ColorRed) }
func Green(s string) string     { return Colorize(s, ColorGreen) }
func Yellow(s string) string    { return Colorize(s, ColorYellow) }
func Cyan(s string) string      { return Colorize(s, ColorCyan) }
func BoldGreen(s string) string { return Colorize(s, ColorBoldGreen) }

// Strip 移除 ANSI 颜色代码
func Strip(s string) string {
	result := s
	for _, code := range ansiCodes {
		result = strings.ReplaceAll(result, code, "")
	}
	return result
}

// ============================================================================
// IR 语法高亮
// ============================================================================

// SyntaxHighlighter IR 文本高亮器
type SyntaxHighlighter struct {
	enabled bool
}

// NewSyntaxHighlighter 创建语法高亮器
func NewSyntaxHighlighter() *SyntaxHighlighter {
	return &SyntaxHighlighter{enabled: colorsEnabled}
}

// 指令与关键字
var keywords = map[string]bool{
	"define": true, "phi": true, "zext": true, "sext": true, "trunc": true, "bitcast": true,
	"add": true, "sub": true, "mul": true, "udiv": true, "sdiv": true, "urem": true, "srem": true,
	"and": true, "or": true, "xor": true, "shl": true, "lshr": true, "ashr": true,
	"icmp": true, "select": true, "load": true, "store": true, "getelementptr": true, "alloca": true,
	"insertelement": true, "extractelement": true, "br": true, "switch": true, "ret": true,
	"unreachable": true, "to": true, "align": true, "label": true,
}

// 常量关键字
var constKeywords = map[string]bool{
	"undef": true, "poison": true, "null": true, "true": true, "false": true, "void": true,
}

// HighlightLine 高亮一行 IR
func (h *SyntaxHighlighter) HighlightLine(line string) string {
	if !h.enabled {
		return line
	}
	return h.highlightTokens(line)
}

func (h *SyntaxHighlighter) highlightTokens(line string) string {
	var result strings.Builder
	i := 0
	n := len(line)

	for i < n {
		ch := line[i]

		// 注释
		if ch == ';' {
			result.WriteString(Paint(line[i:], ColorWhite))
			break
		}

		// 值 %x / 函数 @f
		if ch == '%' || ch == '@' {
			start := i
			i++
			for i < n && (isAlphaNumeric(line[i]) || line[i] == '.') {
				i++
			}
			result.WriteString(Paint(line[start:i], ColorCyan))
			continue
		}

		if isDigit(ch) || (ch == '-' && i+1 < n && isDigit(line[i+1])) {
			start := i
			i++
			for i < n && isDigit(line[i]) {
				i++
			}
			result.WriteString(Paint(line[start:i], ColorMagenta))
			continue
		}

		if isAlpha(ch) {
			start := i
			for i < n && isAlphaNumeric(line[i]) {
				i++
			}
			word := line[start:i]
			switch {
			case keywords[word]:
				result.WriteString(Paint(word, ColorYellow))
			case constKeywords[word]:
				result.WriteString(Paint(word, ColorMagenta))
			case isIntTypeName(word):
				result.WriteString(Paint(word, ColorBlue))
			default:
				result.WriteString(word)
			}
			continue
		}

		result.WriteByte(ch)
		i++
	}

	return result.String()
}

func isIntTypeName(word string) bool {
	if len(word) < 2 || word[0] != 'i' {
		return false
	}
	for i := 1; i < len(word); i++ {
		if !isDigit(word[i]) {
			return false
		}
	}
	return true
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}
