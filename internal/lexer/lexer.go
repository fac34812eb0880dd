// lexer.go - IR 文本词法分析
package lexer

import (
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/token"
)

// ============================================================================
// Lexer - 词法分析器
// ============================================================================
//
// 词法分析器将 IR 文本转换为 Token 序列。
//
// 词法规则：
//   - %name / @name：名字由 [A-Za-z0-9_.$-] 组成
//   - 裸字：以字母、_、. 或 $ 开头，随后同上
//   - 整数：十进制，可带前导负号
//   - 注释：; 到行尾
//
// 性能说明：
// 1. ASCII 快速路径：IR 文本几乎全部是 ASCII
// 2. Token 切片预分配：根据源码长度预估 token 数量
// 3. 空白字符批量跳过
//
// ============================================================================

// Lexer 词法分析器结构体
type Lexer struct {
	source   string        // 源代码字符串
	filename string        // 源文件名（用于错误报告）
	tokens   []token.Token // 已扫描的 Token 列表

	start     int // 当前 Token 的起始位置（字节偏移）
	current   int // 当前扫描位置（字节偏移）
	line      int // 当前行号（从1开始）
	column    int // 当前列号（从1开始）
	lineStart int // 当前行的起始偏移

	keepComments bool    // 是否输出 COMMENT token
	errors       []Error // 词法错误列表
}

// Error 表示词法分析错误
type Error struct {
	Pos     token.Position // 错误位置
	Code    string         // 错误码 (P0001 / P0002)
	Message string         // 错误信息
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// ============================================================================
// 构造函数
// ============================================================================

// New 创建一个新的词法分析器
func New(source, filename string) *Lexer {
	estimatedTokens := len(source) / 4
	if estimatedTokens < 16 {
		estimatedTokens = 16
	}

	return &Lexer{
		source:   source,
		filename: filename,
		tokens:   make([]token.Token, 0, estimatedTokens),
		line:     1,
		column:   1,
	}
}

// KeepComments 让扫描结果包含 COMMENT token（语法高亮使用）
func (l *Lexer) KeepComments() *Lexer {
	l.keepComments = true
	return l
}

// ============================================================================
// 公共方法
// ============================================================================

// ScanTokens 扫描所有 tokens，最后一个 Token 总是 EOF
func (l *Lexer) ScanTokens() []token.Token {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}

	l.start = l.current
	l.tokens = append(l.tokens, token.Token{
		Type: token.EOF,
		Pos:  l.currentPos(),
	})

	return l.tokens
}

// Errors 返回所有词法错误
func (l *Lexer) Errors() []Error {
	return l.errors
}

// HasErrors 检查是否有错误
func (l *Lexer) HasErrors() bool {
	return len(l.errors) > 0
}

// ============================================================================
// 核心扫描逻辑
// ============================================================================

// scanToken 扫描单个 token
func (l *Lexer) scanToken() {
	ch := l.advance()

	switch ch {
	case ' ', '\t', '\r':
		l.skipWhitespace()

	case '\n':
		l.newLine()
		l.skipWhitespace()

	case '%':
		l.name(token.LOCAL)
	case '@':
		l.name(token.GLOBAL)

	case ',':
		l.addToken(token.COMMA)
	case '=':
		l.addToken(token.ASSIGN)
	case '(':
		l.addToken(token.LPAREN)
	case ')':
		l.addToken(token.RPAREN)
	case '{':
		l.addToken(token.LBRACE)
	case '}':
		l.addToken(token.RBRACE)
	case '[':
		l.addToken(token.LBRACKET)
	case ']':
		l.addToken(token.RBRACKET)
	case '<':
		l.addToken(token.LT)
	case '>':
		l.addToken(token.GT)
	case ':':
		l.addToken(token.COLON)
	case '*':
		l.addToken(token.STAR)

	case ';':
		l.lineComment()

	case '-':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.error("P0001", i18n.T(i18n.ErrUnexpectedChar, ch))
		}

	default:
		if isDigit(ch) {
			l.number()
		} else if isIdentStart(ch) {
			l.identifier()
		} else {
			l.error("P0001", i18n.T(i18n.ErrUnexpectedChar, ch))
		}
	}
}

// ============================================================================
// 空白与注释
// ============================================================================

// skipWhitespace 批量跳过连续的空白字符
func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peekByte() {
		case ' ', '\t', '\r':
			l.advanceByte()
		case '\n':
			l.advanceByte()
			l.newLine()
		default:
			return
		}
	}
}

// lineComment 处理 ; 注释，不消费换行符
func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peekByte() != '\n' {
		l.advance()
	}
	if l.keepComments {
		l.addToken(token.COMMENT)
	}
}

// ============================================================================
// 名字、数字与裸字
// ============================================================================

// name 处理 %name 与 @name
func (l *Lexer) name(kind token.TokenType) {
	for isNameChar(l.peek()) {
		l.advance()
	}

	literal := l.source[l.start:l.current]
	if len(literal) == 1 {
		l.error("P0001", i18n.T(i18n.ErrUnexpectedChar, rune(literal[0])))
		return
	}
	l.addTokenWithValue(kind, literal[1:])
}

// number 处理十进制整数
//
// 数字后紧跟名字字符时（如 1abc）整体作为标签名处理，
// 这样 %0 风格的块名也能以裸字 0: 出现。
func (l *Lexer) number() {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.source[l.start] != '-' && isNameChar(l.peek()) {
		l.identifier()
		return
	}

	literal := l.source[l.start:l.current]
	v, ok := new(big.Int).SetString(literal, 10)
	if !ok {
		l.error("P0002", i18n.T(i18n.ErrInvalidInteger, literal))
		return
	}
	l.addTokenWithValue(token.INT, v)
}

// identifier 处理裸字和关键字
func (l *Lexer) identifier() {
	for isNameChar(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]
	l.addToken(token.LookupIdent(text))
}

// ============================================================================
// 底层字符操作
// ============================================================================

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// advance 前进一个字符并返回它
func (l *Lexer) advance() rune {
	if l.current >= len(l.source) {
		return 0
	}

	b := l.source[l.current]
	if b < utf8.RuneSelf {
		l.current++
		l.column++
		return rune(b)
	}

	r, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	l.column++
	return r
}

// advanceByte 前进一个字节（调用者保证当前字符是 ASCII）
func (l *Lexer) advanceByte() {
	l.current++
	l.column++
}

// peek 查看当前字符但不前进
func (l *Lexer) peek() rune {
	if l.current >= len(l.source) {
		return 0
	}

	b := l.source[l.current]
	if b < utf8.RuneSelf {
		return rune(b)
	}

	r, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return r
}

// peekByte 查看当前字节
func (l *Lexer) peekByte() byte {
	if l.current >= len(l.source) {
		return 0
	}
	return l.source[l.current]
}

// ============================================================================
// 位置追踪
// ============================================================================

func (l *Lexer) newLine() {
	l.line++
	l.column = 1
	l.lineStart = l.current
}

// currentPos 获取当前 token 的起始位置
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.start - l.lineStart + 1,
		Offset:   l.start,
	}
}

// ============================================================================
// Token 生成
// ============================================================================

func (l *Lexer) addToken(tokenType token.TokenType) {
	l.tokens = append(l.tokens, token.Token{
		Type:    tokenType,
		Literal: l.source[l.start:l.current],
		Pos:     l.currentPos(),
	})
}

func (l *Lexer) addTokenWithValue(tokenType token.TokenType, value interface{}) {
	l.tokens = append(l.tokens, token.Token{
		Type:    tokenType,
		Literal: l.source[l.start:l.current],
		Value:   value,
		Pos:     l.currentPos(),
	})
}

// error 记录一个词法错误并生成 ILLEGAL token，扫描继续进行
func (l *Lexer) error(code, message string) {
	l.errors = append(l.errors, Error{
		Pos:     l.currentPos(),
		Code:    code,
		Message: message,
	})
	l.addToken(token.ILLEGAL)
}

// ============================================================================
// 字符分类函数
// ============================================================================

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isIdentStart 裸字的首字符
func isIdentStart(ch rune) bool {
	return isAlpha(ch) || ch == '_' || ch == '.' || ch == '$'
}

// isNameChar 名字中允许的字符
func isNameChar(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}
