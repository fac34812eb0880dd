// token.go - IR 文本的词法单元
package token

import "fmt"

// ============================================================================
// Token 类型定义
// ============================================================================
//
// TokenType 使用 iota 自动编号，按类别分组：
// 1. 特殊标记（ILLEGAL, EOF, COMMENT）
// 2. 字面量（局部名、全局名、裸字、整数）
// 3. 分隔符
// 4. 关键字
//
// 操作码、谓词和 iN 类型都作为 IDENT 交给解析器识别，
// 块标签 entry: 同样是 IDENT 后跟 COLON。
//
// ============================================================================

// TokenType 表示 Token 的类型
type TokenType int

const (
	// ----------------------------------------------------------
	// 特殊标记
	// ----------------------------------------------------------
	ILLEGAL TokenType = iota // 非法字符
	EOF                      // 文件结束
	COMMENT                  // 注释 (; 开头)

	// ----------------------------------------------------------
	// 字面量
	// ----------------------------------------------------------
	LOCAL  // 局部名 %x, %_0, %entry
	GLOBAL // 全局名 @f
	IDENT  // 裸字：操作码、类型、标签
	INT    // 整数字面量，可带负号

	// ----------------------------------------------------------
	// 分隔符
	// ----------------------------------------------------------
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	LT       // <
	GT       // >
	COMMA    // ,
	COLON    // :
	ASSIGN   // =
	STAR     // *

	// ----------------------------------------------------------
	// 关键字
	// ----------------------------------------------------------
	keyword_beg
	DEFINE    // define
	LABEL     // label
	TO        // to
	ALIGN     // align
	ADDRSPACE // addrspace
	VOID      // void
	TRUE      // true
	FALSE     // false
	UNDEF     // undef
	POISON    // poison
	NULL      // null
	X         // x (向量类型中的分隔)
	keyword_end
)

// ============================================================================
// Token 类型名称映射
// ============================================================================

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	COMMENT: "COMMENT",

	LOCAL:  "LOCAL",
	GLOBAL: "GLOBAL",
	IDENT:  "IDENT",
	INT:    "INT",

	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	LBRACKET: "[",
	RBRACKET: "]",
	LT:       "<",
	GT:       ">",
	COMMA:    ",",
	COLON:    ":",
	ASSIGN:   "=",
	STAR:     "*",

	DEFINE:    "define",
	LABEL:     "label",
	TO:        "to",
	ALIGN:     "align",
	ADDRSPACE: "addrspace",
	VOID:      "void",
	TRUE:      "true",
	FALSE:     "false",
	UNDEF:     "undef",
	POISON:    "poison",
	NULL:      "null",
	X:         "x",
}

// ============================================================================
// 关键字映射
// ============================================================================

var keywords = map[string]TokenType{
	"define":    DEFINE,
	"label":     LABEL,
	"to":        TO,
	"align":     ALIGN,
	"addrspace": ADDRSPACE,
	"void":      VOID,
	"true":      TRUE,
	"false":     FALSE,
	"undef":     UNDEF,
	"poison":    POISON,
	"null":      NULL,
	"x":         X,
}

// LookupIdent 查找裸字对应的 Token 类型
//
// 关键字返回对应类型，其余（操作码、iN、标签名）返回 IDENT。
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword 判断 TokenType 是否为关键字
func IsKeyword(t TokenType) bool {
	return t > keyword_beg && t < keyword_end
}

// String 返回 TokenType 的字符串表示
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// ============================================================================
// Position - 源代码位置
// ============================================================================

// Position 表示源代码中的位置
type Position struct {
	Filename string // 文件名
	Line     int    // 行号 (从1开始)
	Column   int    // 列号 (从1开始)
	Offset   int    // 字节偏移量 (从0开始)
}

// String 返回位置的字符串表示，格式为 "filename:line:column"
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid 检查位置是否有效
func (p Position) IsValid() bool {
	return p.Line > 0
}

// ============================================================================
// Span - 源代码范围
// ============================================================================

// Span 表示源代码中的一个范围（开始到结束）
//
// 诊断用它标出出错的指令所在的整段文本。
type Span struct {
	Start Position // 开始位置
	End   Position // 结束位置
}

// NewSpan 创建新的 Span
func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// SpanFromToken 从 Token 创建 Span
func SpanFromToken(t Token) Span {
	endPos := t.Pos
	endPos.Column += len(t.Literal)
	endPos.Offset += len(t.Literal)
	return Span{Start: t.Pos, End: endPos}
}

// Length 返回 Span 的长度（仅在同一行有效）
func (s Span) Length() int {
	if s.Start.Line == s.End.Line {
		return s.End.Column - s.Start.Column
	}
	return 1
}

// String 返回 Span 的字符串表示
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", s.Start.Filename, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.Filename, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// ============================================================================
// Token - 词法单元
// ============================================================================

// Token 表示一个词法单元
//
// LOCAL / GLOBAL 的 Literal 包含前缀符号，Value 为去掉前缀的名字；
// INT 的 Value 为 *big.Int。
type Token struct {
	Type    TokenType   // Token 类型
	Literal string      // 原始字面量
	Value   interface{} // 解析后的值
	Pos     Position    // 位置信息
}

// String 返回 Token 的字符串表示（用于调试）
func (t Token) String() string {
	switch t.Type {
	case LOCAL, GLOBAL, IDENT, INT:
		return fmt.Sprintf("%s(%s) at %s", t.Type, t.Literal, t.Pos)
	default:
		return fmt.Sprintf("%s at %s", t.Type, t.Pos)
	}
}

// End 返回 Token 之后的位置
func (t Token) End() Position {
	return SpanFromToken(t).End
}

// ============================================================================
// Token 构造函数
// ============================================================================

// New 创建一个新的 Token
func New(tokenType TokenType, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Pos:     pos,
	}
}

// NewWithValue 创建一个带值的 Token
func NewWithValue(tokenType TokenType, literal string, value interface{}, pos Position) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Value:   value,
		Pos:     pos,
	}
}
