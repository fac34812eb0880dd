// parser.go - IR 文本解析
package parser

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"go.uber.org/multierr"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/lexer"
	"github.com/tangzhangming/limbs/internal/token"
)

// ============================================================================
// Parser - 语法分析器
// ============================================================================
//
// 文法（每行一条指令）：
//
//	module   := { function }
//	function := "define" type @name "(" [type %name {"," type %name}] ")" "{" block+ "}"
//	block    := [label ":"] { instr }
//	instr    := [%name "="] opcode operands
//
// 值可以在定义之前使用（phi 回边）：解析器先放一个前向引用占位，
// 定义出现时再整体替换。块标签在函数开始时预先扫描，
// 因此块按文本顺序创建，跳转也能引用后面的块。
//
// ============================================================================

// Parser 语法分析器
type Parser struct {
	lexer     *lexer.Lexer
	tokens    []token.Token
	current   int
	errors    []Error
	filename  string
	panicMode bool // 错误恢复模式标志，用于避免级联报错

	module *ir.Module
	srcmap *SourceMap

	// 当前函数
	fn      *ir.Func
	b       *ir.Builder
	values  map[string]ir.Value
	blocks  map[string]*ir.Block
	pending map[string]*pendingRef
}

// pendingRef 尚未定义的值
type pendingRef struct {
	ref *ir.Instr
	tok token.Token // 第一次使用的位置
}

// Error 语法分析错误
type Error struct {
	Pos        token.Position
	EndColumn  int
	Code       string   // P00xx
	Message    string
	Name       string   // 未定义名字（P0006 / P0007）
	Candidates []string // 作用域内的名字，用于 "did you mean"
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// ToCompileError 转换为带修复建议的诊断
func (e Error) ToCompileError() *lerrors.CompileError {
	ce := &lerrors.CompileError{
		Code:      e.Code,
		Level:     lerrors.LevelError,
		Message:   e.Message,
		File:      e.Pos.Filename,
		Line:      e.Pos.Line,
		Column:    e.Pos.Column,
		EndColumn: e.EndColumn,
	}
	ce.Hints = lerrors.GetSuggestions(e.Code, map[string]interface{}{
		"name":       e.Name,
		"candidates": e.Candidates,
	})
	return ce
}

// maxParseErrors 最大错误数量限制，防止错误爆炸
const maxParseErrors = 50

// maxIntBits 解析器接受的最大整数位宽
const maxIntBits = 1 << 23

// New 创建一个新的语法分析器
func New(source, filename string) *Parser {
	l := lexer.New(source, filename)
	tokens := l.ScanTokens()

	p := &Parser{
		lexer:    l,
		tokens:   tokens,
		filename: filename,
		srcmap:   newSourceMap(),
	}
	for _, e := range l.Errors() {
		p.errors = append(p.errors, Error{
			Pos:       e.Pos,
			EndColumn: e.Pos.Column + 1,
			Code:      e.Code,
			Message:   e.Message,
		})
	}
	return p
}

// Parse 解析整个文件
func (p *Parser) Parse() *ir.Module {
	p.module = ir.NewModule(p.filename)

	for !p.isAtEnd() {
		p.panicMode = false
		if !p.check(token.DEFINE) {
			p.error("P0004", i18n.T(i18n.ErrUnexpectedToken, p.peek().Literal))
			p.synchronizeFunc()
			continue
		}
		if fn := p.parseFunction(); fn != nil {
			p.module.AddFunc(fn)
		}
	}
	return p.module
}

// Errors 返回所有语法错误
func (p *Parser) Errors() []Error {
	return p.errors
}

// HasErrors 检查是否有错误
func (p *Parser) HasErrors() bool {
	return len(p.errors) > 0
}

// SourceMap 返回指令与函数的源码位置
func (p *Parser) SourceMap() *SourceMap {
	return p.srcmap
}

// Err 将所有错误合并为一个 error，无错误时返回 nil
func (p *Parser) Err() error {
	var errs error
	for _, e := range p.errors {
		errs = multierr.Append(errs, e)
	}
	return errs
}

// ParseString 解析 IR 文本
func ParseString(source, filename string) (*ir.Module, error) {
	p := New(source, filename)
	m := p.Parse()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ============================================================================
// 辅助方法
// ============================================================================

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() token.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t token.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.TokenType) token.Token {
	if p.check(t) {
		return p.advance()
	}
	p.error("P0003", i18n.T(i18n.ErrExpectedToken, quote(t)))
	return token.Token{}
}

func quote(t token.TokenType) string {
	return "'" + t.String() + "'"
}

func (p *Parser) error(code, message string) {
	p.errorAt(p.peek(), code, message)
}

func (p *Parser) errorAt(tok token.Token, code, message string) {
	p.report(Error{
		Pos:       tok.Pos,
		EndColumn: tok.End().Column,
		Code:      code,
		Message:   message,
	})
}

func (p *Parser) report(e Error) {
	// panicMode 下跳过后续错误，避免级联报错
	if p.panicMode {
		return
	}
	p.panicMode = true

	if len(p.errors) > 0 {
		last := p.errors[len(p.errors)-1]
		if last.Pos.Line == e.Pos.Line && last.Pos.Column == e.Pos.Column {
			return
		}
	}
	if len(p.errors) >= maxParseErrors {
		return
	}
	p.errors = append(p.errors, e)
}

// synchronizeLine 跳到下一行，指令解析出错后从下一条指令继续
func (p *Parser) synchronizeLine(line int) {
	for !p.isAtEnd() && p.peek().Pos.Line == line && !p.check(token.RBRACE) {
		p.advance()
	}
}

// synchronizeFunc 跳到下一个 define
func (p *Parser) synchronizeFunc() {
	for !p.isAtEnd() && !p.check(token.DEFINE) {
		p.advance()
	}
}

// ============================================================================
// 类型解析
// ============================================================================

func (p *Parser) parseType() *ir.Type {
	var t *ir.Type
	tok := p.peek()

	switch tok.Type {
	case token.VOID:
		p.advance()
		t = ir.Void()
	case token.IDENT:
		p.advance()
		bits, ok := parseIntType(tok.Literal)
		if !ok {
			p.errorAt(tok, "P0010", i18n.T(i18n.ErrInvalidType, tok.Literal))
			return nil
		}
		t = ir.Int(bits)
	case token.LT:
		t = p.parseVectorType()
		if t == nil {
			return nil
		}
	default:
		p.errorAt(tok, "P0010", i18n.T(i18n.ErrInvalidType, tok.Literal))
		return nil
	}

	for {
		switch {
		case p.check(token.STAR):
			star := p.advance()
			if t.IsVoid() {
				p.errorAt(star, "P0010", i18n.T(i18n.ErrInvalidType, "void*"))
				return nil
			}
			t = ir.Pointer(t, 0)
		case p.check(token.ADDRSPACE):
			p.advance()
			p.consume(token.LPAREN)
			n := p.parseSmallInt()
			p.consume(token.RPAREN)
			p.consume(token.STAR)
			if p.panicMode {
				return nil
			}
			t = ir.Pointer(t, n)
		default:
			return t
		}
	}
}

// parseVectorType 解析 <N x iM>
func (p *Parser) parseVectorType() *ir.Type {
	start := p.advance()
	n := p.parseSmallInt()
	p.consume(token.X)
	elem := p.parseType()
	p.consume(token.GT)
	if p.panicMode {
		return nil
	}
	if n <= 0 || !elem.IsInt() {
		p.errorAt(start, "P0010", i18n.T(i18n.ErrInvalidType, fmt.Sprintf("<%d x %s>", n, elem)))
		return nil
	}
	return ir.Vector(elem, n)
}

func parseIntType(s string) (int, bool) {
	if len(s) < 2 || s[0] != 'i' {
		return 0, false
	}
	bits, err := strconv.Atoi(s[1:])
	if err != nil || bits <= 0 || bits > maxIntBits {
		return 0, false
	}
	return bits, true
}

// parseSmallInt 解析非负的小整数（向量长度、对齐、地址空间）
func (p *Parser) parseSmallInt() int {
	tok := p.peek()
	if tok.Type != token.INT {
		p.error("P0003", i18n.T(i18n.ErrExpectedToken, "integer"))
		return 0
	}
	p.advance()
	v := tok.Value.(*big.Int)
	if !v.IsInt64() || v.Sign() < 0 || v.Int64() > maxIntBits {
		p.errorAt(tok, "P0002", i18n.T(i18n.ErrInvalidInteger, tok.Literal))
		return 0
	}
	return int(v.Int64())
}

// ============================================================================
// 函数
// ============================================================================

func (p *Parser) parseFunction() *ir.Func {
	defineTok := p.advance()
	ret := p.parseType()
	nameTok := p.consume(token.GLOBAL)
	if p.panicMode {
		p.synchronizeFunc()
		return nil
	}
	name := nameTok.Value.(string)
	if p.module.Func(name) != nil {
		p.errorAt(nameTok, "P0008", i18n.T(i18n.ErrRedefinedValue, name))
		p.panicMode = false
	}

	p.fn = ir.NewFunc(name, ret)
	p.values = make(map[string]ir.Value)
	p.blocks = make(map[string]*ir.Block)
	p.pending = make(map[string]*pendingRef)
	p.srcmap.Funcs[p.fn] = token.NewSpan(defineTok.Pos, nameTok.End())

	p.parseParams()
	p.consume(token.LBRACE)
	if p.panicMode {
		p.synchronizeFunc()
		return nil
	}

	p.declareBlocks()
	p.b = ir.NewBuilder(p.fn.Entry())

	for !p.isAtEnd() && !p.check(token.RBRACE) && !p.check(token.DEFINE) {
		p.panicMode = false
		if p.isLabel() {
			label := p.advance()
			p.advance()
			p.b.SetInsertPointAtEnd(p.blocks[label.Literal])
			continue
		}
		p.parseInstruction()
	}
	p.consume(token.RBRACE)

	p.resolvePending()
	fn := p.fn
	p.fn, p.b = nil, nil
	return fn
}

func (p *Parser) parseParams() {
	p.consume(token.LPAREN)
	if p.match(token.RPAREN) {
		return
	}
	for {
		t := p.parseType()
		tok := p.consume(token.LOCAL)
		if p.panicMode {
			return
		}
		if t.IsVoid() {
			p.errorAt(tok, "P0010", i18n.T(i18n.ErrInvalidType, t.String()))
			return
		}
		name := tok.Value.(string)
		if _, ok := p.values[name]; ok {
			p.errorAt(tok, "P0008", i18n.T(i18n.ErrRedefinedValue, name))
			return
		}
		p.values[name] = p.fn.AddParam(t, name)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.RPAREN)
}

// isLabel 当前位置是否为 "name:" 形式的块标签
func (p *Parser) isLabel() bool {
	t := p.peek().Type
	return (t == token.IDENT || t == token.INT) && p.peekNext().Type == token.COLON
}

// declareBlocks 预先扫描函数体中的块标签，按出现顺序创建块
//
// 函数体不以标签开头时，入口块命名为 entry。
func (p *Parser) declareBlocks() {
	save := p.current
	defer func() { p.current = save }()

	if !p.isLabel() {
		p.blocks["entry"] = p.fn.NewBlock("entry")
	}
	for !p.isAtEnd() && !p.check(token.RBRACE) && !p.check(token.DEFINE) {
		if !p.isLabel() {
			p.advance()
			continue
		}
		tok := p.advance()
		p.advance()
		if _, ok := p.blocks[tok.Literal]; ok {
			p.errorAt(tok, "P0008", i18n.T(i18n.ErrRedefinedValue, tok.Literal))
			p.panicMode = false
			continue
		}
		p.blocks[tok.Literal] = p.fn.NewBlock(tok.Literal)
	}
}

// resolvePending 函数结束时仍未定义的值报告为错误
func (p *Parser) resolvePending() {
	if len(p.pending) == 0 {
		return
	}
	refs := make([]*pendingRef, 0, len(p.pending))
	for _, ref := range p.pending {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].tok.Pos.Offset < refs[j].tok.Pos.Offset })

	candidates := p.valueNames()
	for _, ref := range refs {
		p.panicMode = false
		name := ref.tok.Value.(string)
		p.report(Error{
			Pos:        ref.tok.Pos,
			EndColumn:  ref.tok.End().Column,
			Code:       "P0006",
			Message:    i18n.T(i18n.ErrUndefinedValue, name),
			Name:       name,
			Candidates: candidates,
		})
	}
}

func (p *Parser) valueNames() []string {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Parser) blockNames() []string {
	names := make([]string, 0, len(p.blocks))
	for name := range p.blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ============================================================================
// 值与块引用
// ============================================================================

// parseValue 解析类型为 t 的操作数
func (p *Parser) parseValue(t *ir.Type) ir.Value {
	if t == nil {
		return nil
	}
	tok := p.advance()

	switch tok.Type {
	case token.LOCAL:
		return p.lookupValue(tok, t)

	case token.INT:
		if !t.IsInt() {
			p.errorAt(tok, "P0011", i18n.T(i18n.ErrInvalidOperand, t.String()))
			return nil
		}
		return ir.ConstInt(t, tok.Value.(*big.Int))

	case token.TRUE, token.FALSE:
		if t != ir.Int(1) {
			p.errorAt(tok, "P0009", i18n.T(i18n.ErrTypeMismatch, t, ir.Int(1)))
			return nil
		}
		return ir.ConstBool(tok.Type == token.TRUE)

	case token.UNDEF:
		return ir.Undef(t)

	case token.POISON:
		return ir.Poison(t)

	case token.NULL:
		if !t.IsPointer() {
			p.errorAt(tok, "P0011", i18n.T(i18n.ErrInvalidOperand, t.String()))
			return nil
		}
		return ir.Null(t)
	}

	p.errorAt(tok, "P0004", i18n.T(i18n.ErrUnexpectedToken, tok.Literal))
	return nil
}

// parseTypedValue 解析 "类型 值"
func (p *Parser) parseTypedValue() ir.Value {
	return p.parseValue(p.parseType())
}

func (p *Parser) lookupValue(tok token.Token, t *ir.Type) ir.Value {
	name := tok.Value.(string)
	if v, ok := p.values[name]; ok {
		if v.Type() != t {
			p.errorAt(tok, "P0009", i18n.T(i18n.ErrTypeMismatch, t, v.Type()))
			return nil
		}
		return v
	}
	if ref, ok := p.pending[name]; ok {
		if ref.ref.Type() != t {
			p.errorAt(tok, "P0009", i18n.T(i18n.ErrTypeMismatch, ref.ref.Type(), t))
			return nil
		}
		return ref.ref
	}
	ref := &pendingRef{ref: ir.NewForwardRef(t, name), tok: tok}
	p.pending[name] = ref
	return ref.ref
}

// parseBlockRef 解析 "label %name"
func (p *Parser) parseBlockRef() *ir.Block {
	p.consume(token.LABEL)
	tok := p.consume(token.LOCAL)
	if p.panicMode {
		return nil
	}
	name := tok.Value.(string)
	if b, ok := p.blocks[name]; ok {
		return b
	}
	p.report(Error{
		Pos:        tok.Pos,
		EndColumn:  tok.End().Column,
		Code:       "P0007",
		Message:    i18n.T(i18n.ErrUndefinedBlock, name),
		Name:       name,
		Candidates: p.blockNames(),
	})
	return nil
}

// parseAlign 解析可选的 ", align N"
func (p *Parser) parseAlign() int {
	if !p.check(token.COMMA) || p.peekNext().Type != token.ALIGN {
		return 0
	}
	p.advance()
	p.advance()
	return p.parseSmallInt()
}

// parseIndex 解析 "iN 常量" 形式的元素下标
func (p *Parser) parseIndex(op string) int {
	tok := p.peek()
	v := p.parseTypedValue()
	if p.panicMode {
		return 0
	}
	c, ok := v.(*ir.Const)
	if !ok || c.Kind() != ir.ConstIntKind || !c.IsUint64() {
		p.errorAt(tok, "P0011", i18n.T(i18n.ErrInvalidOperand, op))
		return 0
	}
	return int(c.Uint64())
}

// ============================================================================
// 指令
// ============================================================================

func (p *Parser) parseInstruction() {
	start := p.peek()
	defer func() {
		if p.panicMode {
			p.synchronizeLine(start.Pos.Line)
		}
	}()

	var nameTok token.Token
	if p.check(token.LOCAL) && p.peekNext().Type == token.ASSIGN {
		nameTok = p.advance()
		p.advance()
	}

	opTok := p.peek()
	if opTok.Type != token.IDENT {
		p.error("P0004", i18n.T(i18n.ErrUnexpectedToken, opTok.Literal))
		return
	}
	p.advance()

	inst := p.build(opTok, nameTok)
	if inst == nil || p.panicMode {
		return
	}
	p.srcmap.Instrs[inst] = token.NewSpan(start.Pos, p.previous().End())

	if nameTok.Type == token.LOCAL {
		p.define(nameTok, inst)
	}
}

// define 登记 %name 的定义并解析之前的前向引用
func (p *Parser) define(tok token.Token, inst *ir.Instr) {
	name := tok.Value.(string)
	if inst.Type().IsVoid() {
		p.errorAt(tok, "P0011", i18n.T(i18n.ErrInvalidOperand, inst.Op().String()))
		return
	}
	if _, ok := p.values[name]; ok {
		p.errorAt(tok, "P0008", i18n.T(i18n.ErrRedefinedValue, name))
		return
	}
	p.values[name] = inst
	if ref, ok := p.pending[name]; ok {
		delete(p.pending, name)
		if ref.ref.Type() != inst.Type() {
			p.errorAt(tok, "P0009", i18n.T(i18n.ErrTypeMismatch, ref.ref.Type(), inst.Type()))
			return
		}
		ir.ReplaceAllUsesWith(ref.ref, inst)
	}
}

// build 按操作码解析操作数并创建指令
//
// Builder 对类型不一致的操作数会 panic，这里转换为 P0011 错误。
func (p *Parser) build(opTok token.Token, nameTok token.Token) (inst *ir.Instr) {
	op := opTok.Literal
	name, _ := nameTok.Value.(string)

	defer func() {
		if r := recover(); r != nil {
			p.errorAt(opTok, "P0011", i18n.T(i18n.ErrInvalidOperand, op))
			inst = nil
		}
	}()

	if bop, ok := ir.BinaryOpByName(op); ok {
		x := p.parseTypedValue()
		p.consume(token.COMMA)
		if x == nil || p.panicMode {
			return nil
		}
		y := p.parseValue(x.Type())
		if y == nil {
			return nil
		}
		return p.b.CreateBinOp(bop, x, y, name)
	}

	if cop, ok := ir.CastOpByName(op); ok {
		v := p.parseTypedValue()
		p.consume(token.TO)
		to := p.parseType()
		if v == nil || to == nil || p.panicMode {
			return nil
		}
		return p.b.CreateCast(cop, v, to, name)
	}

	switch op {
	case "phi":
		return p.parsePhi(name)

	case "icmp":
		predTok := p.advance()
		pred, ok := ir.PredicateByName(predTok.Literal)
		if !ok {
			p.errorAt(predTok, "P0011", i18n.T(i18n.ErrInvalidOperand, op))
			return nil
		}
		x := p.parseTypedValue()
		p.consume(token.COMMA)
		if x == nil || p.panicMode {
			return nil
		}
		y := p.parseValue(x.Type())
		if y == nil {
			return nil
		}
		return p.b.CreateICmp(pred, x, y, name)

	case "select":
		c := p.parseTypedValue()
		p.consume(token.COMMA)
		x := p.parseTypedValue()
		p.consume(token.COMMA)
		y := p.parseTypedValue()
		if c == nil || x == nil || y == nil || p.panicMode {
			return nil
		}
		return p.b.CreateSelect(c, x, y, name)

	case "load":
		t := p.parseType()
		p.consume(token.COMMA)
		ptr := p.parseTypedValue()
		align := p.parseAlign()
		if t == nil || ptr == nil || p.panicMode {
			return nil
		}
		if !ptr.Type().IsPointer() || ptr.Type().Elem() != t {
			p.errorAt(opTok, "P0009", i18n.T(i18n.ErrTypeMismatch, ir.Pointer(t, 0), ptr.Type()))
			return nil
		}
		return p.b.CreateLoad(ptr, align, name)

	case "store":
		v := p.parseTypedValue()
		p.consume(token.COMMA)
		ptr := p.parseTypedValue()
		align := p.parseAlign()
		if v == nil || ptr == nil || p.panicMode {
			return nil
		}
		return p.b.CreateStore(v, ptr, align)

	case "getelementptr":
		t := p.parseType()
		p.consume(token.COMMA)
		ptr := p.parseTypedValue()
		p.consume(token.COMMA)
		idx := p.parseTypedValue()
		if t == nil || ptr == nil || idx == nil || p.panicMode {
			return nil
		}
		if !ptr.Type().IsPointer() || ptr.Type().Elem() != t {
			p.errorAt(opTok, "P0009", i18n.T(i18n.ErrTypeMismatch, ir.Pointer(t, 0), ptr.Type()))
			return nil
		}
		return p.b.CreateGEP(ptr, idx, name)

	case "alloca":
		t := p.parseType()
		align := p.parseAlign()
		if t == nil || p.panicMode {
			return nil
		}
		return p.b.CreateAlloca(t, align, name)

	case "insertelement":
		vec := p.parseTypedValue()
		p.consume(token.COMMA)
		elem := p.parseTypedValue()
		p.consume(token.COMMA)
		idx := p.parseIndex(op)
		if vec == nil || elem == nil || p.panicMode {
			return nil
		}
		return p.b.CreateInsertElement(vec, elem, idx, name)

	case "extractelement":
		vec := p.parseTypedValue()
		p.consume(token.COMMA)
		idx := p.parseIndex(op)
		if vec == nil || p.panicMode {
			return nil
		}
		return p.b.CreateExtractElement(vec, idx, name)

	case "br":
		if p.check(token.LABEL) {
			dest := p.parseBlockRef()
			if dest == nil {
				return nil
			}
			return p.b.CreateBr(dest)
		}
		c := p.parseTypedValue()
		p.consume(token.COMMA)
		then := p.parseBlockRef()
		p.consume(token.COMMA)
		els := p.parseBlockRef()
		if c == nil || then == nil || els == nil || p.panicMode {
			return nil
		}
		return p.b.CreateCondBr(c, then, els)

	case "switch":
		return p.parseSwitch()

	case "ret":
		if p.match(token.VOID) {
			return p.b.CreateRet(nil)
		}
		v := p.parseTypedValue()
		if v == nil {
			return nil
		}
		return p.b.CreateRet(v)

	case "unreachable":
		return p.b.CreateUnreachable()
	}

	p.errorAt(opTok, "P0005", i18n.T(i18n.ErrUnknownOpcode, op))
	return nil
}

// parsePhi 解析 phi T [ v, %bb ], ...
func (p *Parser) parsePhi(name string) *ir.Instr {
	t := p.parseType()
	if t == nil {
		return nil
	}
	type incoming struct {
		v ir.Value
		b *ir.Block
	}
	var in []incoming
	for {
		p.consume(token.LBRACKET)
		v := p.parseValue(t)
		p.consume(token.COMMA)
		tok := p.consume(token.LOCAL)
		p.consume(token.RBRACKET)
		if v == nil || p.panicMode {
			return nil
		}
		bname := tok.Value.(string)
		b, ok := p.blocks[bname]
		if !ok {
			p.report(Error{
				Pos:        tok.Pos,
				EndColumn:  tok.End().Column,
				Code:       "P0007",
				Message:    i18n.T(i18n.ErrUndefinedBlock, bname),
				Name:       bname,
				Candidates: p.blockNames(),
			})
			return nil
		}
		in = append(in, incoming{v, b})
		if !p.match(token.COMMA) {
			break
		}
	}

	phi := p.b.CreatePhi(t, len(in), name)
	for _, e := range in {
		phi.AddIncoming(e.v, e.b)
	}
	return phi
}

// parseSwitch 解析 switch T v, label %d [ T c, label %x ... ]
func (p *Parser) parseSwitch() *ir.Instr {
	v := p.parseTypedValue()
	p.consume(token.COMMA)
	def := p.parseBlockRef()
	p.consume(token.LBRACKET)
	if v == nil || def == nil || p.panicMode {
		return nil
	}

	var cases []*ir.Const
	var dests []*ir.Block
	for !p.check(token.RBRACKET) && !p.isAtEnd() {
		tok := p.peek()
		c := p.parseValue(p.parseType())
		p.consume(token.COMMA)
		dest := p.parseBlockRef()
		if c == nil || dest == nil || p.panicMode {
			return nil
		}
		cc, ok := c.(*ir.Const)
		if !ok || c.Type() != v.Type() {
			p.errorAt(tok, "P0011", i18n.T(i18n.ErrInvalidOperand, "switch"))
			return nil
		}
		cases = append(cases, cc)
		dests = append(dests, dest)
	}
	p.consume(token.RBRACKET)
	if p.panicMode {
		return nil
	}
	return p.b.CreateSwitch(v, def, cases, dests)
}

// ============================================================================
// 源码位置
// ============================================================================

// SourceMap 记录解析出的指令和函数在源码中的范围
type SourceMap struct {
	Instrs map[*ir.Instr]token.Span
	Funcs  map[*ir.Func]token.Span
}

func newSourceMap() *SourceMap {
	return &SourceMap{
		Instrs: make(map[*ir.Instr]token.Span),
		Funcs:  make(map[*ir.Func]token.Span),
	}
}

// Lookup 查找指令的位置，找不到时退回到所在函数（fn 可为 nil）
func (s *SourceMap) Lookup(inst *ir.Instr, fn *ir.Func) (token.Span, bool) {
	if inst != nil {
		if span, ok := s.Instrs[inst]; ok {
			return span, true
		}
	}
	if fn != nil {
		if span, ok := s.Funcs[fn]; ok {
			return span, true
		}
	}
	return token.Span{}, false
}

// FuncNamed 按名字查找函数的位置
func (s *SourceMap) FuncNamed(name string) (token.Span, bool) {
	for fn, span := range s.Funcs {
		if fn.Name == name {
			return span, true
		}
	}
	return token.Span{}, false
}
