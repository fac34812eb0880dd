package lsp

import (
	"context"
	"strings"
	"sync"

	"go.lsp.dev/protocol"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/parser"
	"github.com/tangzhangming/limbs/internal/pass"
)

// Document 表示一个打开的文档
type Document struct {
	URI     string
	Content string
	Version int
	Lines   []string // 按行分割的内容

	// 缓存的分析结果
	Module *ir.Module
	SrcMap *parser.SourceMap
	Errors []*lerrors.CompileError // 语法错误和扩展错误

	// 是否需要重新分析
	dirty bool
}

// Analyzer 对文档内容运行解析和扩展流水线
type Analyzer func(doc *Document)

// DocumentManager 文档管理器
type DocumentManager struct {
	documents map[string]*Document
	mu        sync.RWMutex
	analyze   Analyzer
}

// NewDocumentManager 创建文档管理器，analyze 为 nil 时使用默认流水线
func NewDocumentManager(analyze Analyzer) *DocumentManager {
	if analyze == nil {
		analyze = PipelineAnalyzer(func() *pass.Manager { return pass.NewStandardPipeline(nil, true) })
	}
	return &DocumentManager{
		documents: make(map[string]*Document),
		analyze:   analyze,
	}
}

// Open 打开文档
func (dm *DocumentManager) Open(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc := &Document{
		URI:     uri,
		Content: content,
		Version: version,
		Lines:   splitLines(content),
		dirty:   true,
	}

	// 立即分析
	dm.refresh(doc)

	dm.documents[uri] = doc
	return doc
}

// Close 关闭文档
func (dm *DocumentManager) Close(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.documents, uri)
}

// Get 获取文档
func (dm *DocumentManager) Get(uri string) *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.documents[uri]
}

// UpdateContent 更新文档内容
func (dm *DocumentManager) UpdateContent(uri, content string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return
	}

	doc.Content = content
	doc.Lines = splitLines(content)
	doc.Version++
	doc.dirty = true
	dm.refresh(doc)
}

// ApplyChange 应用变更
func (dm *DocumentManager) ApplyChange(uri string, change protocol.TextDocumentContentChangeEvent, version int) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return
	}

	// 省略 range 时新文本是文档的完整内容
	isFullReplace := change.Range.Start.Line == 0 &&
		change.Range.Start.Character == 0 &&
		change.Range.End.Line == 0 &&
		change.Range.End.Character == 0 &&
		change.RangeLength == 0

	if isFullReplace {
		doc.Content = change.Text
	} else {
		doc.Content = applyTextEdit(doc.Content, change.Range, change.Text)
	}
	doc.Lines = splitLines(doc.Content)

	doc.Version = version
	doc.dirty = true
	dm.refresh(doc)
}

func (dm *DocumentManager) refresh(doc *Document) {
	if !doc.dirty {
		return
	}
	dm.analyze(doc)
	doc.dirty = false
}

// maxDocumentSize 文档大小限制（4MB）
const maxDocumentSize = 4 << 20

// PipelineAnalyzer 返回使用 newPipeline 创建的流水线分析文档的 Analyzer
//
// 每次分析都创建新的流水线，统计信息不会在文档之间累积。
func PipelineAnalyzer(newPipeline func() *pass.Manager) Analyzer {
	return func(doc *Document) {
		filename := uriToPath(doc.URI)
		doc.Module, doc.SrcMap, doc.Errors = nil, nil, nil

		if len(doc.Content) > maxDocumentSize {
			doc.Errors = []*lerrors.CompileError{{
				Code:    lerrors.P0012,
				Level:   lerrors.LevelError,
				Message: "document too large to analyze",
				File:    filename,
				Line:    1,
				Column:  1,
			}}
			return
		}

		p := parser.New(doc.Content, filename)
		doc.Module = p.Parse()
		doc.SrcMap = p.SourceMap()
		for _, e := range p.Errors() {
			doc.Errors = append(doc.Errors, e.ToCompileError())
		}
		if p.HasErrors() {
			return
		}

		// 在浅拷贝上运行，文档保留解析出的原始函数
		work := &ir.Module{Name: doc.Module.Name, Funcs: append([]*ir.Func(nil), doc.Module.Funcs...)}
		_, err := newPipeline().RunModule(context.Background(), work)
		doc.Errors = append(doc.Errors, pass.Diagnostics(err, filename, doc.SrcMap)...)
	}
}

// GetLine 获取指定行内容
func (doc *Document) GetLine(line int) string {
	if line < 0 || line >= len(doc.Lines) {
		return ""
	}
	return doc.Lines[line]
}

// GetWordRangeAt 获取指定位置的单词及其范围
func (doc *Document) GetWordRangeAt(line, character int) (word string, startCol, endCol int) {
	if line < 0 || line >= len(doc.Lines) {
		return "", 0, 0
	}

	lineText := doc.Lines[line]
	if character < 0 || character > len(lineText) {
		return "", 0, 0
	}

	// 向前查找单词开始
	start := character
	for start > 0 && isWordChar(lineText[start-1]) {
		start--
	}

	// 向后查找单词结束
	end := character
	for end < len(lineText) && isWordChar(lineText[end]) {
		end++
	}

	return lineText[start:end], start, end
}

// GetWordAt 获取指定位置的单词
func (doc *Document) GetWordAt(line, character int) string {
	word, _, _ := doc.GetWordRangeAt(line, character)
	return word
}

// FuncAt 返回指定行（从 0 开始）所在的函数：定义在该行或之前的最后一个函数
func (doc *Document) FuncAt(line int) *ir.Func {
	if doc.Module == nil || doc.SrcMap == nil {
		return nil
	}
	var found *ir.Func
	best := 0
	for _, fn := range doc.Module.Funcs {
		span, ok := doc.SrcMap.Funcs[fn]
		if !ok {
			continue
		}
		if span.Start.Line <= line+1 && span.Start.Line > best {
			found, best = fn, span.Start.Line
		}
	}
	return found
}

// splitLines 将内容按行分割
func splitLines(content string) []string {
	// 处理不同的换行符
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// applyTextEdit 应用文本编辑
func applyTextEdit(content string, rang protocol.Range, newText string) string {
	lines := splitLines(content)

	startLine := clamp(int(rang.Start.Line), 0, len(lines)-1)
	endLine := clamp(int(rang.End.Line), 0, len(lines)-1)
	startLineText := lines[startLine]
	endLineText := lines[endLine]
	startChar := clamp(int(rang.Start.Character), 0, len(startLineText))
	endChar := clamp(int(rang.End.Character), 0, len(endLineText))

	var result strings.Builder

	// 开始位置之前的内容
	for i := 0; i < startLine; i++ {
		result.WriteString(lines[i])
		result.WriteString("\n")
	}
	result.WriteString(startLineText[:startChar])

	result.WriteString(newText)

	// 结束位置之后的内容
	result.WriteString(endLineText[endChar:])
	for i := endLine + 1; i < len(lines); i++ {
		result.WriteString("\n")
		result.WriteString(lines[i])
	}

	return result.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// isWordChar 判断是否是 IR 名字中的字符
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '.' || c == '$' || c == '-'
}
