package lsp

import (
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/samber/lo"
	"go.lsp.dev/protocol"

	"github.com/tangzhangming/limbs/internal/expand"
	"github.com/tangzhangming/limbs/internal/ir"
)

// handleHover 处理悬停请求
func (s *Server) handleHover(id json.RawMessage, params json.RawMessage) {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}

	doc := s.documents.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, nil)
		return
	}

	hover := getHoverInfo(doc, int(p.Position.Line), int(p.Position.Character))
	if hover == nil {
		s.sendResult(id, nil)
		return
	}
	s.sendResult(id, hover)
}

// getHoverInfo 显示光标处的值或函数的类型，超宽整数同时显示拆分结果
func getHoverInfo(doc *Document, line, character int) *protocol.Hover {
	word, start, end := doc.GetWordRangeAt(line, character)
	if word == "" || start == 0 {
		return nil
	}

	var text string
	switch doc.GetLine(line)[start-1] {
	case '%':
		fn := doc.FuncAt(line)
		if fn == nil {
			return nil
		}
		v := lookupValue(fn, word)
		if v == nil {
			return nil
		}
		text = describeValue(v)
	case '@':
		if doc.Module == nil {
			return nil
		}
		fn := doc.Module.Func(word)
		if fn == nil {
			return nil
		}
		text = describeFunc(fn)
	default:
		return nil
	}

	hoverRange := protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(start - 1)},
		End:   protocol.Position{Line: uint32(line), Character: uint32(end)},
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: text,
		},
		Range: &hoverRange,
	}
}

// lookupValue 按名字查找函数中的参数或指令
func lookupValue(fn *ir.Func, name string) ir.Value {
	for _, p := range fn.Params {
		if p.Name() == name {
			return p
		}
	}
	for _, inst := range fn.Instrs() {
		if inst.Name() == name {
			return inst
		}
	}
	return nil
}

func describeValue(v ir.Value) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "```llvm\n%s %s\n```", v.Type(), v.Ident())
	if expand.ShouldConvert(v) {
		parts := limbTypes(v.Type())
		fmt.Fprintf(&sb, "\n\nexpands to %d limbs: %s", len(parts),
			strings.Join(lo.Map(parts, func(t *ir.Type, _ int) string { return t.String() }), ", "))
	}
	return sb.String()
}

func describeFunc(fn *ir.Func) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "```llvm\n%s\n```", fn.Signature())

	wide := lo.CountBy(fn.Instrs(), func(inst *ir.Instr) bool { return expand.ShouldConvert(inst) })
	fmt.Fprintf(&sb, "\n\n%d blocks, %d instructions, %d wider than %d bits",
		len(fn.Blocks), fn.NumInstrs(), wide, expand.LegalWidth)
	return sb.String()
}

// limbTypes 按低位在前列出超宽整数最终拆成的各段
func limbTypes(t *ir.Type) []*ir.Type {
	var parts []*ir.Type
	for !expand.IsLegal(t.Bits()) {
		pair := expand.SplitType(t)
		parts = append(parts, pair.Lo)
		t = pair.Hi
	}
	return append(parts, t)
}
