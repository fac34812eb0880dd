package lsp

import (
	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"
)

// handleDocumentSymbol 处理文档符号请求
func (s *Server) handleDocumentSymbol(id json.RawMessage, params json.RawMessage) {
	var p protocol.DocumentSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, codeParseError, "Parse error")
		return
	}

	doc := s.documents.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, []protocol.DocumentSymbol{})
		return
	}
	s.sendResult(id, getDocumentSymbols(doc))
}

// getDocumentSymbols 每个函数一个符号，范围是函数头
func getDocumentSymbols(doc *Document) []protocol.DocumentSymbol {
	symbols := []protocol.DocumentSymbol{}
	if doc.Module == nil || doc.SrcMap == nil {
		return symbols
	}

	for _, fn := range doc.Module.Funcs {
		span, ok := doc.SrcMap.Funcs[fn]
		if !ok {
			continue
		}
		line := uint32(span.Start.Line - 1)
		rng := protocol.Range{
			Start: protocol.Position{Line: line, Character: uint32(span.Start.Column - 1)},
			End:   protocol.Position{Line: uint32(span.End.Line - 1), Character: uint32(span.End.Column - 1)},
		}
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           fn.Name,
			Detail:         fn.Signature(),
			Kind:           protocol.SymbolKindFunction,
			Range:          rng,
			SelectionRange: rng,
		})
	}
	return symbols
}
