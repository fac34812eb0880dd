package lsp

import (
	"go.lsp.dev/protocol"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
)

// getDiagnostics 获取文档的诊断信息
func (s *Server) getDiagnostics(doc *Document) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(doc.Errors))
	for _, err := range doc.Errors {
		diagnostics = append(diagnostics, toDiagnostic(doc, err))
	}
	return diagnostics
}

// toDiagnostic 将诊断转换为 LSP 格式，没有结束列时标到行尾
func toDiagnostic(doc *Document, err *lerrors.CompileError) protocol.Diagnostic {
	line := max(err.Line-1, 0) // LSP 行号从 0 开始
	start := max(err.Column-1, 0)
	end := err.EndColumn - 1
	if end <= start {
		end = len(doc.GetLine(line))
		if end <= start {
			end = start + 1
		}
	}

	msg := err.Message
	for _, note := range err.Notes {
		msg += "\nnote: " + note
	}
	for _, hint := range err.Hints {
		msg += "\nhelp: " + hint
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: uint32(start)},
			End:   protocol.Position{Line: uint32(line), Character: uint32(end)},
		},
		Severity: severityOf(err),
		Code:     err.Code,
		Source:   "limbs",
		Message:  msg,
	}
}

// severityOf 根据错误级别判断严重程度
func severityOf(err *lerrors.CompileError) protocol.DiagnosticSeverity {
	switch err.Level {
	case lerrors.LevelWarning:
		return protocol.DiagnosticSeverityWarning
	case lerrors.LevelNote:
		return protocol.DiagnosticSeverityInformation
	case lerrors.LevelHelp:
		return protocol.DiagnosticSeverityHint
	}
	return protocol.DiagnosticSeverityError
}
