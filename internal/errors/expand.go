package errors

import (
	"fmt"

	"github.com/tangzhangming/limbs/internal/i18n"
)

// LegalWidth 合法整数位宽（消息格式化使用）
const LegalWidth = 64

// ============================================================================
// 扩展错误种类
// ============================================================================

// Kind 扩展失败的原因，可直接作为 errors.Is 的目标
type Kind int

const (
	KindUnsupportedConstant Kind = iota + 1
	KindUnmappedValue
	KindUnsupportedBinaryOp
	KindUnsupportedPredicate
	KindVariableShift
	KindIllegalArgument
	KindUnhandledInstruction
	KindMalformedVector
)

var kindCodes = map[Kind]string{
	KindUnsupportedConstant:  X0001,
	KindUnmappedValue:        X0002,
	KindUnsupportedBinaryOp:  X0003,
	KindUnsupportedPredicate: X0004,
	KindVariableShift:        X0005,
	KindIllegalArgument:      X0006,
	KindUnhandledInstruction: X0007,
	KindMalformedVector:      X0008,
}

// Code 返回错误码
func (k Kind) Code() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return "X0000"
}

// Error 返回本地化消息
func (k Kind) Error() string {
	info, ok := errorInfos[k.Code()]
	if !ok {
		return fmt.Sprintf("expand error %d", int(k))
	}
	switch k {
	case KindUnsupportedBinaryOp, KindUnsupportedPredicate, KindVariableShift:
		return i18n.T(info.MessageID, LegalWidth)
	default:
		return i18n.T(info.MessageID)
	}
}

// ============================================================================
// 扩展错误
// ============================================================================

// ExpandError 一次函数扩展失败的详细信息
type ExpandError struct {
	Kind   Kind
	Func   string       // 函数名
	Inst   fmt.Stringer // 出错的指令（可能为 nil）
	Detail string       // 附加说明
}

// NewExpandError 创建扩展错误
func NewExpandError(kind Kind, inst fmt.Stringer, format string, args ...interface{}) *ExpandError {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &ExpandError{Kind: kind, Inst: inst, Detail: detail}
}

// Code 返回错误码
func (e *ExpandError) Code() string { return e.Kind.Code() }

// Error 实现 error 接口
func (e *ExpandError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Inst != nil {
		msg += fmt.Sprintf(" (%s)", e.Inst)
	}
	if e.Func != "" {
		msg = fmt.Sprintf("@%s: %s", e.Func, msg)
	}
	return msg
}

// Unwrap 使 errors.Is(err, KindXxx) 成立
func (e *ExpandError) Unwrap() error { return e.Kind }
