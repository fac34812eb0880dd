// Package errors 提供大整数扩展工具链的错误处理系统
package errors

import "github.com/tangzhangming/limbs/internal/i18n"

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ============================================================================
// 扩展错误码 (X 开头)
// ============================================================================

const (
	X0001 = "X0001" // 不支持的常量
	X0002 = "X0002" // 找不到已扩展的值
	X0003 = "X0003" // 不支持的二元运算
	X0004 = "X0004" // 不支持的比较谓词
	X0005 = "X0005" // 变量位数移位
	X0006 = "X0006" // 非法函数参数
	X0007 = "X0007" // 无法处理的指令
	X0008 = "X0008" // 向量重解释不合法
)

// ============================================================================
// 解析错误码 (P 开头)
// ============================================================================

const (
	P0001 = "P0001" // 意外字符
	P0002 = "P0002" // 无效整数
	P0003 = "P0003" // 期望的 token
	P0004 = "P0004" // 意外的 token
	P0005 = "P0005" // 未知指令
	P0006 = "P0006" // 未定义的值
	P0007 = "P0007" // 未定义的块
	P0008 = "P0008" // 值重复定义
	P0009 = "P0009" // 类型不匹配
	P0010 = "P0010" // 无效类型
	P0011 = "P0011" // 无效操作数
	P0012 = "P0012" // IR 结构校验失败
)

// ============================================================================
// 解释器错误码 (R 开头)
// ============================================================================

const (
	R0001 = "R0001" // 执行步数超限
	R0002 = "R0002" // 整数位宽超出解释器范围
	R0003 = "R0003" // 内存访问越界
	R0004 = "R0004" // 除以零
	R0005 = "R0005" // 参数错误
	R0006 = "R0006" // 无法执行的指令
)

// ============================================================================
// 错误码信息
// ============================================================================

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Level     Level  // 错误级别
	MessageID string // i18n 消息 ID
	Category  string // 错误分类
}

var errorInfos = map[string]ErrorInfo{
	// 扩展错误
	X0001: {X0001, LevelError, i18n.ErrUnsupportedConstant, "expand"},
	X0002: {X0002, LevelError, i18n.ErrUnmappedValue, "expand"},
	X0003: {X0003, LevelError, i18n.ErrUnsupportedBinaryOp, "expand"},
	X0004: {X0004, LevelError, i18n.ErrUnsupportedPredicate, "expand"},
	X0005: {X0005, LevelError, i18n.ErrVariableShift, "expand"},
	X0006: {X0006, LevelError, i18n.ErrIllegalArgument, "expand"},
	X0007: {X0007, LevelError, i18n.ErrUnhandledInstruction, "expand"},
	X0008: {X0008, LevelError, i18n.ErrMalformedVector, "expand"},

	// 解析错误
	P0001: {P0001, LevelError, i18n.ErrUnexpectedChar, "syntax"},
	P0002: {P0002, LevelError, i18n.ErrInvalidInteger, "syntax"},
	P0003: {P0003, LevelError, i18n.ErrExpectedToken, "syntax"},
	P0004: {P0004, LevelError, i18n.ErrUnexpectedToken, "syntax"},
	P0005: {P0005, LevelError, i18n.ErrUnknownOpcode, "syntax"},
	P0006: {P0006, LevelError, i18n.ErrUndefinedValue, "name"},
	P0007: {P0007, LevelError, i18n.ErrUndefinedBlock, "name"},
	P0008: {P0008, LevelError, i18n.ErrRedefinedValue, "name"},
	P0009: {P0009, LevelError, i18n.ErrTypeMismatch, "type"},
	P0010: {P0010, LevelError, i18n.ErrInvalidType, "type"},
	P0011: {P0011, LevelError, i18n.ErrInvalidOperand, "type"},
	P0012: {P0012, LevelError, "", "verify"},

	// 解释器错误
	R0001: {R0001, LevelError, "", "runtime"},
	R0002: {R0002, LevelError, "", "runtime"},
	R0003: {R0003, LevelError, "", "memory"},
	R0004: {R0004, LevelError, "", "numeric"},
	R0005: {R0005, LevelError, "", "runtime"},
	R0006: {R0006, LevelError, "", "runtime"},
}

// GetErrorInfo 获取错误码信息
func GetErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := errorInfos[code]
	return info, ok
}

// IsExpandError 检查是否为扩展错误码
func IsExpandError(code string) bool {
	info, ok := errorInfos[code]
	return ok && info.Category == "expand"
}

// IsRuntimeError 检查是否为解释器错误码
func IsRuntimeError(code string) bool {
	return len(code) == 5 && code[0] == 'R'
}
