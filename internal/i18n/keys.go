package i18n

// 消息 ID
const (
	// ========== 扩展 Pass ==========
	ErrUnsupportedConstant  = "expand.unsupported_constant"
	ErrUnmappedValue        = "expand.unmapped_value"
	ErrUnsupportedBinaryOp  = "expand.unsupported_binop"
	ErrUnsupportedPredicate = "expand.unsupported_predicate"
	ErrVariableShift        = "expand.variable_shift"
	ErrIllegalArgument      = "expand.illegal_argument"
	ErrUnhandledInstruction = "expand.unhandled_instruction"
	ErrMalformedVector      = "expand.malformed_vector"

	// ========== 修复建议 ==========
	HintUnsupportedBinaryOp  = "hint.unsupported_binop"
	HintUnsupportedPredicate = "hint.unsupported_predicate"
	HintVariableShift        = "hint.variable_shift"
	HintIllegalArgument      = "hint.illegal_argument"
	HintMalformedVector      = "hint.malformed_vector"
	HintInternal             = "hint.internal"
	HintDidYouMean           = "hint.did_you_mean"

	// ========== 解析器 ==========
	ErrUnexpectedChar    = "parse.unexpected_char"
	ErrInvalidInteger    = "parse.invalid_integer"
	ErrExpectedToken     = "parse.expected_token"
	ErrUnexpectedToken   = "parse.unexpected_token"
	ErrUnknownOpcode     = "parse.unknown_opcode"
	ErrUndefinedValue    = "parse.undefined_value"
	ErrUndefinedBlock    = "parse.undefined_block"
	ErrRedefinedValue    = "parse.redefined_value"
	ErrTypeMismatch      = "parse.type_mismatch"
	ErrInvalidType       = "parse.invalid_type"
	ErrInvalidOperand    = "parse.invalid_operand"

	// ========== 命令行 ==========
	CmdRootShort    = "cmd.root"
	CmdExpandShort  = "cmd.expand"
	CmdCheckShort   = "cmd.check"
	CmdRunShort     = "cmd.run"
	CmdInitShort    = "cmd.init"
	CmdLSPShort     = "cmd.lsp"
	MsgCheckOK      = "msg.check_ok"
	MsgConfigSaved  = "msg.config_saved"
	MsgStats        = "msg.stats"
	ErrConfigExists = "cli.config_exists"
	ErrFuncNotFound = "cli.func_not_found"
	ErrBadArgument  = "cli.bad_argument"
	ErrCheckFailed  = "cli.check_failed"
)
