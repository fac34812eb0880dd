package i18n

var messagesEN = Catalog{
	// ========== Expansion ==========
	ErrUnsupportedConstant:  "unexpected constant value",
	ErrUnmappedValue:        "expanded value not found in map",
	ErrUnsupportedBinaryOp:  "unhandled binary operator on an integer wider than %d bits",
	ErrUnsupportedPredicate: "comparisons other than equality are not supported for integer types larger than %d bits",
	ErrVariableShift:        "expansion of variable-sized shifts of > %d-bit-wide values is not supported",
	ErrIllegalArgument:      "function has illegal integer argument",
	ErrUnhandledInstruction: "unhandled large integer expansion",
	ErrMalformedVector:      "cannot reinterpret between a vector and a large integer",

	// ========== Hints ==========
	HintUnsupportedBinaryOp:  "only and, or, xor, shl, lshr, ashr, add and sub are expanded; lower mul/div/rem before this pass",
	HintUnsupportedPredicate: "rewrite the comparison as eq/ne, or keep the operands within %d bits",
	HintVariableShift:        "shift amounts on wide integers must be compile-time constants",
	HintIllegalArgument:      "function signatures are never changed; pass the value through memory instead",
	HintMalformedVector:      "element widths must divide %d and each other evenly",
	HintInternal:             "this is an internal error in the expansion pass",
	HintDidYouMean:           "did you mean '%%%s'?",

	// ========== Parser ==========
	ErrUnexpectedChar:  "unexpected character '%c'",
	ErrInvalidInteger:  "invalid integer: %s",
	ErrExpectedToken:   "expected %s",
	ErrUnexpectedToken: "unexpected token: %s",
	ErrUnknownOpcode:   "unknown instruction '%s'",
	ErrUndefinedValue:  "use of undefined value '%%%s'",
	ErrUndefinedBlock:  "use of undefined block '%%%s'",
	ErrRedefinedValue:  "redefinition of value '%%%s'",
	ErrTypeMismatch:    "type mismatch: expected %s but got %s",
	ErrInvalidType:     "invalid type: %s",
	ErrInvalidOperand:  "invalid operand for %s",

	// ========== CLI ==========
	CmdRootShort:    "Expand integers wider than 64 bits into 64-bit limbs",
	CmdExpandShort:  "Expand every function of an IR file and print the result",
	CmdCheckShort:   "Parse and verify an IR file",
	CmdRunShort:     "Interpret a function of an IR file",
	CmdInitShort:    "Write a default limbs.toml",
	CmdLSPShort:     "Start the diagnostics language server",
	MsgCheckOK:      "%s: %d function(s) OK",
	MsgConfigSaved:  "Configuration written to %s",
	MsgStats:        "functions: %d, modified: %d, expanded instructions: %d, forward references: %d, erased: %d",
	ErrConfigExists: "%s already exists",
	ErrFuncNotFound: "function @%s not found",
	ErrBadArgument:  "invalid argument %q for parameter %s",
	ErrCheckFailed:  "%s: %d problem(s) found",
}

func init() { Register(LangEnglish, messagesEN) }
