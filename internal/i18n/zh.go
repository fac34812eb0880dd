package i18n

var messagesZH = Catalog{
	// ========== 扩展 Pass ==========
	ErrUnsupportedConstant:  "不支持的常量",
	ErrUnmappedValue:        "找不到已扩展的值",
	ErrUnsupportedBinaryOp:  "不支持对超过 %d 位的整数执行该二元运算",
	ErrUnsupportedPredicate: "超过 %d 位的整数只支持相等比较",
	ErrVariableShift:        "不支持对超过 %d 位的整数进行变量位数移位",
	ErrIllegalArgument:      "函数参数包含非法位宽的整数",
	ErrUnhandledInstruction: "无法扩展该指令中的大整数",
	ErrMalformedVector:      "无法在向量与大整数之间重解释",

	// ========== 修复建议 ==========
	HintUnsupportedBinaryOp:  "仅支持 and、or、xor、shl、lshr、ashr、add 和 sub；请先降低 mul/div/rem",
	HintUnsupportedPredicate: "请改写为 eq/ne 比较，或将操作数限制在 %d 位以内",
	HintVariableShift:        "大整数的移位位数必须是编译期常量",
	HintIllegalArgument:      "本 Pass 不会修改函数签名，请改为通过内存传递",
	HintMalformedVector:      "元素位宽必须能整除 %d 且彼此整除",
	HintInternal:             "这是扩展 Pass 的内部错误",
	HintDidYouMean:           "是否想使用 '%%%s'？",

	// ========== 解析器 ==========
	ErrUnexpectedChar:  "意外字符 '%c'",
	ErrInvalidInteger:  "无效的整数: %s",
	ErrExpectedToken:   "期望 %s",
	ErrUnexpectedToken: "意外的 token: %s",
	ErrUnknownOpcode:   "未知指令 '%s'",
	ErrUndefinedValue:  "使用了未定义的值 '%%%s'",
	ErrUndefinedBlock:  "使用了未定义的基本块 '%%%s'",
	ErrRedefinedValue:  "值 '%%%s' 重复定义",
	ErrTypeMismatch:    "类型不匹配: 期望 %s，实际为 %s",
	ErrInvalidType:     "无效的类型: %s",
	ErrInvalidOperand:  "%s 的操作数无效",

	// ========== 命令行 ==========
	CmdRootShort:    "将超过 64 位的整数拆分为 64 位分段",
	CmdExpandShort:  "扩展 IR 文件中的所有函数并输出结果",
	CmdCheckShort:   "解析并校验 IR 文件",
	CmdRunShort:     "解释执行 IR 文件中的函数",
	CmdInitShort:    "生成默认的 limbs.toml",
	CmdLSPShort:     "启动诊断语言服务器",
	MsgCheckOK:      "%s: %d 个函数校验通过",
	MsgConfigSaved:  "配置已写入 %s",
	MsgStats:        "函数: %d, 已修改: %d, 扩展指令: %d, 前向引用: %d, 已删除: %d",
	ErrConfigExists: "%s 已存在",
	ErrFuncNotFound: "找不到函数 @%s",
	ErrBadArgument:  "参数 %[2]s 的值 %[1]q 无效",
	ErrCheckFailed:  "%s: 发现 %d 个问题",
}

func init() { Register(LangChinese, messagesZH) }
