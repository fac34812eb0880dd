//go:build windows

package main

import (
	"strings"

	"golang.org/x/sys/windows"
)

// isSystemChinese 检查用户界面语言是否为中文
func isSystemChinese() bool {
	langs, err := windows.GetUserPreferredUILanguages(windows.MUI_LANGUAGE_NAME)
	if err != nil || len(langs) == 0 {
		return false
	}
	// zh-CN, zh-TW, zh-HK ...
	return strings.HasPrefix(strings.ToLower(langs[0]), "zh")
}

// enableVirtualTerminal 打开控制台的 ANSI 转义序列支持
func enableVirtualTerminal() bool {
	handle := windows.Handle(windows.Stdout)
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return false
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return true
	}
	return windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
