//go:build !windows

package main

func isSystemChinese() bool { return false }

// enableVirtualTerminal 非 Windows 终端不需要设置，颜色按环境自动检测
func enableVirtualTerminal() bool { return false }
