package main

import (
	"os"

	"github.com/tangzhangming/limbs/internal/i18n"
)

// detectLanguage 从环境变量检测界面语言，Windows 上还会查询系统设置
func detectLanguage() string {
	// LIMBS_LANG 优先
	if lang := os.Getenv("LIMBS_LANG"); lang != "" {
		return lang
	}

	// 按 POSIX 约定的优先级检查
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG", "LANGUAGE"} {
		if lang := os.Getenv(env); lang != "" {
			return normalizeLang(lang)
		}
	}

	if isSystemChinese() {
		return "zh"
	}
	return "en"
}

// normalizeLang 把 zh_CN.UTF-8 这类值转换为已注册的语言，其余一律为 en
func normalizeLang(lang string) string {
	if l, ok := i18n.ParseLanguage(lang); ok {
		return string(l)
	}
	return string(i18n.LangEnglish)
}
