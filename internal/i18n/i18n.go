// Package i18n 提供错误消息与命令行文本的多语言支持
//
// 每种语言是一个以消息 ID 为键的 Catalog，由 en.go、zh.go 在 init 中注册。
// 查找顺序：当前语言、英文、消息 ID 本身。
package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// Catalog 一种语言的全部消息，值是 fmt 格式串
type Catalog map[string]string

var (
	catalogsMu sync.RWMutex
	catalogs   = make(map[Language]Catalog)

	current = atomic.NewString(string(LangEnglish))
)

// Register 注册或扩充一种语言的消息，已有的 ID 会被覆盖
func Register(lang Language, msgs Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	c, ok := catalogs[lang]
	if !ok {
		c = make(Catalog, len(msgs))
		catalogs[lang] = c
	}
	for id, msg := range msgs {
		c[id] = msg
	}
}

// Languages 返回已注册的语言，按名称排序
func Languages() []Language {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	out := make([]Language, 0, len(catalogs))
	for lang := range catalogs {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseLanguage 解析 zh、zh-CN、zh_CN.UTF-8、en_US 这类写法
//
// 只认语言部分，地区与编码被忽略；未注册的语言返回 false。
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_.@"); i >= 0 {
		s = s[:i]
	}
	if s == "chinese" {
		s = string(LangChinese)
	}
	lang := Language(s)

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	_, ok := catalogs[lang]
	return lang, ok
}

// SetLanguage 设置当前语言
func SetLanguage(lang Language) {
	current.Store(string(lang))
}

// SetLanguageFromString 从字符串设置语言，无法识别时使用英文
func SetLanguageFromString(s string) {
	lang, ok := ParseLanguage(s)
	if !ok {
		lang = LangEnglish
	}
	SetLanguage(lang)
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	return Language(current.Load())
}

// Lookup 查找消息的格式串，当前语言缺失时回退到英文
func Lookup(msgID string) (string, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	if msg, ok := catalogs[GetLanguage()][msgID]; ok {
		return msg, true
	}
	msg, ok := catalogs[LangEnglish][msgID]
	return msg, ok
}

// T 翻译消息（支持格式化参数），找不到时返回消息 ID
func T(msgID string, args ...interface{}) string {
	msg, ok := Lookup(msgID)
	if !ok {
		return msgID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
