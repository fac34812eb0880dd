package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	defer SetLanguage(LangEnglish)

	SetLanguage(LangEnglish)
	assert.Equal(t, "use of undefined value '%x'", T(ErrUndefinedValue, "x"))

	SetLanguageFromString("zh-cn")
	assert.Equal(t, LangChinese, GetLanguage())
	assert.NotEqual(t, T(ErrUndefinedValue, "x"), "use of undefined value '%x'")
	assert.Contains(t, T(ErrUndefinedValue, "x"), "%x")

	SetLanguageFromString("fr")
	assert.Equal(t, LangEnglish, GetLanguage())
}

func TestTranslateFallback(t *testing.T) {
	defer SetLanguage(LangEnglish)
	assert.Equal(t, "no.such.message", T("no.such.message"))

	// 新语言只翻译了一部分，其余回退到英文
	Register("xx", Catalog{MsgCheckOK: "ok %d"})
	SetLanguage("xx")
	assert.Equal(t, "ok 3", T(MsgCheckOK, 3))
	assert.Equal(t, messagesEN[ErrUnmappedValue], T(ErrUnmappedValue))

	msg, ok := Lookup("no.such.message")
	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"zh", LangChinese, true},
		{"zh-TW", LangChinese, true},
		{"zh_CN.UTF-8", LangChinese, true},
		{"Chinese", LangChinese, true},
		{"en_US.UTF-8", LangEnglish, true},
		{" en ", LangEnglish, true},
		{"C", "c", false},
		{"fr_FR", "fr", false},
	}
	for _, tt := range tests {
		got, ok := ParseLanguage(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Subset(t, Languages(), []Language{LangChinese, LangEnglish})
}

// 每条英文消息都有中文翻译
func TestCatalogsMatch(t *testing.T) {
	for id := range messagesEN {
		_, ok := messagesZH[id]
		assert.True(t, ok, "missing Chinese translation for %s", id)
	}
	for id := range messagesZH {
		_, ok := messagesEN[id]
		assert.True(t, ok, "missing English message for %s", id)
	}
}
