package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// 支持的语言
const (
	LocaleEN = "en-US"
	LocaleZH = "zh-CN"
)

var defaultLocale = LocaleEN

var matcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish,
	language.SimplifiedChinese,
})

var catalogs = map[string]map[string]string{
	LocaleEN: messagesEN,
	LocaleZH: messagesZH,
}

// SetDefaultLocale 设置默认语言，不支持的语言会被忽略
func SetDefaultLocale(locale string) {
	if _, ok := catalogs[locale]; ok {
		defaultLocale = locale
	}
}

// DefaultLocale 返回默认语言
func DefaultLocale() string {
	return defaultLocale
}

// ResolveLocale 按 query locale、X-Locale、Accept-Language 顺序解析请求语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return defaultLocale
	}
	if v := strings.TrimSpace(c.Query("locale")); v != "" {
		return Normalize(v)
	}
	if v := strings.TrimSpace(c.GetHeader("X-Locale")); v != "" {
		return Normalize(v)
	}
	if v := strings.TrimSpace(c.GetHeader("Accept-Language")); v != "" {
		tags, _, err := language.ParseAcceptLanguage(v)
		if err == nil && len(tags) > 0 {
			return match(tags...)
		}
	}
	return defaultLocale
}

// Normalize 将任意语言标签归一为受支持语言
func Normalize(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return defaultLocale
	}
	if _, ok := catalogs[locale]; ok {
		return locale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return defaultLocale
	}
	return match(tag)
}

func match(tags ...language.Tag) string {
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return defaultLocale
	}
	if index == 1 {
		return LocaleZH
	}
	return LocaleEN
}

// T 返回翻译文本，缺失时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if msgs, ok := catalogs[Normalize(locale)]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 返回带参数的翻译文本
func Sprintf(locale, key string, args ...interface{}) string {
	if len(args) == 0 {
		return T(locale, key)
	}
	return fmt.Sprintf(T(locale, key), args...)
}
