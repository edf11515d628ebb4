package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleZH = "zh-CN"
	LocaleTW = "zh-TW"
	LocaleEN = "en-US"
)

const defaultLocale = LocaleZH

// ResolveLocale 按 X-Locale、Accept-Language 的顺序解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return defaultLocale
	}
	if locale := normalizeLocale(c.GetHeader("X-Locale")); locale != "" {
		return locale
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if locale := normalizeLocale(tag); locale != "" {
			return locale
		}
	}
	return defaultLocale
}

func normalizeLocale(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case tag == "":
		return ""
	case tag == "zh-tw" || tag == "zh-hk" || strings.HasPrefix(tag, "zh-hant"):
		return LocaleTW
	case strings.HasPrefix(tag, "zh"):
		return LocaleZH
	case strings.HasPrefix(tag, "en"):
		return LocaleEN
	default:
		return ""
	}
}

// T 翻译，缺失时回退到简体中文，再回退到 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
