package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/models"

	"github.com/shopspring/decimal"
)

const (
	notificationTimeLayout = "2006年01月02日 15:04"
	notificationDateLayout = "2006年01月02日"
	notificationEmptyValue = "-"
)

// templateFieldLimits 订阅消息各字段类型的最大字符数
var templateFieldLimits = map[string]int{
	"thing":            20,
	"name":             10,
	"phrase":           5,
	"character_string": 32,
	"letter":           32,
	"symbol":           5,
	"car_number":       8,
	"phone_number":     17,
	"number":           32,
	"amount":           32,
}

// BuildTemplateParams 按字段映射从业务载荷构造模板参数
func BuildTemplateParams(fields []config.NotificationFieldConfig, payload models.JSON, loc *time.Location) map[string]string {
	if loc == nil {
		loc = time.Local
	}
	params := make(map[string]string, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}
		raw := payloadString(payload, field.Source)
		params[key] = formatTemplateValue(strings.ToLower(strings.TrimSpace(field.Class)), raw, loc)
	}
	return params
}

func formatTemplateValue(class, raw string, loc *time.Location) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return notificationEmptyValue
	}
	switch class {
	case "time":
		if t, ok := parsePayloadTime(raw); ok {
			return t.In(loc).Format(notificationTimeLayout)
		}
		return truncateRunes(raw, 32)
	case "date":
		if t, ok := parsePayloadTime(raw); ok {
			return t.In(loc).Format(notificationDateLayout)
		}
		return truncateRunes(raw, 32)
	case "amount":
		if amount, err := decimal.NewFromString(raw); err == nil {
			raw = "¥" + amount.StringFixed(2)
		}
		return truncateRunes(raw, templateFieldLimits[class])
	}
	limit, ok := templateFieldLimits[class]
	if !ok {
		limit = templateFieldLimits["thing"]
	}
	return truncateRunes(raw, limit)
}

func payloadString(payload models.JSON, source string) string {
	source = strings.TrimSpace(source)
	if payload == nil || source == "" {
		return ""
	}
	value, ok := payload[source]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(time.RFC3339)
	case []string:
		return strings.Join(v, "、")
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "、")
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return fmt.Sprint(v)
	}
}

func parsePayloadTime(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// truncateRunes 超长时保留前 limit-1 个字符并追加省略号
func truncateRunes(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}
