package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	MaxSQLLength    = 500
	MaxRedisLength  = 100
	MaxObjectLength = 150
	// MaxResumeLength 简历正文只保留开头结尾
	MaxResumeLength = 150
)

// 属性名包含这些关键字时值需要掩码
var sensitiveKeywords = []string{
	"email", "phone", "password", "name", "姓名", "address", "地址", "secret", "token", "api_key",
}

// SafeAttributeValue 敏感字段掩码，其余超长截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerName, keyword) {
			if strings.Contains(lowerName, "email") {
				return MaskEmail(value)
			}
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾字符
// "张三" -> "张*"，"王小明" -> "王*明"，"5551234567" -> "55******67"
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)
	switch {
	case length <= 1:
		return "*"
	case length == 2:
		return string(runes[0:1]) + "*"
	case length <= 4:
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}
	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// MaskEmail 只掩码@前的部分，"john@example.com" -> "j**n@example.com"
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskPII(email)
	}
	return MaskPII(email[:at]) + email[at:]
}

// TruncateString 超长时保留前后两段，中间用...连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}
