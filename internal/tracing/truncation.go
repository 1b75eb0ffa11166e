package tracing

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxRedisLength Redis键值最大长度
	MaxRedisLength = 100
)

// piiKeys 属性名包含这些关键字时值需要掩码
var piiKeys = []string{"email", "phone", "address", "name", "zip", "linkedin", "password", "secret", "token"}

// IsPIIKey 属性名是否指向个人敏感信息
func IsPIIKey(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range piiKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// SafeAttributeValue 敏感属性返回掩码值，其他属性超过 maxLength 时截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	if IsPIIKey(name) {
		return MaskPII(value)
	}
	return TruncateString(value, maxLength)
}

// SafeString 构造经过掩码或截断的字符串属性
func SafeString(key, value string) attribute.KeyValue {
	return attribute.String(key, SafeAttributeValue(key, value, DefaultMaxLength))
}

// CandidateAttributes 候选人姓名和主邮箱的掩码属性，空值不输出
func CandidateAttributes(firstName, lastName, email string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if name := strings.TrimSpace(firstName + " " + lastName); name != "" {
		attrs = append(attrs, SafeString("candidate.name", name))
	}
	if email != "" {
		attrs = append(attrs, SafeString("candidate.email", email))
	}
	return attrs
}

// MaskPII 保留首尾少量字符，其余替换为 *。
// 两个字符只留首字，三到四个字符留首尾各一，更长的留首尾各二。
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[:1]) + "*"
	case n <= 4:
		return string(runes[:1]) + strings.Repeat("*", n-2) + string(runes[n-1:])
	}
	return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
}

// TruncateString 截断字符串，并在截断时添加省略号
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}

	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := max((maxLength-3)/2, 1)
	// 保留前后部分，中间用...连接
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeRedisKey 安全处理Redis键
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}
