package privacy

import (
	"strings"

	"smsrelay/internal/constants"
)

// MaskPhoneNumber masks a phone number showing only the last 4 digits
// Example: "+1234567890" -> "+******7890"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	keep := constants.DefaultPhoneMaskLength

	if strings.HasPrefix(phone, "+") {
		if len(phone) <= keep+1 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-keep-1) + phone[len(phone)-keep:]
	}

	return maskString(phone, keep)
}

// MaskHandle masks a Telegram handle while keeping it recognizable
// Example: "@alice_smith" -> "@a********th"
func MaskHandle(handle string) string {
	if handle == "" {
		return ""
	}

	bare := strings.TrimPrefix(handle, "@")
	prefix := ""
	if bare != handle {
		prefix = "@"
	}

	if len(bare) <= 3 {
		return prefix + strings.Repeat("*", len(bare))
	}
	return prefix + bare[:1] + strings.Repeat("*", len(bare)-3) + bare[len(bare)-2:]
}

// MaskToken masks an API token showing only the last 4 characters. Bot
// tokens must never appear whole in log output.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	return maskString(token, constants.DefaultTokenMaskLength)
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{})
	for k, v := range fields {
		s, isString := v.(string)
		if !isString {
			masked[k] = v
			continue
		}

		switch k {
		case "sender", "phone", "phone_number", "from":
			masked[k] = MaskPhoneNumber(s)
		case "handle", "tg_handle", "username":
			masked[k] = MaskHandle(s)
		case "token", "api_token", "bot_token":
			masked[k] = MaskToken(s)
		default:
			masked[k] = v
		}
	}

	return masked
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}
