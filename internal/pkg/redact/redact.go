// redact — маскирование чувствительных значений перед записью в логи.
package redact

import "strings"

// Email маскирует локальную часть адреса: "user@example.com" → "us***@example.com".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Phone оставляет только последние две цифры: "+33612345678" → "***78".
func Phone(s string) string {
	if len(s) <= 2 {
		return "***"
	}

	return "***" + s[len(s)-2:]
}

// Identifier маскирует идентификатор входа (email или телефон).
func Identifier(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}

	return Phone(s)
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
