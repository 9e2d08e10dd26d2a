package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// expiryRe — допустимый формат TTL: целое число и единица измерения.
var expiryRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseExpiry разбирает срок действия токена вида "<целое><s|m|h|d>"
// (секунды/минуты/часы/дни): "900s", "15m", "12h", "7d".
// Нулевые и нераспознанные значения считаются ошибкой конфигурации.
func ParseExpiry(s string) (time.Duration, error) {
	m := expiryRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("malformed expiry %q (want <int><s|m|h|d>)", s)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed expiry %q: %w", s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("zero expiry %q", s)
	}

	switch m[2] {
	case "s":
		return time.Duration(n) * time.Second, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	default: // "d"
		return time.Duration(n) * 24 * time.Hour, nil
	}
}
