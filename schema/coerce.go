package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseInt reads a leading integer from s. Leading whitespace and a sign
// are accepted, and a 0x or 0X prefix switches to base 16. Anything after
// the digits is ignored, so "12.7" is 12 and "139750 USD" is 139750. A
// value without leading digits is an error, as is one that overflows int.
func ParseInt(s string) (int, error) {
	t := strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := ""
	if t != "" && (t[0] == '+' || t[0] == '-') {
		sign, t = t[:1], t[1:]
	}
	base, isDigit := 10, isDecimal
	if len(t) > 1 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X') {
		base, isDigit, t = 16, isHex, t[2:]
	}
	end := 0
	for end < len(t) && isDigit(t[end]) {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("parse int %q: no leading digits", s)
	}
	n, err := strconv.ParseInt(sign+t[:end], base, strconv.IntSize)
	if err != nil {
		return 0, fmt.Errorf("parse int %q: %w", s, err)
	}
	return int(n), nil
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Coerce converts a raw column value according to c.
func Coerce(raw string, c Coercion) (float64, error) {
	switch c {
	case CoerceInt:
		n, err := ParseInt(raw)
		return float64(n), err
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, fmt.Errorf("parse float %q: %w", raw, err)
		}
		return f, nil
	}
}
