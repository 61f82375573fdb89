package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ToDecimal converts a loosely formatted cell value to a decimal.
// Quotes and thousands separators are removed before parsing; anything that
// still does not parse yields zero.
func ToDecimal(v any) decimal.Decimal {
	d, _ := parseDecimal(v)
	return d
}

// parseDecimal is ToDecimal that also reports whether the value was read as a
// number. Blank cells are not failures: they are zero by definition.
func parseDecimal(v any) (decimal.Decimal, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}

	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}

	d, err := decimal.NewFromString(normalizeSign(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// normalizeSign rewrites accounting negatives "(12)" and trailing signs
// "12-" or "12+" into a leading sign.
func normalizeSign(s string) string {
	if len(s) > 2 && s[0] == '(' && s[len(s)-1] == ')' {
		return "-" + strings.TrimSpace(s[1:len(s)-1])
	}
	if n := len(s); n > 1 && (s[n-1] == '-' || s[n-1] == '+') {
		body := strings.TrimSpace(s[:n-1])
		if body != "" && body[0] != '-' && body[0] != '+' {
			return string(s[n-1]) + body
		}
	}
	return s
}
