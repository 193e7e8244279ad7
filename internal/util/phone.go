package util

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeE164 normalizes a contact phone to +<digits>. Common separators
// (spaces, dashes, dots, parentheses) are dropped; anything else is rejected.
func NormalizeE164(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("phone is required")
	}
	if strings.Count(s, "+") > 1 || (strings.Contains(s, "+") && s[0] != '+') {
		return "", fmt.Errorf("phone has a misplaced '+'")
	}

	digits := make([]rune, 0, len(s))
	for _, r := range strings.TrimPrefix(s, "+") {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
			continue
		}
		switch r {
		case ' ', '-', '.', '(', ')':
			continue
		default:
			return "", fmt.Errorf("phone contains invalid characters")
		}
	}

	if len(digits) < 8 || len(digits) > 15 {
		return "", fmt.Errorf("phone must have 8 to 15 digits")
	}
	return "+" + string(digits), nil
}
