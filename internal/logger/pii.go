package logger

import (
	"regexp"
	"strings"
)

// MaskEmail hides the local part of an address except for its first two
// characters: "john@example.com" becomes "jo***@example.com".
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return maskAll(email)
	}

	local, domain := email[:at], email[at+1:]
	visible := 2
	if len(local) < visible {
		visible = len(local)
	}
	return local[:visible] + "***@" + domain
}

// MaskPhone keeps only the last four digits.
func MaskPhone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return maskAll(phone)
	}
	return "***-***-" + string(digits[len(digits)-4:])
}

var (
	emailInText = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneInText = regexp.MustCompile(`\+?\d[\d\s().\-]{8,}\d`)
)

// MaskText masks email addresses and phone numbers found in free text.
func MaskText(text string) string {
	text = emailInText.ReplaceAllStringFunc(text, MaskEmail)
	return phoneInText.ReplaceAllStringFunc(text, func(candidate string) string {
		digits := 0
		for _, r := range candidate {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 10 {
			return candidate
		}
		return MaskPhone(candidate)
	})
}

func maskAll(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
