package interview

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoMatch is returned when the input does not contain a value of the expected shape.
	ErrNoMatch = errors.New("no match")
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("empty input")
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
	maxYears       = 50
)

var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+?\(?\d[\d\s().\-]*\d`)
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	wordPattern   = regexp.MustCompile(`[A-Za-z]+`)
	stackSplitter = regexp.MustCompile(`(?i)\s*(?:,|;|\n|&|\band\b)\s*`)
)

var spelledNumbers = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

// Extract parses raw user text into a value for the given field. Errors wrap
// ErrEmpty or ErrNoMatch.
func Extract(field Field, raw string) (Value, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Value{}, fmt.Errorf("%s: %w", field, ErrEmpty)
	}

	switch field {
	case FieldEmail:
		return extractEmail(text)
	case FieldPhone:
		return extractPhone(text)
	case FieldExperienceYears:
		return extractYears(text)
	case FieldTechStack:
		return extractStack(text)
	case FieldFullName, FieldLocation, FieldDesiredPositions:
		return TextValue(text), nil
	default:
		return Value{}, fmt.Errorf("unsupported field %q", field)
	}
}

func extractEmail(text string) (Value, error) {
	match := emailPattern.FindString(text)
	if match == "" {
		return Value{}, fmt.Errorf("%s: %w", FieldEmail, ErrNoMatch)
	}
	match = strings.TrimRight(match, ".")
	return TextValue(strings.ToLower(match)), nil
}

func extractPhone(text string) (Value, error) {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		digits := onlyDigits(candidate)
		if len(digits) >= minPhoneDigits && len(digits) <= maxPhoneDigits {
			return TextValue(digits), nil
		}
	}
	return Value{}, fmt.Errorf("%s: %w", FieldPhone, ErrNoMatch)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractYears(text string) (Value, error) {
	years := -1

	if match := numberPattern.FindString(text); match != "" {
		f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
		if err == nil {
			years = int(math.Floor(f))
		}
	} else {
		for _, word := range wordPattern.FindAllString(text, -1) {
			if n, ok := spelledNumbers[strings.ToLower(word)]; ok {
				years = n
				break
			}
		}
	}

	if years < 0 || years > maxYears {
		return Value{}, fmt.Errorf("%s: %w", FieldExperienceYears, ErrNoMatch)
	}
	return NumberValue(years), nil
}

func extractStack(text string) (Value, error) {
	parts := stackSplitter.Split(text, -1)
	seen := make(map[string]struct{}, len(parts))
	items := make([]string, 0, len(parts))

	for _, part := range parts {
		item := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(part), "."))
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}

	if len(items) == 0 {
		return Value{}, fmt.Errorf("%s: %w", FieldTechStack, ErrEmpty)
	}
	return SetValue(items), nil
}

// LooksLikeQuestion reports whether the candidate asked something instead of answering.
func LooksLikeQuestion(raw string) bool {
	text := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasSuffix(text, "?") {
		return true
	}
	for _, prefix := range []string{"what ", "why ", "how ", "when ", "where ", "who ", "can you ", "could you "} {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}
