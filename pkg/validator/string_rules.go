package validator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// MaxLenString counts bytes, matching storage column limits.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max)},
	}
}

func MinLenString(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= min
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters long", min)},
	}
}

// PrintableString rejects invalid UTF-8 and control characters.
func PrintableString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if !utf8.ValidString(value) {
				return false
			}
			for _, r := range value {
				if !unicode.IsPrint(r) {
					return false
				}
			}
			return true
		},
		Error: ValidationError{Field: field, Message: "must contain only printable characters"},
	}
}

// When applies rules only if cond holds.
func When(cond bool, rules ...Rule) []Rule {
	if !cond {
		return nil
	}
	return rules
}
