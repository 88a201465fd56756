package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// SanitizeInput strips HTML tags from user-entered lookups.
func SanitizeInput(input string) string {
	return htmlTag.ReplaceAllString(input, "")
}

// IsGmail reports whether the address uses the only domain the backend mails to.
func IsGmail(email string) bool {
	return strings.HasSuffix(strings.TrimSpace(email), "@gmail.com")
}

const passwordSpecials = `!@#~$%^&*(),.?":{}|<>`

// PasswordProblem returns the first rule the password breaks, or "".
func PasswordProblem(password string) string {
	if len(password) < 8 {
		return "Password must have at least 8 characters."
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
		if strings.ContainsRune(passwordSpecials, r) {
			special = true
		}
	}
	switch {
	case !upper:
		return "Password must have at least one capital letter."
	case !lower:
		return "Password must have at least one lowercase letter."
	case !digit:
		return "The password must have at least one number."
	case !special:
		return "Password must have at least one special character."
	}
	return ""
}
