package services

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	// Only allow digits, spaces, +, -, (, )
	rePhoneAllowed = regexp.MustCompile(`^[0-9+\-\s\(\)]+$`)
)

// NormEmail lowercases and validates an email address. Empty is ok: email is
// optional on patient records (such patients are simply skipped by the
// reminder dispatcher).
func NormEmail(s string) (string, bool) {
	e := strings.TrimSpace(strings.ToLower(s))
	if e == "" {
		return "", true
	}
	_, err := mail.ParseAddress(e)
	return e, err == nil
}

// NormPhone strips separators from a phone number and converts an
// international 00 prefix to +. Returns "" when the input contains anything
// that cannot appear in a phone number.
func NormPhone(p string) string {
	s := strings.TrimSpace(p)
	if s == "" {
		return ""
	}
	if reLetters.MatchString(s) || !rePhoneAllowed.MatchString(s) {
		return ""
	}

	repl := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\n", "", "\r", "")
	s = repl.Replace(s)

	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	return s
}
