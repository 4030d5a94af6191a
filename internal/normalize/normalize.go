// Package normalize canonicalizes raw feed values: electronic-mail
// addresses, EIN-style organization identifiers, and mail domains.
package normalize

import (
	"regexp"
	"strings"
)

// emailRe is deliberately conservative: local part, "@", a dotted
// domain, and a 2+ letter top-level segment. Syntactic check only, no
// DNS or deliverability validation.
var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

var nonDigitRe = regexp.MustCompile(`\D`)

// Email trims and lower-cases a raw address and returns it when it
// passes the syntactic check, or "" otherwise.
func Email(raw string) string {
	e := strings.ToLower(strings.TrimSpace(raw))
	if emailRe.MatchString(e) {
		return e
	}
	return ""
}

// EIN canonicalizes an organization identifier. Exactly nine digits
// (regardless of punctuation or spacing) reformat to "DD-DDDDDDD".
// Anything else passes through trimmed and unchanged; other shapes are
// tolerated rather than rejected. Empty input stays empty.
func EIN(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(s, "")
	if len(digits) == 9 {
		return digits[:2] + "-" + digits[2:]
	}
	return s
}

// Domain returns the portion after the last "@" of a normalized email,
// or "" when the input is not a normalized email.
func Domain(email string) string {
	e := Email(email)
	if e == "" {
		return ""
	}
	return e[strings.LastIndex(e, "@")+1:]
}
