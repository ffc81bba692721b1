// Package validate holds the request-parameter validators. Handlers apply
// these to query parameters before any flow logic runs; a failed match is a
// 400 with the offending parameter named.
package validate

import (
	"regexp"
	"strings"
)

var (
	// Email matches conventional addresses (user@domain.tld).
	Email = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

	// Name allows latin and cyrillic letters, 3 to 50 characters, no spaces
	// or punctuation.
	Name = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁіІїЇєЄґҐ]{3,50}$`)

	// CaptchaAnswer matches integers 1..1000.
	CaptchaAnswer = regexp.MustCompile(`^(?:[1-9][0-9]{0,2}|1000)$`)

	// RemovalReason requires 10 to 255 characters.
	RemovalReason = regexp.MustCompile(`^.{10,255}$`)

	// UUID4 matches canonical uuid4 strings.
	UUID4 = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

	// APIKeyName matches a short printable label.
	APIKeyName = regexp.MustCompile(`^[a-zA-Z0-9 _.-]{1,100}$`)

	// APIKeyDomains matches a comma-separated hostname list.
	APIKeyDomains = regexp.MustCompile(`^[a-zA-Z0-9.*-]+(?:,[a-zA-Z0-9.*-]+)*$`)

	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
)

// Password enforces the complexity policy: at least 8 characters drawn from
// letters, digits, and @$!%*?&, with at least one uppercase, one lowercase,
// one digit, and one special character. Go's regexp has no lookahead, so the
// class requirements are explicit checks.
func Password(s string) bool {
	if !passwordCharset.MatchString(s) {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
			special = true
		}
	}
	return upper && lower && digit && special
}
