package service

import "strings"

// NormalizeEmail is the form stored in users.canonical_email. Addresses are
// compared case-insensitively; the local part is otherwise kept verbatim, so
// dotted and +tagged variants are distinct accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
