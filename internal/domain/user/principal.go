package user

import "strings"

// Principal is the caller identity resolved from a bearer token.
type Principal struct {
	UserID string
	Email  string
}

// HasEmail compares case-insensitively; an empty want never matches.
func (p Principal) HasEmail(want string) bool {
	want = strings.TrimSpace(want)
	return want != "" && strings.EqualFold(strings.TrimSpace(p.Email), want)
}
