package identity

import "time"

// User represents a registered wallet owner. Identity lives with the external
// OAuth provider; this row mirrors the provider's profile. Subject is the
// provider's stable identifier and never changes; the profile fields are
// refreshed on every login.
type User struct {
	ID        string
	Subject   string
	Email     string
	Name      string
	UserType  string
	Metadata  map[string]string
	CreatedAt time.Time
	LastLogin time.Time
}

// Claims is the profile the identity provider returns from its userinfo
// endpoint after a successful authorization-code exchange.
type Claims struct {
	Subject  string
	Email    string
	Name     string
	UserType string
	Metadata map[string]string
}
