package domain

import "time"

// Source records where a User came from, so a guest placeholder and a
// server profile can be told apart.
type Source string

const (
	SourceRemote      Source = "remote"
	SourceCache       Source = "cache"
	SourceTokenClaims Source = "token_claims"
	SourceGuest       Source = "guest"
	SourceLocalEdit   Source = "local_edit"
)

const (
	GuestID    = "temp-id"
	GuestName  = "Guest User"
	GuestEmail = "guest@example.com"

	ClaimsDefaultName  = "User"
	ClaimsDefaultEmail = "user@example.com"
)

type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinDate time.Time `json:"joinDate"`

	Source     Source    `json:"source,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt,omitzero"`
}

// Authoritative reports whether the record was confirmed by the server.
func (u User) Authoritative() bool {
	return u.Source == SourceRemote
}

// ProfilePatch holds editable profile fields. Empty fields are left alone.
type ProfilePatch struct {
	Name string `json:"name,omitempty"`
}

// Apply merges the patch onto u. Only the display name is merged locally.
func (p ProfilePatch) Apply(u User) User {
	if p.Name != "" {
		u.Name = p.Name
	}
	return u
}
