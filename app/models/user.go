package models

import (
	"strings"
	"time"
)

// Validate checks the user's identity fields.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// BeforeCreate stamps the join date.
func (u *User) BeforeCreate() {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now()
	}
}

// FullName returns "First Last", falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Is reports whether u and other are the same account.
func (u *User) Is(other *User) bool {
	return u != nil && other != nil && u.ID != 0 && u.ID == other.ID
}

// Validate checks the group's title and slug.
func (g *Group) Validate() error {
	return validate.Struct(g)
}

// Validate checks the flat page URL shape.
func (p *FlatPage) Validate() error {
	return validate.Struct(p)
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
