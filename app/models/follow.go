package models

import "time"

// IsSelf reports whether the edge points back at its own follower.
// Such edges are never stored.
func (f *Follow) IsSelf() bool {
	return f.UserID == f.AuthorID
}

// Validate rejects self-follows and unset endpoints.
func (f *Follow) Validate() error {
	return validate.Struct(f)
}

// BeforeCreate stamps the subscription time.
func (f *Follow) BeforeCreate() {
	if f.Created.IsZero() {
		f.Created = time.Now()
	}
}
