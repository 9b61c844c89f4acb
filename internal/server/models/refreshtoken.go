package models

import "time"

// RefreshToken is an opaque, server-stored token that can be exchanged once
// for a new session token. It is rotated on every use.
type RefreshToken struct {
	ID        string
	AccountID string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// Expired reports whether the token can no longer be exchanged at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}
