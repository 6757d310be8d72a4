package models

import "time"

// Session is a server-side login session keyed by an opaque cookie token.
type Session struct {
	ID        string    `json:"id"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}
