package models

import "time"

// User is the identity object returned by the remote backend. The gateway
// never derives or verifies any of these fields itself.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

// Session represents one authenticated session tracked by the gateway.
// Blob is the backend's opaque credential-session payload; it is stored and
// forwarded verbatim, never parsed or validated locally.
type Session struct {
	ID        string
	User      *User
	Blob      string
	CreatedAt time.Time
}
