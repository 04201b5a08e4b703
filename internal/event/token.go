package event

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Token is one generation of an event's QR token. Tokens are never edited
// or deleted; a refresh appends the next generation and revokes this one.
type Token struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	Value      string     `json:"value"`
	Generation int        `json:"generation"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether this token is the current generation.
func (t Token) Active() bool {
	return t.RevokedAt == nil
}

// NewValue returns a crypto-random URL-safe token string. The value is
// opaque; everything about the event is resolved server side.
func NewValue(nBytes int) (string, error) {
	if nBytes < 16 {
		nBytes = 16
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
