// Package session tracks which file each viewer last worked with.
//
// A session remembers the content hash of the most recently processed
// upload. When the next upload in the same session has a different hash, the
// pipeline drops the cached layout of the old file; an unchanged file keeps
// its layout across re-renders.
//
// Two backends implement [Store]:
//   - [MemoryStore]: in-process storage for the HTTP server
//   - [FileStore]: JSON files for the CLI (~/.config/astra/sessions/)
//
// # Usage
//
//	sess := session.New(session.DefaultTTL)
//	previous := sess.Observe(hash, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if sess == nil {
//	    // Unknown or expired session
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidID is returned for session ids that are neither UUIDs nor the
// CLI's fixed id.
var ErrInvalidID = errors.New("invalid session id")

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session is one viewer's state between requests.
type Session struct {
	ID        string    `json:"id"`
	FileHash  string    `json:"file_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session with a random UUID that expires after ttl.
func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Observe records hash as the current file, extends the expiry by ttl and
// returns the previously recorded hash ("" for a fresh session).
func (s *Session) Observe(hash string, ttl time.Duration) (previous string) {
	previous = s.FileHash
	now := time.Now()
	s.FileHash = hash
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
	return previous
}

// ValidID reports whether id may be used as a session id.
func ValidID(id string) bool {
	if id == cliSessionID {
		return true
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}
