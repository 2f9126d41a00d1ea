// Package store persists user accounts and per-user transaction ledgers.
//
// Two backends implement the same contracts: a JSON-file store (one document
// per user) and a SQLite store. Ledger loads follow a silent-recovery policy:
// a missing or unreadable ledger yields an empty one rather than an error.
package store

import (
	"context"
	"errors"
	"time"

	"financas/internal/core"
)

var (
	// ErrEmailTaken is returned by CreateUser when the email is already
	// registered. Uniqueness is enforced at registration time only.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoChange can be returned by an Update callback to skip the write
	// while still releasing the lock cleanly. Update swallows it.
	ErrNoChange = errors.New("no change")
)

// User is a registered account. Password-based users carry a bcrypt hash;
// provider-based users carry a provider reference instead.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Provider     string    `json:"provider,omitempty"`
	ProviderID   string    `json:"providerId,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
}

// LedgerStore reads and writes one ledger per user.
type LedgerStore interface {
	// Load returns the user's ledger, or an empty ledger when the backing
	// data is missing or unparsable.
	Load(ctx context.Context, userID int64) (core.Ledger, error)

	// Save replaces the user's ledger. Implementations serialize writes
	// per user and replace the stored data atomically.
	Save(ctx context.Context, userID int64, ledger core.Ledger) error

	// Update runs fn on the current ledger and persists the result, all
	// under the user's lock, so concurrent read-modify-write cycles never
	// lose updates or reissue identifiers. fn may return ErrNoChange to
	// skip the write; any other error aborts without persisting.
	Update(ctx context.Context, userID int64, fn func(*core.Ledger) error) error
}

// UserStore manages registered accounts.
type UserStore interface {
	// CreateUser assigns an identifier and persists the user. Returns
	// ErrEmailTaken when the email already exists.
	CreateUser(ctx context.Context, u User) (User, error)

	// GetUserByEmail returns the user, or nil when no account matches.
	// Email matching is exact (case-sensitive as stored).
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID returns the user, or nil when no account matches.
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// Store combines both contracts behind one backend.
type Store interface {
	LedgerStore
	UserStore
	Close() error
}
