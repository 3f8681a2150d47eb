package storage

import (
	"errors"
	"time"

	"github.com/memestream/memestream-service/internal/types/auth"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// UserStore is the persisted user repository backing the auth surface.
type UserStore interface {
	CreateUser(username, email, passwordHash string, displayName, walletAddress *string) (*auth.User, error)
	GetUserByEmail(email string) (*auth.User, error)
	GetUserByID(userID int) (*auth.User, error)
	EmailTaken(email string) (bool, error)
	UsernameTaken(username string) (bool, error)
	// UpdateProfile overwrites only the non-nil fields and returns the
	// refreshed row.
	UpdateProfile(userID int, req auth.UpdateProfileRequest) (*auth.User, error)
	UpdateLastLogin(userID int) error
}

// SessionStore is the advisory session ledger. Writes here are best-effort at
// every call site: a failed insert must never fail a login.
type SessionStore interface {
	RecordSession(userID int, token string, expiresAt time.Time) error
	InvalidateSession(token string) error
	DeleteExpiredSessions() (int64, error)
}
