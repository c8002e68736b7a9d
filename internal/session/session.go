// Package session stores the per-role access/refresh token pairs on the
// client. It is a pure storage boundary: no network calls, no validation of
// token contents.
package session

import (
	"errors"
	"time"
)

// Sentinel errors
var (
	// ErrNoSession is returned when no session is stored for a role.
	ErrNoSession = errors.New("no session stored")

	// ErrInvalidRole is returned for a role outside user/admin.
	ErrInvalidRole = errors.New("invalid role")
)

// Role scopes a stored session. A user session and an admin session coexist
// under distinct keys and never collide.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known scopes.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Session is the access+refresh token pair for one authenticated identity.
type Session struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// state is the persisted document shared by all backends.
type state struct {
	Version  int              `json:"version"`
	DeviceID string           `json:"device_id"`
	Sessions map[Role]Session `json:"sessions"`
}

func newState() *state {
	return &state{
		Version:  1,
		Sessions: make(map[Role]Session),
	}
}

// Backend loads and saves the persisted state. Implementations do not need
// to be safe for concurrent use; Store serializes access.
type Backend interface {
	Load() (*state, error)
	Save(*state) error
}
