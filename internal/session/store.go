package session

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
)

// Store manages per-role sessions on top of an injected backend. All reads
// and writes are serialized, so a Set is atomic from a reader's perspective.
type Store struct {
	mu      sync.RWMutex
	backend Backend
}

// NewStore creates a store on the given backend and mints a device ID on
// first use.
func NewStore(backend Backend) (*Store, error) {
	s := &Store{backend: backend}

	if err := s.ensureDeviceID(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get retrieves the stored session for a role.
// Returns ErrNoSession when absent.
func (s *Store) Get(role Role) (*Session, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.backend.Load()
	if err != nil {
		return nil, err
	}

	sess, ok := st.Sessions[role]
	if !ok {
		return nil, ErrNoSession
	}

	return &sess, nil
}

// Set persists the session for a role, replacing any prior value.
func (s *Store) Set(role Role, sess Session) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if sess.Role == "" {
		sess.Role = role
	}
	if sess.Role != role {
		return fmt.Errorf("%w: session role %q does not match store key %q", ErrInvalidRole, sess.Role, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.backend.Load()
	if err != nil {
		return err
	}

	sess.UpdatedAt = time.Now().UTC()
	st.Sessions[role] = sess

	if err := s.backend.Save(st); err != nil {
		return err
	}

	log.Debug().Str("role", string(role)).Msg("session stored")

	return nil
}

// Clear removes both tokens for a role. Clearing an absent session is not
// an error.
func (s *Store) Clear(role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.backend.Load()
	if err != nil {
		return err
	}

	if _, ok := st.Sessions[role]; !ok {
		return nil
	}

	delete(st.Sessions, role)

	if err := s.backend.Save(st); err != nil {
		return err
	}

	log.Debug().Str("role", string(role)).Msg("session cleared")

	return nil
}

// DeviceID returns the stable client identifier minted on first use.
func (s *Store) DeviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.backend.Load()
	if err != nil {
		return ""
	}

	return st.DeviceID
}

func (s *Store) ensureDeviceID() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.backend.Load()
	if err != nil {
		return err
	}

	if st.DeviceID != "" {
		return nil
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate device id: %w", err)
	}
	st.DeviceID = base58.Encode(raw)

	if err := s.backend.Save(st); err != nil {
		return err
	}

	log.Debug().Str("deviceID", st.DeviceID).Msg("device id minted")

	return nil
}
