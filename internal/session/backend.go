package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const configFile = "sessions.json"

// FileBackend persists sessions as JSON in a single config file.
type FileBackend struct {
	baseDir string
}

// NewFileBackend creates a file backend rooted at baseDir.
// If baseDir is empty, uses ~/.parkctl/
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".parkctl")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session file backend initialized")

	return &FileBackend{baseDir: baseDir}, nil
}

// Load reads the config file, returning a fresh state when it does not
// exist yet.
func (b *FileBackend) Load() (*state, error) {
	data, err := os.ReadFile(filepath.Join(b.baseDir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return newState(), nil
		}
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}

	if st.Sessions == nil {
		st.Sessions = make(map[Role]Session)
	}

	return &st, nil
}

// Save writes the config file atomically via a temp file and rename.
func (b *FileBackend) Save(st *state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	configPath := filepath.Join(b.baseDir, configFile)
	tempPath := configPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save sessions: %w", err)
	}

	return nil
}

// MemoryBackend keeps state in memory. Used by tests and as the injected
// storage for deterministic unit runs.
type MemoryBackend struct {
	st *state
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{st: newState()}
}

func (b *MemoryBackend) Load() (*state, error) {
	// Copy so callers can't mutate the backing map without Save.
	cp := *b.st
	cp.Sessions = make(map[Role]Session, len(b.st.Sessions))
	for k, v := range b.st.Sessions {
		cp.Sessions[k] = v
	}
	return &cp, nil
}

func (b *MemoryBackend) Save(st *state) error {
	b.st = st
	return nil
}
