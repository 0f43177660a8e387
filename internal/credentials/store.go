// Package credentials persists session credentials across two named storage
// scopes: a durable scope that survives restarts and a session scope that
// lasts only until the machine's temp dir is cleared. All reads and writes go
// through the session manager; no other code touches the store directly.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Scope names one of the two credential storage areas.
type Scope string

const (
	// ScopeDurable survives process restarts.
	ScopeDurable Scope = "durable"

	// ScopeSession is cleared when the OS temp dir is, typically on reboot.
	// The CLI analog of a browser's per-tab storage.
	ScopeSession Scope = "session"
)

// Keys stored per scope. The refresh token and expiry live only in the
// durable scope so a session-only login can still renew silently.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
)

// Sentinel errors
var (
	// ErrNotFound is returned when a key is absent from a scope.
	ErrNotFound = errors.New("credential not found")

	// ErrUnknownScope is returned for a scope the store does not manage.
	ErrUnknownScope = errors.New("unknown credential scope")
)

// Store is the two-scope key-value port for credential persistence.
type Store interface {
	Get(scope Scope, key string) (string, error)
	Set(scope Scope, key, value string) error
	Delete(scope Scope, key string) error
	Clear(scope Scope) error
}

// FileStore keeps each scope in its own JSON file. The durable scope lives
// under the credentials directory (default ~/.scrumwise), the session scope
// under the OS temp dir in a directory keyed by UID and the credentials
// directory, so separate profiles never share session state.
type FileStore struct {
	mu    sync.Mutex
	paths map[Scope]string
}

// NewFileStore creates a file-backed store. If baseDir is empty it uses
// ~/.scrumwise.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".scrumwise")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	absDir, err := filepath.Abs(baseDir)
	if err != nil {
		absDir = baseDir
	}
	sessionDir := filepath.Join(os.TempDir(),
		fmt.Sprintf("scrumwise-%d-%s", os.Getuid(), Fingerprint(absDir)))
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	store := &FileStore{
		paths: map[Scope]string{
			ScopeDurable: filepath.Join(baseDir, "credentials.json"),
			ScopeSession: filepath.Join(sessionDir, "credentials.json"),
		},
	}

	log.Debug().
		Str("durable", store.paths[ScopeDurable]).
		Str("session", store.paths[ScopeSession]).
		Msg("credential store initialized")

	return store, nil
}

// Get returns the value for key in scope, or ErrNotFound.
func (s *FileStore) Get(scope Scope, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load(scope)
	if err != nil {
		return "", err
	}

	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Set writes key=value in scope.
func (s *FileStore) Set(scope Scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load(scope)
	if err != nil {
		return err
	}

	values[key] = value

	return s.save(scope, values)
}

// Delete removes key from scope. Removing an absent key is not an error.
func (s *FileStore) Delete(scope Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load(scope)
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)

	return s.save(scope, values)
}

// Clear removes every key from scope.
func (s *FileStore) Clear(scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.paths[scope]
	if !ok {
		return ErrUnknownScope
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear %s scope: %w", scope, err)
	}

	return nil
}

// load reads a scope file. A missing file is an empty scope.
func (s *FileStore) load(scope Scope) (map[string]string, error) {
	path, ok := s.paths[scope]
	if !ok {
		return nil, ErrUnknownScope
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s scope: %w", scope, err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s scope: %w", scope, err)
	}

	return values, nil
}

// save writes a scope file atomically via temp file + rename.
func (s *FileStore) save(scope Scope, values map[string]string) error {
	path := s.paths[scope]

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s scope: %w", scope, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s scope: %w", scope, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save %s scope: %w", scope, err)
	}

	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu     sync.Mutex
	scopes map[Scope]map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		scopes: map[Scope]map[string]string{
			ScopeDurable: {},
			ScopeSession: {},
		},
	}
}

// Get returns the value for key in scope, or ErrNotFound.
func (s *MemStore) Get(scope Scope, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.scopes[scope]
	if !ok {
		return "", ErrUnknownScope
	}

	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Set writes key=value in scope.
func (s *MemStore) Set(scope Scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.scopes[scope]
	if !ok {
		return ErrUnknownScope
	}

	values[key] = value
	return nil
}

// Delete removes key from scope.
func (s *MemStore) Delete(scope Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.scopes[scope]
	if !ok {
		return ErrUnknownScope
	}

	delete(values, key)
	return nil
}

// Clear removes every key from scope.
func (s *MemStore) Clear(scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scopes[scope]; !ok {
		return ErrUnknownScope
	}

	s.scopes[scope] = map[string]string{}
	return nil
}
