package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/notchd/internal/model"
)

// SharedState contains state that is shared between notchd and the notch CLI.
// This is persisted to ~/.local/share/notchd/state.json
type SharedState struct {
	// PreferredDisplayUUID is the stable identity of the display that hosts
	// the surface when it is not shown on all displays.
	PreferredDisplayUUID model.DisplayIdentity `json:"preferred_display_uuid,omitempty"`

	// PreferredDisplayName is the legacy name-based preference. It is
	// migrated to PreferredDisplayUUID once and then cleared.
	PreferredDisplayName string `json:"preferred_display_name,omitempty"`

	// Version for compatibility
	SchemaVersion int `json:"schema_version"` // Currently 2
}

const (
	// CurrentSchemaVersion is the current version of the state schema.
	// Version 1 only knew the name-based preference.
	CurrentSchemaVersion = 2
)

// DefaultSharedState returns a new SharedState with default values.
func DefaultSharedState() *SharedState {
	return &SharedState{SchemaVersion: CurrentSchemaVersion}
}

// StateStore reads and writes the shared state file.
type StateStore struct {
	path string
	mu   sync.RWMutex
}

// NewStateStore creates a store for the state file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string { return s.path }

// Load reads the shared state. A missing file yields the default state; a
// corrupted file is treated the same way.
func (s *StateStore) Load() (*SharedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

func (s *StateStore) load() (*SharedState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSharedState(), nil
		}
		return nil, err
	}

	var state SharedState
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultSharedState(), nil
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	return &state, nil
}

// Save writes the shared state atomically.
func (s *StateStore) Save(state *SharedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(state)
}

func (s *StateStore) save(state *SharedState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}

// Update loads the state, applies fn and saves the result under one lock.
func (s *StateStore) Update(fn func(*SharedState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	fn(state)
	state.SchemaVersion = CurrentSchemaVersion
	if err := s.save(state); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// PreferredDisplay returns the stored identity and legacy name.
func (s *StateStore) PreferredDisplay() (model.DisplayIdentity, string, error) {
	state, err := s.Load()
	if err != nil {
		return "", "", err
	}
	return state.PreferredDisplayUUID, state.PreferredDisplayName, nil
}

// MigratePreferredDisplay stores id and clears the legacy name.
func (s *StateStore) MigratePreferredDisplay(id model.DisplayIdentity) error {
	return s.Update(func(state *SharedState) {
		state.PreferredDisplayUUID = id
		state.PreferredDisplayName = ""
	})
}

// SetPreferredDisplay stores id as the preferred display. An empty id
// reverts to the primary display.
func (s *StateStore) SetPreferredDisplay(id model.DisplayIdentity) error {
	return s.Update(func(state *SharedState) {
		state.PreferredDisplayUUID = id
	})
}
