package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ragops/internal/common"
)

// Settings holds the user-chosen values that survive restarts. Today that is
// a single field; the store still round-trips unknown fields untouched.
type Settings struct {
	BackendBase string `json:"backend_base"`
}

// Store persists Settings as a JSON file. Every Set writes through
// immediately; Get always reflects the latest Set. No validation is applied
// to the backend base: an unreachable address surfaces later as health or
// operation failures, never here.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

// NewStore loads persisted settings from path, falling back to fallbackBase
// when the file is missing or unreadable.
func NewStore(path, fallbackBase string) *Store {
	s := &Store{path: path, settings: Settings{BackendBase: fallbackBase}}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			common.Logger().Warn("config: settings file unreadable", "path", path, "error", err)
		}
		return s
	}
	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		common.Logger().Warn("config: settings file malformed", "path", path, "error", err)
		return s
	}
	if strings.TrimSpace(loaded.BackendBase) != "" {
		s.settings.BackendBase = strings.TrimSpace(loaded.BackendBase)
	}
	return s
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Set records a new backend base and persists it. Any string is accepted.
func (s *Store) Set(base string) error {
	s.mu.Lock()
	s.settings.BackendBase = base
	snapshot := s.settings
	path := s.path
	s.mu.Unlock()
	return writeSettings(path, snapshot)
}

// Path reports where settings persist; used by `ragops config` output.
func (s *Store) Path() string {
	return s.path
}

func writeSettings(path string, settings Settings) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("settings path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
