// Package settings persists alarm.Settings as a JSON file and watches that
// file for edits made outside the daemon.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/spf13/afero"
)

// FileName is the settings file name inside the config directory.
const FileName = "settings.json"

// ErrCorrupt is returned by Load when the file exists but cannot be parsed.
var ErrCorrupt = errors.New("settings file is corrupt")

// Store loads and saves settings on an afero filesystem.
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewStore returns a Store for path on fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: filepath.Clean(path)}
}

func (s *Store) Path() string { return s.path }

// Load reads the settings file. A missing file yields the defaults. Fields
// absent from the file keep their default values and every value is
// clamped. On ErrCorrupt the defaults are returned alongside the error.
func (s *Store) Load() (alarm.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := alarm.DefaultSettings()
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("read settings %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return alarm.DefaultSettings(), fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return st.Normalize(), nil
}

// Save clamps st and writes it, replacing the previous file atomically.
func (s *Store) Save(st alarm.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename settings: %w", err)
	}
	return nil
}
