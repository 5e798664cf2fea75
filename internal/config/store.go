// Package config persists tool settings in the OS user config dir,
// guarded by a file lock so concurrent invocations cannot clobber each
// other.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

const SettingsVersion = 1

// Settings are the persisted knobs of the transcript builder.
type Settings struct {
	Version int `json:"version"`

	// PreviewChars caps message and tool previews in simple transcripts.
	PreviewChars int `json:"previewChars"`
	// PayloadChars caps tool payload dumps in extended transcripts.
	PayloadChars int `json:"payloadChars"`
	// IncludeSystem keeps system messages in simple transcripts.
	IncludeSystem bool `json:"includeSystem"`
	// CompressRaw stores the raw session copy xz-compressed.
	CompressRaw bool `json:"compressRaw"`
	// DelegationPhrases drive the legacy subagent heuristic.
	DelegationPhrases []string `json:"delegationPhrases,omitempty"`
	// OutputDir is the default transcript destination.
	OutputDir string `json:"outputDir,omitempty"`
}

// DefaultSettings returns the shipped defaults.
func DefaultSettings() Settings {
	return Settings{
		Version:      SettingsVersion,
		PreviewChars: 500,
		PayloadChars: 4000,
	}
}

func (s Settings) withDefaults() Settings {
	if s.Version == 0 {
		s.Version = SettingsVersion
	}
	if s.PreviewChars <= 0 {
		s.PreviewChars = 500
	}
	if s.PayloadChars <= 0 {
		s.PayloadChars = 4000
	}
	return s
}

// DefaultPath is the settings file location under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "claude-transcripts", "config.json"), nil
}

// Store reads and writes the settings file.
type Store struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewStore opens a store at pathOverride, or the default location when
// it is empty.
func NewStore(pathOverride string) (*Store, error) {
	path := pathOverride
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted settings, defaults when the file is absent.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return Settings{}, fmt.Errorf("lock settings: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return s.loadUnlocked()
}

// Update applies fn to the current settings and persists the result
// under the same lock.
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock settings: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	settings, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	if err := fn(&settings); err != nil {
		return err
	}
	return s.saveUnlocked(settings)
}

func (s *Store) loadUnlocked() (Settings, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(b, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	settings = settings.withDefaults()
	if settings.Version != SettingsVersion {
		return Settings{}, fmt.Errorf("unsupported settings version %d (expected %d)", settings.Version, SettingsVersion)
	}
	return settings, nil
}

func (s *Store) saveUnlocked(settings Settings) error {
	settings = settings.withDefaults()
	if settings.Version != SettingsVersion {
		return fmt.Errorf("refuse to write settings version %d (expected %d)", settings.Version, SettingsVersion)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	b, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	b = append(b, '\n')

	if err := atomicWriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("atomic write settings: %w", err)
	}
	return nil
}
