package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	settingsDirName  = ".ascendant_vision_ai_platform"
	settingsFileName = "settings.json"
)

// Settings is the persisted user document. Keys are stable: external tools
// and older installs read this file, so the field set only grows.
type Settings struct {
	APIKey        string   `json:"api_key"`
	Hotkeys       []string `json:"hotkeys"`
	Model         string   `json:"model,omitempty"`
	ConfidenceMin float64  `json:"confidence_min,omitempty"`
}

// Store reads and writes the settings document at a fixed path. Saves are
// wholesale: the file is rewritten with the full document every time.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

func (s *Store) Path() string { return s.path }

// DefaultSettingsPath is the per-user settings location,
// ~/.ascendant_vision_ai_platform/settings.json.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, settingsDirName, settingsFileName), nil
}

// Load reads the settings document. A missing file is not an error: it
// returns zero Settings so callers fall back to environment and defaults.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var st Settings
	if err := json.Unmarshal(data, &st); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return st, nil
}

// Save overwrites the settings file with st, creating the parent directory
// on first use. The file stays plaintext owner-readable.
func (s *Store) Save(st Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
