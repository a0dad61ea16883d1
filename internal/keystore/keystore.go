// Package keystore persists provider API keys in a local JSON config file
// so interactive users configure credentials once.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	configDirName  = ".specforge"
	configFileName = "config.json"
)

type Config struct {
	APIKeys map[string]string `json:"api_keys"`
}

// Store reads and writes the config file under baseDir (the working
// directory by default).
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) path() string {
	return filepath.Join(s.baseDir, configDirName, configFileName)
}

// Load reads the config, returning an empty config when the file is
// missing or unreadable.
func (s *Store) Load() Config {
	cfg := Config{APIKeys: map[string]string{}}
	raw, err := os.ReadFile(s.path())
	if err != nil {
		return cfg
	}
	var parsed Config
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return cfg
	}
	if parsed.APIKeys == nil {
		parsed.APIKeys = map[string]string{}
	}
	return parsed
}

func (s *Store) Save(cfg Config) error {
	path := s.path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o600)
}

// SetAPIKey stores the key for providerName.
func (s *Store) SetAPIKey(providerName, apiKey string) error {
	cfg := s.Load()
	cfg.APIKeys[providerName] = apiKey
	return s.Save(cfg)
}

// APIKey returns the stored key for providerName, or "".
func (s *Store) APIKey(providerName string) string {
	return s.Load().APIKeys[providerName]
}

// Providers returns the provider names with stored keys, sorted.
func (s *Store) Providers() []string {
	cfg := s.Load()
	names := make([]string, 0, len(cfg.APIKeys))
	for name := range cfg.APIKeys {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidKeyFormat applies the minimal well-formedness check used before a
// key is persisted.
func ValidKeyFormat(providerName, apiKey string) bool {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return false
	}
	switch providerName {
	case "openai":
		return strings.HasPrefix(key, "sk-")
	case "anthropic":
		return strings.HasPrefix(key, "sk-ant-") || strings.HasPrefix(key, "sk-")
	default:
		return false
	}
}
