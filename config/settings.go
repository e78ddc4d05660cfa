package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings is the persisted service configuration.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	TMDB     TMDBSettings     `json:"tmdb"`
	Cache    CacheSettings    `json:"cache"`
	Database DatabaseSettings `json:"database"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type TMDBSettings struct {
	APIKey   string `json:"apiKey"`
	Language string `json:"language"`
}

type CacheSettings struct {
	Directory        string `json:"directory"`
	DetailTTLMinutes int    `json:"detailTtlMinutes"`
	ListTTLMinutes   int    `json:"listTtlMinutes"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

type LogConfig struct {
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration used when no settings file
// exists yet.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8080,
		},
		TMDB: TMDBSettings{
			Language: "en-US",
		},
		Cache: CacheSettings{
			Directory:        "data/cache",
			DetailTTLMinutes: 60,
			ListTTLMinutes:   10,
		},
		Database: DatabaseSettings{
			Path: "data/watchdeck.db",
		},
		Log: LogConfig{
			Directory:  "data/logs",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing. The
// TMDB_API_KEY environment variable overrides the stored key so the secret
// can be kept out of the settings file.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return applyEnvOverrides(defaults), nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	s := DefaultSettings()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		s.Server.Port = DefaultSettings().Server.Port
	}
	if s.Cache.DetailTTLMinutes <= 0 {
		s.Cache.DetailTTLMinutes = DefaultSettings().Cache.DetailTTLMinutes
	}
	if s.Cache.ListTTLMinutes <= 0 {
		s.Cache.ListTTLMinutes = DefaultSettings().Cache.ListTTLMinutes
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = DefaultSettings().Database.Path
	}

	return applyEnvOverrides(s), nil
}

func applyEnvOverrides(s Settings) Settings {
	if key := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); key != "" {
		s.TMDB.APIKey = key
	}
	return s
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
