package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server      ServerSettings      `json:"server"`
	Database    DatabaseSettings    `json:"database"`
	Auth        AuthSettings        `json:"auth"`
	TMDB        TMDBSettings        `json:"tmdb"`
	Recommender RecommenderSettings `json:"recommender"`
	Log         LogSettings         `json:"log"`
}

type ServerSettings struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ClientOrigin string `json:"clientOrigin"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

type AuthSettings struct {
	// JWTSecret is generated and persisted on first run when empty.
	JWTSecret      string `json:"jwtSecret"`
	GoogleClientID string `json:"googleClientId"`
	TokenTTLHours  int    `json:"tokenTtlHours"`
}

type TMDBSettings struct {
	APIKey   string `json:"apiKey"`
	Language string `json:"language"`
}

type RecommenderSettings struct {
	URL string `json:"url"`
}

type LogSettings struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxBackups int    `json:"maxBackups"`
	MaxAge     int    `json:"maxAge"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first run.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host:         "0.0.0.0",
			Port:         4000,
			ClientOrigin: "http://localhost:5173",
		},
		Database: DatabaseSettings{
			Path: filepath.Join("cache", "cinetrack.db"),
		},
		Auth: AuthSettings{
			TokenTTLHours: 6,
		},
		TMDB: TMDBSettings{
			Language: "en-US",
		},
		Recommender: RecommenderSettings{
			URL: "http://127.0.0.1:8001",
		},
		Log: LogSettings{
			File:       filepath.Join("cache", "logs", "cinetrack.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file. The filesystem is
// abstracted so tests can run against an in-memory fs.
type Manager struct {
	fs   afero.Fs
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{fs: afero.NewOsFs(), path: configPath}
}

// NewManagerWithFs is the test constructor.
func NewManagerWithFs(fsys afero.Fs, configPath string) *Manager {
	return &Manager{fs: fsys, path: configPath}
}

func (m *Manager) ensureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return m.fs.MkdirAll(dir, 0o755)
}

// Load reads the settings file, creating it with defaults when missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}

	if _, err := m.fs.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// Save writes settings to disk, creating the parent directory if needed.
func (m *Manager) Save(s Settings) error {
	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := afero.WriteFile(m.fs, m.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
