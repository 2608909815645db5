package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the daemon's on-disk configuration, stored as JSON at
// ~/.config/voxkey/config.json. Everything except the API key has a
// usable default.
type Config struct {
	API       APIConfig      `json:"api"`
	Languages LanguageConfig `json:"languages"`
	Hotkey    HotkeyConfig   `json:"hotkey"`
	Audio     AudioConfig    `json:"audio"`
	UI        UIConfig       `json:"ui"`
	Behavior  BehaviorConfig `json:"behavior"`
}

type APIConfig struct {
	Key      string `json:"key"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
}

type LanguageConfig struct {
	AutoDetect bool   `json:"auto_detect"`
	Primary    string `json:"primary"`
}

type HotkeyConfig struct {
	// Key names the trigger key, e.g. "f24" (the default, expected to be
	// remapped from a chord by keyd or similar) or "f9".
	Key string `json:"key"`
}

type AudioConfig struct {
	SampleRate   int `json:"sample_rate"`
	Channels     int `json:"channels"`
	ChunkSize    int `json:"chunk_size"`
	MaxDurationS int `json:"max_duration_s"`
}

type UIConfig struct {
	Theme    string `json:"theme"`
	Position string `json:"position"`
}

type BehaviorConfig struct {
	AutoPaste        bool `json:"auto_paste"`
	CopyToClipboard  bool `json:"copy_to_clipboard"`
	ShowNotification bool `json:"show_notification"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			Endpoint: "https://api.groq.com/openai/v1/audio/transcriptions",
			Model:    "whisper-large-v3-turbo",
		},
		Languages: LanguageConfig{
			AutoDetect: true,
			Primary:    "en",
		},
		Hotkey: HotkeyConfig{Key: "f24"},
		Audio: AudioConfig{
			SampleRate:   16000,
			Channels:     1,
			ChunkSize:    2048,
			MaxDurationS: 30,
		},
		UI: UIConfig{
			Theme:    "dark",
			Position: "top-center",
		},
		Behavior: BehaviorConfig{
			AutoPaste:       true,
			CopyToClipboard: true,
		},
	}
}

// DefaultPath returns ~/.config/voxkey/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "voxkey", "config.json"), nil
}

// Load reads the config at path, writing a default file first if none
// exists. Unknown fields are ignored; missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := Save(path, cfg); werr != nil {
			return cfg, fmt.Errorf("writing default config: %w", werr)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes cfg as indented JSON, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// APIKey resolves the key: VOXKEY_API_KEY, then GROQ_API_KEY, then the file.
func (c Config) APIKey() string {
	if k := os.Getenv("VOXKEY_API_KEY"); k != "" {
		return k
	}
	if k := os.Getenv("GROQ_API_KEY"); k != "" {
		return k
	}
	return c.API.Key
}

// Language returns the language hint for transcription requests,
// empty when auto-detection is on.
func (c Config) Language() string {
	if c.Languages.AutoDetect {
		return ""
	}
	return c.Languages.Primary
}

func (c *Config) normalize() {
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.ChunkSize <= 0 {
		c.Audio.ChunkSize = 2048
	}
	if c.Audio.MaxDurationS <= 0 {
		c.Audio.MaxDurationS = 30
	}
	if c.Hotkey.Key == "" {
		c.Hotkey.Key = "f24"
	}
	if c.API.Endpoint == "" {
		c.API.Endpoint = Default().API.Endpoint
	}
	if c.API.Model == "" {
		c.API.Model = Default().API.Model
	}
}
