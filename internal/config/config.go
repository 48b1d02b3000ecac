// Package config loads and saves nesgo's TOML configuration file,
// grounded on arl-nestor's emu/config.go.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"nesgo/internal/logx"
)

var modConfig = logx.NewModule("config")

// InputConfig holds the host key bindings for one controller port.
type InputConfig struct {
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Left   string `toml:"left"`
	Right  string `toml:"right"`
	A      string `toml:"a"`
	B      string `toml:"b"`
	Select string `toml:"select"`
	Start  string `toml:"start"`
}

// DefaultInputConfig mirrors the default binding named in SPEC_FULL.md's
// window/input section (Arrow keys, Enter, Space, A, S).
func DefaultInputConfig() InputConfig {
	return InputConfig{
		Up: "Up", Down: "Down", Left: "Left", Right: "Right",
		A: "A", B: "S", Select: "Space", Start: "Return",
	}
}

type VideoConfig struct {
	DisableVSync bool `toml:"disable_vsync"`
	ScaleFactor  int  `toml:"scale_factor"`
}

type GeneralConfig struct {
	ShowSplash bool `toml:"show_splash"`
}

type Config struct {
	Input1  InputConfig   `toml:"input1"`
	Input2  InputConfig   `toml:"input2"`
	Video   VideoConfig   `toml:"video"`
	General GeneralConfig `toml:"general"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Input1:  DefaultInputConfig(),
		Video:   VideoConfig{ScaleFactor: 3},
		General: GeneralConfig{ShowSplash: true},
	}
}

var configDir = sync.OnceValue(func() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		modConfig.Fatalf("failed to resolve user config directory: %v", err)
	}
	dir = filepath.Join(dir, "nesgo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		modConfig.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadOrDefault loads nesgo's configuration from the OS user config
// directory, falling back to Default() when absent or unparsable.
func LoadOrDefault() Config {
	var cfg Config
	path := filepath.Join(configDir(), cfgFilename)
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		modConfig.Infof("no usable config at %s, using defaults: %v", path, err)
		return Default()
	}
	return cfg
}

// Save writes cfg to the OS user config directory.
func Save(cfg Config) error {
	path := filepath.Join(configDir(), cfgFilename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
