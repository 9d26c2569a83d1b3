package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the config for the application
type Config struct {
	// Users is a map of the user api key to a nice name for the user. When it
	// is empty the instance is open and everyone is "anonymous".
	Users           map[string]string `json:"users" yaml:"users"`
	DatabasePath    string            `json:"sqlite" yaml:"sqlite"`
	FSPath          string            `json:"storage_path" yaml:"storage_path"`
	BasePath        string            `json:"base_path" yaml:"base_path"`
	Listen          string            `json:"listen" yaml:"listen"`
	MaxUploadBytes  int64             `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	DefaultFPS      int               `json:"default_fps" yaml:"default_fps"`
	DefaultFilename string            `json:"default_filename" yaml:"default_filename"`
	ThumbnailWidth  uint              `json:"thumbnail_width" yaml:"thumbnail_width"`
	ThumbnailHeight uint              `json:"thumbnail_height" yaml:"thumbnail_height"`
	// MaxOutputPixels caps width*height of uploads and of every generated
	// image. Zero or less disables the cap.
	MaxOutputPixels int `json:"max_output_pixels" yaml:"max_output_pixels"`
}

// New returns a config with default values
func New() *Config {
	return &Config{
		Users:           make(map[string]string),
		FSPath:          ".",
		Listen:          ":8080",
		MaxUploadBytes:  32 << 20,
		DefaultFPS:      5,
		DefaultFilename: "auto_detected_frames",
		ThumbnailWidth:  1920 / 4,
		ThumbnailHeight: 1080 / 4,
		MaxOutputPixels: 1 << 24,
	}
}

// Open reports whether the instance runs without api keys.
func (c *Config) Open() bool {
	return len(c.Users) == 0
}

// FromReader creates a config from a reader that contains json content.
func FromReader(f io.Reader) (*Config, error) {
	cfg := New()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config from reader: %w", err)
	}

	return cfg, nil
}

// FromYAML creates a config from a reader that contains yaml content.
func FromYAML(f io.Reader) (*Config, error) {
	cfg := New()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config from yaml: %w", err)
	}

	return cfg, nil
}

// Load reads the config file at path, as yaml for .yaml/.yml and json
// otherwise.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(f)
	default:
		return FromReader(f)
	}
}
