package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	TempDir   string `yaml:"temp_dir"`
	LogFile   string `yaml:"log_file"`

	Timelapse  TimelapseConfig  `yaml:"timelapse"`
	Brightness BrightnessConfig `yaml:"brightness"`
	Overlay    OverlayConfig    `yaml:"overlay"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
}

type TimelapseConfig struct {
	FPS         int    `yaml:"fps"`
	Format      string `yaml:"format"`
	Prefix      string `yaml:"prefix"`
	StrictNames bool   `yaml:"strict_names"`
}

// BrightnessConfig controls dark-frame rejection. Threshold is a mean
// greyscale intensity in 0-255.
type BrightnessConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Threshold   float64 `yaml:"threshold"`
	SampleWidth int     `yaml:"sample_width"`
}

type OverlayConfig struct {
	Enabled   bool   `yaml:"enabled"`
	FontFile  string `yaml:"font_file"`
	FontSize  int    `yaml:"font_size"`
	FontColor string `yaml:"font_color"`
	X         string `yaml:"x"`
	Y         string `yaml:"y"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
}

// Load reads configuration from file or returns defaults, then applies
// .env and GROWCAM_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case os.IsNotExist(err):
		default:
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		InputDir:  "./archive",
		OutputDir: "./timelapse",
		TempDir:   "",
		Timelapse: TimelapseConfig{
			FPS:         15,
			Format:      "mp4",
			Prefix:      "timelapse",
			StrictNames: true,
		},
		Brightness: BrightnessConfig{
			Enabled:   true,
			Threshold: 30,
		},
		Overlay: OverlayConfig{
			Enabled:   true,
			FontSize:  24,
			FontColor: "white",
			X:         "10",
			Y:         "h-th-10",
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./growcam.yaml",
		"./growcam.yml",
		filepath.Join(os.Getenv("HOME"), ".growcam", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
