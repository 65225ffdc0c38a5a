package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const envPrefix = "GROWCAM_"

// applyEnv loads an optional .env file from the working directory and lets
// GROWCAM_* variables override whatever the YAML file set.
func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.InputDir = getEnv("INPUT_DIR", cfg.InputDir)
	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.TempDir = getEnv("TEMP_DIR", cfg.TempDir)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	cfg.Timelapse.FPS = getEnvAsInt("FPS", cfg.Timelapse.FPS)
	cfg.Timelapse.Format = getEnv("FORMAT", cfg.Timelapse.Format)
	cfg.Timelapse.StrictNames = getEnvAsBool("STRICT_NAMES", cfg.Timelapse.StrictNames)

	cfg.Brightness.Enabled = getEnvAsBool("BRIGHTNESS_FILTER", cfg.Brightness.Enabled)
	cfg.Brightness.Threshold = getEnvAsFloat("BRIGHTNESS_THRESHOLD", cfg.Brightness.Threshold)

	cfg.Overlay.Enabled = getEnvAsBool("OVERLAY", cfg.Overlay.Enabled)
	cfg.Overlay.FontFile = getEnv("FONT_FILE", cfg.Overlay.FontFile)

	cfg.FFmpeg.BinaryPath = getEnv("FFMPEG", cfg.FFmpeg.BinaryPath)
	cfg.FFmpeg.ProbePath = getEnv("FFPROBE", cfg.FFmpeg.ProbePath)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
