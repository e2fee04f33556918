// Package config loads repcoach settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/grindsens/repcoach/internal/session"
	"github.com/grindsens/repcoach/internal/tracker"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Tracking TrackingConfig `yaml:"tracking"`
	Detector DetectorConfig `yaml:"detector"`
	Camera   CameraConfig   `yaml:"camera"`
	Tray     TrayConfig     `yaml:"tray"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

type TrackingConfig struct {
	tracker.Thresholds `yaml:",inline"`
	DefaultTargetReps  int `yaml:"default_target_reps"`
}

type DetectorConfig struct {
	MinConfidence   float64 `yaml:"min_confidence"`
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`
	IdleTimeoutSec  int     `yaml:"idle_timeout_sec"`
}

// CameraConfig drives the server-side camera pipeline. ExerciseID, when set,
// binds completed sets to that exercise in today's log.
type CameraConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DeviceID   int    `yaml:"device_id"`
	FPS        int    `yaml:"fps"`
	Exercise   string `yaml:"exercise"`
	ExerciseID string `yaml:"exercise_id"`
	Reps       string `yaml:"reps"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".repcoach")
	}

	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "repcoach.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracking: TrackingConfig{
			Thresholds:        tracker.DefaultThresholds(),
			DefaultTargetReps: session.DefaultTargetReps,
		},
		Detector: DetectorConfig{
			MinConfidence:   0.5,
			MinTrackingConf: 0.5,
			IdleTimeoutSec:  30,
		},
		Camera: CameraConfig{
			FPS:      15,
			Exercise: string(tracker.KindCurl),
		},
	}
}

// Load reads config from a YAML file on top of the defaults, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix REPCOACH_:
//
//	REPCOACH_SERVER_HOST, REPCOACH_SERVER_PORT, REPCOACH_STATIC_DIR,
//	REPCOACH_DB_PATH,
//	REPCOACH_LOG_LEVEL, REPCOACH_LOG_FILE, REPCOACH_LOG_JSON,
//	REPCOACH_MIN_VISIBILITY, REPCOACH_DEFAULT_TARGET_REPS,
//	REPCOACH_CAMERA_ENABLED, REPCOACH_CAMERA_DEVICE, REPCOACH_CAMERA_EXERCISE,
//	REPCOACH_CAMERA_EXERCISE_ID, REPCOACH_TRAY_ENABLED
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPCOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPCOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPCOACH_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("REPCOACH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REPCOACH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REPCOACH_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("REPCOACH_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.JSON = b
		}
	}
	if v := os.Getenv("REPCOACH_MIN_VISIBILITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracking.MinVisibility = f
		}
	}
	if v := os.Getenv("REPCOACH_DEFAULT_TARGET_REPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracking.DefaultTargetReps = n
		}
	}
	if v := os.Getenv("REPCOACH_CAMERA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Camera.Enabled = b
		}
	}
	if v := os.Getenv("REPCOACH_CAMERA_DEVICE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Camera.DeviceID = n
		}
	}
	if v := os.Getenv("REPCOACH_CAMERA_EXERCISE"); v != "" {
		cfg.Camera.Exercise = v
	}
	if v := os.Getenv("REPCOACH_CAMERA_EXERCISE_ID"); v != "" {
		cfg.Camera.ExerciseID = v
	}
	if v := os.Getenv("REPCOACH_TRAY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tray.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if err := c.Tracking.Thresholds.Validate(); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}
	if c.Tracking.DefaultTargetReps <= 0 {
		return fmt.Errorf("tracking.default_target_reps must be positive")
	}
	if c.Camera.Enabled {
		if c.Camera.FPS <= 0 {
			return fmt.Errorf("camera.fps must be positive")
		}
		if c.Camera.Exercise == "" && c.Camera.ExerciseID == "" {
			return fmt.Errorf("camera.exercise or camera.exercise_id is required when the camera is enabled")
		}
	}
	return nil
}
