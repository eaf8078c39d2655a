package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment names
const (
	Development = "development"
	Production  = "production"
)

// Config holds all application configuration. Values come from the
// optional YAML file first, then environment variables override.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Document DocumentConfig `yaml:"document"`
	History  HistoryConfig  `yaml:"history"`
	Render   RenderConfig   `yaml:"render"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Address         string        `yaml:"address"`
	Environment     string        `yaml:"environment" validate:"oneof=development production"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	EnableCORS      bool          `yaml:"enableCors"`
}

// DocumentConfig configures persistence of the mindmap document
type DocumentConfig struct {
	Path             string        `yaml:"path" validate:"required"`
	AutoSave         bool          `yaml:"autoSave"`
	AutoSaveInterval time.Duration `yaml:"autoSaveInterval" validate:"min=1s"`
	WatchFile        bool          `yaml:"watchFile"`
}

// HistoryConfig configures the undo stack
type HistoryConfig struct {
	Limit int `yaml:"limit" validate:"min=1"`
}

// RenderConfig configures the render queue and SVG canvas
type RenderConfig struct {
	FrameInterval time.Duration `yaml:"frameInterval" validate:"min=1ms"`
	CanvasWidth   float64       `yaml:"canvasWidth" validate:"gt=0"`
	CanvasHeight  float64       `yaml:"canvasHeight" validate:"gt=0"`
}

// MonitorConfig configures performance sampling
type MonitorConfig struct {
	SampleInterval time.Duration `yaml:"sampleInterval" validate:"min=100ms"`
	EnableMetrics  bool          `yaml:"enableMetrics"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// UnmarshalYAML decodes durations from strings like "15s". The receiver
// arrives pre-filled with defaults; omitted keys keep them.
func (s *ServerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Address         string   `yaml:"address"`
		Environment     string   `yaml:"environment"`
		ReadTimeout     string   `yaml:"readTimeout"`
		WriteTimeout    string   `yaml:"writeTimeout"`
		ShutdownTimeout string   `yaml:"shutdownTimeout"`
		AllowedOrigins  []string `yaml:"allowedOrigins"`
		EnableCORS      *bool    `yaml:"enableCors"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Address != "" {
		s.Address = raw.Address
	}
	if raw.Environment != "" {
		s.Environment = raw.Environment
	}
	if err := setDuration(&s.ReadTimeout, raw.ReadTimeout, "server.readTimeout"); err != nil {
		return err
	}
	if err := setDuration(&s.WriteTimeout, raw.WriteTimeout, "server.writeTimeout"); err != nil {
		return err
	}
	if err := setDuration(&s.ShutdownTimeout, raw.ShutdownTimeout, "server.shutdownTimeout"); err != nil {
		return err
	}
	if raw.AllowedOrigins != nil {
		s.AllowedOrigins = raw.AllowedOrigins
	}
	if raw.EnableCORS != nil {
		s.EnableCORS = *raw.EnableCORS
	}
	return nil
}

// UnmarshalYAML decodes the autosave interval from a duration string
func (d *DocumentConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Path             string `yaml:"path"`
		AutoSave         *bool  `yaml:"autoSave"`
		AutoSaveInterval string `yaml:"autoSaveInterval"`
		WatchFile        *bool  `yaml:"watchFile"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Path != "" {
		d.Path = raw.Path
	}
	if raw.AutoSave != nil {
		d.AutoSave = *raw.AutoSave
	}
	if err := setDuration(&d.AutoSaveInterval, raw.AutoSaveInterval, "document.autoSaveInterval"); err != nil {
		return err
	}
	if raw.WatchFile != nil {
		d.WatchFile = *raw.WatchFile
	}
	return nil
}

// UnmarshalYAML decodes the frame interval from a duration string
func (r *RenderConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		FrameInterval string   `yaml:"frameInterval"`
		CanvasWidth   *float64 `yaml:"canvasWidth"`
		CanvasHeight  *float64 `yaml:"canvasHeight"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if err := setDuration(&r.FrameInterval, raw.FrameInterval, "render.frameInterval"); err != nil {
		return err
	}
	if raw.CanvasWidth != nil {
		r.CanvasWidth = *raw.CanvasWidth
	}
	if raw.CanvasHeight != nil {
		r.CanvasHeight = *raw.CanvasHeight
	}
	return nil
}

// UnmarshalYAML decodes the sample interval from a duration string
func (m *MonitorConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		SampleInterval string `yaml:"sampleInterval"`
		EnableMetrics  *bool  `yaml:"enableMetrics"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if err := setDuration(&m.SampleInterval, raw.SampleInterval, "monitor.sampleInterval"); err != nil {
		return err
	}
	if raw.EnableMetrics != nil {
		m.EnableMetrics = *raw.EnableMetrics
	}
	return nil
}

func setDuration(dst *time.Duration, raw, key string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	*dst = d
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			Environment:     Development,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
			EnableCORS:      true,
		},
		Document: DocumentConfig{
			Path:             "data/mindmap.json",
			AutoSave:         true,
			AutoSaveInterval: 5 * time.Second,
			WatchFile:        false,
		},
		History: HistoryConfig{
			Limit: 50,
		},
		Render: RenderConfig{
			FrameInterval: 16 * time.Millisecond,
			CanvasWidth:   1920,
			CanvasHeight:  1080,
		},
		Monitor: MonitorConfig{
			SampleInterval: 2 * time.Second,
			EnableMetrics:  true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() {
	c.Server.Address = getEnv("SERVER_ADDRESS", c.Server.Address)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.EnableCORS = getEnvBool("ENABLE_CORS", c.Server.EnableCORS)

	c.Document.Path = getEnv("DOCUMENT_PATH", c.Document.Path)
	c.Document.AutoSave = getEnvBool("AUTO_SAVE", c.Document.AutoSave)
	c.Document.WatchFile = getEnvBool("WATCH_DOCUMENT", c.Document.WatchFile)
	if ms := getEnvInt("AUTO_SAVE_INTERVAL_MS", 0); ms > 0 {
		c.Document.AutoSaveInterval = time.Duration(ms) * time.Millisecond
	}

	if limit := getEnvInt("HISTORY_LIMIT", 0); limit > 0 {
		c.History.Limit = limit
	}
	if ms := getEnvInt("FRAME_INTERVAL_MS", 0); ms > 0 {
		c.Render.FrameInterval = time.Duration(ms) * time.Millisecond
	}

	c.Monitor.EnableMetrics = getEnvBool("ENABLE_METRICS", c.Monitor.EnableMetrics)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate checks the configuration against its constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == Production
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
