// config.go: settings struct and functions to load and save it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// ConfigFileName is the base name of the configuration file.
const ConfigFileName = "config.yaml"

// RoboflowSettings configures the hosted detection model.
type RoboflowSettings struct {
	APIKey     string        `yaml:"apikey"`     // literal or ${ENV_VAR} reference
	APIKeyFile string        `yaml:"apikeyfile"` // secret file, takes precedence over APIKey
	Model      string        `yaml:"model"`
	Version    string        `yaml:"version"`
	BaseURL    string        `yaml:"baseurl"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DiffSettings configures damage matching.
type DiffSettings struct {
	Threshold float64 `yaml:"threshold"` // per-axis center distance in pixels
}

// WebServerSettings configures the HTTP API.
type WebServerSettings struct {
	Listen         string   `yaml:"listen"`
	BodyLimit      string   `yaml:"bodylimit"` // e.g. "50M"
	RateLimit      float64  `yaml:"ratelimit"` // requests per second, 0 disables
	AllowedOrigins []string `yaml:"allowedorigins"`
	Debug          bool     `yaml:"debug"`
}

// ImageSettings configures image decoding.
type ImageSettings struct {
	MaxPixels int64 `yaml:"maxpixels"` // width*height limit for decoded photos
}

// SessionSettings configures the in-memory inspection sessions.
type SessionSettings struct {
	TTL time.Duration `yaml:"ttl"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// TelemetrySettings configures Sentry error reporting.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Settings is the complete application configuration.
type Settings struct {
	Debug     bool              `yaml:"debug"`
	Roboflow  RoboflowSettings  `yaml:"roboflow"`
	Diff      DiffSettings      `yaml:"diff"`
	WebServer WebServerSettings `yaml:"webserver"`
	Images    ImageSettings     `yaml:"images"`
	Sessions  SessionSettings   `yaml:"sessions"`
	Logging   LogSettings       `yaml:"logging"`
	Telemetry TelemetrySettings `yaml:"telemetry"`
}

// DetectionConfig returns the detection client configuration.
func (s *Settings) DetectionConfig() detection.Config {
	return detection.Config{
		APIKey:  strings.TrimSpace(s.Roboflow.APIKey),
		Model:   strings.TrimSpace(s.Roboflow.Model),
		Version: strings.TrimSpace(s.Roboflow.Version),
		BaseURL: s.Roboflow.BaseURL,
		Timeout: s.Roboflow.Timeout,
	}
}

// NewViper returns a viper instance with defaults and environment bindings
// in place. Callers may bind command-line flags to it before Load.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	v.SetConfigType("yaml")

	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "bind_env").
			Build()
	}

	return v, nil
}

// Load reads configuration into Settings. When configFile is empty the
// default locations are searched and a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.New(fmt.Errorf("error reading config file: %w", err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("config_file", configFile).
				Build()
		}
		GetLogger().Debug("No config file found, using defaults and environment")
	} else {
		GetLogger().Debug("Loaded config file", logger.String("path", v.ConfigFileUsed()))
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return settings, nil
}

// resolveSecrets replaces credential settings with their resolved values.
func resolveSecrets(settings *Settings) error {
	apiKey, err := secrets.Resolve(settings.Roboflow.APIKeyFile, settings.Roboflow.APIKey)
	if err != nil {
		return err
	}
	settings.Roboflow.APIKey = apiKey

	dsn, err := secrets.Expand(settings.Telemetry.DSN)
	if err != nil {
		return err
	}
	settings.Telemetry.DSN = dsn

	return nil
}

// DefaultConfigYAML returns the embedded default configuration file.
func DefaultConfigYAML() ([]byte, error) {
	return fs.ReadFile(configFiles, ConfigFileName)
}

// WriteDefaultConfig writes the default configuration to path. An existing
// file is left alone unless overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf("config file already exists: %s", path).
				Component("conf").
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	data, err := DefaultConfigYAML()
	if err != nil {
		return fmt.Errorf("error reading embedded config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(fmt.Errorf("error creating config directory: %w", err)).
			Component("conf").
			Category(errors.CategoryFileIO).
			Build()
	}

	return writeFileAtomic(path, data, 0o600)
}

// SaveYAMLConfig writes settings to configPath, replacing the file
// atomically. Comments and ordering of an existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return writeFileAtomic(configPath, yamlData, 0o600)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}
	if err := os.Chmod(tempFileName, perm); err != nil {
		return fmt.Errorf("error setting file permissions: %w", err)
	}

	if err := os.Rename(tempFileName, path); err != nil {
		// Cross-device renames fail; fall back to copying
		if err := moveFile(tempFileName, path); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}
