// env.go: environment variable bindings and their validation
package conf

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	gbytes "github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides for any config key, e.g.
// INSPECTOR_WEBSERVER_LISTEN for webserver.listen.
const EnvPrefix = "INSPECTOR"

// envBinding maps a config key to environment variables, in order of precedence
type envBinding struct {
	ConfigKey string
	EnvVars   []string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		// Credentials; the VITE_ names are accepted for existing front-end .env files
		{"roboflow.apikey", []string{"ROBOFLOW_API_KEY", "VITE_ROBOFLOW_API_KEY"}, nil},
		{"roboflow.apikeyfile", []string{"ROBOFLOW_API_KEY_FILE"}, nil},
		{"roboflow.model", []string{"ROBOFLOW_MODEL", "VITE_ROBOFLOW_MODEL"}, nil},
		{"roboflow.version", []string{"ROBOFLOW_VERSION", "VITE_ROBOFLOW_VERSION"}, nil},

		{"roboflow.timeout", []string{"INSPECTOR_ROBOFLOW_TIMEOUT"}, validateEnvDuration},
		{"diff.threshold", []string{"INSPECTOR_DIFF_THRESHOLD"}, validateEnvPositiveFloat},
		{"webserver.bodylimit", []string{"INSPECTOR_WEBSERVER_BODYLIMIT"}, validateEnvByteSize},
		{"webserver.ratelimit", []string{"INSPECTOR_WEBSERVER_RATELIMIT"}, validateEnvNonNegativeFloat},
		{"images.maxpixels", []string{"INSPECTOR_IMAGES_MAXPIXELS"}, validateEnvPositiveFloat},
		{"sessions.ttl", []string{"INSPECTOR_SESSIONS_TTL"}, validateEnvDuration},
		{"debug", []string{"INSPECTOR_DEBUG"}, validateEnvBool},
	}
}

// bindEnvVars binds explicit variables and enables INSPECTOR_* overrides for
// every other key. Invalid values are reported together.
func bindEnvVars(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var warnings []string
	for _, binding := range getEnvBindings() {
		args := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := v.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.ConfigKey, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, name := range binding.EnvVars {
			if value := os.Getenv(name); value != "" {
				if err := binding.Validate(value); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", name, value, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration, expected a value like 30s or 5m: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func parseEnvFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("number must be finite")
	}
	return f, nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := parseEnvFloat(value)
	if err != nil {
		return err
	}
	if f <= 0 {
		return fmt.Errorf("must be greater than 0, got %g", f)
	}
	return nil
}

func validateEnvNonNegativeFloat(value string) error {
	f, err := parseEnvFloat(value)
	if err != nil {
		return err
	}
	if f < 0 {
		return fmt.Errorf("must not be negative, got %g", f)
	}
	return nil
}

func validateEnvByteSize(value string) error {
	n, err := gbytes.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid size, expected a value like 10M or 512K: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("size must be positive")
	}
	return nil
}
