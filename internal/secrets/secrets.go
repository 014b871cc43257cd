// Package secrets resolves credentials from literals, environment variable
// references or mounted secret files (Docker/Kubernetes secrets).
//
// Secret values are never logged.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

const (
	// maxSecretFileSize limits secret file reads; API keys are short
	maxSecretFileSize = 64 * 1024

	componentName = "secrets"
)

// Expand resolves ${VAR} and ${VAR:-fallback} references in s. A reference
// without a fallback to an unset or empty variable is an error.
func Expand(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")

		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}

	return expanded, nil
}

// ReadFile reads a secret file, trimming trailing newlines. Files readable by
// group or others are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", fileError(errors.NewStd("secret file path is empty"), path)
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return "", fileError(fmt.Errorf("failed to stat secret file: %w", err), cleanPath)
	}
	if !info.Mode().IsRegular() {
		return "", fileError(errors.NewStd("secret path is not a regular file"), cleanPath)
	}
	if info.Size() > maxSecretFileSize {
		return "", fileError(fmt.Errorf("secret file too large (max %d bytes)", maxSecretFileSize), cleanPath)
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module(componentName).Warn("Secret file is readable by group or others",
			logger.String("path", cleanPath),
			logger.String("mode", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fileError(fmt.Errorf("failed to read secret file: %w", err), cleanPath)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError(errors.NewStd("secret file is empty"), cleanPath)
	}

	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded. Both empty resolves to "".
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return Expand(value)
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryConfiguration).
		Context("path", path).
		Build()
}
