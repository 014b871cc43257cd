package conf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

const appDirName = "damage-inspector"

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in order of precedence.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", appDirName))
	}

	if runtime.GOOS != "windows" {
		paths = append(paths, filepath.Join("/etc", appDirName))
	}

	return paths
}

// FindConfigFile returns the first existing config file in the default paths.
func FindConfigFile() (string, error) {
	for _, dir := range GetDefaultConfigPaths() {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Newf("config file not found in %v", GetDefaultConfigPaths()).
		Component("conf").
		Category(errors.CategoryNotFound).
		Build()
}

// DefaultConfigPath returns where a new config file is written by default.
func DefaultConfigPath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", appDirName, ConfigFileName)
	}
	return ConfigFileName
}

// moveFile copies src to dst and removes src
func moveFile(src, dst string) error {
	srcFile, err := os.Open(src) //nolint:gosec // G304: src is a temp file created by this package
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer func() {
		if err := srcFile.Close(); err != nil {
			GetLogger().Warn("Failed to close source file", logger.Error(err))
		}
	}()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // G304: caller-chosen config path
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return fmt.Errorf("error copying file: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("error closing destination file: %w", err)
	}

	return os.Remove(src)
}
