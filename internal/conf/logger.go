// Package conf provides configuration management for the damage inspector.
package conf

import "github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// It is fetched from the global logger on every call so that it follows
// the central logger once that is installed.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
