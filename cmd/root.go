// Package cmd assembles the damage-inspector command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/cmd/compare"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/cmd/config"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/cmd/serve"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/cmd/similarity"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/cmd/version"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/buildinfo"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/conf"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/imageutil"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/telemetry"
)

// RootCommand creates and returns the root command. settings is filled in
// before any subcommand runs.
func RootCommand(v *viper.Viper, settings *conf.Settings, build *buildinfo.Context) (*cobra.Command, error) {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "damage-inspector",
		Short:         "Compare pickup and return photos of a rental vehicle",
		Long:          "Detects damage on pickup and return photos with a Roboflow model and reports damage that is new at return.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, v, &configFile); err != nil {
		return nil, err
	}

	serveCmd := serve.Command(v, settings)
	compareCmd := compare.Command(v, settings)
	similarityCmd := similarity.Command()
	configCmd := config.Command()
	versionCmd := version.Command(build)

	rootCmd.AddCommand(serveCmd, compareCmd, similarityCmd, configCmd, versionCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config and version work without a valid configuration
		for c := cmd; c != nil; c = c.Parent() {
			if c == configCmd || c == versionCmd {
				return nil
			}
		}
		return initialize(v, configFile, settings, build)
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Flush(telemetry.DefaultFlushTimeout)
		if err := logger.Global().Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error closing log file: %v\n", err)
		}
	}

	return rootCmd, nil
}

// initialize loads configuration and sets up logging and telemetry. It runs
// after flags are parsed so flag values take precedence.
func initialize(v *viper.Viper, configFile string, settings *conf.Settings, build *buildinfo.Context) error {
	loaded, err := conf.Load(v, configFile)
	if err != nil {
		return err
	}
	*settings = *loaded
	imageutil.SetMaxPixels(settings.Images.MaxPixels)

	if err := initLogging(settings); err != nil {
		return err
	}

	return telemetry.Init(settings.Telemetry, build)
}

// initLogging replaces the fallback console logger with one built from settings.
func initLogging(settings *conf.Settings) error {
	level := settings.Logging.Level
	if settings.Debug {
		level = "debug"
	}

	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
	}
	if settings.Logging.File != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: settings.Logging.File, Level: level}
	}

	cl, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)

	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, v *viper.Viper, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/damage-inspector, /etc/damage-inspector)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("api-key", "", "Roboflow API key")
	flags.String("model", "", "Roboflow model id")
	flags.String("version-id", "", "Roboflow model version")
	flags.String("log-level", "", "Log level: debug, info, warn, error")

	bindings := map[string]string{
		"debug":            "debug",
		"roboflow.apikey":  "api-key",
		"roboflow.model":   "model",
		"roboflow.version": "version-id",
		"logging.level":    "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
