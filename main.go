package main

import (
	"context"
	"fmt"
	"os"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/cmd"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/buildinfo"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/conf"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	build := buildinfo.NewContext(version, buildDate)

	v, err := conf.NewViper()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		return 1
	}

	settings := &conf.Settings{}
	rootCmd, err := cmd.RootCommand(v, settings, build)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating commands: %v\n", err)
		return 1
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
