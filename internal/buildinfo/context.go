// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

import "fmt"

// Defaults used when the binary is built without -ldflags.
const (
	DefaultVersion   = "dev"
	DefaultBuildDate = "unknown"
)

// Context contains build-time metadata that is not user-configurable.
// It is injected at startup from variables set by the linker.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// NewContext returns a Context, substituting defaults for empty values.
func NewContext(version, buildDate string) *Context {
	if version == "" {
		version = DefaultVersion
	}
	if buildDate == "" {
		buildDate = DefaultBuildDate
	}
	return &Context{Version: version, BuildDate: buildDate}
}

// String returns a one-line version banner.
func (c *Context) String() string {
	return fmt.Sprintf("damage-inspector %s (built %s)", c.Version, c.BuildDate)
}

// Release returns the release identifier reported to telemetry.
func (c *Context) Release() string {
	return "damage-inspector@" + c.Version
}
