package errors

import (
	"runtime"
	"strings"
)

const modulePath = "github.com/youssef-al-mostafa/Hiring-Sprint-2025/"

// componentAliases renames packages whose directory name is not the
// component name reported to telemetry.
var componentAliases = map[string]string{
	"conf": "configuration",
}

// detectComponent names the first internal package on the call stack
// outside this one.
func detectComponent() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if component := componentOf(frame.Function); component != "" {
			return component
		}
		if !more {
			return ComponentUnknown
		}
	}
}

// componentOf maps a fully qualified function name to its internal package.
func componentOf(function string) string {
	rest, ok := strings.CutPrefix(function, modulePath+"internal/")
	if !ok {
		return ""
	}

	pkg, _, _ := strings.Cut(rest, ".")
	pkg, _, _ = strings.Cut(pkg, "/")
	if pkg == "errors" {
		return ""
	}
	if alias, ok := componentAliases[pkg]; ok {
		return alias
	}
	return pkg
}

// detectCategory infers the category from the error chain, then from its message
func detectCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}

	var catErr CategorizedError
	if As(err, &catErr) && catErr.ErrorCategory() != "" {
		return catErr.ErrorCategory()
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "timeout"):
		return CategoryTimeout
	case strings.Contains(msg, "context canceled"):
		return CategoryCancellation
	case strings.Contains(msg, "connection"):
		return CategoryNetwork
	case strings.Contains(msg, "decode"), strings.Contains(msg, "unknown format"):
		return CategoryImageDecode
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "validation"):
		return CategoryValidation
	}

	return CategoryGeneric
}

// sizeBucket reduces an upload size to a coarse label
func sizeBucket(size int) string {
	switch {
	case size < 100<<10:
		return "under-100k"
	case size < 1<<20:
		return "under-1m"
	case size < 10<<20:
		return "under-10m"
	default:
		return "over-10m"
	}
}
