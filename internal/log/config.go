package log

import (
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs logs in JSON format
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs are written. Nil means stderr.
	Output io.Writer

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceVersion is attached to every record as "version"
	ServiceVersion string
}

// DefaultConfig logs at INFO in text format to stderr, which keeps
// stdout free for command output.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatText,
		Output:         os.Stderr,
		ServiceVersion: "dev",
	}
}
