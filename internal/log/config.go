package log

import (
	"io"
	"strings"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const redacted = "******"

type Config struct {
	Level  Level  `mapstructure:"level"`
	Format Format `mapstructure:"format"`
	// Output defaults to stderr.
	Output io.Writer `mapstructure:"-"`
	// RedactKeys lists attribute keys whose values are replaced before writing.
	RedactKeys []string `mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
	}
}

// ParseLevel accepts any casing and falls back to info.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "warning":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}
