package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names shared by every package that logs
const (
	File    = "file"
	Line    = "line"
	Patch   = "patch"
	Count   = "count"
	Format  = "format"
	Section = "section"
)

// LogConfig describes configuration of logger
type LogConfig struct {
	// Log level: -1-trace 0-debug 1-info 2-warn 3-error 4-fatal 5-panic
	Level int

	// Path to the logfile. "stdout" or "stderr" are possible too.
	Path string

	// Human readable output instead of JSON lines
	Console bool
}

// DefaultLogConfig logs warnings and above to stderr
var DefaultLogConfig = LogConfig{
	Level:   int(zerolog.WarnLevel),
	Path:    "stderr",
	Console: true,
}

// InitLogger initializes the global zerolog logger based on given LogConfig.
// Library packages log through "github.com/rs/zerolog/log", so this is
// called once by commands before any decoding starts.
func InitLogger(lc LogConfig) error {
	var output io.Writer
	switch lc.Path {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		f, err := os.Create(lc.Path)
		if err != nil {
			return err
		}
		output = f
	}

	if lc.Console {
		output = zerolog.ConsoleWriter{Out: output, NoColor: true}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.Level(lc.Level))
	return nil
}
