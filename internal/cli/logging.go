package cli

import (
	"fmt"
	"io"
	"log/slog"

	"rivaas.dev/logging"
)

// LogOptions selects the log handler and verbosity of a command
type LogOptions struct {
	// Format is "console", "text" or "json"
	Format  string
	Verbose bool
	Output  io.Writer
}

// NewLogger builds the structured logger commands report progress through
func NewLogger(opts LogOptions) (*slog.Logger, error) {
	var handler logging.HandlerType
	switch opts.Format {
	case "", "console":
		handler = logging.ConsoleHandler
	case "text":
		handler = logging.TextHandler
	case "json":
		handler = logging.JSONHandler
	default:
		return nil, fmt.Errorf("unknown log format %q (expected console, text or json)", opts.Format)
	}

	logOpts := []logging.Option{
		logging.WithHandlerType(handler),
		logging.WithServiceName("zod-gen"),
		logging.WithLevel(logging.LevelWarn),
	}
	if opts.Verbose {
		logOpts = append(logOpts, logging.WithDebugLevel())
	}
	if opts.Output != nil {
		logOpts = append(logOpts, logging.WithOutput(opts.Output))
	}

	l, err := logging.New(logOpts...)
	if err != nil {
		return nil, err
	}
	return l.Logger(), nil
}
