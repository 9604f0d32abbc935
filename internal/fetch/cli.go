package fetch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/bnet/pkg/logger"
)

// File permission constants.
const (
	logFilePermission   = 0600
	directoryPermission = 0750
	outputPermission    = 0644
)

// SetupLogging initializes the logger on stderr, and on logFile when set,
// so that stdout only carries the fetched documents. The returned closer
// releases the log file.
func SetupLogging(logFile, format string, verbose bool) (io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = closerFunc(func() error { return nil })
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	opts := []logger.Option{logger.WithWriter(out)}
	if format != "" {
		opts = append(opts, logger.WithFormat(format))
	}
	if err := logger.Init(opts...); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	}
	return closer, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// ShowHelp prints usage information for bnet-fetch.
func ShowHelp() {
	os.Stdout.WriteString(`bnet-fetch
==========

Fetches Battle.net documents through the typed endpoint catalog and prints
them as JSON.

Usage:
  bnet-fetch -endpoint <name> [-param value ...] [options]
  bnet-fetch -batch calls.yaml [options]

Options:
  -endpoint string
        Catalog endpoint to look up (see -list)
  -param string
        Endpoint parameter, repeat in template order
  -batch string
        YAML file with a "calls" list of {endpoint, params}
  -output string
        Write JSON to this file instead of stdout
  -region string
        Override the configured region (us, eu, kr, tw, cn)
  -timeout duration
        Override the per-request timeout
  -workers int
        Override the number of concurrent lookups in a batch
  -log string
        Also write logs to this file
  -log-format string
        text, json or pretty (default: configured log_format)
  -list
        Print the endpoint catalog and exit
  -verbose
        Enable debug logging
  -help
        Show this help message

Configuration is read from BNET_CONFIG (YAML) and BNET_* environment
variables, e.g. BNET_ACCESS_TOKEN.

Examples:
  bnet-fetch -endpoint realm -param tarren-mill
  bnet-fetch -endpoint character-profile -param tarren-mill -param mitraxis -region eu
  bnet-fetch -batch calls.yaml -output out/characters.json
`)
}
