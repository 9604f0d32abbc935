package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/bnet/internal/fetch"
)

const defaultRunTimeout = 5 * time.Minute

func main() {
	var (
		params    fetch.ParamList
		endpoint  = flag.String("endpoint", "", "Catalog endpoint to look up")
		batchFile = flag.String("batch", "", "YAML file listing calls")
		output    = flag.String("output", "", "Write JSON to this file instead of stdout")
		region    = flag.String("region", "", "Override the configured region")
		timeout   = flag.Duration("timeout", 0, "Override the per-request timeout")
		workers   = flag.Int("workers", 0, "Override the number of concurrent lookups")
		logFile   = flag.String("log", "", "Also write logs to this file")
		logFormat = flag.String("log-format", "", "text, json or pretty")
		list      = flag.Bool("list", false, "Print the endpoint catalog and exit")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Var(&params, "param", "Endpoint parameter, repeat in template order")
	flag.Parse()

	if *help {
		fetch.ShowHelp()
		return
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()

	closer, err := fetch.SetupLogging(*logFile, *logFormat, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)

	cfg := &fetch.Config{
		Endpoint:   *endpoint,
		Params:     params,
		BatchFile:  *batchFile,
		OutputFile: *output,
		Region:     *region,
		Timeout:    *timeout,
		Workers:    *workers,
		LogFile:    *logFile,
		LogFormat:  *logFormat,
		List:       *list,
		Verbose:    *verbose,
	}

	err = fetch.Run(ctx, cfg, os.Stdout)
	cancel()
	stop()
	_ = closer.Close()
	if err != nil {
		os.Stderr.WriteString("bnet-fetch: " + err.Error() + "\n")
		os.Exit(1)
	}
}
