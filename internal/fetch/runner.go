// Package fetch implements the bnet-fetch command: one-shot or batch
// lookups against the endpoint catalog, printed as JSON.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/bnet/internal/adapters/http/client"
	service "github.com/okian/bnet/internal/app"
	"github.com/okian/bnet/internal/catalog"
	"github.com/okian/bnet/internal/config"
	"github.com/okian/bnet/pkg/logger"
)

// Looker runs lookups. *service.Service satisfies it.
type Looker interface {
	LookupMany(ctx context.Context, calls []service.Call) []service.Result
}

// Item is one entry of batch output.
type Item struct {
	Call      service.Call `json:"call"`
	RequestID string       `json:"request_id"`
	Value     any          `json:"value,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Run loads configuration, applies cfg's overrides, wires the HTTP
// transport and the catalog, and executes the requested lookups.
func Run(ctx context.Context, cfg *Config, stdout io.Writer) error {
	appCfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if cfg.Region != "" {
		appCfg.Region = cfg.Region
	}
	if cfg.Timeout > 0 {
		appCfg.RequestTimeoutMS = int(cfg.Timeout / time.Millisecond)
	}
	if cfg.Workers > 0 {
		appCfg.MaxConcurrency = cfg.Workers
	}

	transport, err := client.NewFromConfig(appCfg)
	if err != nil {
		return err
	}
	registry := catalog.Default()
	if err := catalog.RegisterConfigured(registry, appCfg.Endpoints); err != nil {
		return err
	}

	svc := service.New(
		service.WithTransport(transport),
		service.WithRegistry(registry),
		service.WithMaxConcurrency(appCfg.MaxConcurrency),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if cfg.List {
		return List(stdout, svc.Endpoints())
	}
	return Execute(ctx, cfg, svc, stdout)
}

// List writes the endpoint catalog as JSON.
func List(w io.Writer, entries []catalog.Entry) error {
	return writeJSON(w, entries)
}

// Execute resolves the calls described by cfg, runs them through l and
// writes the JSON result to cfg.OutputFile or stdout. A single lookup
// prints its document and returns its error; a batch prints every item
// and returns ErrPartialFailure when any call failed.
func Execute(ctx context.Context, cfg *Config, l Looker, stdout io.Writer) error {
	calls, batch, err := resolveCalls(cfg)
	if err != nil {
		return err
	}

	log := logger.Get()
	start := time.Now()
	log.Info(ctx, "fetching", logger.Int("calls", len(calls)), logger.Bool("batch", batch))

	results := l.LookupMany(ctx, calls)

	failed := 0
	items := make([]Item, len(results))
	for i, res := range results {
		items[i] = Item{Call: res.Call, RequestID: res.RequestID, Value: res.Value}
		if res.Err != nil {
			failed++
			items[i].Error = res.Err.Error()
			log.Warn(ctx, "lookup failed",
				logger.String("endpoint", res.Call.Endpoint),
				logger.String("requestID", res.RequestID),
				logger.Error(res.Err))
		}
	}

	log.Info(ctx, "fetch finished",
		logger.Int("calls", len(calls)),
		logger.Int("failed", failed),
		logger.Duration("took", time.Since(start)))

	if !batch {
		if results[0].Err != nil {
			return results[0].Err
		}
		if err := output(ctx, cfg.OutputFile, stdout, results[0].Value); err != nil {
			return err
		}
		return nil
	}

	if err := output(ctx, cfg.OutputFile, stdout, items); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPartialFailure, failed, len(calls))
	}
	return nil
}

func resolveCalls(cfg *Config) ([]service.Call, bool, error) {
	if cfg.BatchFile != "" {
		calls, err := LoadBatch(cfg.BatchFile)
		return calls, true, err
	}
	if cfg.Endpoint == "" {
		return nil, false, ErrNoCalls
	}
	return []service.Call{{Endpoint: cfg.Endpoint, Params: cfg.Params}}, false, nil
}

// output writes v to filename, creating its directory, or to stdout.
func output(ctx context.Context, filename string, stdout io.Writer, v any) error {
	if filename == "" {
		return writeJSON(stdout, v)
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPermission)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if err := writeJSON(file, v); err != nil {
		return err
	}
	logger.Get().Info(ctx, "output saved to file", logger.String("filename", filename))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
