// Package service resolves named endpoints from the catalog and dispatches
// them over a shared transport. It is the layer the gateway and the CLI call.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/bnet/internal/catalog"
	"github.com/okian/bnet/internal/domain/endpoint"
	"github.com/okian/bnet/pkg/logger"
	"github.com/okian/bnet/pkg/metrics"
)

// Lookup result labels used for metrics and stats.
const (
	resultOK        = "ok"
	resultStatus    = "status"
	resultDecode    = "decode"
	resultTransport = "transport"
	resultInvalid   = "invalid"
	resultError     = "error"
)

// Call names one endpoint lookup.
type Call struct {
	Endpoint string   `json:"endpoint" yaml:"endpoint"`
	Params   []string `json:"params" yaml:"params"`
}

// Result is the outcome of one Call. Value is nil whenever Err is set.
type Result struct {
	Call      Call   `json:"call"`
	RequestID string `json:"request_id"`
	Value     any    `json:"value,omitempty"`
	Err       error  `json:"-"`
}

// Service looks up catalog endpoints over a transport.
type Service struct {
	mu sync.RWMutex

	registry       *catalog.Registry
	transport      endpoint.Transport
	maxConcurrency int
	logger         logger.Logger

	started bool

	lookups  atomic.Int64
	failures atomic.Int64
	byResult sync.Map // result label -> *atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRegistry sets the endpoint registry. Defaults to catalog.Default().
func WithRegistry(r *catalog.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithTransport sets the transport shared by every lookup.
func WithTransport(t endpoint.Transport) Option {
	return func(s *Service) {
		if t != nil {
			s.transport = t
		}
	}
}

// WithMaxConcurrency bounds in-flight calls in LookupMany.
func WithMaxConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxConcurrency: runtime.NumCPU() * 2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates dependencies and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.transport == nil {
		return ErrNoTransport
	}
	if s.registry == nil {
		s.registry = catalog.Default()
	}

	s.started = true
	s.logger.Info(ctx, "lookup service started",
		logger.Int("endpoints", len(s.registry.Entries())),
		logger.Int("maxConcurrency", s.maxConcurrency),
	)
	return nil
}

// Stop marks the service stopped. In-flight lookups are not interrupted;
// callers cancel them through their contexts.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "lookup service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Endpoints lists the registered endpoints.
func (s *Service) Endpoints() []catalog.Entry {
	if !s.running() {
		return nil
	}
	return s.registry.Entries()
}

// Lookup fetches one named endpoint.
func (s *Service) Lookup(ctx context.Context, name string, params ...string) (any, error) {
	res := s.lookup(ctx, Call{Endpoint: name, Params: params})
	return res.Value, res.Err
}

// LookupOne is Lookup returning the full Result, including its request id.
func (s *Service) LookupOne(ctx context.Context, call Call) Result {
	return s.lookup(ctx, call)
}

// LookupMany runs calls concurrently, at most maxConcurrency at a time.
// Results keep the order of calls; a failing call does not cancel the others.
func (s *Service) LookupMany(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))
	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = s.lookup(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) lookup(ctx context.Context, call Call) Result {
	res := Result{Call: call, RequestID: uuid.NewString()}
	if !s.running() {
		res.Err = ErrNotStarted
		return res
	}

	start := time.Now()
	entry, err := s.registry.Get(call.Endpoint)
	if err == nil {
		res.Value, err = entry.Lookup(ctx, s.transport, call.Params...)
	}
	res.Err = err
	took := time.Since(start)

	label := resultLabel(err)
	s.count(label)
	metrics.RecordLookup(call.Endpoint, label, float64(took.Microseconds())/1000)
	if label == resultDecode {
		metrics.RecordDecodeError(call.Endpoint)
	}

	fields := []logger.Field{
		logger.String("requestID", res.RequestID),
		logger.String("endpoint", call.Endpoint),
		logger.Any("params", call.Params),
		logger.String("result", label),
		logger.Duration("took", took),
	}
	if err != nil {
		res.Value = nil
		s.logger.Warn(ctx, "lookup failed", append(fields, logger.Error(err))...)
		return res
	}
	s.logger.Debug(ctx, "lookup succeeded", fields...)
	return res
}

func (s *Service) count(label string) {
	s.lookups.Add(1)
	if label != resultOK {
		s.failures.Add(1)
	}
	v, _ := s.byResult.LoadOrStore(label, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, endpoint.ErrDecode):
		return resultDecode
	case errors.Is(err, endpoint.ErrStatus):
		return resultStatus
	case errors.Is(err, endpoint.ErrTransport):
		return resultTransport
	case errors.Is(err, endpoint.ErrInvalidRequest), errors.Is(err, catalog.ErrUnknownEndpoint):
		return resultInvalid
	default:
		return resultError
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"maxConcurrency": s.maxConcurrency,
		"lookups":        s.lookups.Load(),
		"failures":       s.failures.Load(),
	}
	byResult := make(map[string]int64)
	s.byResult.Range(func(k, v any) bool {
		byResult[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	stats["byResult"] = byResult
	if s.registry != nil {
		stats["endpoints"] = len(s.registry.Entries())
	}
	return stats
}
