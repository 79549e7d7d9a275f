// Package service composes the record parser, the layer aggregator and the
// run registry into the operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/srim/internal/adapters/repository"
	"github.com/okian/srim/internal/domain/histogram"
	"github.com/okian/srim/internal/domain/layers"
	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/internal/domain/parser"
	"github.com/okian/srim/pkg/logger"
	"github.com/okian/srim/pkg/metrics"
)

const defaultRunCapacity = 32

// Service processes collision logs and keeps the resulting runs.
type Service struct {
	mu sync.RWMutex

	// Core components
	parser *parser.Parser
	runs   repository.Store

	// Configuration
	format        parser.Format
	indexBase     int
	runCapacity   int
	histogramBins int

	// State
	processed int
	failed    int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFormat sets the collision log dialect.
func WithFormat(f parser.Format) Option {
	return func(s *Service) {
		s.format = f
	}
}

// WithIndexBase sets the number given to the first surviving layer (0 or 1).
func WithIndexBase(base int) Option {
	return func(s *Service) {
		s.indexBase = base
	}
}

// WithRunCapacity bounds how many processed runs are kept.
func WithRunCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.runCapacity = n
		}
	}
}

// WithHistogramBins sets the bin count used when a caller does not ask for one.
func WithHistogramBins(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.histogramBins = n
		}
	}
}

// New constructs a Service. Without WithLogger it logs through the global
// logger, or through slog.Default when that was never initialized.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		format:        parser.DefaultFormat(),
		indexBase:     layers.DefaultIndexBase,
		runCapacity:   defaultRunCapacity,
		histogramBins: histogram.DefaultBins,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.indexBase != 0 && s.indexBase != 1 {
		return nil, fmt.Errorf("%w: %d", layers.ErrInvalidIndexBase, s.indexBase)
	}
	p, err := parser.New(parser.WithFormat(s.format))
	if err != nil {
		return nil, err
	}
	s.parser = p
	s.runs = repository.NewMemoryStore(repository.WithCapacity(s.runCapacity))
	if s.logger == nil {
		s.logger = logger.OrDefault().Named("service")
	}
	return s, nil
}

// Process parses the collision log at path and aggregates it into layers
// without keeping the run.
func Process(ctx context.Context, path string, opts ...Option) ([]model.Layer, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	run, err := s.ProcessFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return run.Layers, nil
}

// ProcessFile processes the collision log at path and stores the run.
func (s *Service) ProcessFile(ctx context.Context, path string) (model.Run, error) {
	return s.process(ctx, path, func(ctx context.Context) ([]model.Record, error) {
		return s.parser.ParseFile(ctx, path)
	})
}

// ProcessReader processes a collision log read from r and stores the run
// under the given source name.
func (s *Service) ProcessReader(ctx context.Context, source string, r io.Reader) (model.Run, error) {
	return s.process(ctx, source, func(ctx context.Context) ([]model.Record, error) {
		return s.parser.Parse(ctx, r)
	})
}

// process runs parse then aggregate. Nothing is stored unless both succeed.
func (s *Service) process(ctx context.Context, source string, parse func(context.Context) ([]model.Record, error)) (model.Run, error) {
	start := time.Now()

	records, err := parse(ctx)
	if err != nil {
		return model.Run{}, s.fail(ctx, source, err)
	}
	out, err := layers.Aggregate(ctx, records, layers.WithIndexBase(s.indexBase))
	if err != nil {
		return model.Run{}, s.fail(ctx, source, err)
	}

	run := model.Run{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Records:   len(records),
		Layers:    out,
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return model.Run{}, s.fail(ctx, source, err)
	}

	elapsed := time.Since(start)
	metrics.RecordFileProcessed()
	metrics.RecordProcessingLatency(float64(elapsed.Microseconds()) / 1000)

	s.mu.Lock()
	s.processed++
	s.mu.Unlock()

	s.logger.Info(ctx, "collision log processed",
		logger.String("run", run.ID),
		logger.String("source", source),
		logger.Int("records", run.Records),
		logger.Int("layers", len(run.Layers)),
		logger.Duration("elapsed", elapsed),
	)
	return run, nil
}

func (s *Service) fail(ctx context.Context, source string, err error) error {
	kind := failureKind(err)
	metrics.RecordProcessingFailure(kind)

	s.mu.Lock()
	s.failed++
	s.mu.Unlock()

	s.logger.Error(ctx, "collision log processing failed",
		logger.String("source", source),
		logger.String("kind", kind),
		logger.Error(err),
	)
	return err
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, parser.ErrFileAccess):
		return kindFileAccess
	case errors.Is(err, parser.ErrMalformedRecord):
		return kindMalformedRecord
	case errors.Is(err, layers.ErrInternalInvariant):
		return kindInternalInvariant
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return kindCancelled
	default:
		return kindOther
	}
}

// Run returns a stored run by id.
func (s *Service) Run(ctx context.Context, id string) (model.Run, error) {
	run, err := s.runs.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Latest returns the most recently processed run.
func (s *Service) Latest(ctx context.Context) (model.Run, error) {
	run, err := s.runs.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Run{}, ErrRunNotFound
	}
	return run, err
}

// Histogram bins the energies of one layer of a stored run. A bins value of
// zero selects the configured default.
func (s *Service) Histogram(ctx context.Context, id string, layerIndex, bins int) (histogram.Histogram, error) {
	run, err := s.Run(ctx, id)
	if err != nil {
		return histogram.Histogram{}, err
	}
	layer, ok := run.Layer(layerIndex)
	if !ok {
		return histogram.Histogram{}, fmt.Errorf("%w: run %s has no layer %d", ErrLayerNotFound, id, layerIndex)
	}
	if bins == 0 {
		bins = s.histogramBins
	}
	return histogram.Compute(layer.Energies, bins)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.runs.Count(context.Background())
	metrics.UpdateRunsStored(stored)

	return map[string]interface{}{
		"runsStored":     stored,
		"runCapacity":    s.runCapacity,
		"filesProcessed": s.processed,
		"failures":       s.failed,
		"indexBase":      s.indexBase,
		"histogramBins":  s.histogramBins,
	}
}
