// Package loader hands one normalized batch to every configured sink.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fashionetl/internal/logger"
	"fashionetl/internal/model"
	"fashionetl/internal/observability"
)

// Sink writes a whole batch, replacing whatever it held before.
type Sink interface {
	Name() string
	Save(ctx context.Context, records []model.NormalizedRecord) error
}

type Loader struct {
	sinks []Sink
	log   *logger.Logger
}

func New(log *logger.Logger, sinks ...Sink) *Loader {
	return &Loader{sinks: sinks, log: log}
}

// Sinks returns the configured sink names in order.
func (l *Loader) Sinks() []string {
	names := make([]string, len(l.sinks))
	for i, s := range l.sinks {
		names[i] = s.Name()
	}
	return names
}

// Load writes records to all sinks concurrently. A failing sink does not stop
// the others; every failure is logged and returned joined.
func (l *Loader) Load(ctx context.Context, records []model.NormalizedRecord) error {
	errs := make([]error, len(l.sinks))
	var wg sync.WaitGroup

	for i, s := range l.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = l.save(ctx, s, records)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (l *Loader) save(ctx context.Context, s Sink, records []model.NormalizedRecord) error {
	if err := s.Save(ctx, records); err != nil {
		observability.SinkFailures.WithLabelValues(s.Name()).Inc()
		l.log.Error("failed to save batch", "sink", s.Name(), "error", err)
		return fmt.Errorf("%s: %w", s.Name(), err)
	}

	observability.RecordsWritten.WithLabelValues(s.Name()).Add(float64(len(records)))
	l.log.Info("batch saved", "sink", s.Name(), "records", len(records))
	return nil
}
