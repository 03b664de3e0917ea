// Package service is the reactive controller: it turns year selections into
// published chart frames over a read-only base table.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/beeline/internal/adapters/mq/queue"
	"github.com/okian/beeline/internal/adapters/mq/worker"
	"github.com/okian/beeline/internal/domain/aggregate"
	"github.com/okian/beeline/internal/domain/chart"
	"github.com/okian/beeline/internal/domain/dataset"
	"github.com/okian/beeline/internal/domain/model"
	"github.com/okian/beeline/pkg/logger"
	"github.com/okian/beeline/pkg/metrics"
	"github.com/okian/beeline/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultTopN          = 5
	defaultQueueCapacity = 1
	stopTimeout          = 5 * time.Second
)

// Service binds the selected year to the four chart slots.
type Service struct {
	mu sync.RWMutex

	table *dataset.Table

	// Configuration
	topN          int
	queueCapacity int

	// Pipeline
	submitMu sync.Mutex // sequence numbers reach the queue in order
	queue    *eventqueue.LatestQueue
	worker *worker.CycleWorker
	cancel context.CancelFunc

	// Published state
	cycleMu   sync.Mutex // one cycle at a time, even for direct Handle calls
	frame     atomic.Pointer[Frame]
	state     atomic.Value // State
	lastErr   atomic.Pointer[CycleError]
	seq       atomic.Uint64
	handled   atomic.Uint64
	waitMu    sync.Mutex
	published chan struct{}

	// Counters
	submitted atomic.Uint64
	cycles    atomic.Uint64
	failures  atomic.Uint64

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTopN sets how many states and causes the pie charts show.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithQueueCapacity sets how many selections may wait behind the running cycle.
func WithQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCapacity = n
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

// New constructs a Service over table. The table is shared read-only.
func New(table *dataset.Table, opts ...Option) *Service {
	s := &Service{
		table:         table,
		topN:          defaultTopN,
		queueCapacity: defaultQueueCapacity,
		published:     make(chan struct{}),
	}
	s.state.Store(StateIdle)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start renders the earliest year synchronously, then starts the worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("controller")
	}

	initial := s.newEvent(s.table.MinYear())
	if err := s.Handle(ctx, initial); err != nil {
		return fmt.Errorf("initial render: %w", err)
	}

	s.queue = eventqueue.NewLatestQueue(eventqueue.WithCapacity(s.queueCapacity))
	s.worker = worker.NewCycleWorker(s.queue, s, worker.WithName("cycle-worker"))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "controller started",
		logger.Int("initialYear", initial.Year),
		logger.Int("years", len(s.table.Years())),
		logger.Int("topN", s.topN),
		logger.Int("queueCapacity", s.queueCapacity),
	)
	return nil
}

// Stop closes the queue and waits for the cycle in flight.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	_ = s.queue.Close()
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(context.Background(), "controller stopped")
}

// Submit validates year and queues a selection for the worker. A selection
// still waiting when a newer one arrives is dropped.
func (s *Service) Submit(ctx context.Context, year int) (model.YearChanged, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.YearChanged{}, ErrNotStarted
	}
	if !s.table.HasYear(year) {
		metrics.RecordSelectionRejected("unknown_year")
		return model.YearChanged{}, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}

	s.submitMu.Lock()
	e := s.newEvent(year)
	ok := s.queue.Enqueue(ctx, e)
	s.submitMu.Unlock()
	if !ok {
		metrics.RecordSelectionRejected("closed")
		return model.YearChanged{}, ErrQueueClosed
	}
	s.submitted.Add(1)
	metrics.RecordSelectionSubmitted()
	s.logger.Debug(ctx, "selection queued",
		logger.String("id", e.ID),
		logger.Uint64("seq", e.Seq),
		logger.Int("year", year),
	)
	return e, nil
}

// Select submits year, waits until the worker has handled it, and returns
// a frame for that year. When a newer selection for another year replaced
// it, the frame is rendered for this caller only and not published.
func (s *Service) Select(ctx context.Context, year int) (Frame, error) {
	e, err := s.Submit(ctx, year)
	if err != nil {
		return Frame{}, err
	}

	f, err := s.Await(ctx, e.Seq)
	switch {
	case err == nil && f.Year == year:
		return f, nil
	case err != nil && !errors.Is(err, ErrCycleFailed):
		return Frame{}, err
	case err != nil:
		var ce *CycleError
		if errors.As(err, &ce) && ce.Seq == e.Seq {
			return Frame{}, err
		}
	}
	return s.render(e)
}

// FrameFor returns a frame for year without queueing a selection: the
// published frame when it shows year, a private render otherwise. Private
// frames have Version 0.
func (s *Service) FrameFor(year int) (Frame, error) {
	if f := s.frame.Load(); f != nil && f.Year == year {
		return *f, nil
	}
	return s.render(model.YearChanged{ID: uuid.NewString(), Year: year, RequestedAt: time.Now().UTC()})
}

func (s *Service) render(e model.YearChanged) (Frame, error) { //nolint:gocritic // hugeParam: read-only copy
	v, err := s.Views(e.Year)
	if err != nil {
		return Frame{}, err
	}
	return *s.buildFrame(e, v), nil
}

// Await blocks until the selection with sequence seq, or a newer one that
// replaced it, has been handled. It returns the published frame, or the
// cycle error when that handling failed.
func (s *Service) Await(ctx context.Context, seq uint64) (Frame, error) {
	for {
		s.waitMu.Lock()
		ch := s.published
		s.waitMu.Unlock()

		if s.handled.Load() >= seq {
			return s.outcome(seq)
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		}
	}
}

func (s *Service) outcome(seq uint64) (Frame, error) {
	if f := s.frame.Load(); f != nil && f.Version >= seq {
		return *f, nil
	}
	if ce := s.lastErr.Load(); ce != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrCycleFailed, ce)
	}
	return Frame{}, ErrCycleFailed
}

// Handle runs one cycle: four aggregations, four chart specs, one publish.
// On failure nothing is published and the error is kept for LastError.
func (s *Service) Handle(ctx context.Context, e model.YearChanged) (err error) { //nolint:gocritic // hugeParam: matches worker.Handler
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	ctx, span := tracing.Tracer("controller").Start(ctx, "app.cycle")
	span.SetAttributes(attribute.Int("year", e.Year), attribute.Int64("seq", int64(e.Seq)))
	defer span.End()

	prev := s.State()
	s.state.Store(StateRecomputing)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			s.fail(ctx, e, err, prev)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.markHandled(e.Seq)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	views, err := s.Views(e.Year)
	if err != nil {
		return err
	}
	f := s.buildFrame(e, views)

	s.state.Store(StateRendered)
	s.cycles.Add(1)
	if !s.publish(f) {
		s.log().Debug(ctx, "stale frame dropped",
			logger.Uint64("version", f.Version),
			logger.Int("year", f.Year),
		)
		return nil
	}
	s.lastErr.Store(nil)

	took := time.Since(start)
	metrics.RecordCycle(e.Year, f.Version, float64(took.Milliseconds()))
	s.log().Debug(ctx, "frame published",
		logger.String("frame", f.ID),
		logger.Uint64("version", f.Version),
		logger.Int("year", f.Year),
		logger.Duration("took", took),
	)
	return nil
}

// Views computes the four aggregated views for year. The yearly summary is
// recomputed from the whole table each time.
func (s *Service) Views(year int) (Views, error) {
	if !s.table.HasYear(year) {
		return Views{}, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	return Views{
		Year:   year,
		Slice:  aggregate.YearSlice(year, s.table),
		Yearly: aggregate.YearlySummary(s.table),
		States: aggregate.TopStates(year, s.table, s.topN),
		Causes: aggregate.TopCauses(year, s.table, s.topN),
	}, nil
}

func (s *Service) buildFrame(e model.YearChanged, v Views) *Frame { //nolint:gocritic // hugeParam: read-only copy
	return &Frame{
		ID:          uuid.NewString(),
		Version:     e.Seq,
		SelectionID: e.ID,
		Year:        e.Year,
		Map:         chart.BuildChoropleth(v.Slice),
		Yearly:      chart.BuildYearlyBar(v.Yearly),
		States:      chart.BuildPie(v.States, chart.FieldState, chart.TitleStates),
		Causes:      chart.BuildPie(v.Causes, chart.FieldAffectedBy, chart.TitleCauses),
		RenderedAt:  time.Now().UTC(),
	}
}

func (s *Service) fail(ctx context.Context, e model.YearChanged, err error, prev State) { //nolint:gocritic // hugeParam: read-only copy
	s.lastErr.Store(&CycleError{Seq: e.Seq, Year: e.Year, Err: err, At: time.Now().UTC()})
	s.state.Store(prev)
	s.failures.Add(1)
	metrics.RecordCycleFailure()
	metrics.RecordErrorByType("cycle_error", "high")
	s.log().Error(ctx, "cycle failed",
		logger.Uint64("seq", e.Seq),
		logger.Int("year", e.Year),
		logger.Error(err),
	)
}

// publish stores f unless a newer version is already published.
func (s *Service) publish(f *Frame) bool {
	for {
		cur := s.frame.Load()
		if cur != nil && cur.Version > f.Version {
			return false
		}
		if s.frame.CompareAndSwap(cur, f) {
			return true
		}
	}
}

// markHandled advances the handled watermark and wakes Await callers.
func (s *Service) markHandled(seq uint64) {
	for {
		cur := s.handled.Load()
		if seq <= cur || s.handled.CompareAndSwap(cur, seq) {
			break
		}
	}

	s.waitMu.Lock()
	close(s.published)
	s.published = make(chan struct{})
	s.waitMu.Unlock()
}

func (s *Service) newEvent(year int) model.YearChanged {
	return model.YearChanged{
		ID:          uuid.NewString(),
		Seq:         s.seq.Add(1),
		Year:        year,
		RequestedAt: time.Now().UTC(),
	}
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("controller")
	}
	return s.logger
}

// Current returns the published frame. ok is false before the first render.
func (s *Service) Current() (Frame, bool) {
	f := s.frame.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// LastError returns the most recent failed cycle, cleared by the next success.
func (s *Service) LastError() *CycleError {
	return s.lastErr.Load()
}

// State returns where the controller is in its cycle.
func (s *Service) State() State {
	return s.state.Load().(State)
}

// Years returns the slider stops.
func (s *Service) Years() []int {
	return s.table.Years()
}

// DefaultYear is the initial selection.
func (s *Service) DefaultYear() int {
	return s.table.MinYear()
}

// TopN returns the configured pie size.
func (s *Service) TopN() int {
	return s.topN
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"state":         string(s.State()),
		"rows":          s.table.Len(),
		"years":         len(s.table.Years()),
		"topN":          s.topN,
		"queueCapacity": s.queueCapacity,
		"submitted":     s.submitted.Load(),
		"cycles":        s.cycles.Load(),
		"failures":      s.failures.Load(),
		"lastError":     nil,
	}

	if f := s.frame.Load(); f != nil {
		stats["year"] = f.Year
		stats["version"] = f.Version
		stats["renderedAt"] = f.RenderedAt
	}
	if ce := s.lastErr.Load(); ce != nil {
		stats["lastError"] = map[string]interface{}{
			"seq":   ce.Seq,
			"year":  ce.Year,
			"error": ce.Error(),
			"at":    ce.At,
		}
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["coalesced"] = s.queue.Coalesced()
	}

	return stats
}
