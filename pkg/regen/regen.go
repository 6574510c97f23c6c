// Package regen runs many independent regeneration units on a bounded
// worker pool.
//
// One producer feeds a queue holding at most twice as many units as
// there are workers. Each worker pulls one unit at a time. Unit failures
// are collected in an ErrorSink and never stop the batch; a producer
// failure or a cancelled context sets a shared stop flag, after which
// workers finish their current unit and exit, and queued units are
// abandoned. Completion order across workers is not defined.
package regen

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval bounds how long an idle worker waits before
// checking the stop flag again
const DefaultPollInterval = 250 * time.Millisecond

// Unit is one independent piece of work
type Unit interface {
	Name() string
	Run(ctx context.Context) error
}

type funcUnit struct {
	name string
	fn   func(ctx context.Context) error
}

func (u funcUnit) Name() string                  { return u.name }
func (u funcUnit) Run(ctx context.Context) error { return u.fn(ctx) }

// Func adapts a function to a Unit
func Func(name string, fn func(ctx context.Context) error) Unit {
	return funcUnit{name: name, fn: fn}
}

// Producer feeds units to yield until it runs out or yield fails
type Producer func(yield func(Unit) error) error

// ErrorSink collects unit failures; safe for concurrent use
type ErrorSink struct {
	mu   sync.Mutex
	errs []error
}

// Add records err against unit
func (s *ErrorSink) Add(unit string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, fmt.Errorf("%s: %w", unit, err))
}

// Errors returns every recorded failure
func (s *ErrorSink) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// Len returns the number of failures
func (s *ErrorSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

// Err joins every failure, or returns nil
func (s *ErrorSink) Err() error {
	return errors.Join(s.Errors()...)
}

// Stats summarizes a Run
type Stats struct {
	Produced  int
	Processed int
	Failed    int
	Abandoned int
	Elapsed   time.Duration
}

// Pool runs units on Jobs workers
type Pool struct {
	Jobs         int
	PollInterval time.Duration

	logger zerolog.Logger
}

// DefaultJobs overschedules by one on multi-core machines so a worker is
// always ready while another waits on a child process
func DefaultJobs() int {
	n := runtime.NumCPU()
	if n > 1 {
		n++
	}
	return n
}

// NewPool returns a pool of jobs workers; jobs < 1 means DefaultJobs
func NewPool(jobs int) *Pool {
	if jobs < 1 {
		jobs = DefaultJobs()
	}
	return &Pool{
		Jobs:         jobs,
		PollInterval: DefaultPollInterval,
		logger:       logging.GetLogger("regen"),
	}
}

type run struct {
	sink      *ErrorSink
	stop      atomic.Bool
	produced  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	abandoned atomic.Int64
}

// process runs one unit, turning a panic into a recorded failure
func (r *run) process(ctx context.Context, u Unit) {
	defer r.processed.Add(1)
	defer func() {
		if p := recover(); p != nil {
			r.failed.Add(1)
			r.sink.Add(u.Name(), errors.Newf(errors.ErrInternal, "panic: %v", p))
		}
	}()
	if err := u.Run(ctx); err != nil {
		r.failed.Add(1)
		r.sink.Add(u.Name(), err)
	}
}

// Run drives produce through the pool. It returns the producer's error,
// or ErrStopped when ctx ends first; unit failures only go to sink.
func (p *Pool) Run(ctx context.Context, produce Producer, sink *ErrorSink) (Stats, error) {
	start := time.Now()
	if sink == nil {
		sink = &ErrorSink{}
	}
	r := &run{sink: sink}

	var err error
	var abandoned int
	if p.Jobs <= 1 {
		err = p.runInline(ctx, r, produce)
	} else {
		abandoned, err = p.runPooled(ctx, r, produce)
	}

	stats := Stats{
		Produced:  int(r.produced.Load()),
		Processed: int(r.processed.Load()),
		Failed:    int(r.failed.Load()),
		Abandoned: abandoned,
		Elapsed:   time.Since(start),
	}
	p.logger.Info().
		Int("jobs", p.Jobs).
		Int("produced", stats.Produced).
		Int("failed", stats.Failed).
		Int("abandoned", stats.Abandoned).
		Dur("elapsed", stats.Elapsed).
		Msg("Regeneration finished")
	return stats, err
}

func (p *Pool) runInline(ctx context.Context, r *run, produce Producer) error {
	return produce(func(u Unit) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrStopped, "regeneration interrupted")
		}
		r.produced.Add(1)
		r.process(ctx, u)
		return nil
	})
}

func (p *Pool) runPooled(ctx context.Context, r *run, produce Producer) (int, error) {
	queue := make(chan Unit, 2*p.Jobs)
	poll := p.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	var g errgroup.Group
	for i := 0; i < p.Jobs; i++ {
		g.Go(func() error {
			p.worker(ctx, r, queue, poll)
			return nil
		})
	}

	err := produce(func(u Unit) error {
		if r.stop.Load() {
			return errors.New(errors.ErrStopped, "regeneration stopped")
		}
		select {
		case queue <- u:
			r.produced.Add(1)
			return nil
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrStopped, "regeneration interrupted")
		}
	})
	if err == nil {
		err = ctx.Err()
		if err != nil {
			err = errors.Wrap(err, errors.ErrStopped, "regeneration interrupted")
		}
	}
	if err != nil {
		r.stop.Store(true)
	}
	close(queue)
	_ = g.Wait()

	abandoned := int(r.abandoned.Load())
	for range queue {
		abandoned++
	}
	if abandoned > 0 {
		p.logger.Warn().Int("units", abandoned).Msg("Abandoned queued units")
	}
	return abandoned, err
}

func (p *Pool) worker(ctx context.Context, r *run, queue <-chan Unit, poll time.Duration) {
	timer := time.NewTimer(poll)
	defer timer.Stop()
	for !r.stop.Load() {
		timer.Reset(poll)
		select {
		case u, ok := <-queue:
			if !ok {
				return
			}
			if r.stop.Load() {
				r.abandoned.Add(1)
				return
			}
			r.process(ctx, u)
		case <-ctx.Done():
			r.stop.Store(true)
			return
		case <-timer.C:
		}
	}
}
