package triggers

import (
	"context"
	"slices"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type binding struct {
	trigger  Trigger
	priority int
	required Requirement
}

// Engine dispatches triggers for one merge operation. It is not safe for
// concurrent use.
type Engine struct {
	mode     Mode
	offset   string
	reporter Reporter
	observer Observer
	logger   zerolog.Logger
	ctx      context.Context
	runID    string

	abortOnMissing bool

	bindings map[Hook][]binding
	running  map[Hook]bool
	phase    Hook
	warnings []error
	failures []error
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithReporter sets the reporter triggers report findings to
func WithReporter(r Reporter) EngineOption {
	return func(e *Engine) { e.reporter = r }
}

// WithObserver sets the progress observer
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// WithLogger replaces the engine logger
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithContext sets the context checked between triggers
func WithContext(ctx context.Context) EngineOption {
	return func(e *Engine) { e.ctx = ctx }
}

// AbortOnMissingChangeset makes a missing required changeset abort the
// hook instead of skipping the trigger
func AbortOnMissingChangeset() EngineOption {
	return func(e *Engine) { e.abortOnMissing = true }
}

// NewEngine returns an engine for mode applying changes below offset. An
// empty offset means the root.
func NewEngine(mode Mode, offset string, opts ...EngineOption) *Engine {
	if offset == "" {
		offset = paths.Separator
	}
	e := &Engine{
		mode:     mode,
		offset:   offset,
		logger:   logging.GetLogger("engine"),
		ctx:      context.Background(),
		runID:    uuid.NewString(),
		bindings: make(map[Hook][]binding),
		running:  make(map[Hook]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().
		Str("run", e.runID).
		Stringer("mode", e.mode).
		Logger()
	return e
}

func (e *Engine) Mode() Mode               { return e.mode }
func (e *Engine) Offset() string           { return e.offset }
func (e *Engine) Reporter() Reporter       { return e.reporter }
func (e *Engine) Observer() Observer       { return e.observer }
func (e *Engine) Logger() zerolog.Logger   { return e.logger }
func (e *Engine) Context() context.Context { return e.ctx }
func (e *Engine) RunID() string            { return e.runID }

// Phase returns the hook currently running, or "" between hooks
func (e *Engine) Phase() Hook { return e.phase }

// Warnings returns the trigger warnings collected so far
func (e *Engine) Warnings() []error { return e.warnings }

// Failures returns the triggers skipped for missing changesets
func (e *Engine) Failures() []error { return e.failures }

// Register binds t to each of its hooks. A trigger restricted to other
// modes is ignored, as are hooks the engine does not know.
func (e *Engine) Register(t Trigger) error {
	if !supports(t, e.mode) {
		e.logger.Trace().Str("trigger", t.Label()).Msg("trigger skipped for mode")
		return nil
	}
	required := t.RequiredChangesets(e.mode)
	for _, hook := range t.Hooks() {
		if !hook.Known() {
			e.logger.Debug().
				Str("trigger", t.Label()).
				Str("hook", string(hook)).
				Msg("unknown hook ignored")
			continue
		}
		if err := e.AddTrigger(hook, t, required); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAll registers every trigger, stopping at the first error
func (e *Engine) RegisterAll(ts ...Trigger) error {
	for _, t := range ts {
		if err := e.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// AddTrigger binds t to hook with the given requirement. Triggers of equal
// priority keep registration order.
func (e *Engine) AddTrigger(hook Hook, t Trigger, required Requirement) error {
	if !hook.Known() {
		return errors.Newf(errors.ErrTriggerInvalid, "unknown hook %q", hook).
			WithDetail("trigger", t.Label())
	}
	p := t.Priority()
	if p < MinPriority || p > MaxPriority {
		return errors.Newf(errors.ErrTriggerInvalid,
			"trigger %s priority %d outside [%d, %d]", t.Label(), p, MinPriority, MaxPriority)
	}
	bs := append(e.bindings[hook], binding{trigger: t, priority: p, required: required})
	slices.SortStableFunc(bs, func(a, b binding) int { return a.priority - b.priority })
	e.bindings[hook] = bs
	return nil
}

// Bindings returns the triggers of hook in dispatch order
func (e *Engine) Bindings(hook Hook) []Trigger {
	out := make([]Trigger, 0, len(e.bindings[hook]))
	for _, b := range e.bindings[hook] {
		out = append(out, b.trigger)
	}
	return out
}

// Run dispatches hook. Warnings are collected and dispatch continues;
// any other trigger error stops it and is returned.
func (e *Engine) Run(hook Hook, csets Changesets) error {
	if !hook.Known() {
		return errors.Newf(errors.ErrTriggerInvalid, "unknown hook %q", hook)
	}
	if e.running[hook] {
		return errors.Newf(errors.ErrReentrantHook, "hook %s is already running", hook)
	}
	e.running[hook] = true
	prev := e.phase
	e.phase = hook
	defer func() {
		delete(e.running, hook)
		e.phase = prev
	}()

	logger := e.logger.With().Str("hook", string(hook)).Logger()
	logger.Debug().Int("triggers", len(e.bindings[hook])).Msg("Running hook")

	for _, b := range slices.Clone(e.bindings[hook]) {
		if err := e.ctx.Err(); err != nil {
			return errors.Wrapf(err, errors.ErrStopped, "hook %s interrupted", hook)
		}
		label := b.trigger.Label()

		sliced, err := b.required.Slice(csets)
		if err != nil {
			if e.abortOnMissing {
				return err
			}
			logger.Error().Err(err).Str("trigger", label).Msg("Trigger skipped")
			e.failures = append(e.failures, err)
			if e.observer != nil {
				e.observer.Warn("%s: %v", label, err)
			}
			continue
		}

		logger.Trace().Str("trigger", label).Int("priority", b.priority).Msg("Running trigger")
		err = b.trigger.Run(e, sliced)
		switch {
		case err == nil:
		case errors.IsErrorCode(err, errors.ErrBlockModification):
			logger.Error().Err(err).Str("trigger", label).Msg("Trigger blocked the operation")
			return err
		case errors.IsErrorCode(err, errors.ErrTriggerWarning):
			logger.Warn().Err(err).Str("trigger", label).Msg("Trigger warning")
			e.warnings = append(e.warnings, err)
			if e.observer != nil {
				e.observer.Warn("%s: %v", label, err)
			}
		default:
			logger.Error().Err(err).Str("trigger", label).Msg("Trigger failed")
			return err
		}
	}
	return nil
}

// Execute runs every hook of the engine mode in lifecycle order. In
// replace mode "uninstall" is recomputed from old_cset and new_cset once
// the install hooks are done, so entries the sanity triggers dropped from
// new_cset are removed along with the rest of the old contents.
func (e *Engine) Execute(csets Changesets) error {
	defer logging.LogOperationStart(e.logger, "execute")()
	for _, hook := range e.mode.Sequence() {
		if e.mode == ModeReplace && hook == HookPreUnmerge {
			refreshUninstall(csets)
		}
		if err := e.Run(hook, csets); err != nil {
			return err
		}
	}
	return nil
}

func refreshUninstall(csets Changesets) {
	old, okOld := csets[CsetOld]
	cur, okNew := csets[CsetNew]
	if !okOld || !okNew {
		return
	}
	csets[CsetUninstall] = old.Difference(cur).Clone(true)
}
