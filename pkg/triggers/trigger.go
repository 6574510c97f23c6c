package triggers

import (
	"slices"

	"github.com/arthur-debert/fsmerge/pkg/errors"
)

const (
	// DefaultPriority is the priority of a trigger that does not set one
	DefaultPriority = 50
	MinPriority     = 0
	MaxPriority     = 100
)

// Trigger is a unit of logic bound to one or more hooks
type Trigger interface {
	Label() string
	Hooks() []Hook
	// Priority orders triggers of a hook, lowest first, within [0, 100]
	Priority() int
	// EngineModes restricts the modes the trigger registers for; nil
	// means every mode
	EngineModes() []Mode
	RequiredChangesets(mode Mode) Requirement
	Run(eng *Engine, csets Changesets) error
}

// Base carries the declarative parts of a trigger. Embed it and
// implement Run.
type Base struct {
	label    string
	hooks    []Hook
	priority int
	modes    []Mode
	required Requirement
}

// BaseOption configures a Base
type BaseOption func(*Base)

// WithPriority sets the priority
func WithPriority(p int) BaseOption {
	return func(b *Base) { b.priority = p }
}

// WithModes restricts the trigger to the given engine modes
func WithModes(modes ...Mode) BaseOption {
	return func(b *Base) { b.modes = modes }
}

// WithRequirement sets the changesets the trigger receives
func WithRequirement(r Requirement) BaseOption {
	return func(b *Base) { b.required = r }
}

// NewBase returns a Base running at DefaultPriority in every mode with
// every changeset
func NewBase(label string, hooks []Hook, opts ...BaseOption) Base {
	b := Base{
		label:    label,
		hooks:    hooks,
		priority: DefaultPriority,
		required: RequireAll(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b Base) Label() string       { return b.label }
func (b Base) Hooks() []Hook       { return b.hooks }
func (b Base) Priority() int       { return b.priority }
func (b Base) EngineModes() []Mode { return b.modes }

func (b Base) RequiredChangesets(Mode) Requirement { return b.required }

// supports reports whether t registers for mode
func supports(t Trigger, mode Mode) bool {
	modes := t.EngineModes()
	return modes == nil || slices.Contains(modes, mode)
}

// Warning builds a non-fatal trigger error
func Warning(t Trigger, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrTriggerWarning, format, args...).
		WithDetail("trigger", t.Label())
}

// Block builds an error that aborts the operation
func Block(t Trigger, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrBlockModification, format, args...).
		WithDetail("trigger", t.Label())
}
