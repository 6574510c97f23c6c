package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/spawn"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/stretchr/testify/mock"
)

// MockTrigger is a mock implementation of the triggers.Trigger interface for testing.
type MockTrigger struct {
	LabelValue    string
	HooksValue    []triggers.Hook
	PriorityValue int
	ModesValue    []triggers.Mode
	// RequiredFunc defaults to RequireAll
	RequiredFunc func(mode triggers.Mode) triggers.Requirement
	RunFunc      func(eng *triggers.Engine, csets triggers.Changesets) error

	mu    sync.Mutex
	calls []triggers.Changesets
}

// NewMockTrigger returns a trigger on hooks at priority that records its calls
func NewMockTrigger(label string, priority int, hooks ...triggers.Hook) *MockTrigger {
	return &MockTrigger{LabelValue: label, HooksValue: hooks, PriorityValue: priority}
}

func (m *MockTrigger) Label() string                { return m.LabelValue }
func (m *MockTrigger) Hooks() []triggers.Hook       { return m.HooksValue }
func (m *MockTrigger) Priority() int                { return m.PriorityValue }
func (m *MockTrigger) EngineModes() []triggers.Mode { return m.ModesValue }

// RequiredChangesets returns the mock's requirement.
func (m *MockTrigger) RequiredChangesets(mode triggers.Mode) triggers.Requirement {
	if m.RequiredFunc != nil {
		return m.RequiredFunc(mode)
	}
	return triggers.RequireAll()
}

// Run records the call and runs the mock's run function.
func (m *MockTrigger) Run(eng *triggers.Engine, csets triggers.Changesets) error {
	m.mu.Lock()
	m.calls = append(m.calls, csets)
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(eng, csets)
	}
	return nil
}

// Calls returns the changesets of every Run call
func (m *MockTrigger) Calls() []triggers.Changesets {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]triggers.Changesets(nil), m.calls...)
}

// MockRunner is a testify mock of spawn.Runner
type MockRunner struct {
	mock.Mock
}

// Run implements spawn.Runner. Arguments are matched as (name, args).
func (m *MockRunner) Run(_ context.Context, name string, args ...string) (spawn.Result, error) {
	ret := m.Called(name, args)
	return ret.Get(0).(spawn.Result), ret.Error(1)
}

// FindBinary implements spawn.Runner
func (m *MockRunner) FindBinary(name string) (string, error) {
	ret := m.Called(name)
	return ret.String(0), ret.Error(1)
}

// Report is one message captured by a recorder
type Report struct {
	Level   string
	Message string
}

// RecordingReporter captures reports with their arguments applied
type RecordingReporter struct {
	mu      sync.Mutex
	Reports []Report
}

func (r *RecordingReporter) add(level, msg string, args []interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reports = append(r.Reports, Report{Level: level, Message: fmt.Sprintf(msg, args...)})
}

func (r *RecordingReporter) Error(msg string, args ...interface{}) { r.add("error", msg, args) }
func (r *RecordingReporter) Warn(msg string, args ...interface{})  { r.add("warn", msg, args) }
func (r *RecordingReporter) Info(msg string, args ...interface{})  { r.add("info", msg, args) }

// Messages returns the messages reported at level
func (r *RecordingReporter) Messages(level string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rep := range r.Reports {
		if rep.Level == level {
			out = append(out, rep.Message)
		}
	}
	return out
}

// RecordingObserver captures observer events
type RecordingObserver struct {
	RecordingReporter
	Installed []string
	Removed   []string
}

func (o *RecordingObserver) Installing(obj fsobj.Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Installed = append(o.Installed, obj.Path())
}

func (o *RecordingObserver) Removing(obj fsobj.Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Removed = append(o.Removed, obj.Path())
}

var (
	_ triggers.Trigger  = (*MockTrigger)(nil)
	_ triggers.Reporter = (*RecordingReporter)(nil)
	_ triggers.Observer = (*RecordingObserver)(nil)
	_ spawn.Runner      = (*MockRunner)(nil)
)
