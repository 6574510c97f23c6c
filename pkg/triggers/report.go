package triggers

import (
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/rs/zerolog"
)

// Reporter receives findings triggers want a user to see. Messages are
// printf formats.
type Reporter interface {
	Error(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Info(msg string, args ...interface{})
}

// Observer follows the progress of an operation
type Observer interface {
	Warn(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Installing(obj fsobj.Object)
	Removing(obj fsobj.Object)
}

// LogReporter sends reports to a logger
type LogReporter struct {
	Logger zerolog.Logger
}

func (r LogReporter) Error(msg string, args ...interface{}) {
	r.Logger.Error().Msgf(msg, args...)
}

func (r LogReporter) Warn(msg string, args ...interface{}) {
	r.Logger.Warn().Msgf(msg, args...)
}

func (r LogReporter) Info(msg string, args ...interface{}) {
	r.Logger.Info().Msgf(msg, args...)
}

// LogObserver logs progress, with per-object events at debug level
type LogObserver struct {
	Logger zerolog.Logger
}

func (o LogObserver) Warn(msg string, args ...interface{}) {
	o.Logger.Warn().Msgf(msg, args...)
}

func (o LogObserver) Info(msg string, args ...interface{}) {
	o.Logger.Info().Msgf(msg, args...)
}

func (o LogObserver) Installing(obj fsobj.Object) {
	o.Logger.Debug().Str("path", obj.Path()).Stringer("kind", obj.Kind()).Msg("installing")
}

func (o LogObserver) Removing(obj fsobj.Object) {
	o.Logger.Debug().Str("path", obj.Path()).Stringer("kind", obj.Kind()).Msg("removing")
}
