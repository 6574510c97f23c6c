package commands

import (
	"context"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/livefs"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/regen"
)

// RegenResult reports a bulk regeneration
type RegenResult struct {
	Stats  regen.Stats
	Errors []error
}

// Regen rescans the installed files of every named package, or of every
// recorded package when names is empty, and rewrites their records with
// fresh metadata and full checksums. Packages are processed in parallel;
// a failing package does not stop the others.
func Regen(ctx context.Context, env Env, names []string) (*RegenResult, error) {
	logger := logging.GetLogger("commands.regen")
	store := env.Store()
	cfg := env.config()

	if len(names) == 0 {
		var err error
		if names, err = store.List(); err != nil {
			return nil, err
		}
	}
	logger.Debug().Int("packages", len(names)).Msg("Executing command")

	pool := regen.NewPool(cfg.Regen.Jobs)
	if cfg.Regen.PollInterval > 0 {
		pool.PollInterval = time.Duration(cfg.Regen.PollInterval)
	}

	produce := func(yield func(regen.Unit) error) error {
		for _, name := range names {
			if err := yield(regen.Func(name, func(context.Context) error {
				return regenRecord(env, name)
			})); err != nil {
				return err
			}
		}
		return nil
	}

	sink := &regen.ErrorSink{}
	stats, err := pool.Run(ctx, produce, sink)
	return &RegenResult{Stats: stats, Errors: sink.Errors()}, err
}

func regenRecord(env Env, name string) error {
	store := env.Store()
	set, err := store.Read(name)
	if err != nil {
		return err
	}
	fresh, err := livefs.Rescan(env.FS, env.config().Root, set)
	if err != nil {
		return err
	}
	fresh, err = livefs.AddChecksums(fresh)
	if err != nil {
		return err
	}
	return store.Write(name, fresh)
}
