package commands

import (
	"context"

	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/arthur-debert/fsmerge/pkg/triggers/catalog"
)

// EnvUpdate regenerates the linker cache below the configured root
// without merging anything. It returns the trigger warnings; a disabled
// ldconfig trigger makes it a no-op.
func EnvUpdate(ctx context.Context, env Env) ([]error, error) {
	logger := logging.GetLogger("commands.envupdate")

	factory, err := catalog.New().Get(catalog.NameLdconfig)
	if err != nil {
		return nil, err
	}
	t, err := factory(env.deps())
	if err != nil {
		return nil, err
	}
	if t == nil {
		logger.Info().Msg("ldconfig is disabled, nothing to update")
		return nil, nil
	}

	opts := []triggers.EngineOption{triggers.WithContext(ctx)}
	if env.Reporter != nil {
		opts = append(opts, triggers.WithReporter(env.Reporter))
	}
	if env.Observer != nil {
		opts = append(opts, triggers.WithObserver(env.Observer))
	}
	eng := triggers.NewEngine(triggers.ModeInstall, env.config().Root, opts...)
	if err := eng.AddTrigger(triggers.HookPostMerge, t, triggers.RequireNone()); err != nil {
		return nil, err
	}
	// nothing armed the watcher, so the post hook always regenerates
	if err := eng.Run(triggers.HookPostMerge, triggers.Changesets{}); err != nil {
		return nil, err
	}
	return eng.Warnings(), nil
}
