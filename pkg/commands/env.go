package commands

import (
	"context"

	"github.com/arthur-debert/fsmerge/pkg/config"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/record"
	"github.com/arthur-debert/fsmerge/pkg/spawn"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/arthur-debert/fsmerge/pkg/triggers/catalog"
)

// Env is what every operation works against
type Env struct {
	FS     filesystem.FS
	Config *config.Config
	Runner spawn.Runner

	// Reporter and Observer may be nil
	Reporter triggers.Reporter
	Observer triggers.Observer
}

// NewEnv returns an Env on the OS filesystem using cfg
func NewEnv(cfg *config.Config) Env {
	return Env{
		FS:     filesystem.NewOS(),
		Config: cfg,
		Runner: spawn.NewExecRunner(),
	}
}

func (e Env) config() *config.Config {
	if e.Config == nil {
		return config.Get()
	}
	return e.Config
}

// Store returns the installed-contents database
func (e Env) Store() *record.Store {
	cfg := e.config()
	return record.NewStore(e.FS, cfg.DBDir, cfg.Root)
}

func (e Env) deps() catalog.Deps {
	return catalog.Deps{FS: e.FS, Runner: e.Runner, Config: e.config()}
}

// engine returns an engine for mode with the configured triggers
// registered
func (e Env) engine(ctx context.Context, mode triggers.Mode) (*triggers.Engine, error) {
	cfg := e.config()
	ts, err := catalog.Default(e.deps())
	if err != nil {
		return nil, err
	}

	opts := []triggers.EngineOption{triggers.WithContext(ctx)}
	if e.Reporter != nil {
		opts = append(opts, triggers.WithReporter(e.Reporter))
	}
	if e.Observer != nil {
		opts = append(opts, triggers.WithObserver(e.Observer))
	}
	if cfg.Engine.AbortOnMissingChangeset {
		opts = append(opts, triggers.AbortOnMissingChangeset())
	}

	eng := triggers.NewEngine(mode, cfg.Root, opts...)
	if err := eng.RegisterAll(ts...); err != nil {
		return nil, err
	}
	return eng, nil
}
