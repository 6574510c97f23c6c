package commands

import (
	"context"

	"github.com/arthur-debert/fsmerge/pkg/archive"
	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
)

// Result describes a finished merge, unmerge or replace
type Result struct {
	Name  string
	Mode  triggers.Mode
	RunID string
	// Installed and Removed count the entries of the install and
	// uninstall changesets after every trigger ran
	Installed int
	Removed   int
	Warnings  []error
	// Skipped holds triggers that did not run for a missing changeset
	Skipped []error
}

// Merge installs the package archive at archivePath under name. The
// package must not be recorded yet.
func Merge(ctx context.Context, env Env, name, archivePath string) (*Result, error) {
	logger := logging.GetLogger("commands.merge")
	logger.Debug().Str("package", name).Str("archive", archivePath).Msg("Executing command")

	store := env.Store()
	if store.Has(name) {
		return nil, errors.Newf(errors.ErrAlreadyExists,
			"package %s is already merged, use replace", name).WithDetail("package", name)
	}
	return executeArchive(ctx, env, triggers.ModeInstall, name, archivePath, nil)
}

// Replace swaps the recorded contents of name for the archive at
// archivePath, removing what the new archive no longer ships. A package
// without a record is merged.
func Replace(ctx context.Context, env Env, name, archivePath string) (*Result, error) {
	logger := logging.GetLogger("commands.replace")
	logger.Debug().Str("package", name).Str("archive", archivePath).Msg("Executing command")

	installed, err := env.Store().Read(name)
	switch {
	case errors.IsErrorCode(err, errors.ErrRecordNotFound):
		logger.Info().Str("package", name).Msg("No record found, merging instead")
		return Merge(ctx, env, name, archivePath)
	case err != nil:
		return nil, err
	}
	return executeArchive(ctx, env, triggers.ModeReplace, name, archivePath, installed)
}

// Unmerge removes the recorded contents of name from disk and drops the
// record
func Unmerge(ctx context.Context, env Env, name string) (*Result, error) {
	logger := logging.GetLogger("commands.unmerge")
	logger.Debug().Str("package", name).Msg("Executing command")

	installed, err := env.Store().Read(name)
	if err != nil {
		return nil, err
	}
	return execute(ctx, env, triggers.ModeUninstall, name, nil, installed)
}

// executeArchive keeps the archive open while the engine runs so member
// data streams from a single pass over it
func executeArchive(ctx context.Context, env Env, mode triggers.Mode, name, archivePath string, installed *contents.Set) (*Result, error) {
	src, err := archive.OpenFile(env.FS, archivePath, archive.CompressionNone)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()
	pending, err := archive.Convert(src)
	if err != nil {
		return nil, err
	}
	return execute(ctx, env, mode, name, pending, installed)
}

func execute(ctx context.Context, env Env, mode triggers.Mode, name string, pending, installed *contents.Set) (*Result, error) {
	csets, err := triggers.BuildChangesets(mode, pending, installed)
	if err != nil {
		return nil, err
	}
	eng, err := env.engine(ctx, mode)
	if err != nil {
		return nil, err
	}
	if err := eng.Execute(csets); err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "%s of %s failed", mode, name)
	}

	res := &Result{
		Name:     name,
		Mode:     mode,
		RunID:    eng.RunID(),
		Warnings: eng.Warnings(),
		Skipped:  eng.Failures(),
	}
	if s, ok := csets[triggers.CsetInstall]; ok {
		res.Installed = s.Len()
	}
	if s, ok := csets[triggers.CsetUninstall]; ok {
		res.Removed = s.Len()
	}

	store := env.Store()
	if mode == triggers.ModeUninstall {
		if err := store.Remove(name); err != nil {
			return nil, err
		}
	} else if err := store.Write(name, csets[triggers.CsetInstall]); err != nil {
		return nil, err
	}

	logging.GetLogger("commands").Info().
		Str("package", name).
		Stringer("mode", mode).
		Int("installed", res.Installed).
		Int("removed", res.Removed).
		Int("warnings", len(res.Warnings)).
		Msg("Command finished")
	return res, nil
}
