// Package catalog names the stock triggers and builds the set a
// configuration asks for. Registration is explicit; nothing registers
// itself from init.
package catalog

import (
	"github.com/arthur-debert/fsmerge/pkg/config"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/registry"
	"github.com/arthur-debert/fsmerge/pkg/spawn"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/arthur-debert/fsmerge/pkg/triggers/fsops"
	"github.com/arthur-debert/fsmerge/pkg/triggers/inforegen"
	"github.com/arthur-debert/fsmerge/pkg/triggers/ldconfig"
	"github.com/arthur-debert/fsmerge/pkg/triggers/perms"
	"github.com/arthur-debert/fsmerge/pkg/triggers/prune"
)

// Trigger names
const (
	NameMerge         = "merge"
	NameUnmerge       = "unmerge"
	NameFixUID        = "fix_uid"
	NameFixGID        = "fix_gid"
	NameFixSetBits    = "fix_set_bits"
	NameWorldWritable = "world_writable"
	NamePrune         = "prune"
	NameLdconfig      = "ldconfig"
	NameInfoRegen     = "info_regen"
)

// Deps is what factories build triggers from
type Deps struct {
	FS     filesystem.FS
	Runner spawn.Runner
	Config *config.Config
}

// Factory builds a trigger. A nil trigger means the configuration
// disables it.
type Factory func(Deps) (triggers.Trigger, error)

// New returns a registry holding every stock trigger factory
func New() registry.Registry[Factory] {
	reg := registry.New[Factory]()
	registry.MustRegister(reg, NameMerge, mergeFactory)
	registry.MustRegister(reg, NameUnmerge, unmergeFactory)
	registry.MustRegister(reg, NameFixUID, fixUIDFactory)
	registry.MustRegister(reg, NameFixGID, fixGIDFactory)
	registry.MustRegister(reg, NameFixSetBits, fixSetBitsFactory)
	registry.MustRegister(reg, NameWorldWritable, worldWritableFactory)
	registry.MustRegister(reg, NamePrune, pruneFactory)
	registry.MustRegister(reg, NameLdconfig, ldconfigFactory)
	registry.MustRegister(reg, NameInfoRegen, infoRegenFactory)
	return reg
}

// Build runs every factory in registration order and collects the
// triggers they produce
func Build(reg registry.Registry[Factory], deps Deps) ([]triggers.Trigger, error) {
	logger := logging.GetLogger("catalog")
	if deps.Config == nil {
		deps.Config = config.Get()
	}

	var out []triggers.Trigger
	var buildErr error
	reg.Each(func(name string, f Factory) bool {
		t, err := f(deps)
		if err != nil {
			buildErr = err
			return false
		}
		if t == nil {
			logger.Debug().Str("trigger", name).Msg("disabled by configuration")
			return true
		}
		out = append(out, t)
		return true
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return out, nil
}

// Default builds the stock triggers for deps.Config
func Default(deps Deps) ([]triggers.Trigger, error) {
	return Build(New(), deps)
}

func mergeFactory(d Deps) (triggers.Trigger, error) {
	return fsops.NewMerge(d.FS), nil
}

func unmergeFactory(d Deps) (triggers.Trigger, error) {
	return fsops.NewUnmerge(d.FS), nil
}

func fixUIDFactory(d Deps) (triggers.Trigger, error) {
	p := d.Config.Perms
	if !p.FixOwnership {
		return nil, nil
	}
	return perms.NewFixUID(p.BadUID, p.GoodUID), nil
}

func fixGIDFactory(d Deps) (triggers.Trigger, error) {
	p := d.Config.Perms
	if !p.FixOwnership {
		return nil, nil
	}
	return perms.NewFixGID(p.BadGID, p.GoodGID), nil
}

func fixSetBitsFactory(d Deps) (triggers.Trigger, error) {
	return perms.NewFixSetBits(d.Config.Perms.StripSetBits), nil
}

func worldWritableFactory(d Deps) (triggers.Trigger, error) {
	p := d.Config.Perms
	if !p.ReportWorldWritable && !p.StripWorldWritable {
		return nil, nil
	}
	return perms.NewDetectWorldWritable(p.StripWorldWritable), nil
}

func pruneFactory(d Deps) (triggers.Trigger, error) {
	if len(d.Config.Prune.Patterns) == 0 {
		return nil, nil
	}
	match, err := prune.GlobPredicate(d.Config.Prune.Patterns)
	if err != nil {
		return nil, err
	}
	return prune.New(match), nil
}

func ldconfigFactory(d Deps) (triggers.Trigger, error) {
	c := d.Config.Ldconfig
	if !c.Enabled {
		return nil, nil
	}
	var opts []ldconfig.Option
	if c.Binary != "" {
		opts = append(opts, ldconfig.WithBinary(c.Binary))
	}
	if c.ConfPath != "" {
		opts = append(opts, ldconfig.WithConfPath(c.ConfPath))
	}
	return ldconfig.New(d.FS, d.Runner, opts...), nil
}

func infoRegenFactory(d Deps) (triggers.Trigger, error) {
	c := d.Config.Info
	if !c.Enabled {
		return nil, nil
	}
	var opts []inforegen.Option
	if c.Binary != "" {
		opts = append(opts, inforegen.WithBinary(c.Binary))
	}
	if len(c.Locations) > 0 {
		opts = append(opts, inforegen.WithLocations(c.Locations...))
	}
	return inforegen.New(d.FS, d.Runner, opts...), nil
}
