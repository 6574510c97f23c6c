package catalog

import (
	"testing"

	"github.com/arthur-debert/fsmerge/pkg/config"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/registry"
	"github.com/arthur-debert/fsmerge/pkg/testutil"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/arthur-debert/fsmerge/pkg/triggers/inforegen"
	"github.com/arthur-debert/fsmerge/pkg/triggers/perms"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deps(cfg *config.Config) Deps {
	return Deps{
		FS:     filesystem.From(afero.NewMemMapFs()),
		Runner: &testutil.MockRunner{},
		Config: cfg,
	}
}

func labels(ts []triggers.Trigger) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Label())
	}
	return out
}

func TestNew_RegistersStockTriggersInOrder(t *testing.T) {
	reg := New()
	assert.Equal(t, []string{
		NameMerge, NameUnmerge, NameFixUID, NameFixGID, NameFixSetBits,
		NameWorldWritable, NamePrune, NameLdconfig, NameInfoRegen,
	}, reg.Names())
}

func TestDefault(t *testing.T) {
	ts, err := Default(deps(config.Default()))
	require.NoError(t, err)

	// prune has no patterns by default
	assert.Equal(t, []string{
		"merge", "unmerge", "fix uid perms", "fix gid perms", "fix set bits",
		"detect world writable", "ldconfig", inforegen.Label,
	}, labels(ts))

	eng := triggers.NewEngine(triggers.ModeInstall, "/")
	require.NoError(t, eng.RegisterAll(ts...))
	assert.Len(t, eng.Bindings(triggers.HookSanityCheck), 4)
}

func TestDefault_ConfigDisables(t *testing.T) {
	cfg := config.Default()
	cfg.Perms.FixOwnership = false
	cfg.Perms.ReportWorldWritable = false
	cfg.Ldconfig.Enabled = false
	cfg.Info.Enabled = false

	ts, err := Default(deps(cfg))
	require.NoError(t, err)
	assert.Equal(t, []string{"merge", "unmerge", "fix set bits"}, labels(ts))
}

func TestDefault_ConfigEnables(t *testing.T) {
	cfg := config.Default()
	cfg.Perms.ReportWorldWritable = false
	cfg.Perms.StripWorldWritable = true
	cfg.Perms.StripSetBits = true
	cfg.Prune.Patterns = []string{"*.la"}

	ts, err := Default(deps(cfg))
	require.NoError(t, err)
	assert.Contains(t, labels(ts), "prune files")

	for _, tr := range ts {
		switch v := tr.(type) {
		case *perms.DetectWorldWritable:
			assert.True(t, v.Fix)
		case *perms.FixSetBits:
			assert.True(t, v.Fix)
		}
	}
}

func TestDefault_BadPrunePattern(t *testing.T) {
	cfg := config.Default()
	cfg.Prune.Patterns = []string{"[unclosed"}

	_, err := Default(deps(cfg))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestBuild_CustomRegistry(t *testing.T) {
	extra := testutil.NewMockTrigger("extra", 50, triggers.HookPostMerge)
	reg := registry.New[Factory]()
	registry.MustRegister(reg, "extra", func(Deps) (triggers.Trigger, error) { return extra, nil })
	registry.MustRegister(reg, "off", func(Deps) (triggers.Trigger, error) { return nil, nil })

	ts, err := Build(reg, deps(config.Default()))
	require.NoError(t, err)
	assert.Equal(t, []triggers.Trigger{extra}, ts)
}
