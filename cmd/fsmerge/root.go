package fsmerge

import (
	"fmt"
	"io"

	"github.com/arthur-debert/fsmerge/internal/version"
	"github.com/arthur-debert/fsmerge/pkg/commands"
	"github.com/arthur-debert/fsmerge/pkg/config"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/style"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cli carries the global flags and what PersistentPreRunE builds from
// them
type cli struct {
	verbosity int
	cfgFile   string
	root      string
	dbDir     string
	noColor   bool

	env      commands.Env
	styles   style.Styles
	terminal *style.Terminal
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:     "fsmerge",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// If we get here, no subcommand was provided
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&c.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&c.root, "root", "", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&c.dbDir, "db-dir", "", MsgFlagDBDir)
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, MsgFlagNoColor)

	rootCmd.AddGroup(&cobra.Group{ID: "packages", Title: "PACKAGES:"})
	rootCmd.AddGroup(&cobra.Group{ID: "maintenance", Title: "MAINTENANCE:"})

	rootCmd.AddCommand(c.newMergeCmd())
	rootCmd.AddCommand(c.newUnmergeCmd())
	rootCmd.AddCommand(c.newReplaceCmd())
	rootCmd.AddCommand(c.newContentsCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newPackCmd())
	rootCmd.AddCommand(c.newRegenCmd())
	rootCmd.AddCommand(c.newEnvUpdateCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads the configuration, applies flag overrides and initializes
// logging and output
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfiguration(c.cfgFile)
	if err != nil {
		return err
	}
	if c.root != "" {
		cfg.Root = c.root
	}
	if c.dbDir != "" {
		cfg.DBDir = c.dbDir
	}
	if c.noColor {
		cfg.Log.NoColor = true
	}
	if c.verbosity > cfg.Log.Verbosity {
		cfg.Log.Verbosity = c.verbosity
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.Initialize(cfg)

	logging.Setup(logging.Options{
		Verbosity:  cfg.Log.Verbosity,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		NoColor:    cfg.Log.NoColor,
		Console:    cmd.ErrOrStderr(),
	})
	log.Debug().Str("command", cmd.Name()).Str("root", cfg.Root).Msg("Command started")

	c.styles = style.NewStyles(style.ColorEnabled(cmd.OutOrStdout(), cfg.Log.NoColor))
	c.terminal = style.NewTerminal(cmd.OutOrStdout(), c.styles)
	c.terminal.Verbose = cfg.Log.Verbosity > 0

	c.env = commands.NewEnv(cfg)
	c.env.Reporter = c.terminal
	c.env.Observer = c.terminal
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "fsmerge version %s\n", version.Version)
			_, _ = fmt.Fprintf(out, "  commit: %s\n", version.Commit)
			_, _ = fmt.Fprintf(out, "  built:  %s\n", version.Date)
		},
	}
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
