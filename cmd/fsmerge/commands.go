package fsmerge

import (
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/commands"
	"github.com/arthur-debert/fsmerge/pkg/config"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/style"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "merge <name> <archive>",
		Short:   MsgMergeShort,
		GroupID: "packages",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := commands.Merge(cmd.Context(), c.env, args[0], args[1])
			if err != nil {
				return err
			}
			c.printResult(cmd, res)
			return nil
		},
	}
}

func (c *cli) newUnmergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "unmerge <name>",
		Short:             MsgUnmergeShort,
		GroupID:           "packages",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.packageNamesCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := commands.Unmerge(cmd.Context(), c.env, args[0])
			if err != nil {
				return err
			}
			c.printResult(cmd, res)
			return nil
		},
	}
}

func (c *cli) newReplaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "replace <name> <archive>",
		Short:   MsgReplaceShort,
		Long:    MsgReplaceLong,
		GroupID: "packages",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := commands.Replace(cmd.Context(), c.env, args[0], args[1])
			if err != nil {
				return err
			}
			c.printResult(cmd, res)
			return nil
		},
	}
}

func (c *cli) newContentsCmd() *cobra.Command {
	var (
		format    string
		installed bool
	)
	cmd := &cobra.Command{
		Use:     "contents <archive>",
		Short:   MsgContentsShort,
		GroupID: "packages",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []commands.Entry
			var err error
			if installed {
				entries, err = commands.ListInstalled(c.env, args[0])
			} else {
				entries, err = commands.ListArchive(c.env, args[0])
			}
			if err != nil {
				return err
			}

			switch format {
			case "text":
				for _, e := range entries {
					printf(cmd.OutOrStdout(), "%s\n", formatEntry(c.styles, e))
				}
				return nil
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(entries); err != nil {
					return errors.Wrap(err, errors.ErrInternal, "failed to render yaml")
				}
				return enc.Close()
			default:
				return errors.Newf(errors.ErrInvalidInput, MsgErrFormat, format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", MsgFlagFormat)
	cmd.Flags().BoolVar(&installed, "installed", false, MsgFlagInstalled)
	return cmd
}

// formatEntry renders one listing line: kind, mode, owner, size, path
func formatEntry(s style.Styles, e commands.Entry) string {
	size := ""
	if e.Type == fsobj.KindFile {
		size = humanize.IBytes(uint64(e.Size))
	}
	path := e.Path
	switch {
	case e.Target != "":
		path += " -> " + e.Target
	case e.Device != "":
		path += " (" + e.Device + ")"
	}
	kind := s.Muted.Render(fmt.Sprintf("%-7s", e.Kind))
	return fmt.Sprintf("%s %s %5d:%-5d %9s  %s", kind, e.Mode, e.UID, e.GID, size, s.ForKind(e.Type).Render(path))
}

func (c *cli) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		GroupID: "packages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := c.env.Store().List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printf(cmd.OutOrStdout(), "%s\n", MsgNoPackages)
				return nil
			}
			for _, name := range names {
				printf(cmd.OutOrStdout(), "%s\n", name)
			}
			return nil
		},
	}
}

func (c *cli) newPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "pack <name> <out>",
		Short:             MsgPackShort,
		GroupID:           "packages",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.packageNamesCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := commands.Pack(c.env, args[0], args[1]); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), MsgPacked, c.styles.Success.Render("packed"), args[0], args[1])
			return nil
		},
	}
}

func (c *cli) newRegenCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "regen [names...]",
		Short:             MsgRegenShort,
		Long:              MsgRegenLong,
		GroupID:           "maintenance",
		ValidArgsFunction: c.packageNamesCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := commands.Regen(cmd.Context(), c.env, args)
			if res != nil {
				for _, e := range res.Errors {
					c.terminal.Error("%v", e)
				}
				printf(cmd.OutOrStdout(), MsgRegenSummary,
					res.Stats.Processed-res.Stats.Failed, res.Stats.Produced,
					res.Stats.Elapsed.Round(time.Millisecond))
			}
			if err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return errors.Newf(errors.ErrInternal, MsgErrRegen, len(res.Errors))
			}
			return nil
		},
	}
}

func (c *cli) newEnvUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "env-update",
		Short:   MsgEnvUpdateShort,
		GroupID: "maintenance",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			warnings, err := commands.EnvUpdate(cmd.Context(), c.env)
			if err != nil {
				return err
			}
			if len(warnings) == 0 {
				printf(cmd.OutOrStdout(), MsgEnvUpdated, c.env.Config.Root)
			}
			return nil
		},
	}
}

func (c *cli) newConfigCmd() *cobra.Command {
	var defaults bool
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "maintenance",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				printf(cmd.OutOrStdout(), "%s", config.GenerateConfigContent())
				return nil
			}
			out, err := config.Dump(c.env.Config)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s", out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)
	return cmd
}

// printResult summarizes a merge, replace or unmerge. Warnings were
// already shown by the observer.
func (c *cli) printResult(cmd *cobra.Command, res *commands.Result) {
	out := cmd.OutOrStdout()
	for _, skipped := range res.Skipped {
		c.terminal.Warn(MsgSkipped, skipped)
	}
	switch res.Mode {
	case triggers.ModeInstall:
		printf(out, MsgMerged, c.styles.Success.Render("merged"), res.Name, res.Installed)
	case triggers.ModeReplace:
		printf(out, MsgReplaced, c.styles.Success.Render("replaced"), res.Name, res.Installed, res.Removed)
	default:
		printf(out, MsgUnmerged, c.styles.Success.Render("unmerged"), res.Name, res.Removed)
	}
}

// packageNamesCompletion completes installed package names
func (c *cli) packageNamesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 && cmd.Name() != "regen" {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.setup(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names, err := c.env.Store().List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, toComplete) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
