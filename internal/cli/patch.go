package cli

import (
	"github.com/spf13/cobra"

	"github.com/kyleseneker/cmakepatch/internal/config"
	"github.com/kyleseneker/cmakepatch/internal/patcher"
)

func newPatchCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch [root]",
		Short: "Patch the CMake files under root (the default command)",
		Args:  maxArgs(1),
		RunE:  st.runPatch,
	}
	registerPatchFlags(cmd, st)
	return cmd
}

// registerPatchFlags registers the flags shared by the root and patch commands.
func registerPatchFlags(cmd *cobra.Command, st *state) {
	f := cmd.Flags()
	f.BoolVarP(&st.dryRun, "dry-run", "n", false, "Report what would change without writing files.")
	f.BoolVar(&st.diff, "diff", false, "Print a unified diff of every changed file to stdout.")
	f.BoolVar(&st.restricted, "restricted", false, "Treat the build as targeting the restricted platform regardless of the environment.")
	f.StringVar(&st.dumpDir, "dump-dir", "", "Write a snapshot after every rewrite stage to this directory.")
}

// runPatch rewrites every candidate file under the selected root.
func (st *state) runPatch(cmd *cobra.Command, args []string) error {
	cfg := *st.cfg
	if len(args) == 1 {
		cfg.Root = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = st.dryRun
	}
	if flags.Changed("diff") {
		cfg.Diff = st.diff
	}
	if flags.Changed("dump-dir") {
		cfg.DumpDir = st.dumpDir
	}

	signals, err := config.LoadSignals()
	if err != nil {
		return err
	}
	platform := signals.Platform()
	if st.restricted {
		platform.Restricted = true
	}

	log := logger(cmd)
	log.Info().Bool("restricted", platform.Restricted).
		Str("CMAKE_SYSTEM_NAME", signals.SystemName).Str("PLATFORM_NAME", signals.PlatformName).
		Msgf("Restricted platform detected: %v", platform.Restricted)

	results, err := patcher.Run(cmd.Context(), patcher.Config{
		Root:     cfg.Root,
		Platform: platform,
		DryRun:   cfg.DryRun,
		Diff:     cfg.Diff,
		DumpDir:  cfg.DumpDir,
		Stdout:   st.stdout,
	})
	if err != nil {
		return err
	}

	counts := patcher.Summary(results)
	log.Info().Int("patched", counts[patcher.Patched]).Int("unchanged", counts[patcher.Unchanged]).
		Int("skipped", counts[patcher.Skipped]).
		Msgf("Done: %d patched, %d unchanged, %d skipped", counts[patcher.Patched], counts[patcher.Unchanged], counts[patcher.Skipped])
	return nil
}
