// Package cli implements the cmakepatch command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kyleseneker/cmakepatch/internal/config"
	"github.com/kyleseneker/cmakepatch/internal/output"
)

// Version is set at build time via ldflags:
//
//	go build -ldflags "-X github.com/kyleseneker/cmakepatch/internal/cli.Version=v0.1.0"
var Version = "(dev)"

// usageError marks errors caused by bad arguments or flags; they exit with code 2.
type usageError struct {
	error
}

// state is shared by all commands of one invocation.
type state struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer

	logLevel string
	json     bool
	plain    bool

	dryRun     bool
	diff       bool
	restricted bool
	dumpDir    string
}

// Run is the top-level entrypoint.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	root := newRootCmd(&state{stdout: stdout, stderr: stderr})
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	var uerr usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "error: %v\n", uerr.error)
		fmt.Fprint(stderr, cmd.UsageString())
		return 2
	}
	return cliErrorf(stderr, "%v", err)
}

func newRootCmd(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "cmakepatch [root]",
		Short: "Strip espeak-ng-bin from an espeak-ng CMake tree",
		Long: `cmakepatch rewrites the CMakeLists.txt and *.cmake files of an espeak-ng
source tree in place so that the espeak-ng-bin executable and every build step
that runs it disappear. When CMAKE_SYSTEM_NAME=iOS or PLATFORM_NAME=iphoneos,
the core library also links ucd explicitly, speechPlayer is dropped and
src/ucd-tools only builds its library.

Running it again on a patched tree changes nothing.`,
		Version:           Version,
		Args:              maxArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: st.setup,
		RunE:              st.runPatch,
	}
	root.SetOut(st.stdout)
	root.SetErr(st.stderr)
	root.SetVersionTemplate("cmakepatch {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&st.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default from config: info).")
	pf.BoolVar(&st.json, "json", false, "Emit log events as JSON lines instead of console messages.")
	pf.BoolVar(&st.plain, "no-color", false, "Disable coloured console output.")

	registerPatchFlags(root, st)

	root.AddCommand(newPatchCmd(st), newDoctorCmd(st), newVersionCmd(st))
	return root
}

// setup loads the configuration, applies the global flags and attaches the
// logger to the command context.
func (st *state) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}
	if cmd.Flags().Changed("json") {
		cfg.LogJSON = st.json
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	st.cfg = cfg

	logger := output.NewLogger(st.stderr, cfg.Level(), cfg.LogJSON, st.plain)
	cmd.SetContext(output.WithLogger(cmd.Context(), &logger))
	return nil
}

func newVersionCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(st.stdout, "cmakepatch %s\n", Version)
			return nil
		},
	}
}

// maxArgs is cobra.MaximumNArgs reporting a usage error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// logger returns the logger attached by setup.
func logger(cmd *cobra.Command) *zerolog.Logger {
	return output.Log(cmd.Context())
}

// cliErrorf prints a formatted error message and returns exit code 1.
func cliErrorf(w io.Writer, format string, args ...any) int {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
	return 1
}
