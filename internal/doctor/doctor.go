// Package doctor implements the `cmakepatch doctor` subcommand, which reports
// the detected platform context and the files a patch run would touch.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kyleseneker/cmakepatch/internal/config"
	"github.com/kyleseneker/cmakepatch/internal/discover"
	"github.com/kyleseneker/cmakepatch/internal/output"
	"github.com/kyleseneker/cmakepatch/internal/transform"
)

// Config holds settings for the doctor check.
type Config struct {
	Root    string
	Signals config.Signals

	// ForceRestricted mirrors the --restricted flag of the patch command.
	ForceRestricted bool

	Stdout io.Writer
}

// Run prints the platform signals, the resulting verdict and the candidate
// files under cfg.Root, followed by warnings about missing key files.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}

	fmt.Fprintln(cfg.Stdout, "cmakepatch doctor")
	printSignal(cfg.Stdout, "CMAKE_SYSTEM_NAME", cfg.Signals.SystemName, config.RestrictedSystemName)
	printSignal(cfg.Stdout, "PLATFORM_NAME", cfg.Signals.PlatformName, config.RestrictedPlatformName)

	restricted := cfg.Signals.Restricted() || cfg.ForceRestricted
	fmt.Fprintf(cfg.Stdout, "restricted platform detected: %v\n", restricted)
	if cfg.ForceRestricted && !cfg.Signals.Restricted() {
		fmt.Fprintln(cfg.Stdout, "  (forced by --restricted)")
	}

	files, err := discover.Files(cfg.Root)
	if err != nil {
		return err
	}
	nested, err := discover.IncludesSubdirectory(cfg.Root, transform.UCDToolsDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(cfg.Stdout, "")
	fmt.Fprintf(cfg.Stdout, "candidate files (%d):\n", len(files))
	opts := transform.Options{
		Platform:          config.Platform{Restricted: restricted},
		LibraryOnlyNested: nested,
	}
	for _, f := range files {
		fmt.Fprintf(cfg.Stdout, "  %-48s %d stages\n", displayPath(cfg.Root, f), len(transform.Stages(f, opts)))
	}

	var warnings []string
	for _, key := range []string{transform.RootBuildFile, transform.CoreBuildFile, transform.SpectSource} {
		if _, err := os.Stat(filepath.Join(cfg.Root, filepath.FromSlash(key))); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s not found under %s", key, cfg.Root))
		}
	}
	if restricted && !nested {
		warnings = append(warnings, fmt.Sprintf("top-level build file does not include %s; nested executables are kept", transform.UCDToolsDir))
	}

	output.Log(ctx).Debug().Int("files", len(files)).Int("warnings", len(warnings)).Msg("doctor finished")
	printSummary(cfg.Stdout, warnings)
	return nil
}

func printSignal(w io.Writer, name, value, want string) {
	label := name + ":"
	if value == "" {
		fmt.Fprintf(w, "  %-20s (unset)\n", label)
		return
	}
	marker := ""
	if value == want {
		marker = " [restricted]"
	}
	fmt.Fprintf(w, "  %-20s %s%s\n", label, value, marker)
}

func displayPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

// printSummary outputs the warnings list and final status.
func printSummary(w io.Writer, warnings []string) {
	if len(warnings) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "warnings:")
		for _, msg := range warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
	fmt.Fprintln(w, "")
	if len(warnings) == 0 {
		fmt.Fprintln(w, "all checks passed")
	} else {
		fmt.Fprintf(w, "%d warning(s); see above\n", len(warnings))
	}
}
