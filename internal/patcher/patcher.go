// Package patcher drives a cmakepatch run: it discovers the candidate files
// under a source root and reads, transforms and conditionally rewrites them
// one at a time.
package patcher

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rotisserie/eris"

	"github.com/kyleseneker/cmakepatch/internal/config"
	"github.com/kyleseneker/cmakepatch/internal/discover"
	"github.com/kyleseneker/cmakepatch/internal/output"
	"github.com/kyleseneker/cmakepatch/internal/transform"
)

// Config holds all user-provided settings for a patch run.
type Config struct {
	Root     string
	Platform config.Platform
	DryRun   bool
	Diff     bool
	DumpDir  string
	Stdout   io.Writer
}

// Status describes what happened to one file.
type Status int

const (
	Skipped Status = iota
	Unchanged
	Patched
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Unchanged:
		return "unchanged"
	case Patched:
		return "patched"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result records the outcome for one file.
type Result struct {
	Path   string
	Status Status
}

// Run patches every file discovered under cfg.Root. Files are processed
// sequentially; the first I/O error aborts the run and files written before
// it stay written.
func Run(ctx context.Context, cfg Config) ([]Result, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}

	files, err := discover.Files(cfg.Root)
	if err != nil {
		return nil, err
	}

	nested, err := discover.IncludesSubdirectory(cfg.Root, transform.UCDToolsDir)
	if err != nil {
		return nil, err
	}

	opts := transform.Options{
		Platform:          cfg.Platform,
		LibraryOnlyNested: nested,
		DumpDir:           cfg.DumpDir,
	}

	output.Log(ctx).Debug().Str("path", cfg.Root).Int("files", len(files)).
		Bool("restricted", cfg.Platform.Restricted).Msgf("Found %d candidate files in %s", len(files), cfg.Root)

	results := make([]Result, 0, len(files))
	for _, path := range files {
		res, err := PatchFile(ctx, path, opts, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}

// PatchFile transforms one file and writes it back if the text changed.
// A missing file is reported as Skipped.
func PatchFile(ctx context.Context, path string, opts transform.Options, cfg Config) (Result, error) {
	logger := output.Log(ctx)
	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			logger.Info().Str("path", path).Msgf("Skipping %s (not found), no changes needed", path)
			return res, nil
		}
		return res, eris.Wrapf(err, "failed to stat %s", path)
	}

	logger.Info().Str("path", path).Msgf("Patching %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return res, eris.Wrapf(err, "failed to read %s", path)
	}

	original := string(data)
	patched, err := transform.Transform(ctx, transform.Document{Path: path, Text: original}, opts)
	if err != nil {
		return res, eris.Wrapf(err, "failed to transform %s", path)
	}

	if patched == original {
		res.Status = Unchanged
		logger.Info().Str("path", path).Msg("  -> No changes needed")
		return res, nil
	}

	res.Status = Patched
	if cfg.Diff {
		if err := writeDiff(cfg.Stdout, path, original, patched); err != nil {
			return res, err
		}
	}

	if cfg.DryRun {
		logger.Info().Str("path", path).Msg("  -> Would patch (dry run)")
		return res, nil
	}

	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return res, eris.Wrapf(err, "failed to write %s", path)
	}
	logger.Info().Str("path", path).Msg("  -> Patched successfully")

	return res, nil
}

// writeDiff prints a unified diff between the original and patched text.
func writeDiff(w io.Writer, path, original, patched string) error {
	if w == nil {
		w = io.Discard
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(patched),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return eris.Wrapf(err, "failed to diff %s", path)
	}

	_, err = io.WriteString(w, diff)
	return err
}

// Summary counts results by status.
func Summary(results []Result) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
