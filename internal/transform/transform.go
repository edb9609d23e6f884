// Package transform rewrites espeak-ng CMake build descriptions so the
// espeak-ng-bin executable disappears and the library builds for restricted
// platforms. All transformations operate on text: rules are regular
// expressions over the whole file plus one line scanner for nested
// add_custom_command blocks. There is no CMake parser.
package transform

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kyleseneker/cmakepatch/internal/config"
	"github.com/kyleseneker/cmakepatch/internal/output"
)

// Paths, relative to the source root, that select extra stages.
const (
	RootBuildFile  = "CMakeLists.txt"
	CoreBuildFile  = "src/libespeak-ng/CMakeLists.txt"
	UCDToolsDir    = "src/ucd-tools"
	UCDToolsFile   = UCDToolsDir + "/CMakeLists.txt"
	SpectSource    = "src/libespeak-ng/spect.c"
	cmakeExtension = ".cmake"
)

// Document is one file to transform.
type Document struct {
	Path string
	Text string
}

// Options configures the transformation of a single document.
type Options struct {
	Platform config.Platform

	// LibraryOnlyNested is set when the root build file includes
	// src/ucd-tools, so that directory may only build libraries.
	LibraryOnlyNested bool

	// DumpDir receives a numbered snapshot after every stage that ran.
	DumpDir string
}

// IsBuildFile reports whether p names a CMakeLists.txt or a .cmake fragment.
func IsBuildFile(p string) bool {
	return filepath.Base(p) == RootBuildFile || strings.HasSuffix(p, cmakeExtension)
}

// HasPathSuffix reports whether p ends in the slash-separated path suffix,
// matching whole components only.
func HasPathSuffix(p, suffix string) bool {
	p = filepath.ToSlash(filepath.Clean(p))
	return p == suffix || strings.HasSuffix(p, "/"+suffix)
}

// Stages returns the ordered rules applied to the file at p. Files that are
// neither build descriptions nor the patched C source get no stages.
func Stages(p string, opts Options) []Rule {
	if HasPathSuffix(p, SpectSource) {
		return []Rule{SourceShim{}}
	}
	if !IsBuildFile(p) {
		return nil
	}

	stages := excludedTargetRules()

	if opts.Platform.Restricted && HasPathSuffix(p, CoreBuildFile) {
		stages = append(stages, NewLinkAugmentation(CoreLibrary, HelperLibrary))
	}

	if filepath.Base(p) == RootBuildFile {
		stages = append(stages, normalizeUCDTools())
		if opts.Platform.Restricted && opts.LibraryOnlyNested && HasPathSuffix(p, UCDToolsFile) {
			stages = append(stages, nestedRules()...)
		}
	}

	// Whole blocks go before the generator-expression lines inside them.
	stages = append(stages, DefaultBlockRemoval())
	stages = append(stages, generatorRules()...)
	stages = append(stages, dataRules()...)

	if opts.Platform.Restricted {
		stages = append(stages, speechPlayerRules()...)
	}

	return append(stages, collapseBlankLines{})
}

// Transform applies Stages(doc.Path, opts) to doc.Text in order.
func Transform(ctx context.Context, doc Document, opts Options) (string, error) {
	logger := output.Log(ctx)
	dumper := newStageDumper(ctx, opts.DumpDir, doc.Path)

	text := doc.Text
	for _, r := range Stages(doc.Path, opts) {
		before := text
		if br, ok := r.(BlockRemoval); ok {
			var removed []Block
			text, removed = br.Remove(text)
			for _, b := range removed {
				logger.Info().Str("path", doc.Path).Int("line", b.Start+1).
					Msgf("  -> Removing %s block referencing %s or %s", strings.TrimSuffix(br.Trigger, "("), ExcludedTarget, RunCommandVar)
			}
		} else {
			text = r.Apply(text)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if text != before {
			logger.Debug().Str("path", doc.Path).Str("stage", r.Name()).
				Int("lines_removed", strings.Count(before, "\n")-strings.Count(text, "\n")).
				Msgf("%s rewrote %s", r.Name(), doc.Path)
		}
		dumper.dump(r.Name(), text)
	}

	return text, nil
}

// stageDumper writes numbered text snapshots to a directory for debugging.
type stageDumper struct {
	ctx context.Context
	dir string
	seq int
}

func newStageDumper(ctx context.Context, root, docPath string) *stageDumper {
	if root == "" {
		return &stageDumper{ctx: ctx}
	}
	flat := strings.ReplaceAll(path.Clean(filepath.ToSlash(docPath)), "/", "__")
	flat = strings.TrimLeft(flat, ".")
	return &stageDumper{ctx: ctx, dir: filepath.Join(root, flat)}
}

func (d *stageDumper) dump(stage, text string) {
	if d.dir == "" {
		return
	}
	d.seq++
	name := fmt.Sprintf("%02d-%s.txt", d.seq, stage)
	p := filepath.Join(d.dir, name)
	logger := output.Log(d.ctx)
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		logger.Debug().Err(err).Msgf("[dump] failed to create %s", d.dir)
		return
	}
	if err := os.WriteFile(p, []byte(text), 0o600); err != nil {
		logger.Debug().Err(err).Msgf("[dump] failed to write %s", p)
		return
	}
	logger.Debug().Str("path", p).Msgf("[dump] %s (%d lines)", name, strings.Count(text, "\n")+1)
}
