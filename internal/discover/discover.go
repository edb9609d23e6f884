// Package discover finds the files cmakepatch rewrites.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kyleseneker/cmakepatch/internal/transform"
)

// Files recursively searches root for every CMakeLists.txt, every .cmake
// fragment and the spect.c source, in walk order. Hidden directories are skipped.
func Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if transform.IsBuildFile(path) || transform.HasPathSuffix(path, transform.SpectSource) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to search %s", root)
	}

	return files, nil
}

// IncludesSubdirectory reports whether the top-level CMakeLists.txt under root
// contains add_subdirectory(dir). A missing file counts as false.
func IncludesSubdirectory(root, dir string) (bool, error) {
	path := filepath.Join(root, transform.RootBuildFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, eris.Wrapf(err, "failed to read %s", path)
	}

	re := regexp.MustCompile(`add_subdirectory\s*\(\s*` + regexp.QuoteMeta(dir) + `\s*\)`)
	return re.Match(data), nil
}
