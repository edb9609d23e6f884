package transform

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kyleseneker/cmakepatch/internal/config"
	"github.com/kyleseneker/cmakepatch/internal/output"
)

var (
	restricted   = Options{Platform: config.Platform{Restricted: true}}
	unrestricted = Options{}
)

const sampleRoot = `cmake_minimum_required(VERSION 3.8)
project(espeak-ng VERSION 1.52.0)

set(ESPEAK_RUN_CMD $<TARGET_FILE:espeak-ng-bin>)

add_subdirectory( src/ucd-tools )
add_subdirectory(src/speechPlayer)
add_subdirectory(src/libespeak-ng)
add_subdirectory(tests)
add_subdirectory(data)

add_executable(espeak-ng-bin src/espeak-ng.c)
set_target_properties(espeak-ng-bin PROPERTIES OUTPUT_NAME espeak-ng)
target_link_libraries(
  espeak-ng-bin PRIVATE espeak-ng
)
install(TARGETS espeak-ng-bin RUNTIME DESTINATION bin)


add_custom_command(
  OUTPUT ${CMAKE_BINARY_DIR}/espeak-ng-data/phontab
  COMMAND ${ESPEAK_RUN_CMD} --compile-phonemes
  DEPENDS $<TARGET_FILE:espeak-ng-bin>
)
add_custom_command(
  OUTPUT version.h
  COMMAND ${CMAKE_COMMAND} -E echo "$(date)"
)
add_custom_target(data ALL DEPENDS phontab)
`

const sampleCore = `
add_library(espeak-ng STATIC
    espeak_api.c
    synth_mbrola.c
)

target_include_directories(espeak-ng PUBLIC ${CMAKE_CURRENT_SOURCE_DIR})
`

func stageNames(rules []Rule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name()
	}
	return names
}

func TestStages(t *testing.T) {
	t.Run("spect.c gets only the shim", func(t *testing.T) {
		require.Equal(t, []string{"endian-shim"}, stageNames(Stages("espeak-ng/src/libespeak-ng/spect.c", restricted)))
	})

	t.Run("unrelated files get nothing", func(t *testing.T) {
		require.Empty(t, Stages("src/libespeak-ng/synthesize.c", restricted))
		require.Empty(t, Stages("README.md", restricted))
	})

	t.Run("collapse runs last", func(t *testing.T) {
		for _, p := range []string{"CMakeLists.txt", "cmake/config.cmake", CoreBuildFile} {
			names := stageNames(Stages(p, restricted))
			require.Equal(t, "collapse-blank-lines", names[len(names)-1], p)
		}
	})

	t.Run("block removal precedes generator lines", func(t *testing.T) {
		names := strings.Join(stageNames(Stages("CMakeLists.txt", unrestricted)), ",")
		require.Less(t, strings.Index(names, "drop-custom-commands"), strings.Index(names, "drop-target-file-genex"))
	})

	t.Run("platform gating", func(t *testing.T) {
		require.Contains(t, stageNames(Stages(CoreBuildFile, restricted)), "link-ucd")
		require.NotContains(t, stageNames(Stages(CoreBuildFile, unrestricted)), "link-ucd")
		require.NotContains(t, stageNames(Stages("other/CMakeLists.txt", restricted)), "link-ucd")
		require.Contains(t, stageNames(Stages("CMakeLists.txt", restricted)), "drop-speechplayer-subdir")
		require.NotContains(t, stageNames(Stages("CMakeLists.txt", unrestricted)), "drop-speechplayer-subdir")
	})

	t.Run("nested library-only rules", func(t *testing.T) {
		opts := restricted
		opts.LibraryOnlyNested = true
		require.Contains(t, stageNames(Stages(UCDToolsFile, opts)), "drop-nested-executables")
		require.NotContains(t, stageNames(Stages(UCDToolsFile, restricted)), "drop-nested-executables")
		require.NotContains(t, stageNames(Stages("CMakeLists.txt", opts)), "drop-nested-executables")
		require.NotContains(t, stageNames(Stages("src/ucd-tools/extra.cmake", opts)), "drop-nested-executables")
	})
}

func TestHasPathSuffix(t *testing.T) {
	tests := []struct {
		path, suffix string
		want         bool
	}{
		{"src/libespeak-ng/CMakeLists.txt", CoreBuildFile, true},
		{"./src/libespeak-ng/CMakeLists.txt", CoreBuildFile, true},
		{"/build/espeak-ng/src/libespeak-ng/CMakeLists.txt", CoreBuildFile, true},
		{"xsrc/libespeak-ng/CMakeLists.txt", CoreBuildFile, false},
		{"src/libespeak-ng/spect.c", SpectSource, true},
		{"CMakeLists.txt", CoreBuildFile, false},
	}
	for _, tt := range tests {
		if got := HasPathSuffix(tt.path, tt.suffix); got != tt.want {
			t.Errorf("HasPathSuffix(%q, %q) = %v, want %v", tt.path, tt.suffix, got, tt.want)
		}
	}
}

func TestTransformScenarios(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		opts  Options
		input string
		want  string
	}{
		{
			name:  "named executable removed",
			path:  "CMakeLists.txt",
			input: "add_executable(espeak-ng-bin foo.c)\nadd_executable(other bar.c)\n",
			want:  "\nadd_executable(other bar.c)\n",
		},
		{
			name:  "helper linked after add_library",
			path:  CoreBuildFile,
			opts:  restricted,
			input: "add_library(espeak-ng STATIC a.c b.c)\n\ntarget_include_directories(espeak-ng PUBLIC .)\n",
			want: "add_library(espeak-ng STATIC a.c b.c)\n\n" +
				"# Link UCD library for iOS/static builds\n" +
				"target_link_libraries(espeak-ng PRIVATE ucd)\n\n" +
				"target_include_directories(espeak-ng PUBLIC .)\n",
		},
		{
			name:  "unrestricted core library untouched",
			path:  CoreBuildFile,
			opts:  unrestricted,
			input: "add_library(espeak-ng STATIC a.c b.c)\n\ntarget_include_directories(espeak-ng PUBLIC .)\n",
			want:  "add_library(espeak-ng STATIC a.c b.c)\n\ntarget_include_directories(espeak-ng PUBLIC .)\n",
		},
		{
			name: "custom command block removed",
			path: "CMakeLists.txt",
			input: "add_custom_command(\n  OUTPUT x\n  COMMAND $<TARGET_FILE:espeak-ng-bin> --gen\n)\n" +
				"add_custom_command(\n  OUTPUT y\n  COMMAND other_tool\n)\n",
			want: "add_custom_command(\n  OUTPUT y\n  COMMAND other_tool\n)\n",
		},
		{
			name:  "nested file keeps libraries only",
			path:  UCDToolsFile,
			opts:  Options{Platform: config.Platform{Restricted: true}, LibraryOnlyNested: true},
			input: "add_library(ucd STATIC case.c)\nadd_executable(ucd-test tests/test.c)\ninstall(TARGETS ucd-test DESTINATION bin)\n",
			want:  "add_library(ucd STATIC case.c)\n\n",
		},
		{
			name:  "spect.c shim",
			path:  SpectSource,
			input: "#include \"config.h\"\nint x;\n",
			want:  "#include \"config.h\"\n" + endianShim + "int x;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transform(context.Background(), Document{Path: tt.path, Text: tt.input}, tt.opts)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTransformRootFile(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts Options
	}{
		{"restricted", restricted},
		{"unrestricted", unrestricted},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc := Document{Path: "CMakeLists.txt", Text: sampleRoot}
			got, err := Transform(context.Background(), doc, tc.opts)
			require.NoError(t, err)

			for _, gone := range []string{
				ExcludedTarget, RunCommandVar, "add_subdirectory(tests)", "add_subdirectory(data)",
				"add_custom_target(data", "phontab", "\n\n\n",
			} {
				require.NotContains(t, got, gone)
			}
			for _, kept := range []string{
				"project(espeak-ng VERSION 1.52.0)",
				"add_subdirectory(src/ucd-tools)\n",
				"add_subdirectory(src/libespeak-ng)\n",
				"add_custom_command(\n  OUTPUT version.h\n  COMMAND ${CMAKE_COMMAND} -E echo \"$(date)\"\n)\n",
			} {
				require.Contains(t, got, kept)
			}

			if tc.opts.Platform.Restricted {
				require.NotContains(t, got, "speechPlayer")
			} else {
				require.Contains(t, got, "add_subdirectory(src/speechPlayer)")
			}
		})
	}
}

func TestTransformIdempotent(t *testing.T) {
	nested := Options{Platform: config.Platform{Restricted: true}, LibraryOnlyNested: true}
	docs := []struct {
		path string
		text string
	}{
		{"CMakeLists.txt", sampleRoot},
		{CoreBuildFile, sampleCore},
		{CoreBuildFile, sampleCore + "target_link_libraries(espeak-ng PRIVATE m)\n"},
		{UCDToolsFile, "add_library(ucd STATIC case.c)\nadd_executable(ucd-test t.c)\n\n\n\ninstall(TARGETS ucd-test)\n"},
		{"cmake/data.cmake", "add_custom_command(\n  COMMAND ${ESPEAK_RUN_CMD} (\n"},
		{SpectSource, "#include <stdint.h>\n"},
	}
	for _, opts := range []Options{restricted, unrestricted, nested} {
		for _, d := range docs {
			once, err := Transform(context.Background(), Document{Path: d.path, Text: d.text}, opts)
			require.NoError(t, err)
			twice, err := Transform(context.Background(), Document{Path: d.path, Text: once}, opts)
			require.NoError(t, err)
			require.Equal(t, once, twice, "%s (restricted=%v)", d.path, opts.Platform.Restricted)
		}
	}
}

func TestTransformLinksHelperOnce(t *testing.T) {
	doc := Document{Path: CoreBuildFile, Text: sampleCore + "target_link_libraries(espeak-ng PRIVATE m)\n"}
	for i := 0; i < 2; i++ {
		out, err := Transform(context.Background(), doc, restricted)
		require.NoError(t, err)
		doc.Text = out
	}
	require.Equal(t, 1, strings.Count(doc.Text, "ucd"))
	require.Contains(t, doc.Text, "target_link_libraries(espeak-ng PRIVATE m ucd)")
}

func TestTransformConservation(t *testing.T) {
	input := "cmake_minimum_required(VERSION 3.8)\nproject(foo C)\n\n\n\nadd_library(foo a.c)\n" +
		"add_custom_command(\n  OUTPUT gen.h\n  COMMAND gen (x)\n)\n"
	want := "cmake_minimum_required(VERSION 3.8)\nproject(foo C)\n\nadd_library(foo a.c)\n" +
		"add_custom_command(\n  OUTPUT gen.h\n  COMMAND gen (x)\n)\n"
	for _, opts := range []Options{restricted, unrestricted} {
		got, err := Transform(context.Background(), Document{Path: "CMakeLists.txt", Text: input}, opts)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestTransformLogsRemovedBlocks(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := output.WithLogger(context.Background(), &logger)

	doc := Document{Path: "CMakeLists.txt", Text: "x()\nadd_custom_command(\n  COMMAND ${ESPEAK_RUN_CMD}\n)\n"}
	_, err := Transform(ctx, doc, unrestricted)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Removing add_custom_command block")
	require.Contains(t, buf.String(), `"line":2`)
	require.Contains(t, buf.String(), `"stage":"drop-custom-commands"`)
}

func TestTransformCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Transform(ctx, Document{Path: "CMakeLists.txt", Text: sampleRoot}, unrestricted)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransformDumpDir(t *testing.T) {
	dir := t.TempDir()
	opts := Options{DumpDir: dir}
	_, err := Transform(context.Background(), Document{Path: "./CMakeLists.txt", Text: sampleRoot}, opts)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "CMakeLists.txt"))
	require.NoError(t, err)
	require.Len(t, entries, len(Stages("CMakeLists.txt", opts)))
	require.Equal(t, "01-drop-add-executable.txt", entries[0].Name())

	last, err := os.ReadFile(filepath.Join(dir, "CMakeLists.txt", entries[len(entries)-1].Name()))
	require.NoError(t, err)
	require.NotContains(t, string(last), ExcludedTarget)
}
