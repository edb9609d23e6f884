package transform

import (
	"regexp"
	"strings"
)

// Names of the targets the rules are written against.
const (
	ExcludedTarget = "espeak-ng-bin"
	CoreLibrary    = "espeak-ng"
	HelperLibrary  = "ucd"

	// RunCommandVar holds the command line that invokes ExcludedTarget.
	RunCommandVar = "ESPEAK_RUN_CMD"
)

// Rule rewrites one category of declaration. Apply must be a no-op on its
// own output.
type Rule interface {
	Name() string
	Apply(text string) string
}

// Deletion removes every match of a pattern.
type Deletion struct {
	name    string
	pattern *regexp.Regexp
}

// Delete compiles pattern into a Deletion. It panics on an invalid pattern.
func Delete(name, pattern string) Deletion {
	return Deletion{name: name, pattern: regexp.MustCompile(pattern)}
}

func (d Deletion) Name() string { return d.name }

func (d Deletion) Apply(text string) string {
	return d.pattern.ReplaceAllLiteralString(text, "")
}

// Replacement rewrites every match of a pattern with a fixed template that
// may refer to submatches as ${1}.
type Replacement struct {
	name     string
	pattern  *regexp.Regexp
	template string
}

// Replace compiles pattern into a Replacement.
func Replace(name, pattern, template string) Replacement {
	return Replacement{name: name, pattern: regexp.MustCompile(pattern), template: template}
}

func (r Replacement) Name() string { return r.name }

func (r Replacement) Apply(text string) string {
	return r.pattern.ReplaceAllString(text, r.template)
}

// statement matches a single parenthesized statement whose first argument is
// target. The argument list runs up to the first closing parenthesis.
func statement(keyword, target string) string {
	return keyword + `\s*\(\s*` + regexp.QuoteMeta(target) + `[^)]*\)`
}

// subdirectory matches add_subdirectory(dir) with optional inner whitespace.
func subdirectory(dir string) string {
	return `add_subdirectory\s*\(\s*` + regexp.QuoteMeta(dir) + `\s*\)`
}

// genexLine matches a whole line holding a generator expression that names target.
func genexLine(kind, target string) string {
	return `[^\n]*` + regexp.QuoteMeta("$<"+kind+":"+target+">") + `[^\n]*\n?`
}

// targetKeywords are the commands whose first argument names the target they configure.
var targetKeywords = []string{
	"add_executable",
	"target_link_libraries",
	"target_include_directories",
	"target_compile_definitions",
	"set_target_properties",
	"target_link_options",
	"target_sources",
}

// excludedTargetRules delete every single-statement declaration of ExcludedTarget.
func excludedTargetRules() []Rule {
	rules := make([]Rule, 0, len(targetKeywords)+2)
	for _, kw := range targetKeywords {
		rules = append(rules, Delete("drop-"+strings.ReplaceAll(kw, "_", "-"), statement(kw, ExcludedTarget)))
	}
	return append(rules,
		Delete("drop-install", `install\s*\([^)]*TARGETS[^)]*`+regexp.QuoteMeta(ExcludedTarget)+`[^)]*\)`),
		Delete("drop-custom-target", `add_custom_target\s*\([^)]*`+regexp.QuoteMeta(CoreLibrary)+`[^)]*\)`),
	)
}

// generatorRules delete lines that still reference ExcludedTarget through
// $<TARGET_FILE:...> or $<TARGET_NAME:...>.
func generatorRules() []Rule {
	return []Rule{
		Delete("drop-target-file-genex", genexLine("TARGET_FILE", ExcludedTarget)),
		Delete("drop-target-name-genex", genexLine("TARGET_NAME", ExcludedTarget)),
	}
}

// dataRules delete the run-command variable and the build steps that need it.
func dataRules() []Rule {
	return []Rule{
		Delete("drop-run-cmd-var", statement("set", RunCommandVar)),
		Delete("drop-data-target", `add_custom_target\s*\(\s*data\s+ALL[^)]*\)`),
		Delete("drop-tests-subdir", subdirectory("tests")),
		Delete("drop-data-subdir", subdirectory("data")),
	}
}

// speechPlayerRules drop the speechPlayer subdirectory, whose C++ headers do
// not build for the restricted platform.
func speechPlayerRules() []Rule {
	return []Rule{
		Delete("drop-speechplayer-subdir", subdirectory("src/speechPlayer")),
		Delete("drop-speechplayer-local-subdir", subdirectory("speechPlayer")),
	}
}

// nestedRules keep only library artifacts in a subdirectory built by the root file.
func nestedRules() []Rule {
	return []Rule{
		Delete("drop-nested-executables", `add_executable\s*\([^)]*\)`),
		Delete("drop-nested-installs", `install\s*\([^)]*TARGETS[^)]*\)`),
	}
}

// normalizeUCDTools rewrites add_subdirectory( src/ucd-tools ) to its canonical spelling.
func normalizeUCDTools() Rule {
	return Replace("normalize-ucd-tools-subdir", subdirectory(UCDToolsDir), "add_subdirectory("+UCDToolsDir+")")
}
