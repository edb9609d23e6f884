package transform

import "regexp"

var reBlankRun = regexp.MustCompile(`\n\s*\n\s*\n`)

// collapseBlankLines condenses every run of two or more blank lines, including
// whitespace-only ones, into a single empty line. It runs last so that the
// residue of earlier deletions is normalized too.
type collapseBlankLines struct{}

func (collapseBlankLines) Name() string { return "collapse-blank-lines" }

func (collapseBlankLines) Apply(text string) string {
	return reBlankRun.ReplaceAllLiteralString(text, "\n\n")
}
