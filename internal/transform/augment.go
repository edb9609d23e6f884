package transform

import (
	"regexp"
	"strings"
)

// linkComment precedes a target_link_libraries statement created from scratch.
const linkComment = "# Link UCD library for iOS/static builds"

// LinkAugmentation makes Target link Helper explicitly. Nothing happens when
// Helper already appears anywhere in the text, which also keeps a second run
// from inserting it again.
type LinkAugmentation struct {
	Target string
	Helper string

	link  *regexp.Regexp
	alloc *regexp.Regexp
}

// NewLinkAugmentation builds the rule for target and helper.
func NewLinkAugmentation(target, helper string) LinkAugmentation {
	t := regexp.QuoteMeta(target)
	return LinkAugmentation{
		Target: target,
		Helper: helper,
		link:   regexp.MustCompile(`(target_link_libraries\s*\(\s*` + t + `)(\s+[^)]*)?(\))`),
		alloc:  regexp.MustCompile(`add_library\s*\(\s*` + t + `[^)]*\)[^\n]*(?:\n|$)`),
	}
}

func (l LinkAugmentation) Name() string { return "link-" + l.Helper }

func (l LinkAugmentation) Apply(text string) string {
	if strings.Contains(text, l.Helper) {
		return text
	}

	// Append to the first existing link statement of Target.
	if m := l.link.FindStringSubmatchIndex(text); m != nil {
		closing := m[6]
		return text[:closing] + " " + l.Helper + text[closing:]
	}

	// Otherwise create one right after the target itself.
	if m := l.alloc.FindStringIndex(text); m != nil {
		insert := "\n" + linkComment + "\ntarget_link_libraries(" + l.Target + " PRIVATE " + l.Helper + ")\n"
		if !strings.HasSuffix(text[:m[1]], "\n") {
			insert = "\n" + insert
		}
		return text[:m[1]] + insert + text[m[1]:]
	}

	return text
}
