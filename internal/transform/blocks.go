package transform

import "strings"

// CustomCommandTrigger opens the multi-line blocks scanned by DefaultBlockRemoval.
const CustomCommandTrigger = "add_custom_command("

// Block is a run of lines from a trigger line up to the line where the
// parenthesis depth first returns to zero. End is exclusive.
type Block struct {
	Start int
	End   int
	Text  string
}

// depthDelta is the net parenthesis balance of one line. Bracket kinds are
// not distinguished and quoting is ignored.
func depthDelta(line string) int {
	return strings.Count(line, "(") - strings.Count(line, ")")
}

type scanState int

const (
	scanning scanState = iota
	capturing
)

// RemoveBlocks walks lines once. Every block opened by a line containing
// trigger is dropped when its text contains any forbidden substring and kept
// verbatim otherwise. A block still open at the end of input ends there.
func RemoveBlocks(lines []string, trigger string, forbidden []string) (kept []string, removed []Block) {
	kept = make([]string, 0, len(lines))

	state := scanning
	var start, depth int

	closeBlock := func(end int) {
		b := Block{Start: start, End: end, Text: strings.Join(lines[start:end], "\n")}
		if containsAny(b.Text, forbidden) {
			removed = append(removed, b)
		} else {
			kept = append(kept, lines[start:end]...)
		}
		state = scanning
	}

	for i, line := range lines {
		switch state {
		case scanning:
			if !strings.Contains(line, trigger) {
				kept = append(kept, line)
				continue
			}
			start = i
			depth = depthDelta(line)
			state = capturing
		case capturing:
			depth += depthDelta(line)
		}

		if depth <= 0 {
			closeBlock(i + 1)
		}
	}

	if state == capturing {
		closeBlock(len(lines))
	}

	return kept, removed
}

func containsAny(text string, substrs []string) bool {
	for _, s := range substrs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// BlockRemoval applies RemoveBlocks to whole-file text.
type BlockRemoval struct {
	Trigger   string
	Forbidden []string
}

// DefaultBlockRemoval drops add_custom_command blocks that run ExcludedTarget.
func DefaultBlockRemoval() BlockRemoval {
	return BlockRemoval{
		Trigger:   CustomCommandTrigger,
		Forbidden: []string{ExcludedTarget, "TARGET_FILE:" + ExcludedTarget, RunCommandVar},
	}
}

func (b BlockRemoval) Name() string { return "drop-custom-commands" }

func (b BlockRemoval) Apply(text string) string {
	out, _ := b.Remove(text)
	return out
}

// Remove is Apply that also returns the dropped blocks.
func (b BlockRemoval) Remove(text string) (string, []Block) {
	if !strings.Contains(text, b.Trigger) {
		return text, nil
	}
	kept, removed := RemoveBlocks(strings.Split(text, "\n"), b.Trigger, b.Forbidden)
	return strings.Join(kept, "\n"), removed
}
