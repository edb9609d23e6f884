package transform

import (
	"regexp"
	"strings"
)

// endianShim maps the le16toh/le32toh helpers onto libkern on Apple platforms.
const endianShim = `#ifdef __APPLE__
#include <libkern/OSByteOrder.h>
#define le16toh(x) OSSwapLittleToHostInt16(x)
#define le32toh(x) OSSwapLittleToHostInt32(x)
#endif

`

var reFirstInclude = regexp.MustCompile(`#include[^\n]*\n`)

// SourceShim inserts endianShim after the first #include of a C source file.
// A file that already mentions OSByteOrder.h is left alone.
type SourceShim struct{}

func (SourceShim) Name() string { return "endian-shim" }

func (SourceShim) Apply(text string) string {
	if strings.Contains(text, "OSByteOrder.h") {
		return text
	}
	m := reFirstInclude.FindStringIndex(text)
	if m == nil {
		return text
	}
	return text[:m[1]] + endianShim + text[m[1]:]
}
