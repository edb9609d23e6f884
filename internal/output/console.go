package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ConsoleWriter turns zerolog's JSON events into coloured, human-readable lines.
type ConsoleWriter struct {
	out    io.Writer
	colors colorstring.Colorize
	debug  bool
	buffer strings.Builder
	lock   sync.Mutex
}

// NewConsoleWriter returns a writer printing to out. With plain set, colour
// codes are stripped. With debug set, every event field is listed after the message.
func NewConsoleWriter(out io.Writer, plain, debug bool) *ConsoleWriter {
	return &ConsoleWriter{
		out: out,
		colors: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: plain,
			Reset:   true,
		},
		debug: debug,
	}
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt[zerolog.LevelFieldName] {
	case "fatal", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	if evt[zerolog.LevelFieldName] == "error" {
		w.buffer.WriteString("Error: ")
	}

	msg, _ := evt[zerolog.MessageFieldName].(string)

	if path, ok := evt["path"].(string); ok {
		// simplify the path
		relPath, err := filepath.Rel(".", path)
		if err == nil {
			msg = strings.ReplaceAll(msg, path, relPath)
		}
	}

	w.buffer.WriteString(msg)

	if errorDetails, ok := evt[zerolog.ErrorFieldName].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if w.debug {
		names := make([]string, 0, len(evt))
		for name := range evt {
			names = append(names, name)
		}
		sort.Strings(names)

		w.buffer.WriteString("\n")
		for _, name := range names {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, evt[name]))
		}
	}

	w.buffer.WriteString("[reset]\n")
	if _, err := io.WriteString(w.out, w.colors.Color(w.buffer.String())); err != nil {
		return 0, err
	}
	return len(p), nil
}

// NewLogger builds the process logger. JSON events go to out unchanged when
// json is set; otherwise they pass through a ConsoleWriter.
func NewLogger(out io.Writer, level zerolog.Level, json, plain bool) zerolog.Logger {
	var w io.Writer = out
	if !json {
		w = NewConsoleWriter(out, plain, level <= zerolog.TraceLevel)
	}
	return zerolog.New(w).Level(level)
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, false)
	}
}
