package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// maxInfoFields caps the fields listed under an info or warning record.
const maxInfoFields = 6

// leadingKeys are listed first, in this order, under info and above.
var leadingKeys = []string{
	FieldEventType,
	FieldFrame,
	"reference",
	"reconstructed",
	"other",
	"frames",
	"other_frames",
	"mean",
	"size_bytes",
	"error",
	FieldImpact,
	FieldErrorHint,
}

// quietKeys only appear on debug records.
var quietKeys = []string{FieldRunID}

// consoleHandler renders records for a person watching stderr:
//
//	2026-05-01 12:00:00 WARN [pipeline] reference: reference ended before reconstructed
//	    - Frames: 10
//
// Debug records list every field by its raw key and name the caller.
type consoleHandler struct {
	out    *syncWriter
	level  slog.Leveler
	source bool
	color  bool
	prefix string
	fields []field
}

type field struct {
	key string
	val slog.Value
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source bool) *consoleHandler {
	return &consoleHandler{
		out:    &syncWriter{w: w},
		level:  level,
		source: source,
		color:  isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = slices.Clone(h.fields)
	for _, a := range attrs {
		next.fields = appendField(next.fields, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	all := slices.Clone(h.fields)
	r.Attrs(func(a slog.Attr) bool {
		all = appendField(all, h.prefix, a)
		return true
	})

	// Later fields replace earlier ones with the same key, keeping the
	// position of the first.
	var component, stream string
	fields := make([]field, 0, len(all))
	index := make(map[string]int, len(all))
	for _, f := range all {
		switch f.key {
		case FieldComponent:
			component = valueText(f.val)
			continue
		case FieldStream:
			stream = valueText(f.val)
			continue
		}
		if i, ok := index[f.key]; ok {
			fields[i] = f
			continue
		}
		index[f.key] = len(fields)
		fields = append(fields, f)
	}

	var b strings.Builder
	h.writeHeader(&b, r, component, stream)
	if r.Level < slog.LevelInfo {
		for _, f := range fields {
			fmt.Fprintf(&b, "    %s: %s\n", f.key, quoted(valueText(f.val)))
		}
	} else {
		shown, hidden := pickInfoFields(fields)
		for _, f := range shown {
			fmt.Fprintf(&b, "    - %s: %s\n", label(f.key), displayValue(f))
		}
		switch hidden {
		case 0:
		case 1:
			b.WriteString("    + 1 more field hidden\n")
		default:
			fmt.Fprintf(&b, "    + %d more fields hidden\n", hidden)
		}
	}
	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) writeHeader(b *strings.Builder, r slog.Record, component, stream string) {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(formatTimestamp(ts))
	b.WriteByte(' ')
	b.WriteString(h.levelText(r.Level))
	if component != "" {
		fmt.Fprintf(b, " [%s]", component)
	}
	if stream != "" {
		b.WriteString(" " + stream)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(": " + msg)
	if h.source && r.PC != 0 {
		if src := r.Source(); src != nil && src.File != "" {
			fmt.Fprintf(b, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
}

func (h *consoleHandler) levelText(level slog.Level) string {
	var text string
	var attr color.Attribute
	switch {
	case level >= slog.LevelError:
		text, attr = "ERROR", color.FgRed
	case level >= slog.LevelWarn:
		text, attr = "WARN", color.FgYellow
	case level >= slog.LevelInfo:
		text, attr = "INFO", color.FgGreen
	default:
		text, attr = "DEBUG", color.FgHiBlack
	}
	if !h.color {
		return text
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(text)
}

// pickInfoFields puts leading keys first, drops quiet keys and caps the
// list. It returns the shown fields and how many were left out.
func pickInfoFields(fields []field) ([]field, int) {
	shown := make([]field, 0, maxInfoFields)
	taken := make(map[string]bool, maxInfoFields)
	for _, key := range leadingKeys {
		if len(shown) == maxInfoFields {
			break
		}
		if i := slices.IndexFunc(fields, func(f field) bool { return f.key == key }); i >= 0 {
			shown = append(shown, fields[i])
			taken[key] = true
		}
	}
	hidden := 0
	for _, f := range fields {
		if taken[f.key] || slices.Contains(quietKeys, f.key) {
			continue
		}
		if len(shown) < maxInfoFields {
			shown = append(shown, f)
		} else {
			hidden++
		}
	}
	return shown, hidden
}

func appendField(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, g := range v.Group() {
			dst = appendField(dst, inner, g)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + a.Key, val: v})
}

// label turns "size_bytes" into "Size bytes".
func label(key string) string {
	key = strings.NewReplacer("_", " ", ".", " ").Replace(key)
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// displayValue renders info field values. Byte counts use IEC units and
// scores keep the four decimals of the score lines on stdout.
func displayValue(f field) string {
	v := f.val
	switch {
	case strings.HasSuffix(f.key, "_bytes") && v.Kind() == slog.KindInt64 && v.Int64() >= 0:
		return humanize.IBytes(uint64(v.Int64()))
	case strings.HasSuffix(f.key, "_bytes") && v.Kind() == slog.KindUint64:
		return humanize.IBytes(v.Uint64())
	case v.Kind() == slog.KindFloat64 && (f.key == "mean" || f.key == "score" || f.key == "percent"):
		return strconv.FormatFloat(v.Float64(), 'f', 4, 64)
	}
	return quoted(valueText(v))
}

func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// quoted wraps s in quotes when it is empty or holds control characters
// or quotes.
func quoted(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
