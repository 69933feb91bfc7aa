package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// INFO lines show at most this many fields; DEBUG shows everything.
const infoAttrLimit = 6

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldProgressPercent,
	"error",
	FieldErrorHint,
	FieldImpact,
	"src",
	"dst",
	"format",
	"copied",
	"converted",
	"errors",
}

type field struct {
	key   string
	value slog.Value
}

// fieldSet keeps insertion order while letting later keys replace earlier ones.
type fieldSet struct {
	items []field
	index map[string]int
}

func (s *fieldSet) put(key string, value slog.Value) {
	if key == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[key]; ok {
		s.items[i].value = value
		return
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, field{key: key, value: value})
}

func (s *fieldSet) take(key string) string {
	i, ok := s.index[key]
	if !ok {
		return ""
	}
	value := attrString(s.items[i].value)
	s.items[i].key = ""
	return value
}

func (s *fieldSet) add(prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if value.Kind() == slog.KindGroup {
		for _, member := range value.Group() {
			s.add(key, member)
		}
		return
	}
	s.put(key, value)
}

func (s *fieldSet) visible() []field {
	out := make([]field, 0, len(s.items))
	for _, f := range s.items {
		if f.key != "" {
			out = append(out, f)
		}
	}
	return out
}

// prettyHandler renders a header line followed by indented "- key: value" fields.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	addSource bool
	prefix    string
	attrs     []slog.Attr
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clone(h.attrs)
	for _, attr := range attrs {
		// Bound attrs keep the group prefix active when they were added.
		next.attrs = append(next.attrs, prefixed(h.prefix, attr))
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if next.prefix == "" {
		next.prefix = name
	} else {
		next.prefix += "." + name
	}
	return &next
}

func prefixed(prefix string, attr slog.Attr) slog.Attr {
	if prefix == "" {
		return attr
	}
	return slog.Attr{Key: prefix, Value: slog.GroupValue(attr)}
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	var set fieldSet
	for _, attr := range h.attrs {
		set.add("", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		set.add(h.prefix, attr)
		return true
	})

	component := set.take(FieldComponent)
	subject := FormatSubject(set.take(FieldJobID), set.take(FieldPhase))
	set.take(FieldRunID)
	fields := set.visible()

	hidden := 0
	if record.Level >= slog.LevelInfo && len(fields) > infoAttrLimit {
		fields, hidden = pickInfoFields(fields)
	}

	var sb strings.Builder
	h.writeHeader(&sb, record, component, subject)
	for _, f := range fields {
		fmt.Fprintf(&sb, "    - %s: %s\n", f.key, formatField(f.key, f.value))
	}
	switch {
	case hidden == 1:
		sb.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(&sb, "    + %d more fields hidden\n", hidden)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

func (h *prettyHandler) writeHeader(sb *strings.Builder, record slog.Record, component, subject string) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(formatTimestamp(ts))
	sb.WriteString(" " + levelLabel(record.Level))
	if component != "" {
		sb.WriteString(" [" + component + "]")
	}
	if subject != "" {
		sb.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	sb.WriteString(" - " + msg)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(sb, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	sb.WriteByte('\n')
}

// pickInfoFields keeps highlighted keys first, then fills the remaining slots
// in record order.
func pickInfoFields(fields []field) ([]field, int) {
	chosen := make([]bool, len(fields))
	picked := 0
	for _, key := range infoHighlightKeys {
		if picked == infoAttrLimit {
			break
		}
		if i := slices.IndexFunc(fields, func(f field) bool { return f.key == key }); i >= 0 {
			chosen[i] = true
			picked++
		}
	}
	for i := range fields {
		if picked == infoAttrLimit {
			break
		}
		if !chosen[i] {
			chosen[i] = true
			picked++
		}
	}
	out := make([]field, 0, picked)
	for _, key := range infoHighlightKeys {
		if i := slices.IndexFunc(fields, func(f field) bool { return f.key == key }); i >= 0 && chosen[i] {
			out = append(out, fields[i])
			chosen[i] = false
		}
	}
	for i, f := range fields {
		if chosen[i] {
			out = append(out, f)
		}
	}
	return out, len(fields) - len(out)
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
