package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/comfyboot/internal/ports"
)

var levelStyles = map[ports.Level]lipgloss.Style{
	ports.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	ports.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	ports.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	ports.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

// sink is shared by a logger and every logger derived from it with With, so
// lines from the launcher's goroutines never interleave and SetLevel applies
// to the whole family.
type sink struct {
	mu    sync.Mutex
	out   io.Writer
	level ports.Level
}

// ConsoleLogger writes one line per entry, as key=value text or as a JSON
// object whose keys keep the order the fields were given in.
type ConsoleLogger struct {
	sink   *sink
	fields []ports.Field

	jsonFormat bool
	timestamp  bool
	levelLabel bool
	color      bool
	now        func() time.Time
}

// ConsoleLoggerOption configures a ConsoleLogger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the writer. The default is os.Stderr.
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.sink.out = w }
}

// WithLevel sets the minimum level. The default is Info.
func WithLevel(level ports.Level) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.sink.level = level }
}

// WithJSONFormat switches to JSON lines.
func WithJSONFormat(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.jsonFormat = enabled }
}

// WithTimestamp toggles the time prefix. On by default.
func WithTimestamp(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.timestamp = enabled }
}

// WithLevelLabel toggles the [LEVEL] prefix. On by default.
func WithLevelLabel(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.levelLabel = enabled }
}

// WithColor colors the level label in text mode.
func WithColor(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) { l.color = enabled }
}

// NewConsoleLogger creates a ConsoleLogger.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{
		sink:       &sink{out: os.Stderr, level: ports.LevelInfo},
		timestamp:  true,
		levelLabel: true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ConsoleLogger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelDebug, msg, fields)
}

func (l *ConsoleLogger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelInfo, msg, fields)
}

func (l *ConsoleLogger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelWarn, msg, fields)
}

func (l *ConsoleLogger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelError, msg, fields)
}

// With returns a child that prefixes fields to every entry.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	child := *l
	child.fields = append(append([]ports.Field(nil), l.fields...), fields...)
	return &child
}

func (l *ConsoleLogger) Level() ports.Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

func (l *ConsoleLogger) SetLevel(level ports.Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *ConsoleLogger) write(level ports.Level, msg string, fields []ports.Field) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if level < l.sink.level {
		return
	}

	all := append(append([]ports.Field(nil), l.fields...), fields...)
	var line []byte
	if l.jsonFormat {
		line = l.encodeJSON(level, msg, all)
	} else {
		line = l.encodeText(level, msg, all)
	}
	_, _ = l.sink.out.Write(line)
}

func (l *ConsoleLogger) encodeJSON(level ports.Level, msg string, fields []ports.Field) []byte {
	var b bytes.Buffer
	b.WriteByte('{')
	sep := ""
	put := func(key string, value interface{}) {
		v, err := json.Marshal(value)
		if err != nil {
			v, _ = json.Marshal(fmt.Sprint(value))
		}
		k, _ := json.Marshal(key)
		b.WriteString(sep)
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
		sep = ","
	}

	if l.timestamp {
		put("time", l.now().UTC().Format(time.RFC3339))
	}
	if l.levelLabel {
		put("level", level.String())
	}
	put("msg", msg)
	for _, f := range fields {
		put(f.Key, f.Value)
	}
	b.WriteString("}\n")
	return b.Bytes()
}

func (l *ConsoleLogger) encodeText(level ports.Level, msg string, fields []ports.Field) []byte {
	var b strings.Builder
	if l.timestamp {
		b.WriteString(l.now().Format("15:04:05 "))
	}
	if l.levelLabel {
		label := "[" + level.String() + "]"
		if l.color {
			label = levelStyles[level].Render(label)
		}
		b.WriteString(label + " ")
	}
	b.WriteString(msg)
	for _, f := range fields {
		b.WriteString(" " + f.Key + "=" + textValue(f.Value))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// textValue quotes values containing spaces so a step description such as
// "Downloading VAE model" stays one token.
func textValue(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

var _ ports.Logger = (*ConsoleLogger)(nil)
