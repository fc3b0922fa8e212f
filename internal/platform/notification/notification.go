// Package notification provides the toast sink used by the dashboard to report
// completed actions and failures: an in-memory recorder, a zerolog sink, a
// terminal writer and a fan-out combinator.
package notification

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Levels
// ---------------------------------------------------------------------------

// Level is the severity of a toast.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l == LevelInfo || l == LevelError
}

// ---------------------------------------------------------------------------
// Toast
// ---------------------------------------------------------------------------

// Toast is a single user-visible notification.
type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

func newToast(message string, level Level) Toast {
	if !level.Valid() {
		level = LevelInfo
	}
	return Toast{
		ID:        uuid.New().String(),
		Message:   message,
		Level:     level,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink receives toasts. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(ctx context.Context, message string, level Level)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, message string, level Level)

func (f SinkFunc) Notify(ctx context.Context, message string, level Level) {
	f(ctx, message, level)
}

// ---------------------------------------------------------------------------
// Memory Sink
// ---------------------------------------------------------------------------

// MemorySink records toasts in memory. The terminal dashboard keeps one for
// its history command and tests use it to assert what was emitted.
type MemorySink struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
}

// NewMemorySink creates a sink that keeps at most limit toasts, dropping the
// oldest first. A limit <= 0 keeps everything.
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

func (m *MemorySink) Notify(_ context.Context, message string, level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = append(m.toasts, newToast(message, level))
	if m.limit > 0 && len(m.toasts) > m.limit {
		m.toasts = m.toasts[len(m.toasts)-m.limit:]
	}
}

// Toasts returns a copy of the recorded toasts, oldest first.
func (m *MemorySink) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// Last returns the most recent toast.
func (m *MemorySink) Last() (Toast, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) == 0 {
		return Toast{}, false
	}
	return m.toasts[len(m.toasts)-1], true
}

// Reset discards all recorded toasts.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	m.toasts = nil
	m.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Log Sink
// ---------------------------------------------------------------------------

// LogSink mirrors toasts into a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "notification").Logger()}
}

func (s *LogSink) Notify(_ context.Context, message string, level Level) {
	ev := s.logger.Info()
	if level == LevelError {
		ev = s.logger.Warn()
	}
	ev.Str("level_toast", string(level)).Msg(message)
}

// ---------------------------------------------------------------------------
// Writer Sink
// ---------------------------------------------------------------------------

// WriterSink prints toasts as single plain-text lines, e.g. for a terminal.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Notify(_ context.Context, message string, level Level) {
	tag := "INFO"
	if level == LevelError {
		tag = "ERROR"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[%s] %s\n", tag, PlainText(message))
}

// PlainText strips control characters and ANSI escape sequences so remote
// messages are shown as inert text. Newlines collapse into spaces.
func PlainText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inEscape := false
	for _, r := range s {
		if inEscape {
			// CSI sequences end with a byte in the range @ to ~.
			if r >= '@' && r <= '~' && r != '[' {
				inEscape = false
			}
			continue
		}
		switch {
		case r == 0x1b:
			inEscape = true
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ---------------------------------------------------------------------------
// Multi Sink
// ---------------------------------------------------------------------------

// MultiSink fans a toast out to every wrapped sink in order.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, message string, level Level) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, message, level)
		}
	}
}
