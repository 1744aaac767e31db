package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// CaptureBuffer collects JSON log lines written concurrently by tests.
type CaptureBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *CaptureBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *CaptureBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entry is one decoded log line.
type Entry map[string]any

// Message returns the msg attribute.
func (e Entry) Message() string {
	s, _ := e[slog.MessageKey].(string)
	return s
}

// Entries decodes every line written so far.
func (b *CaptureBuffer) Entries() ([]Entry, error) {
	var entries []Entry
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("malformed log line %q: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Find returns the entries with the given message whose attributes match
// the key/value pairs in attrs. Values are compared by their %v form.
func (b *CaptureBuffer) Find(msg string, attrs ...any) []Entry {
	entries, err := b.Entries()
	if err != nil {
		return nil
	}
	var found []Entry
	for _, e := range entries {
		if e.Message() == msg && matches(e, attrs) {
			found = append(found, e)
		}
	}
	return found
}

func matches(e Entry, attrs []any) bool {
	for i := 0; i+1 < len(attrs); i += 2 {
		key := fmt.Sprint(attrs[i])
		got, ok := e[key]
		if !ok || fmt.Sprint(got) != fmt.Sprint(attrs[i+1]) {
			return false
		}
	}
	return true
}

// NewCaptureLogger returns a debug level JSON logger writing to a fresh
// CaptureBuffer.
func NewCaptureLogger(t *testing.T) (*slog.Logger, *CaptureBuffer) {
	t.Helper()
	buf := &CaptureBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// AssertLogged fails the test unless a line with msg and the given
// attributes was logged.
func AssertLogged(t *testing.T, buf *CaptureBuffer, msg string, attrs ...any) {
	t.Helper()
	if len(buf.Find(msg, attrs...)) == 0 {
		t.Errorf("expected log %q with %v, got:\n%s", msg, attrs, buf.String())
	}
}
