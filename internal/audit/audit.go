// Package audit implements the append-only security audit trail. It is
// deliberately plain text in a fixed format, not a structured logging
// sink — downstream tooling greps this file, so the line format is part
// of the external contract and must never change shape.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names a security-relevant state transition.
type EventType string

const (
	TokenCreated       EventType = "TOKEN_CREATED"
	TokenRevoked       EventType = "TOKEN_REVOKED"
	AuthSuccess        EventType = "AUTH_SUCCESS"
	AuthFailure        EventType = "AUTH_FAILURE"
	PermissionChange   EventType = "PERMISSION_CHANGE"
	SuspiciousActivity EventType = "SUSPICIOUS_ACTIVITY"
)

// Level is the severity of a logged event.
type Level string

const (
	Info    Level = "INFO"
	Warning Level = "WARNING"
)

// Log is an append-only plaintext security audit log. Writers are
// serialized through mu so that concurrent Log calls never interleave
// a partial line.
type Log struct {
	mu   sync.Mutex
	path string
	seq  uint64
}

// Open returns a Log appending to path, creating the parent directory
// if necessary. The file itself is created lazily on first write.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
	}
	return &Log{path: path}, nil
}

// Write appends one event line. fields are rendered in the given order
// as comma-separated key=value pairs after the event type, matching:
// "YYYY-MM-DD HH:MM:SS - LEVEL - EVENT_TYPE - Agent: <id>, k=v, ...".
func (l *Log) Write(level Level, eventType EventType, agentID string, fields ...Field) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	fields = append([]Field{
		{Key: "event_id", Value: uuid.NewString()},
		{Key: "seq", Value: fmt.Sprint(l.seq)},
	}, fields...)

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(" - ")
	b.WriteString(string(level))
	b.WriteString(" - ")
	b.WriteString(string(eventType))
	b.WriteString(" - Agent: ")
	b.WriteString(agentID)
	for _, f := range fields {
		b.WriteString(", ")
		b.WriteString(f.Key)
		b.WriteString("=")
		b.WriteString(f.Value)
	}
	b.WriteString("\n")

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write audit line: %w", err)
	}
	return f.Sync()
}

// Field is one key=value pair appended to an audit line.
type Field struct {
	Key   string
	Value string
}

// F is a convenience constructor for Field with an arbitrary value
// rendered via fmt.Sprint.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: fmt.Sprint(value)}
}

// Fields builds a sorted slice of Field from a map, used when the event's
// extra fields arrive as a map rather than explicit arguments.
func Fields(m map[string]interface{}) []Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, F(k, m[k]))
	}
	return out
}
