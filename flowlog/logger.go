// Package flowlog provides structured logging for blocks and topologies,
// optionally republishing entries to NATS for live observability, per
// SPEC_FULL.md §2 "Logging", grounded on the teacher's component/logging.go.
package flowlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Level names a log entry's severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is a structured log record suitable for publishing to NATS and
// consumed by a debug UI (e.g. rtserver's live log stream).
type Entry struct {
	Timestamp string `json:"timestamp"` // RFC3339Nano
	Level     Level  `json:"level"`
	Topology  string `json:"topology"`
	Block     string `json:"block"`
	Message   string `json:"message"`
	Stack     string `json:"stack,omitempty"`
}

// Logger wraps a *slog.Logger for local structured logging and optionally
// republishes every entry to a NATS subject scoped by topology and block
// name, so a remote debug client can tail a running topology's logs live.
type Logger struct {
	topology string
	block    string
	nc       *nats.Conn
	local    *slog.Logger
	enabled  bool
}

// New builds a Logger for the named block within topology. nc may be nil,
// in which case only local logging happens.
func New(topology, block string, nc *nats.Conn, local *slog.Logger) *Logger {
	return &Logger{topology: topology, block: block, nc: nc, local: local, enabled: nc != nil}
}

func (l *Logger) Debug(msg string) { l.DebugContext(context.Background(), msg) }
func (l *Logger) Info(msg string)  { l.InfoContext(context.Background(), msg) }
func (l *Logger) Warn(msg string)  { l.WarnContext(context.Background(), msg) }
func (l *Logger) Error(msg string, err error) { l.ErrorContext(context.Background(), msg, err) }

func (l *Logger) DebugContext(ctx context.Context, msg string) {
	l.publish(ctx, LevelDebug, msg, "")
	if l.local != nil {
		l.local.Debug(msg, "topology", l.topology, "block", l.block)
	}
}

func (l *Logger) InfoContext(ctx context.Context, msg string) {
	l.publish(ctx, LevelInfo, msg, "")
	if l.local != nil {
		l.local.Info(msg, "topology", l.topology, "block", l.block)
	}
}

func (l *Logger) WarnContext(ctx context.Context, msg string) {
	l.publish(ctx, LevelWarn, msg, "")
	if l.local != nil {
		l.local.Warn(msg, "topology", l.topology, "block", l.block)
	}
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, err error) {
	stack := ""
	if err != nil {
		stack = fmt.Sprintf("%+v", err)
	}
	l.publish(ctx, LevelError, msg, stack)
	if l.local != nil {
		l.local.Error(msg, "topology", l.topology, "block", l.block, "error", err)
	}
}

// publish republishes an entry to NATS if enabled, best-effort: marshal or
// publish failures are logged locally (if possible) and otherwise dropped,
// since logging must never block or fail the caller's own work.
func (l *Logger) publish(ctx context.Context, level Level, message, stack string) {
	if !l.enabled {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Topology:  l.topology,
		Block:     l.block,
		Message:   message,
		Stack:     stack,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		if l.local != nil {
			l.local.Error("flowlog: marshal entry", "error", err)
		}
		return
	}

	nc := l.nc
	if nc == nil {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}

	subject := fmt.Sprintf("flowcore.logs.%s.%s", l.topology, l.block)
	if err := nc.Publish(subject, data); err != nil {
		if l.local != nil {
			l.local.Error("flowlog: publish", "error", err, "subject", subject)
		}
	}
}
