// Package file implements a Transport that appends formatted records to any
// io.Writer, typically a RotatingFile or os.Stdout. Each call to Send writes
// one JSON document followed by a newline (JSON Lines).
//
//	persist.TransportSink → format/json → transport/file
package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ─────────────────────────────────────────────────────────────────────────────
// Transport interface
// ─────────────────────────────────────────────────────────────────────────────

// Transport is the contract shared by every byte-oriented sink transport.
// Send delivers one pre-formatted message; Close flushes and releases
// resources.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Close() error
}

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config controls WriterTransport behaviour.
type Config struct {
	// Writer is the destination. nil defaults to os.Stdout.
	Writer io.Writer

	// Newline appended after each message. Default "\n".
	Newline string

	// CloseWriter makes Close close Writer when it implements io.Closer.
	CloseWriter bool
}

// ─────────────────────────────────────────────────────────────────────────────
// WriterTransport
// ─────────────────────────────────────────────────────────────────────────────

// WriterTransport implements Transport on top of an io.Writer. It is safe for
// concurrent use.
type WriterTransport struct {
	mu     sync.Mutex
	w      io.Writer
	nl     []byte
	owns   bool
	closed bool
	logger *slog.Logger
}

// New constructs a WriterTransport.
//
//   - cfg.Writer defaults to os.Stdout when nil.
//   - cfg.Newline defaults to "\n" when empty.
//   - logger defaults to a no-op writer when nil.
func New(cfg Config, logger *slog.Logger) *WriterTransport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	w := cfg.Writer
	owns := cfg.CloseWriter
	if w == nil {
		w = os.Stdout
		owns = false
	}
	nl := cfg.Newline
	if nl == "" {
		nl = "\n"
	}
	return &WriterTransport{
		w:      w,
		nl:     []byte(nl),
		owns:   owns,
		logger: logger,
	}
}

// Send writes data and the newline in a single Write call so that a rotating
// writer never splits a record across files.
func (t *WriterTransport) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transport/file: %w", err)
	}

	line := make([]byte, 0, len(data)+len(t.nl))
	line = append(line, data...)
	line = append(line, t.nl...)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport/file: send on closed transport")
	}
	if _, err := t.w.Write(line); err != nil {
		t.logger.Error("transport/file: write failed", "error", err.Error(), "bytes", len(data))
		return fmt.Errorf("transport/file: write: %w", err)
	}

	t.logger.Debug("transport/file: sent message", "bytes", len(data))
	return nil
}

// Close marks the transport closed and, when configured with CloseWriter,
// closes the underlying writer. Calling Close twice is harmless.
func (t *WriterTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if c, ok := t.w.(io.Closer); ok && t.owns {
		if err := c.Close(); err != nil {
			return fmt.Errorf("transport/file: close: %w", err)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
