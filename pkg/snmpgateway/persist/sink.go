// Package persist forwards completed gateway records to an optional sink on a
// bounded worker pool. The request path never waits on it.
//
//	gateway.Handle → Dispatcher.TrySubmit → worker → Sink.Save
package persist

import (
	"context"
	"fmt"
	"log/slog"

	fmtjson "github.com/vpbank/snmp_gateway/format/json"
	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/transport/file"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sink
// ─────────────────────────────────────────────────────────────────────────────

// Sink stores one record. ok reports success; message is a short human
// readable outcome that ends up in the logs.
type Sink interface {
	Save(ctx context.Context, record models.Record) (ok bool, message string)
	Close() error
}

// Disabled is the message Noop reports; the dispatcher does not log it.
const Disabled = "disabled"

// Noop is the Sink used when persistence is disabled.
type Noop struct{}

func (Noop) Save(context.Context, models.Record) (bool, string) { return false, Disabled }
func (Noop) Close() error                                       { return nil }

// ─────────────────────────────────────────────────────────────────────────────
// TransportSink — formatter + byte transport (file, amqp, redis)
// ─────────────────────────────────────────────────────────────────────────────

// TransportSink serialises records with a Formatter and hands the bytes to a
// Transport.
type TransportSink struct {
	name      string
	formatter fmtjson.Formatter
	transport file.Transport
}

// NewTransportSink wires f and t together. name labels log lines.
func NewTransportSink(name string, f fmtjson.Formatter, t file.Transport) *TransportSink {
	return &TransportSink{name: name, formatter: f, transport: t}
}

func (s *TransportSink) Save(ctx context.Context, record models.Record) (bool, string) {
	data, err := s.formatter.Format(&record)
	if err != nil {
		return false, err.Error()
	}
	if err := s.transport.Send(ctx, data); err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("%s: %d bytes", s.name, len(data))
}

func (s *TransportSink) Close() error { return s.transport.Close() }

// ─────────────────────────────────────────────────────────────────────────────
// RecordSink — structured writers (influx)
// ─────────────────────────────────────────────────────────────────────────────

// RecordWriter stores a record without an intermediate byte encoding.
type RecordWriter interface {
	WriteRecord(ctx context.Context, record *models.Record) error
	Close() error
}

// RecordSink adapts a RecordWriter to Sink.
type RecordSink struct {
	name   string
	writer RecordWriter
}

// NewRecordSink wraps w. name labels log lines.
func NewRecordSink(name string, w RecordWriter) *RecordSink {
	return &RecordSink{name: name, writer: w}
}

func (s *RecordSink) Save(ctx context.Context, record models.Record) (bool, string) {
	if err := s.writer.WriteRecord(ctx, &record); err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("%s: %d rows", s.name, len(record.Rows))
}

func (s *RecordSink) Close() error { return s.writer.Close() }

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(noopWriter{}, nil)) }
