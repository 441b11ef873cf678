// Package json serialises persistence records for the byte-oriented
// transports (file, AMQP, Redis). Each record becomes one JSON document.
//
//	gateway → persist.Dispatcher → format/json → transport/{file,amqp,redis}
package json

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vpbank/snmp_gateway/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Formatter interface
// ─────────────────────────────────────────────────────────────────────────────

// Formatter serialises a models.Record into a byte slice.
type Formatter interface {
	Format(record *models.Record) ([]byte, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config controls JSONFormatter behaviour.
type Config struct {
	// PrettyPrint emits indented, human-readable JSON when true.
	PrettyPrint bool

	// Indent is the indent string used when PrettyPrint=true.
	// Defaults to two spaces.
	Indent string

	// RedactCommunity drops the community string from every record, even
	// when it was exposed in the response.
	RedactCommunity bool
}

// ─────────────────────────────────────────────────────────────────────────────
// JSONFormatter
// ─────────────────────────────────────────────────────────────────────────────

// JSONFormatter implements Formatter using encoding/json. All fields are
// immutable after construction, so it is safe for concurrent use.
type JSONFormatter struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs a JSONFormatter. A nil logger is replaced by a no-op one.
func New(cfg Config, logger *slog.Logger) *JSONFormatter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if cfg.PrettyPrint && cfg.Indent == "" {
		cfg.Indent = "  "
	}
	return &JSONFormatter{cfg: cfg, logger: logger}
}

// Format serialises record. The meta fields appear at the top level next to
// "results" and "rows":
//
//	{
//	  "ip": "10.0.0.5", "operation": "walk", "oid": "1.3.6.1.4.1.9999.1.2",
//	  "version": "v2c", "port": 161, "appId": "default-app-id", "dummy": true,
//	  "community": null, "resolvedOid": "1.3.6.1.4.1.9999.1.2",
//	  "latency_ms": 3, "requestId": "…",
//	  "results": [ … ], "rows": [ … ], "createdAt": "2026-03-14T02:26:53Z"
//	}
func (f *JSONFormatter) Format(record *models.Record) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("format/json: record must not be nil")
	}

	out := record
	if f.cfg.RedactCommunity && record.Community != nil {
		cp := *record
		cp.Community = nil
		out = &cp
	}

	var (
		data []byte
		err  error
	)
	if f.cfg.PrettyPrint {
		data, err = json.MarshalIndent(out, "", f.cfg.Indent)
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		f.logger.Error("format/json: marshal failed",
			"request_id", record.RequestID,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("format/json: marshal: %w", err)
	}

	f.logger.Debug("format/json: formatted record",
		"request_id", record.RequestID,
		"results", len(record.Results),
		"rows", len(record.Rows),
		"bytes", len(data),
	)
	return data, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

// noopWriter discards all log output when no logger is provided.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
