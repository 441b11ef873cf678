package decoder

import (
	"log/slog"

	"github.com/gosnmp/gosnmp"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/snmp/oid"
)

// NameLookup maps a returned OID to a display name. *oid.SymbolTable
// satisfies it.
type NameLookup interface {
	Name(oid string) (string, bool)
}

// ─────────────────────────────────────────────────────────────────────────────
// Decoder
// ─────────────────────────────────────────────────────────────────────────────

// Decoder turns gosnmp varbinds into RawResult values. It is stateless once
// constructed and safe for concurrent use.
type Decoder struct {
	names  NameLookup
	logger *slog.Logger
}

// New constructs a Decoder. names may be nil, in which case every result is
// named by its OID.
func New(names NameLookup, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Decoder{names: names, logger: logger}
}

// Decode converts pdus in order. When dropEndOfView is set, EndOfMibView
// sentinels are omitted; bulk pages use this to hide the end-of-tree marker.
func (d *Decoder) Decode(pdus []gosnmp.SnmpPDU, dropEndOfView bool) []models.RawResult {
	out := make([]models.RawResult, 0, len(pdus))
	dropped := 0

	for i := range pdus {
		pdu := &pdus[i]
		if dropEndOfView && pdu.Type == gosnmp.EndOfMibView {
			dropped++
			continue
		}

		canonical := oid.Normalise(pdu.Name)
		out = append(out, models.RawResult{
			OID:   canonical,
			Name:  d.name(canonical),
			Value: RenderValue(pdu.Type, pdu.Value),
			Type:  PDUTypeString(pdu.Type),
		})
	}

	d.logger.Debug("decoder: varbinds decoded",
		"pdu_count", len(pdus),
		"result_count", len(out),
		"end_of_view_dropped", dropped,
	)
	return out
}

func (d *Decoder) name(canonical string) string {
	if d.names != nil {
		if n, ok := d.names.Name(canonical); ok {
			return n
		}
	}
	return canonical
}

// ─────────────────────────────────────────────────────────────────────────────
// noopWriter — discard all log output when no logger is provided
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
