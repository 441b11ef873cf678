package rows

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vpbank/snmp_gateway/models"
)

// SourceBackend tags every row produced by the gateway.
const SourceBackend = "backend"

// ─────────────────────────────────────────────────────────────────────────────
// Normalizer
// ─────────────────────────────────────────────────────────────────────────────

// Normalizer converts RawResults into NormalizedRows. It is stateless and safe
// for concurrent use.
type Normalizer struct {
	templates *TemplateTable
	now       func() time.Time
	logger    *slog.Logger
}

// New constructs a Normalizer. A nil table applies the defaults to every row.
func New(templates *TemplateTable, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Normalizer{templates: templates, now: time.Now, logger: logger}
}

// WithClock returns a copy of n that takes its batch timestamp from now.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	cp := *n
	cp.now = now
	return &cp
}

// Normalize maps results one-to-one, preserving order. All rows of a batch
// share a single UTC timestamp.
func (n *Normalizer) Normalize(results []models.RawResult, address string, port uint16) []models.NormalizedRow {
	ts := n.now().UTC().Format(time.RFC3339)
	out := make([]models.NormalizedRow, 0, len(results))
	numeric := 0

	for _, r := range results {
		tpl, _ := n.templates.Lookup(r.OID)

		category := tpl.Category
		if category == "" {
			category = DefaultCategory
		}

		value := r.Value
		if f, ok := ParseNumber(r.Value); ok {
			value = Round(f, tpl.decimals())
			numeric++
		}

		out = append(out, models.NormalizedRow{
			Name:      rowName(r, tpl),
			OID:       r.OID,
			Value:     value,
			Unit:      tpl.Unit,
			Type:      r.Type,
			Category:  category,
			Timestamp: ts,
			Address:   address,
			Port:      port,
			Source:    SourceBackend,
		})
	}

	n.logger.Debug("rows: normalized",
		"rows", len(out),
		"numeric", numeric,
	)
	return out
}

// rowName prefers the agent-supplied name, then the template name, then the
// OID. A raw name equal to the OID counts as absent.
func rowName(r models.RawResult, tpl Template) string {
	if r.Name != "" && r.Name != r.OID {
		return r.Name
	}
	if tpl.Name != "" {
		return tpl.Name
	}
	return r.OID
}

// ─────────────────────────────────────────────────────────────────────────────
// Numeric helpers
// ─────────────────────────────────────────────────────────────────────────────

// ParseNumber reports whether v is a finite number, either as a Go numeric
// type or as a string that parses after trimming whitespace.
func ParseNumber(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Round rounds f to the given number of decimal places, half away from zero.
func Round(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Round(f*p) / p
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return f
	}
	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// noopWriter — discard all log output when no logger is provided
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
