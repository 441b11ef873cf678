// Package influx writes normalised rows to InfluxDB 1.x as points, one point
// per row. Rows with a numeric value get a "value" field; anything else is
// stored as "value_str".
//
//	persist.RecordSink → transport/influx
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	client "github.com/influxdata/influxdb1-client"

	"github.com/vpbank/snmp_gateway/models"
)

// DefaultMeasurement is used when Config.Measurement is empty.
const DefaultMeasurement = "snmp_rows"

// Config controls Writer.
type Config struct {
	URL         string
	Database    string
	Measurement string
	Username    string
	Password    string
	Timeout     time.Duration
}

// pointWriter is the subset of *client.Client used here.
type pointWriter interface {
	Write(bp client.BatchPoints) (*client.Response, error)
}

// Writer turns persistence records into InfluxDB points.
type Writer struct {
	client      pointWriter
	database    string
	measurement string
	logger      *slog.Logger
}

// New builds an InfluxDB HTTP client for cfg.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("transport/influx: database is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("transport/influx: parse url %q: %w", cfg.URL, err)
	}
	c, err := client.NewClient(client.Config{
		URL:      *u,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport/influx: new client: %w", err)
	}
	w := newWriter(c, cfg.Database, cfg.Measurement, logger)
	w.logger.Info("transport/influx: ready", "url", u.Redacted(), "database", cfg.Database, "measurement", w.measurement)
	return w, nil
}

func newWriter(c pointWriter, database, measurement string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	return &Writer{client: c, database: database, measurement: measurement, logger: logger}
}

// WriteRecord writes every row of record in one batch. A record without rows
// is a no-op.
func (w *Writer) WriteRecord(ctx context.Context, record *models.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transport/influx: %w", err)
	}
	if record == nil || len(record.Rows) == 0 {
		return nil
	}

	points := make([]client.Point, 0, len(record.Rows))
	for _, row := range record.Rows {
		points = append(points, w.point(record, row))
	}

	resp, err := w.client.Write(client.BatchPoints{
		Points:    points,
		Database:  w.database,
		Precision: "ns",
	})
	if err == nil && resp != nil && resp.Err != nil {
		err = resp.Err
	}
	if err != nil {
		w.logger.Error("transport/influx: write failed",
			"request_id", record.RequestID,
			"points", len(points),
			"error", err.Error(),
		)
		return fmt.Errorf("transport/influx: write: %w", err)
	}

	w.logger.Debug("transport/influx: wrote points", "request_id", record.RequestID, "points", len(points))
	return nil
}

// Close is a no-op; the HTTP client holds no long-lived connection state.
func (w *Writer) Close() error { return nil }

func (w *Writer) point(record *models.Record, row models.NormalizedRow) client.Point {
	tags := map[string]string{
		"ip":        row.Address,
		"oid":       row.OID,
		"name":      row.Name,
		"operation": string(record.Operation),
		"app_id":    record.AppID,
	}
	if row.Category != "" {
		tags["category"] = row.Category
	}
	if row.Unit != "" {
		tags["unit"] = row.Unit
	}
	if record.DummyMode {
		tags["dummy"] = "true"
	}

	fields := map[string]interface{}{
		"request_id": record.RequestID,
	}
	switch v := row.Value.(type) {
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		fields["value"] = v
	case nil:
		fields["value_str"] = ""
	default:
		fields["value_str"] = fmt.Sprint(v)
	}

	// Row timestamps only carry seconds; CreatedAt keeps two requests for
	// the same ip and oid in the same second from overwriting each other.
	ts := record.CreatedAt
	if ts.IsZero() {
		if parsed, err := time.Parse(time.RFC3339, row.Timestamp); err == nil {
			ts = parsed
		}
	}

	return client.Point{
		Measurement: w.measurement,
		Tags:        tags,
		Time:        ts,
		Fields:      fields,
	}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
