package influx

import "log/slog"

// NewWithClient builds a Writer around a fake point writer.
func NewWithClient(c pointWriter, database, measurement string, logger *slog.Logger) *Writer {
	return newWriter(c, database, measurement, logger)
}
