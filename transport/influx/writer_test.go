package influx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	client "github.com/influxdata/influxdb1-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/transport/influx"
)

type fakeClient struct {
	batches []client.BatchPoints
	err     error
}

func (f *fakeClient) Write(bp client.BatchPoints) (*client.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, bp)
	return nil, nil
}

func sensorRecord() *models.Record {
	return &models.Record{
		ResponseMeta: models.ResponseMeta{
			Address:   "10.0.0.5",
			Operation: models.OpWalk,
			AppID:     "gw-01",
			DummyMode: true,
			RequestID: "req-1",
		},
		Rows: []models.NormalizedRow{
			{Name: "temperature", OID: "1.3.6.1.4.1.9999.1.2.0", Value: 24.57, Unit: "°C", Category: "environment", Timestamp: "2026-03-14T02:26:53Z", Address: "10.0.0.5"},
			{Name: "sysDescr", OID: "1.3.6.1.2.1.1.1.0", Value: "Linux edge-01", Category: "misc", Timestamp: "2026-03-14T02:26:53Z", Address: "10.0.0.5"},
		},
		CreatedAt: time.Date(2026, 3, 14, 2, 26, 53, 120_000_000, time.UTC),
	}
}

func TestWriteRecord_Points(t *testing.T) {
	fake := &fakeClient{}
	w := influx.NewWithClient(fake, "snmp", "", nil)

	require.NoError(t, w.WriteRecord(context.Background(), sensorRecord()))
	require.Len(t, fake.batches, 1)

	bp := fake.batches[0]
	assert.Equal(t, "snmp", bp.Database)
	require.Len(t, bp.Points, 2)

	temp := bp.Points[0]
	assert.Equal(t, influx.DefaultMeasurement, temp.Measurement)
	assert.Equal(t, "temperature", temp.Tags["name"])
	assert.Equal(t, "environment", temp.Tags["category"])
	assert.Equal(t, "true", temp.Tags["dummy"])
	assert.Equal(t, 24.57, temp.Fields["value"])
	assert.Equal(t, time.Date(2026, 3, 14, 2, 26, 53, 120_000_000, time.UTC), temp.Time)
	assert.Equal(t, "ns", bp.Precision)

	descr := bp.Points[1]
	assert.Equal(t, "Linux edge-01", descr.Fields["value_str"])
	assert.NotContains(t, descr.Fields, "value")
	assert.NotContains(t, descr.Tags, "unit")
}

func TestWriteRecord_NoRowsIsNoop(t *testing.T) {
	fake := &fakeClient{}
	w := influx.NewWithClient(fake, "snmp", "m", nil)
	require.NoError(t, w.WriteRecord(context.Background(), &models.Record{}))
	assert.Empty(t, fake.batches)
}

func TestWriteRecord_Error(t *testing.T) {
	w := influx.NewWithClient(&fakeClient{err: errors.New("503 service unavailable")}, "snmp", "m", nil)
	err := w.WriteRecord(context.Background(), sensorRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNew_RequiresDatabase(t *testing.T) {
	_, err := influx.New(influx.Config{URL: "http://localhost:8086"}, nil)
	assert.Error(t, err)
}

func TestWriteRecord_SameSecondRequestsKeepDistinctPoints(t *testing.T) {
	fake := &fakeClient{}
	w := influx.NewWithClient(fake, "snmp", "", nil)

	first := sensorRecord()
	second := sensorRecord()
	second.RequestID = "req-2"
	second.CreatedAt = first.CreatedAt.Add(300 * time.Millisecond)

	require.NoError(t, w.WriteRecord(context.Background(), first))
	require.NoError(t, w.WriteRecord(context.Background(), second))
	require.Len(t, fake.batches, 2)

	a, b := fake.batches[0].Points[0], fake.batches[1].Points[0]
	assert.Equal(t, a.Tags, b.Tags)
	assert.NotEqual(t, a.Time, b.Time)
}

func TestWriteRecord_FallsBackToRowTimestamp(t *testing.T) {
	fake := &fakeClient{}
	w := influx.NewWithClient(fake, "snmp", "", nil)

	rec := sensorRecord()
	rec.CreatedAt = time.Time{}
	require.NoError(t, w.WriteRecord(context.Background(), rec))
	assert.Equal(t, time.Date(2026, 3, 14, 2, 26, 53, 0, time.UTC), fake.batches[0].Points[0].Time)
}
