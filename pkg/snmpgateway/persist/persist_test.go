package persist_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fmtjson "github.com/vpbank/snmp_gateway/format/json"
	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/persist"
	"github.com/vpbank/snmp_gateway/transport/file"
)

// fakeSink records every saved record; block, when set, holds Save until
// closed.
type fakeSink struct {
	mu      sync.Mutex
	saved   []models.Record
	fail    bool
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSink) Save(ctx context.Context, r models.Record) (bool, string) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if _, ok := ctx.Deadline(); !ok {
		return false, "no deadline"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false, "boom"
	}
	f.saved = append(f.saved, r)
	return true, "ok"
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func record(id string) models.Record {
	return models.Record{ResponseMeta: models.ResponseMeta{RequestID: id, Operation: models.OpGet}}
}

var fixedNow = time.Date(2026, 3, 14, 2, 26, 53, 0, time.UTC)

// ── Dispatcher ───────────────────────────────────────────────────────────────

func TestDispatcher_SavesAndStamps(t *testing.T) {
	sink := &fakeSink{}
	d := persist.NewDispatcher(sink, persist.Options{Workers: 2, QueueSize: 8, Now: func() time.Time { return fixedNow }}, nil)
	d.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, d.TrySubmit(record(id)))
	}
	d.Stop()

	require.Equal(t, 3, sink.count())
	for _, r := range sink.saved {
		assert.Equal(t, fixedNow, r.CreatedAt)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &fakeSink{block: make(chan struct{}), entered: make(chan struct{}, 4)}
	d := persist.NewDispatcher(sink, persist.Options{Workers: 1, QueueSize: 1}, nil)
	d.Start(context.Background())

	require.True(t, d.TrySubmit(record("in-flight")))
	<-sink.entered // worker holds the first record
	require.True(t, d.TrySubmit(record("queued")))
	assert.False(t, d.TrySubmit(record("dropped")), "queue is full")

	close(sink.block)
	d.Stop()
	assert.Equal(t, 2, sink.count())
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := persist.NewDispatcher(&fakeSink{}, persist.Options{}, nil)
	d.Start(context.Background())
	d.Stop()
	d.Stop()
	assert.False(t, d.TrySubmit(record("late")))
}

func TestDispatcher_FailureIsLoggedNotPropagated(t *testing.T) {
	var logs bytes.Buffer
	logger := newTestLogger(&logs)
	d := persist.NewDispatcher(&fakeSink{fail: true}, persist.Options{}, logger)
	d.Start(context.Background())

	require.True(t, d.TrySubmit(record("r-fail")))
	d.Stop()

	out := logs.String()
	assert.Contains(t, out, "persist: save failed")
	assert.Contains(t, out, "r-fail")
	assert.Contains(t, out, "PersistenceError")
}

func TestDispatcher_CancelledStartContextStillDrains(t *testing.T) {
	sink := &fakeSink{}
	ctx, cancel := context.WithCancel(context.Background())
	d := persist.NewDispatcher(sink, persist.Options{QueueSize: 4}, nil)
	d.Start(ctx)
	cancel()

	require.True(t, d.TrySubmit(record("x")))
	d.Stop()
	assert.Equal(t, 1, sink.count())
}

func TestDispatcher_NilSinkIsNoop(t *testing.T) {
	d := persist.NewDispatcher(nil, persist.Options{}, nil)
	d.Start(context.Background())
	assert.True(t, d.TrySubmit(record("ignored")))
	d.Stop()
}

// ── Sinks ────────────────────────────────────────────────────────────────────

func TestNoop(t *testing.T) {
	ok, msg := persist.Noop{}.Save(context.Background(), record("a"))
	assert.False(t, ok)
	assert.Equal(t, persist.Disabled, msg)
}

func TestTransportSink_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	s := persist.NewTransportSink("file",
		fmtjson.New(fmtjson.Config{}, nil),
		file.New(file.Config{Writer: &buf}, nil),
	)

	ok, msg := s.Save(context.Background(), record("req-9"))
	require.True(t, ok, msg)
	assert.True(t, strings.HasPrefix(msg, "file: "))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	assert.Equal(t, "req-9", got["requestId"])
}

type failingTransport struct{}

func (failingTransport) Send(context.Context, []byte) error { return errors.New("broker down") }
func (failingTransport) Close() error                       { return nil }

func TestTransportSink_TransportError(t *testing.T) {
	s := persist.NewTransportSink("amqp", fmtjson.New(fmtjson.Config{}, nil), failingTransport{})
	ok, msg := s.Save(context.Background(), record("x"))
	assert.False(t, ok)
	assert.Contains(t, msg, "broker down")
}

type recordWriter struct{ got *models.Record }

func (w *recordWriter) WriteRecord(_ context.Context, r *models.Record) error {
	w.got = r
	return nil
}
func (w *recordWriter) Close() error { return nil }

func TestRecordSink(t *testing.T) {
	w := &recordWriter{}
	r := record("influx-1")
	r.Rows = []models.NormalizedRow{{Name: "temperature"}}

	ok, msg := persist.NewRecordSink("influx", w).Save(context.Background(), r)
	require.True(t, ok)
	assert.Equal(t, "influx: 1 rows", msg)
	assert.Equal(t, "influx-1", w.got.RequestID)
}
