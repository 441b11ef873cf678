package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
)

// DefaultTimeout bounds a single Sink.Save when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Options configures a Dispatcher.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration

	// Now stamps Record.CreatedAt. Defaults to time.Now.
	Now func() time.Time
}

// ─────────────────────────────────────────────────────────────────────────────
// Dispatcher — bounded fan-out to the sink
// ─────────────────────────────────────────────────────────────────────────────

// Dispatcher queues records and saves them on Workers goroutines. A full
// queue drops the record; sink failures are logged and never surface to the
// caller.
type Dispatcher struct {
	sink    Sink
	workers int
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan models.Record
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher for sink. A nil sink means Noop.
func NewDispatcher(sink Sink, opts Options, logger *slog.Logger) *Dispatcher {
	if sink == nil {
		sink = Noop{}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Dispatcher{
		sink:    sink,
		workers: opts.Workers,
		timeout: opts.Timeout,
		now:     opts.Now,
		logger:  logger,
		jobs:    make(chan models.Record, opts.QueueSize),
	}
}

// Start launches the worker goroutines. ctx supplies values to each save but
// its cancellation does not abort queued records; call Stop to drain.
func (d *Dispatcher) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(base)
	}
}

// TrySubmit enqueues record without blocking. It returns false when the queue
// is full or the dispatcher has been stopped.
func (d *Dispatcher) TrySubmit(record models.Record) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("persist: dispatcher stopped, record dropped", "request_id", record.RequestID)
		return false
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = d.now().UTC()
	}
	select {
	case d.jobs <- record:
		return true
	default:
		d.logger.Warn("persist: queue full, record dropped",
			"request_id", record.RequestID,
			"queue_size", cap(d.jobs),
		)
		return false
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker(base context.Context) {
	defer d.wg.Done()
	for record := range d.jobs {
		d.save(base, record)
	}
}

func (d *Dispatcher) save(base context.Context, record models.Record) {
	ctx, cancel := context.WithTimeout(base, d.timeout)
	defer cancel()

	start := time.Now()
	ok, msg := d.safeSave(ctx, record)
	if !ok {
		if msg == Disabled {
			return
		}
		err := gwerr.New(gwerr.Persistence, "%s", msg)
		d.logger.Warn("persist: save failed",
			"request_id", record.RequestID,
			"kind", gwerr.KindOf(err).String(),
			"error", err.Error(),
		)
		return
	}
	d.logger.Info("persist: saved",
		"request_id", record.RequestID,
		"operation", string(record.Operation),
		"rows", len(record.Rows),
		"message", msg,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// safeSave isolates the worker from a panicking sink.
func (d *Dispatcher) safeSave(ctx context.Context, record models.Record) (ok bool, msg string) {
	defer func() {
		if r := recover(); r != nil {
			ok, msg = false, "sink panic"
			d.logger.Error("persist: sink panic", "request_id", record.RequestID, "panic", r)
		}
	}()
	return d.sink.Save(ctx, record)
}
