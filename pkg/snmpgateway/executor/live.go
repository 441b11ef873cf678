package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
	"github.com/vpbank/snmp_gateway/snmp/decoder"
	"github.com/vpbank/snmp_gateway/snmp/security"
)

// MaxPageSize is the hard upper bound on GetBulk max-repetitions.
const MaxPageSize = 200

// LiveConfig holds the retry and timeout policy applied to every request.
type LiveConfig struct {
	// Retries is the number of retransmissions after the first attempt.
	Retries int

	// Timeout bounds each individual attempt.
	Timeout time.Duration

	// NewClient creates the per-request SNMP client. Defaults to
	// gosnmp.NewHandler; tests inject a mock.
	NewClient func() gosnmp.Handler
}

// ─────────────────────────────────────────────────────────────────────────────
// Live — production implementation
// ─────────────────────────────────────────────────────────────────────────────

// Live executes jobs against real agents. A fresh gosnmp.Handler is created
// for every job, so Live holds no connection state and is safe for concurrent
// use.
type Live struct {
	cfg     LiveConfig
	decoder *decoder.Decoder
	logger  *slog.Logger
}

// NewLive constructs a Live executor.
func NewLive(cfg LiveConfig, dec *decoder.Decoder, logger *slog.Logger) *Live {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if cfg.NewClient == nil {
		cfg.NewClient = gosnmp.NewHandler
	}
	if dec == nil {
		dec = decoder.New(nil, logger)
	}
	return &Live{cfg: cfg, decoder: dec, logger: logger}
}

// Execute implements Executor.
//
//   - get / getnext → one request, first varbind only
//   - set           → one Set with an OctetString payload
//   - walk          → exactly one GetBulk page (nonRepeaters=0,
//     maxRepetitions=PageSize); EndOfMibView markers are dropped
func (l *Live) Execute(ctx context.Context, job Job) ([]models.RawResult, error) {
	if err := l.validate(job); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, gwerr.Wrap(gwerr.Transport, err, "SNMP errorIndication")
	}

	client := l.newClient(job)
	if err := client.Connect(); err != nil {
		return nil, gwerr.Wrap(gwerr.Transport,
			fmt.Errorf("connect %s:%d: %w", job.Target.Address, job.Target.Port, err),
			"SNMP errorIndication")
	}
	defer func() {
		if err := client.Close(); err != nil {
			l.logger.Debug("executor: close failed",
				"target", job.Target.Address,
				"error", err.Error(),
			)
		}
	}()

	started := time.Now()
	pkt, err := l.send(client, job)
	if err != nil {
		return nil, gwerr.Wrap(gwerr.Transport, err, "SNMP errorIndication")
	}
	if pkt == nil {
		return nil, gwerr.New(gwerr.Transport, "SNMP errorIndication: empty response")
	}
	if pkt.Error != gosnmp.NoError {
		return nil, gwerr.New(gwerr.Protocol, "SNMP errorStatus: %s (index %d)",
			pkt.Error.String(), pkt.ErrorIndex)
	}

	var results []models.RawResult
	if job.Operation == models.OpWalk {
		results = l.decoder.Decode(pkt.Variables, true)
	} else {
		results = l.decoder.Decode(pkt.Variables, false)
		if len(results) > 1 {
			results = results[:1]
		}
	}

	l.logger.Debug("executor: request completed",
		"operation", string(job.Operation),
		"target", job.Target.Address,
		"port", job.Target.Port,
		"version", job.Security.Version().String(),
		"community", security.Mask(job.Security.Community()),
		"oid", job.OID.OID,
		"varbinds", len(pkt.Variables),
		"results", len(results),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return results, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (l *Live) validate(job Job) error {
	if job.Target.Address == "" {
		return gwerr.Validationf("Missing required parameters")
	}
	switch job.Operation {
	case models.OpGet, models.OpGetNext:
	case models.OpSet:
		if _, ok := setValue(job); !ok {
			return gwerr.Validationf("SET requires 'setValue'")
		}
	case models.OpWalk:
		if !job.Security.SupportsBulk() {
			return gwerr.Validationf("walk requires SNMP v2c or v3 (GetBulk is not available in v1)")
		}
	default:
		return gwerr.Validationf("Invalid operation")
	}
	return nil
}

func (l *Live) newClient(job Job) gosnmp.Handler {
	client := l.cfg.NewClient()
	client.SetTarget(job.Target.Address)
	client.SetPort(job.Target.Port)
	client.SetRetries(l.cfg.Retries)
	client.SetTimeout(l.cfg.Timeout)
	job.Security.Apply(client)
	return client
}

func (l *Live) send(client gosnmp.Handler, job Job) (*gosnmp.SnmpPacket, error) {
	target := job.OID.OID
	switch job.Operation {
	case models.OpGet:
		return client.Get([]string{target})
	case models.OpGetNext:
		return client.GetNext([]string{target})
	case models.OpSet:
		v, _ := setValue(job)
		return client.Set([]gosnmp.SnmpPDU{{
			Name:  target,
			Type:  gosnmp.OctetString,
			Value: []byte(v),
		}})
	case models.OpWalk:
		return client.GetBulk([]string{target}, 0, uint32(ClampPageSize(job.PageSize, MaxPageSize)))
	default:
		return nil, fmt.Errorf("unsupported operation %q", job.Operation)
	}
}

// ClampPageSize forces n into [1, limit]. limit is itself capped at
// MaxPageSize.
func ClampPageSize(n, limit int) int {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	switch {
	case n < 1:
		return 1
	case n > limit:
		return limit
	default:
		return n
	}
}
