// Package gateway is the request orchestrator: it validates an inbound
// models.Request, resolves its OID, builds the security context, runs it on
// the dummy or live executor, normalises the results and hands the finished
// record to the persistence dispatcher.
package gateway

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/executor"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
	"github.com/vpbank/snmp_gateway/producer/rows"
	"github.com/vpbank/snmp_gateway/snmp/oid"
	"github.com/vpbank/snmp_gateway/snmp/security"
)

// Ping defaults.
const (
	DefaultPingOID       = "1.3.6.1.2.1.1.3.0"
	DefaultPingCommunity = "public"
	DefaultPort          = 161
)

// Submitter receives finished records. persist.Dispatcher implements it.
type Submitter interface {
	TrySubmit(record models.Record) bool
}

// Options wires the Gateway's collaborators.
type Options struct {
	Resolver   *oid.Resolver
	Live       executor.Executor
	Dummy      executor.Executor
	Normalizer *rows.Normalizer

	// Persist may be nil, in which case records are discarded.
	Persist Submitter

	AppID           string
	DummyMode       bool
	ExposeCommunity bool
	DefaultPageSize int
	MaxPageSize     int

	// Clock measures latency. Defaults to time.Now.
	Clock func() time.Time
}

// Gateway handles SNMP requests. It holds only read-only state and is safe
// for concurrent use.
type Gateway struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns a Gateway.
func New(opts Options, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Resolver == nil {
		opts.Resolver = oid.NewResolver(oid.NewSymbolTable(oid.Builtin()))
	}
	if opts.Normalizer == nil {
		opts.Normalizer = rows.New(rows.NewTemplateTable(rows.BuiltinTemplates()), logger)
	}
	if opts.MaxPageSize < 1 || opts.MaxPageSize > executor.MaxPageSize {
		opts.MaxPageSize = executor.MaxPageSize
	}
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = 50
	}
	return &Gateway{opts: opts, logger: logger}
}

// DummyMode reports whether requests are answered by the simulator.
func (g *Gateway) DummyMode() bool { return g.opts.DummyMode }

// AppID returns the configured application id.
func (g *Gateway) AppID() string { return g.opts.AppID }

// ─────────────────────────────────────────────────────────────────────────────
// Handle
// ─────────────────────────────────────────────────────────────────────────────

// Handle validates and executes req. Validation failures are returned before
// any network attempt; the persistence hand-off never affects the result.
func (g *Gateway) Handle(ctx context.Context, req models.Request, requestID string) (models.Response, error) {
	start := g.opts.Clock()
	if requestID == "" {
		requestID = NewRequestID("")
	}

	req, pageSize, err := g.validate(req)
	if err != nil {
		g.logger.Info("gateway: request rejected",
			"request_id", requestID,
			"operation", string(req.Operation),
			"error", err.Error(),
		)
		return models.Response{}, err
	}

	resolved, err := g.opts.Resolver.Resolve(req.OID)
	if err != nil {
		g.logFailure(requestID, req, err)
		return models.Response{}, err
	}

	sec, err := security.Build(req.Version, req.Community, req.V3)
	if err != nil {
		g.logFailure(requestID, req, err)
		return models.Response{}, err
	}

	job := executor.Job{
		Operation: req.Operation,
		Target:    executor.Target{Address: req.Address, Port: req.Port},
		Security:  sec,
		OID:       resolved,
		PageSize:  pageSize,
		SetValue:  req.SetValue,
	}

	exec := g.opts.Live
	if g.opts.DummyMode {
		exec = g.opts.Dummy
	}
	if exec == nil {
		return models.Response{}, gwerr.New(gwerr.Unknown, "no executor configured")
	}

	results, err := exec.Execute(ctx, job)
	if err != nil {
		g.logFailure(requestID, req, err)
		return models.Response{}, err
	}
	if results == nil {
		results = []models.RawResult{}
	}
	normalized := g.opts.Normalizer.Normalize(results, req.Address, req.Port)

	resp := models.Response{
		Meta:    g.meta(req, resolved, requestID, g.opts.Clock().Sub(start)),
		Results: results,
		Rows:    normalized,
	}

	if g.opts.Persist != nil {
		g.opts.Persist.TrySubmit(models.RecordFrom(resp))
	}

	g.logger.Info("gateway: request completed",
		"request_id", requestID,
		"operation", string(req.Operation),
		"target", req.Address,
		"port", req.Port,
		"oid", resolved.OID,
		"version", string(req.Version),
		"community", security.Mask(req.Community),
		"dummy", g.opts.DummyMode,
		"rows", len(normalized),
		"latency_ms", resp.Meta.LatencyMs,
	)
	return resp, nil
}

// validate applies the request checks in order. It returns req with the port
// defaulted, plus the clamped page size.
func (g *Gateway) validate(req models.Request) (models.Request, int, error) {
	req.OID = oid.Normalise(req.OID)
	if req.OID == "" {
		return req, 0, gwerr.Validationf("Missing or empty 'oid'")
	}
	if !req.Operation.Valid() {
		return req, 0, gwerr.Validationf("Invalid operation")
	}
	if req.Version == "" {
		req.Version = models.V2c
	}

	switch req.Version {
	case models.V3:
		if err := security.ValidateV3(req.V3); err != nil {
			return req, 0, err
		}
		if req.Address == "" {
			return req, 0, gwerr.Validationf("Missing required parameters")
		}
	case models.V1, models.V2c:
		if req.Community == "" || req.Address == "" {
			return req, 0, gwerr.Validationf("Missing required parameters")
		}
	default:
		return req, 0, gwerr.Validationf("Unsupported SNMP version %q", string(req.Version))
	}

	if req.Operation == models.OpSet && (req.SetValue == nil || *req.SetValue == "") {
		return req, 0, gwerr.Validationf("SET requires 'setValue'")
	}

	if req.Port == 0 {
		req.Port = DefaultPort
	}
	pageSize := g.opts.DefaultPageSize
	if req.PageSize != nil {
		pageSize = *req.PageSize
	}
	return req, executor.ClampPageSize(pageSize, g.opts.MaxPageSize), nil
}

func (g *Gateway) meta(req models.Request, resolved oid.Resolved, requestID string, elapsed time.Duration) models.ResponseMeta {
	m := models.ResponseMeta{
		Address:     req.Address,
		Operation:   req.Operation,
		OID:         req.OID,
		Version:     req.Version,
		Port:        req.Port,
		AppID:       g.opts.AppID,
		DummyMode:   g.opts.DummyMode,
		ResolvedOID: resolved.OID,
		LatencyMs:   elapsed.Milliseconds(),
		RequestID:   requestID,
	}
	if g.opts.ExposeCommunity && req.Version != models.V3 {
		c := req.Community
		m.Community = &c
	}
	return m
}

func (g *Gateway) logFailure(requestID string, req models.Request, err error) {
	g.logger.Warn("gateway: request failed",
		"request_id", requestID,
		"operation", string(req.Operation),
		"target", req.Address,
		"oid", req.OID,
		"kind", gwerr.KindOf(err).String(),
		"error", err.Error(),
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// Ping
// ─────────────────────────────────────────────────────────────────────────────

// Ping issues a single live Get against req.Address:161 and reports the
// round-trip latency. It ignores dummy mode.
func (g *Gateway) Ping(ctx context.Context, req models.PingRequest, requestID string) (models.PingResult, error) {
	if requestID == "" {
		requestID = NewRequestID("")
	}
	if req.Address == "" {
		return models.PingResult{}, gwerr.Validationf("Missing 'ip' parameter")
	}
	if req.Community == "" {
		req.Community = DefaultPingCommunity
	}
	if req.OID == "" {
		req.OID = DefaultPingOID
	}
	version := models.V2c
	if req.Version == models.V1 {
		version = models.V1
	}

	resolved, err := g.opts.Resolver.Resolve(req.OID)
	if err != nil {
		return models.PingResult{}, err
	}
	sec, err := security.Build(version, req.Community, nil)
	if err != nil {
		return models.PingResult{}, err
	}
	if g.opts.Live == nil {
		return models.PingResult{}, gwerr.New(gwerr.Unknown, "no live executor configured")
	}

	start := g.opts.Clock()
	_, err = g.opts.Live.Execute(ctx, executor.Job{
		Operation: models.OpGet,
		Target:    executor.Target{Address: req.Address, Port: DefaultPort},
		Security:  sec,
		OID:       resolved,
	})
	elapsed := g.opts.Clock().Sub(start)
	if err != nil {
		g.logger.Warn("gateway: ping failed",
			"request_id", requestID,
			"target", req.Address,
			"kind", gwerr.KindOf(err).String(),
			"error", err.Error(),
		)
		return models.PingResult{}, err
	}

	latency := math.Round(float64(elapsed.Microseconds())/10) / 100
	g.logger.Info("gateway: ping ok", "request_id", requestID, "target", req.Address, "latency_ms", latency)
	return models.PingResult{
		Address:   req.Address,
		OID:       resolved.OID,
		LatencyMs: latency,
		Status:    "ok",
		RequestID: requestID,
	}, nil
}

// NewRequestID returns inbound when set, otherwise a fresh UUIDv4.
func NewRequestID(inbound string) string {
	if inbound != "" {
		return inbound
	}
	return uuid.NewString()
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
