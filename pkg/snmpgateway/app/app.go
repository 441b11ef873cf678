// Package app wires the SNMP Gateway components together and manages their
// lifecycle.
//
// Request path:
//
//	httpapi.Server → gateway.Gateway → (oid.Resolver, security) →
//	executor.{Dummy,Live} → rows.Normalizer → response
//
// Persistence path (fire-and-forget):
//
//	gateway.Gateway → persist.Dispatcher → persist.Sink → transport/*
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	jsonformat "github.com/vpbank/snmp_gateway/format/json"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/config"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/executor"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gateway"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/httpapi"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/persist"
	"github.com/vpbank/snmp_gateway/producer/rows"
	"github.com/vpbank/snmp_gateway/snmp/decoder"
	"github.com/vpbank/snmp_gateway/snmp/oid"
	amqptransport "github.com/vpbank/snmp_gateway/transport/amqp"
	filetransport "github.com/vpbank/snmp_gateway/transport/file"
	influxtransport "github.com/vpbank/snmp_gateway/transport/influx"
	redistransport "github.com/vpbank/snmp_gateway/transport/redis"
)

// shutdownTimeout bounds the HTTP server's graceful shutdown.
const shutdownTimeout = 10 * time.Second

// ─────────────────────────────────────────────────────────────────────────────
// App
// ─────────────────────────────────────────────────────────────────────────────

// App owns the HTTP server and the persistence dispatcher. Create one with
// New, start it with Start, and stop it with Stop.
type App struct {
	settings config.Settings
	logger   *slog.Logger

	tables     *config.Tables
	gw         *gateway.Gateway
	sink       persist.Sink
	dispatcher *persist.Dispatcher
	server     *http.Server

	listener net.Listener
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New constructs an App. It does not start anything; call Start for that.
func New(settings config.Settings, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &App{settings: settings, logger: logger}
}

// Start loads the lookup tables, builds every component, connects the
// persistence sink and starts serving HTTP. It returns an error if the
// tables cannot be loaded, the sink cannot connect or the listener cannot
// bind.
func (a *App) Start(ctx context.Context) error {
	s := a.settings

	// ── 1. Lookup tables ────────────────────────────────────────────────
	tables, err := config.LoadTables(s.MIBDir, s.TemplateDir, a.logger)
	if err != nil {
		return fmt.Errorf("app: load tables: %w", err)
	}
	a.tables = tables
	a.logger.Info("app: lookup tables loaded",
		"symbols", tables.Symbols.Len(),
		"templates", tables.Templates.Len(),
	)

	// ── 2. Persistence ──────────────────────────────────────────────────
	sink, err := buildSink(ctx, s.Persist, a.logger)
	if err != nil {
		return fmt.Errorf("app: persistence sink: %w", err)
	}
	a.sink = sink
	a.dispatcher = persist.NewDispatcher(sink, persist.Options{
		Workers:   s.Persist.Workers,
		QueueSize: s.Persist.QueueSize,
		Timeout:   s.Persist.Timeout,
	}, a.logger)
	a.dispatcher.Start(ctx)

	// ── 3. Gateway ──────────────────────────────────────────────────────
	live := executor.NewLive(executor.LiveConfig{
		Retries: s.SNMPRetries,
		Timeout: s.SNMPTimeout,
	}, decoder.New(tables.Symbols, a.logger), a.logger)

	a.gw = gateway.New(gateway.Options{
		Resolver:        oid.NewResolver(tables.Symbols),
		Live:            live,
		Dummy:           executor.NewDummy(a.logger),
		Normalizer:      rows.New(tables.Templates, a.logger),
		Persist:         a.dispatcher,
		AppID:           s.AppID,
		DummyMode:       s.DummyMode,
		ExposeCommunity: s.ExposeCommunity,
		DefaultPageSize: s.DefaultPageSize,
		MaxPageSize:     s.MaxPageSize,
	}, a.logger)

	// ── 4. HTTP ─────────────────────────────────────────────────────────
	handler := httpapi.New(httpapi.Config{
		AppID:       s.AppID,
		AppVersion:  s.AppVersion,
		BuildTime:   s.BuildTime,
		DummyMode:   s.DummyMode,
		CORSOrigins: s.CORSOrigins,
	}, a.gw, a.logger)

	ln, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		a.stopPersistence()
		return fmt.Errorf("app: listen %s: %w", s.ListenAddr, err)
	}
	a.listener = ln
	a.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// In-flight requests outlive the signal; Stop drains them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("app: http server stopped", "error", err.Error())
		}
	}()

	a.logger.Info("app: SNMP gateway running",
		"app_id", s.AppID,
		"listen", ln.Addr().String(),
		"dummy", s.DummyMode,
		"snmp_timeout", s.SNMPTimeout.String(),
		"snmp_retries", s.SNMPRetries,
		"default_page_size", s.DefaultPageSize,
		"max_page_size", s.MaxPageSize,
		"mib_dir", s.MIBDir,
		"template_dir", s.TemplateDir,
		"cors_origins", s.CORSOrigins,
		"expose_community", s.ExposeCommunity,
		"persist_sink", s.Persist.Sink,
	)
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (a *App) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop performs a graceful shutdown.
//
// Shutdown order:
//  1. Stop accepting requests and wait for in-flight handlers.
//  2. Drain the persistence queue.
//  3. Close the sink.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		a.logger.Info("app: shutting down")

		if a.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := a.server.Shutdown(ctx); err != nil {
				a.logger.Error("app: http shutdown error", "error", err.Error())
			}
			cancel()
		}
		a.wg.Wait()

		a.stopPersistence()
		a.logger.Info("app: shutdown complete")
	})
}

func (a *App) stopPersistence() {
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Error("app: sink close error", "error", err.Error())
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Sink construction
// ─────────────────────────────────────────────────────────────────────────────

// buildSink returns the Sink selected by p.Sink.
func buildSink(ctx context.Context, p config.PersistSettings, logger *slog.Logger) (persist.Sink, error) {
	formatter := jsonformat.New(jsonformat.Config{RedactCommunity: true}, logger)
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = persist.DefaultTimeout
	}

	switch p.Sink {
	case "", config.SinkNone:
		return persist.Noop{}, nil

	case config.SinkFile:
		rf, err := filetransport.NewRotatingFile(filetransport.RotateConfig{
			FilePath:   p.FilePath,
			MaxBytes:   p.FileMaxBytes,
			MaxBackups: p.FileMaxBackups,
		}, logger)
		if err != nil {
			return nil, err
		}
		t := filetransport.New(filetransport.Config{Writer: rf, CloseWriter: true}, logger)
		return persist.NewTransportSink(config.SinkFile, formatter, t), nil

	case config.SinkAMQP:
		pub, err := amqptransport.Dial(amqptransport.Config{
			URL:     p.AMQPURL,
			Queue:   p.AMQPQueue,
			Durable: true,
		}, logger)
		if err != nil {
			return nil, err
		}
		return persist.NewTransportSink(config.SinkAMQP, formatter, pub), nil

	case config.SinkRedis:
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		list, err := redistransport.New(dialCtx, redistransport.Config{
			Addr:   p.RedisAddr,
			Key:    p.RedisKey,
			MaxLen: p.RedisMaxLen,
		}, logger)
		if err != nil {
			return nil, err
		}
		return persist.NewTransportSink(config.SinkRedis, formatter, list), nil

	case config.SinkInflux:
		w, err := influxtransport.New(influxtransport.Config{
			URL:         p.InfluxURL,
			Database:    p.InfluxDatabase,
			Measurement: p.InfluxMeasurement,
			Timeout:     timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return persist.NewRecordSink(config.SinkInflux, w), nil

	default:
		return nil, fmt.Errorf("unknown sink %q", p.Sink)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// no-op logger writer
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
