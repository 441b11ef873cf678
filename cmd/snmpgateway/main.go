// Command snmpgateway is the SNMP Gateway binary.
//
// It reads its settings from environment variables, lets command-line flags
// override them, serves the HTTP API and runs until interrupted
// (SIGINT / SIGTERM).
//
// Usage:
//
//	snmpgateway [flags]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/app"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snmpgateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Settings from the environment ────────────────────────────────────
	settings, err := config.FromEnv()
	if err != nil {
		return err
	}

	// ── Flags (override env) ─────────────────────────────────────────────
	var (
		logLevel string
		logFmt   string
	)
	fs := flag.CommandLine
	fs.StringVar(&logLevel, "log.level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&logFmt, "log.fmt", "json", "Log format: json, text")
	fs.StringVar(&settings.ListenAddr, "listen", settings.ListenAddr, "HTTP listen address (LISTEN_ADDR)")
	fs.StringVar(&settings.AppID, "app.id", settings.AppID, "Application id reported in responses (APP_ID)")
	fs.BoolVar(&settings.DummyMode, "dummy", settings.DummyMode, "Answer from the simulated sensor branch (DUMMY_MODE)")
	fs.IntVar(&settings.SNMPRetries, "snmp.retries", settings.SNMPRetries, "SNMP retries per request (SNMP_RETRIES)")
	fs.DurationVar(&settings.SNMPTimeout, "snmp.timeout", settings.SNMPTimeout, "SNMP per-attempt timeout (SNMP_TIMEOUT)")
	fs.StringVar(&settings.MIBDir, "mib.dir", settings.MIBDir, "Directory of YAML symbol files (MIB_DIR)")
	fs.StringVar(&settings.TemplateDir, "template.dir", settings.TemplateDir, "Directory of YAML row templates (TEMPLATE_DIR)")
	fs.IntVar(&settings.DefaultPageSize, "bulk.page.size", settings.DefaultPageSize, "Default walk page size (DEFAULT_BULK_PAGE_SIZE)")
	fs.BoolVar(&settings.ExposeCommunity, "expose.community", settings.ExposeCommunity, "Echo the community in response meta (EXPOSE_COMMUNITY_IN_META)")
	fs.StringVar(&settings.Persist.Sink, "persist.sink", settings.Persist.Sink, "Persistence sink: none, file, amqp, influx, redis (PERSIST_SINK)")
	fs.IntVar(&settings.Persist.Workers, "persist.workers", settings.Persist.Workers, "Persistence workers (PERSIST_WORKERS)")
	fs.StringVar(&settings.Persist.FilePath, "persist.file.path", settings.Persist.FilePath, "Record file for the file sink (PERSIST_FILE_PATH)")
	fs.Int64Var(&settings.Persist.FileMaxBytes, "persist.file.max.bytes", settings.Persist.FileMaxBytes, "Rotate the record file at this size, 0 disables (PERSIST_FILE_MAX_BYTES)")
	fs.IntVar(&settings.Persist.FileMaxBackups, "persist.file.max.backups", settings.Persist.FileMaxBackups, "Rotated record files to keep, 0 keeps all (PERSIST_FILE_MAX_BACKUPS)")
	flag.Parse()

	if err := settings.Validate(); err != nil {
		return err
	}

	// ── Logger ───────────────────────────────────────────────────────────
	logger, err := buildLogger(logLevel, logFmt)
	if err != nil {
		return err
	}

	// ── Start ────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(settings, logger)
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	logger.Info("snmpgateway: running, press Ctrl-C to stop", "addr", application.Addr())

	<-ctx.Done()
	logger.Info("snmpgateway: received shutdown signal")

	application.Stop()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (expected json|text)", format)
	}

	return slog.New(handler), nil
}
