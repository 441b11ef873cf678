// Package httpapi exposes the gateway over HTTP:
//
//	GET  /health      liveness, dummy flag and app id
//	GET  /version     build information
//	GET  /ping-agent  SNMP round-trip probe
//	POST /snmp        get / getnext / walk / set
//
// Every response carries X-Request-Id and errors use a single JSON envelope.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gateway"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-Id"

// maxBodyBytes caps the POST /snmp body.
const maxBodyBytes = 1 << 20

// Gateway is the subset of *gateway.Gateway used by the handlers.
type Gateway interface {
	Handle(ctx context.Context, req models.Request, requestID string) (models.Response, error)
	Ping(ctx context.Context, req models.PingRequest, requestID string) (models.PingResult, error)
}

// Config describes the static data served by /health and /version and the
// CORS allow-list.
type Config struct {
	AppID       string
	AppVersion  string
	BuildTime   string
	DummyMode   bool
	CORSOrigins []string
}

// Server holds the routes. It is an http.Handler.
type Server struct {
	cfg     Config
	gw      Gateway
	logger  *slog.Logger
	handler http.Handler
}

// New registers the routes for gw.
func New(cfg Config, gw Gateway, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	s := &Server{cfg: cfg, gw: gw, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /version", s.version)
	mux.HandleFunc("GET /ping-agent", s.pingAgent)
	mux.HandleFunc("POST /snmp", s.snmp)
	mux.HandleFunc("/", s.notFound)

	s.handler = s.withRequestID(s.withCORS(s.withAccessLog(mux)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"dummy": s.cfg.DummyMode,
		"appId": s.cfg.AppID,
	})
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"version":   s.cfg.AppVersion,
		"buildTime": s.cfg.BuildTime,
	})
}

func (s *Server) pingAgent(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())
	q := r.URL.Query()
	res, err := s.gw.Ping(r.Context(), models.PingRequest{
		Address:   q.Get("ip"),
		Community: q.Get("community"),
		Version:   models.ParseVersion(q.Get("version")),
		OID:       q.Get("oid"),
	}, requestID)
	if err != nil {
		writeError(w, s.logger, requestID, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, res)
}

func (s *Server) snmp(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeStatus(w, s.logger, http.StatusUnsupportedMediaType, requestID,
			"UnsupportedMediaType", "Content-Type must be application/json")
		return
	}

	var body snmpRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeStatus(w, s.logger, http.StatusBadRequest, requestID, "BadRequest", "Bad request: "+err.Error())
		return
	}
	req, err := body.toModel()
	if err != nil {
		writeStatus(w, s.logger, http.StatusBadRequest, requestID, "BadRequest", "Bad request: "+err.Error())
		return
	}

	resp, err := s.gw.Handle(r.Context(), req, requestID)
	if err != nil {
		writeError(w, s.logger, requestID, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, resp)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, s.logger, http.StatusNotFound, requestIDFrom(r.Context()), "NotFound", "No route for "+r.Method+" "+r.URL.Path)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

type ctxKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// withRequestID adopts the inbound X-Request-Id or mints one, and echoes it
// on the response.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := gateway.NewRequestID(r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// withCORS echoes allowed origins and answers preflight requests with 204.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowsOrigin(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowsOrigin(origin string) bool {
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("httpapi: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", requestIDFrom(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
