package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
)

// errorBody is {error: {code, message, details?}, requestId}. code is the
// HTTP status; details carries the error kind and, when present, its cause.
type errorBody struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"requestId"`
}

type errorDetail struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// writeError maps err to a status through gwerr and writes the envelope.
func writeError(w http.ResponseWriter, logger *slog.Logger, requestID string, err error) {
	status := http.StatusInternalServerError
	detail := errorDetail{
		Message: err.Error(),
		Details: map[string]string{"kind": gwerr.Unknown.String()},
	}

	var ge *gwerr.Error
	if errors.As(err, &ge) {
		status = ge.Kind.HTTPStatus()
		detail.Message = ge.Message
		detail.Details["kind"] = ge.Kind.String()
		if ge.Err != nil {
			detail.Details["cause"] = ge.Err.Error()
		}
	}
	detail.Code = status
	writeEnvelope(w, logger, status, requestID, detail)
}

// writeStatus writes an envelope for HTTP-level failures that never reach
// the gateway (415, 404, 405, decode errors).
func writeStatus(w http.ResponseWriter, logger *slog.Logger, status int, requestID, kind, message string) {
	writeEnvelope(w, logger, status, requestID, errorDetail{
		Code:    status,
		Message: message,
		Details: map[string]string{"kind": kind},
	})
}

func writeEnvelope(w http.ResponseWriter, logger *slog.Logger, status int, requestID string, detail errorDetail) {
	writeJSON(w, logger, status, errorBody{Error: detail, RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("httpapi: encode response failed", "status", status, "error", err.Error())
	}
}
