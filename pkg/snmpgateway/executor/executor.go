// Package executor runs a single resolved SNMP operation and returns its raw
// results. Two implementations exist: Live talks to a real agent through
// gosnmp, Dummy answers from the simulated sensor branch.
package executor

import (
	"context"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/snmp/oid"
	"github.com/vpbank/snmp_gateway/snmp/security"
)

// ─────────────────────────────────────────────────────────────────────────────
// Job — unit of work
// ─────────────────────────────────────────────────────────────────────────────

// Target identifies the agent endpoint.
type Target struct {
	Address string
	Port    uint16
}

// Job describes a single SNMP operation to be executed.
type Job struct {
	Operation models.Operation
	Target    Target

	// Security is applied to the per-request client before connecting.
	Security security.Context

	// OID is resolved once by the orchestrator and reused for the whole job.
	OID oid.Resolved

	// PageSize is the GetBulk max-repetitions for walks, already clamped.
	PageSize int

	// SetValue is required for OpSet.
	SetValue *string
}

// ─────────────────────────────────────────────────────────────────────────────
// Executor interface
// ─────────────────────────────────────────────────────────────────────────────

// Executor executes a Job. Failures are *gwerr.Error values so callers can
// map them to a response status.
type Executor interface {
	Execute(ctx context.Context, job Job) ([]models.RawResult, error)
}

// setValue returns the non-empty set payload of job, or false.
func setValue(job Job) (string, bool) {
	if job.SetValue == nil || *job.SetValue == "" {
		return "", false
	}
	return *job.SetValue, true
}

// ─────────────────────────────────────────────────────────────────────────────
// noopWriter — discard all log output when no logger is provided
// ─────────────────────────────────────────────────────────────────────────────

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
