// Package models defines the core data structures shared across all layers of
// the SNMP Gateway. These types represent the canonical in-memory form of a
// gateway request and its results; every other package depends on this
// package and nothing here depends on any other internal package.
package models

import "strings"

// Operation is the SNMP operation requested by the caller.
type Operation string

const (
	OpGet     Operation = "get"
	OpGetNext Operation = "getnext"
	OpWalk    Operation = "walk"
	OpSet     Operation = "set"
)

// ParseOperation lower-cases s. The result is not guaranteed to be valid;
// use Valid to check.
func ParseOperation(s string) Operation {
	return Operation(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether op is one of the four supported operations.
func (op Operation) Valid() bool {
	switch op {
	case OpGet, OpGetNext, OpWalk, OpSet:
		return true
	default:
		return false
	}
}

// Version is the SNMP protocol version as it appears on the API: "v1",
// "v2c" or "v3".
type Version string

const (
	V1  Version = "v1"
	V2c Version = "v2c"
	V3  Version = "v3"
)

// ParseVersion lower-cases s, defaulting to v2c when s is empty.
func ParseVersion(s string) Version {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return V2c
	}
	return Version(s)
}

// Request is the normalized form of an inbound SNMP operation request.
type Request struct {
	Operation Operation
	Address   string
	Port      uint16
	OID       string

	// SetValue is required for OpSet; nil means "absent".
	SetValue *string

	Version   Version
	Community string

	// V3 holds the USM credentials; nil for v1/v2c.
	V3 *V3Credentials

	// PageSize is the GetBulk max-repetitions for walks; nil selects the
	// configured default. The orchestrator clamps it before use.
	PageSize *int
}

// V3Credentials holds a single set of SNMPv3 USM parameters as supplied by
// the caller. Protocol names are kept verbatim; the security builder maps them.
type V3Credentials struct {
	User      string `json:"user"`
	AuthProto string `json:"authProto"`
	AuthKey   string `json:"authKey"`
	PrivProto string `json:"privProto"`
	PrivKey   string `json:"privKey"`
}

// PingRequest is the input of the ping-agent latency probe.
type PingRequest struct {
	Address   string
	Community string
	Version   Version
	OID       string
}
