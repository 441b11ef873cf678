package models

import "time"

// RawResult is a single variable binding as returned by an executor, before
// normalization. Value is a string or a native number (int64, uint64, float64).
type RawResult struct {
	OID   string      `json:"oid"`
	Name  string      `json:"name,omitempty"`
	Value interface{} `json:"value"`
	Type  string      `json:"type"`

	// Dummy marks rows fabricated by the simulation engine.
	Dummy bool `json:"dummy,omitempty"`
}

// NormalizedRow is the stable, numerically-typed output shape of one result.
// Value is a float64 when the raw value parsed as a number, otherwise the raw
// value unchanged.
type NormalizedRow struct {
	Name      string      `json:"name"`
	OID       string      `json:"oid"`
	Value     interface{} `json:"value"`
	Unit      string      `json:"unit"`
	Type      string      `json:"type"`
	Category  string      `json:"category"`
	Timestamp string      `json:"ts"`
	Address   string      `json:"ip"`
	Port      uint16      `json:"port"`
	Source    string      `json:"source"`
}

// ResponseMeta describes how a request was executed.
type ResponseMeta struct {
	Address   string    `json:"ip"`
	Operation Operation `json:"operation"`
	OID       string    `json:"oid"` // as supplied, symbolic or numeric
	Version   Version   `json:"version"`
	Port      uint16    `json:"port"`
	AppID     string    `json:"appId"`
	DummyMode bool      `json:"dummy"`

	// Community is nil unless exposure is enabled and the version is not v3.
	Community *string `json:"community"`

	// ResolvedOID is the dotted-numeric form the operation ran against.
	ResolvedOID string `json:"resolvedOid"`

	LatencyMs int64  `json:"latency_ms"`
	RequestID string `json:"requestId"`
}

// Response is the successful result of a gateway request.
type Response struct {
	Meta    ResponseMeta    `json:"meta"`
	Results []RawResult     `json:"results"`
	Rows    []NormalizedRow `json:"rows"`
}

// Record is the persistence payload: the meta fields flattened alongside the
// raw results and normalized rows.
type Record struct {
	ResponseMeta
	Results []RawResult     `json:"results"`
	Rows    []NormalizedRow `json:"rows"`

	// CreatedAt is stamped when the record is accepted for persistence.
	CreatedAt time.Time `json:"createdAt"`
}

// RecordFrom builds the persistence payload for resp.
func RecordFrom(resp Response) Record {
	return Record{
		ResponseMeta: resp.Meta,
		Results:      resp.Results,
		Rows:         resp.Rows,
	}
}

// PingResult is the outcome of a successful ping-agent probe.
type PingResult struct {
	Address   string  `json:"ip"`
	OID       string  `json:"oid"`
	LatencyMs float64 `json:"latency_ms"`
	Status    string  `json:"status"`
	RequestID string  `json:"requestId"`
}
