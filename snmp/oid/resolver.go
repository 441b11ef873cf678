package oid

import (
	"strings"

	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
)

// Resolved is the canonical form of a requested OID.
type Resolved struct {
	// OID is the dotted-numeric identifier without a leading dot.
	OID string

	// Name is the symbolic form as supplied by the caller, e.g.
	// "SNMPv2-MIB::sysUpTime.0". Empty for numeric input.
	Name string
}

// Resolver converts textual OIDs using an injected SymbolTable.
type Resolver struct {
	symbols *SymbolTable
}

// NewResolver returns a Resolver backed by symbols. A nil table resolves
// numeric OIDs only.
func NewResolver(symbols *SymbolTable) *Resolver {
	return &Resolver{symbols: symbols}
}

// Resolve accepts either a dotted-numeric OID ("1.3.6.1.2.1.1.3.0", optional
// leading dot) or a symbolic one ("SNMPv2-MIB::sysUpTime.0"). Unknown symbols
// are reported as gwerr.Resolution errors, never defaulted.
func (r *Resolver) Resolve(s string) (Resolved, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Resolved{}, gwerr.New(gwerr.Resolution, "empty OID")
	}
	if hasLetter(s) {
		return r.resolveSymbolic(s)
	}
	numeric := Normalise(s)
	if !isNumericOID(numeric) {
		return Resolved{}, gwerr.New(gwerr.Resolution, "malformed numeric OID %q", s)
	}
	return Resolved{OID: numeric}, nil
}

func (r *Resolver) resolveSymbolic(s string) (Resolved, error) {
	module, rest, ok := strings.Cut(s, "::")
	if !ok || module == "" || rest == "" {
		return Resolved{}, gwerr.New(gwerr.Resolution,
			"symbolic OID %q must have the form MODULE::symbol[.index]", s)
	}

	parts := strings.Split(rest, ".")
	symbol := parts[0]
	for _, idx := range parts[1:] {
		if !isDigits(idx) {
			return Resolved{}, gwerr.New(gwerr.Resolution,
				"index component %q of %q is not numeric", idx, s)
		}
	}

	base, found := r.symbols.Lookup(module, symbol)
	if !found {
		return Resolved{}, gwerr.New(gwerr.Resolution, "unknown MIB symbol %s::%s", module, symbol)
	}

	canonical := base
	if len(parts) > 1 {
		canonical += "." + strings.Join(parts[1:], ".")
	}
	return Resolved{OID: canonical, Name: s}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Character classes
// ─────────────────────────────────────────────────────────────────────────────

func hasLetter(s string) bool {
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// isNumericOID reports whether s is one or more digit runs separated by
// single dots.
func isNumericOID(s string) bool {
	if s == "" {
		return false
	}
	for _, arc := range strings.Split(s, ".") {
		if !isDigits(arc) {
			return false
		}
	}
	return true
}
