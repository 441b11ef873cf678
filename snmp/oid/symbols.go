// Package oid turns the textual object identifiers accepted on the API into
// the canonical dotted-numeric form used on the wire, and maps returned OIDs
// back to human-readable symbol names.
package oid

import "strings"

// ─────────────────────────────────────────────────────────────────────────────
// Symbols — construction input
// ─────────────────────────────────────────────────────────────────────────────

// Symbols maps MIB module name → symbol name → numeric OID.
type Symbols map[string]map[string]string

// SensorBranch is the enterprise subtree served by the simulation engine.
const SensorBranch = "1.3.6.1.4.1.9999.1.2"

// Builtin returns the symbols that are always available, regardless of the
// files found in the MIB directory.
func Builtin() Symbols {
	return Symbols{
		"SNMPv2-MIB": {
			"system":      "1.3.6.1.2.1.1",
			"sysDescr":    "1.3.6.1.2.1.1.1",
			"sysObjectID": "1.3.6.1.2.1.1.2",
			"sysUpTime":   "1.3.6.1.2.1.1.3",
			"sysContact":  "1.3.6.1.2.1.1.4",
			"sysName":     "1.3.6.1.2.1.1.5",
			"sysLocation": "1.3.6.1.2.1.1.6",
		},
		"IF-MIB": {
			"ifNumber":     "1.3.6.1.2.1.2.1",
			"ifTable":      "1.3.6.1.2.1.2.2",
			"ifEntry":      "1.3.6.1.2.1.2.2.1",
			"ifIndex":      "1.3.6.1.2.1.2.2.1.1",
			"ifDescr":      "1.3.6.1.2.1.2.2.1.2",
			"ifType":       "1.3.6.1.2.1.2.2.1.3",
			"ifSpeed":      "1.3.6.1.2.1.2.2.1.5",
			"ifOperStatus": "1.3.6.1.2.1.2.2.1.8",
			"ifInOctets":   "1.3.6.1.2.1.2.2.1.10",
			"ifOutOctets":  "1.3.6.1.2.1.2.2.1.16",
		},
		"GATEWAY-SENSOR-MIB": {
			"sensors":     SensorBranch,
			"temperature": SensorBranch + ".0",
			"humidity":    SensorBranch + ".1",
			"voltage":     SensorBranch + ".2",
			"current":     SensorBranch + ".3",
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// SymbolTable — read-only lookup service
// ─────────────────────────────────────────────────────────────────────────────

// SymbolTable is an immutable module/symbol ↔ OID index. It is built once at
// startup and is safe for concurrent reads without locking.
type SymbolTable struct {
	byModule map[string]map[string]string
	byOID    map[string]string
}

// NewSymbolTable merges sets in order; a later set overrides an earlier one
// for the same module and symbol.
func NewSymbolTable(sets ...Symbols) *SymbolTable {
	t := &SymbolTable{
		byModule: make(map[string]map[string]string),
		byOID:    make(map[string]string),
	}
	for _, set := range sets {
		for module, syms := range set {
			m := t.byModule[module]
			if m == nil {
				m = make(map[string]string, len(syms))
				t.byModule[module] = m
			}
			for name, numeric := range syms {
				numeric = Normalise(numeric)
				m[name] = numeric
				t.byOID[numeric] = name
			}
		}
	}
	return t
}

// Lookup returns the numeric OID registered for module::symbol.
func (t *SymbolTable) Lookup(module, symbol string) (string, bool) {
	if t == nil {
		return "", false
	}
	numeric, ok := t.byModule[module][symbol]
	return numeric, ok
}

// Name returns the symbol registered for the longest prefix of oid. The
// returned name never includes the module or the instance suffix.
func (t *SymbolTable) Name(oid string) (string, bool) {
	if t == nil {
		return "", false
	}
	remaining := Normalise(oid)
	for remaining != "" {
		if name, ok := t.byOID[remaining]; ok {
			return name, true
		}
		dot := strings.LastIndex(remaining, ".")
		if dot < 0 {
			break
		}
		remaining = remaining[:dot]
	}
	return "", false
}

// Len returns the number of registered symbols.
func (t *SymbolTable) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, m := range t.byModule {
		n += len(m)
	}
	return n
}

// Normalise strips whitespace and a leading dot. All OIDs inside the gateway
// are stored and compared in the no-leading-dot form.
func Normalise(oid string) string {
	return strings.TrimPrefix(strings.TrimSpace(oid), ".")
}

// InSubtree reports whether oid equals root or lies below it.
func InSubtree(oid, root string) bool {
	oid, root = Normalise(oid), Normalise(root)
	return oid == root || strings.HasPrefix(oid, root+".")
}
