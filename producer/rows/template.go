// Package rows normalizes raw SNMP results into display rows enriched with
// unit, category and precision metadata from a template table.
package rows

import (
	"github.com/vpbank/snmp_gateway/snmp/oid"
)

// DefaultCategory and DefaultDecimals apply to OIDs with no template.
const (
	DefaultCategory = "misc"
	DefaultDecimals = 2
)

// Template is the presentation metadata of one OID.
type Template struct {
	Name     string `yaml:"name"`
	Unit     string `yaml:"unit"`
	Category string `yaml:"category"`

	// Decimals is the rounding precision for numeric values. nil means
	// DefaultDecimals.
	Decimals *int `yaml:"decimals"`
}

func (t Template) decimals() int {
	if t.Decimals == nil || *t.Decimals < 0 {
		return DefaultDecimals
	}
	return *t.Decimals
}

// BuiltinTemplates returns the templates of the simulated sensor branch.
func BuiltinTemplates() map[string]Template {
	two := DefaultDecimals
	return map[string]Template{
		oid.SensorBranch + ".0": {Name: "temperature", Unit: "°C", Category: "environment", Decimals: &two},
		oid.SensorBranch + ".1": {Name: "humidity", Unit: "%RH", Category: "environment", Decimals: &two},
		oid.SensorBranch + ".2": {Name: "voltage", Unit: "V", Category: "power", Decimals: &two},
		oid.SensorBranch + ".3": {Name: "current", Unit: "A", Category: "power", Decimals: &two},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// TemplateTable — read-only after construction
// ─────────────────────────────────────────────────────────────────────────────

// TemplateTable indexes templates by canonical OID. It is immutable once
// built and safe for concurrent reads.
type TemplateTable struct {
	byOID map[string]Template
}

// NewTemplateTable merges sets in order; later sets override earlier ones.
func NewTemplateTable(sets ...map[string]Template) *TemplateTable {
	t := &TemplateTable{byOID: make(map[string]Template)}
	for _, set := range sets {
		for o, tpl := range set {
			t.byOID[oid.Normalise(o)] = tpl
		}
	}
	return t
}

// Lookup returns the template registered for the exact canonical OID.
func (t *TemplateTable) Lookup(o string) (Template, bool) {
	if t == nil {
		return Template{}, false
	}
	tpl, ok := t.byOID[oid.Normalise(o)]
	return tpl, ok
}

// Len returns the number of templates.
func (t *TemplateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byOID)
}
