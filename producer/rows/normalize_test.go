package rows_test

import (
	"testing"
	"time"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/producer/rows"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("WIB", 7*3600))

func newNormalizer(extra map[string]rows.Template) *rows.Normalizer {
	table := rows.NewTemplateTable(rows.BuiltinTemplates(), extra)
	return rows.New(table, nil).WithClock(func() time.Time { return fixedNow })
}

func TestNormalize_sensorWalk(t *testing.T) {
	n := newNormalizer(nil)
	in := []models.RawResult{
		{OID: "1.3.6.1.4.1.9999.1.2.0", Name: "temperature", Value: "24.567", Type: "Float", Dummy: true},
		{OID: "1.3.6.1.4.1.9999.1.2.1", Name: "humidity", Value: "55.50", Type: "Float", Dummy: true},
		{OID: "1.3.6.1.4.1.9999.1.2.2", Name: "voltage", Value: "745.1", Type: "Float", Dummy: true},
		{OID: "1.3.6.1.4.1.9999.1.2.3", Name: "current", Value: " 1.25 ", Type: "Float", Dummy: true},
	}

	got := n.Normalize(in, "10.0.0.5", 1161)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}

	want := []struct {
		name, unit, category string
		value                float64
	}{
		{"temperature", "°C", "environment", 24.57},
		{"humidity", "%RH", "environment", 55.5},
		{"voltage", "V", "power", 745.1},
		{"current", "A", "power", 1.25},
	}
	for i, w := range want {
		r := got[i]
		if r.Name != w.name || r.Unit != w.unit || r.Category != w.category {
			t.Errorf("row[%d] = {%s %s %s}, want {%s %s %s}", i, r.Name, r.Unit, r.Category, w.name, w.unit, w.category)
		}
		v, ok := r.Value.(float64)
		if !ok {
			t.Errorf("row[%d].Value = %T, want float64", i, r.Value)
			continue
		}
		if v != w.value {
			t.Errorf("row[%d].Value = %v, want %v", i, v, w.value)
		}
		if r.Timestamp != "2026-03-14T02:26:53Z" {
			t.Errorf("row[%d].Timestamp = %q, want UTC RFC3339", i, r.Timestamp)
		}
		if r.Source != rows.SourceBackend || r.Address != "10.0.0.5" || r.Port != 1161 {
			t.Errorf("row[%d] source/address/port = %s/%s/%d", i, r.Source, r.Address, r.Port)
		}
	}
}

func TestNormalize_passthroughAndDefaults(t *testing.T) {
	n := newNormalizer(nil)
	in := []models.RawResult{
		{OID: "1.3.6.1.2.1.1.1.0", Name: "sysDescr", Value: "Linux edge-1 5.15", Type: "OctetString"},
		{OID: "1.3.6.1.2.1.1.3.0", Name: "sysUpTime", Value: uint64(123456), Type: "TimeTicks"},
		{OID: "1.3.6.1.4.1.4242.1.0", Name: "1.3.6.1.4.1.4242.1.0", Value: "NaN", Type: "OctetString"},
		{OID: "1.3.6.1.4.1.4242.2.0", Value: "", Type: "Null"},
	}
	got := n.Normalize(in, "10.0.0.5", 161)

	if got[0].Value != "Linux edge-1 5.15" {
		t.Errorf("non-numeric value altered: %v", got[0].Value)
	}
	if got[0].Category != rows.DefaultCategory || got[0].Unit != "" {
		t.Errorf("defaults not applied: category=%q unit=%q", got[0].Category, got[0].Unit)
	}
	if got[1].Value != float64(123456) {
		t.Errorf("numeric raw value = %v (%T), want float64 123456", got[1].Value, got[1].Value)
	}
	if got[2].Value != "NaN" {
		t.Errorf("NaN must pass through unchanged, got %v", got[2].Value)
	}
	if got[2].Name != "1.3.6.1.4.1.4242.1.0" || got[3].Name != "1.3.6.1.4.1.4242.2.0" {
		t.Errorf("names should fall back to OID: %q %q", got[2].Name, got[3].Name)
	}
	if got[3].Value != "" {
		t.Errorf("empty string must pass through, got %v", got[3].Value)
	}
}

func TestNormalize_templateNameAndDecimals(t *testing.T) {
	zero := 0
	n := newNormalizer(map[string]rows.Template{
		".1.3.6.1.4.1.4242.5.0": {Name: "fanSpeed", Unit: "rpm", Category: "cooling", Decimals: &zero},
	})
	got := n.Normalize([]models.RawResult{
		{OID: "1.3.6.1.4.1.4242.5.0", Name: "1.3.6.1.4.1.4242.5.0", Value: "3120.6", Type: "Gauge32"},
	}, "h", 161)

	if got[0].Name != "fanSpeed" {
		t.Errorf("Name = %q, want template name", got[0].Name)
	}
	if got[0].Value != float64(3121) {
		t.Errorf("Value = %v, want 3121", got[0].Value)
	}
	if got[0].Category != "cooling" || got[0].Unit != "rpm" {
		t.Errorf("template metadata not applied: %+v", got[0])
	}
}

func TestNormalize_emptyInput(t *testing.T) {
	got := newNormalizer(nil).Normalize(nil, "h", 161)
	if got == nil || len(got) != 0 {
		t.Errorf("Normalize(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{24.567, 2, 24.57},
		{-1.005, 0, -1},
		{2.5, 0, 3},
		{1234.5678, 1, 1234.6},
	}
	for _, tc := range tests {
		if got := rows.Round(tc.in, tc.decimals); got != tc.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tc.in, tc.decimals, got, tc.want)
		}
	}
}
