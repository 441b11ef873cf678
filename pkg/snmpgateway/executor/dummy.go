package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
	"github.com/vpbank/snmp_gateway/snmp/oid"
)

// ─────────────────────────────────────────────────────────────────────────────
// Simulated address space
// ─────────────────────────────────────────────────────────────────────────────

// Sensor is one leaf of the simulated branch.
type Sensor struct {
	OID      string
	Name     string
	Min, Max float64
}

// Sensors is the fixed simulated address space, in OID order.
var Sensors = []Sensor{
	{OID: oid.SensorBranch + ".0", Name: "temperature", Min: 20.0, Max: 30.0},
	{OID: oid.SensorBranch + ".1", Name: "humidity", Min: 40.0, Max: 70.0},
	{OID: oid.SensorBranch + ".2", Name: "voltage", Min: 700.0, Max: 800.0},
	{OID: oid.SensorBranch + ".3", Name: "current", Min: 0.5, Max: 2.0},
}

// ErrUnknownOID is the message returned for OIDs outside the simulated branch.
const ErrUnknownOID = "Dummy Agent does not recognize this OID"

// ─────────────────────────────────────────────────────────────────────────────
// Dummy — simulation engine
// ─────────────────────────────────────────────────────────────────────────────

// Dummy answers jobs from the simulated sensor branch without any network
// activity. Values are uniformly random within each sensor's range.
type Dummy struct {
	uniform func(lo, hi float64) float64
	logger  *slog.Logger
}

// NewDummy constructs the simulation engine.
func NewDummy(logger *slog.Logger) *Dummy {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Dummy{
		uniform: func(lo, hi float64) float64 { return lo + rand.Float64()*(hi-lo) },
		logger:  logger,
	}
}

// Execute implements Executor.
func (d *Dummy) Execute(_ context.Context, job Job) ([]models.RawResult, error) {
	requested := job.OID.OID
	if !oid.InSubtree(requested, oid.SensorBranch) {
		return nil, gwerr.New(gwerr.NotFound, ErrUnknownOID)
	}

	var results []models.RawResult
	switch job.Operation {
	case models.OpWalk:
		results = make([]models.RawResult, 0, len(Sensors))
		for _, s := range Sensors {
			results = append(results, d.reading(s, s.OID))
		}

	case models.OpGet:
		s, ok := sensorAt(requested)
		if !ok {
			// Branch root or unknown leaf: a temperature reading for the
			// requested OID.
			s = Sensors[0]
		}
		results = []models.RawResult{d.reading(s, requested)}

	case models.OpGetNext:
		reported := requested
		s, ok := sensorAfter(requested)
		if ok {
			reported = s.OID
		} else {
			// End of the simulated view: the last sensor, echoing the
			// requested OID.
			s = Sensors[len(Sensors)-1]
		}
		results = []models.RawResult{d.reading(s, reported)}

	case models.OpSet:
		v, ok := setValue(job)
		if !ok {
			return nil, gwerr.Validationf("SET requires 'setValue'")
		}
		results = []models.RawResult{{
			OID:   requested,
			Name:  "dummySet",
			Value: "Value set to: " + v,
			Type:  "OctetString",
			Dummy: true,
		}}

	default:
		return nil, gwerr.Validationf("Invalid operation")
	}

	d.logger.Debug("executor: dummy request served",
		"operation", string(job.Operation),
		"oid", requested,
		"results", len(results),
	)
	return results, nil
}

func (d *Dummy) reading(s Sensor, reportedOID string) models.RawResult {
	return models.RawResult{
		OID:   reportedOID,
		Name:  s.Name,
		Value: fmt.Sprintf("%.2f", d.uniform(s.Min, s.Max)),
		Type:  "Float",
		Dummy: true,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// OID ordering
// ─────────────────────────────────────────────────────────────────────────────

func sensorAt(o string) (Sensor, bool) {
	for _, s := range Sensors {
		if s.OID == o {
			return s, true
		}
	}
	return Sensor{}, false
}

// sensorAfter returns the first sensor strictly after o in SNMP
// lexicographic order.
func sensorAfter(o string) (Sensor, bool) {
	for _, s := range Sensors {
		if CompareOIDs(s.OID, o) > 0 {
			return s, true
		}
	}
	return Sensor{}, false
}

// CompareOIDs orders two dotted-numeric OIDs arc by arc, the way agents
// order their MIB view. A prefix sorts before any of its descendants.
func CompareOIDs(a, b string) int {
	as := strings.Split(oid.Normalise(a), ".")
	bs := strings.Split(oid.Normalise(b), ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, errX := strconv.ParseUint(as[i], 10, 64)
		y, errY := strconv.ParseUint(bs[i], 10, 64)
		if errX != nil || errY != nil {
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
			continue
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}
