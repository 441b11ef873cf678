package executor_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/executor"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
	"github.com/vpbank/snmp_gateway/snmp/oid"
)

func dummyJob(op models.Operation, o string) executor.Job {
	return executor.Job{
		Operation: op,
		Target:    executor.Target{Address: "127.0.0.1", Port: 161},
		OID:       oid.Resolved{OID: o},
		PageSize:  50,
	}
}

func TestDummy_walkReturnsAllSensorsInBounds(t *testing.T) {
	res, err := executor.NewDummy(nil).Execute(context.Background(), dummyJob(models.OpWalk, oid.SensorBranch))
	require.NoError(t, err)
	require.Len(t, res, len(executor.Sensors))

	for i, r := range res {
		s := executor.Sensors[i]
		assert.Equal(t, s.OID, r.OID)
		assert.Equal(t, s.Name, r.Name)
		assert.Equal(t, "Float", r.Type)
		assert.True(t, r.Dummy)

		str, ok := r.Value.(string)
		require.True(t, ok, "value should be a decimal string")
		v, err := strconv.ParseFloat(str, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, s.Min)
		assert.LessOrEqual(t, v, s.Max)
		assert.Regexp(t, `^\d+\.\d{2}$`, str)
	}
}

func TestDummy_get(t *testing.T) {
	d := executor.NewDummy(nil)

	res, err := d.Execute(context.Background(), dummyJob(models.OpGet, oid.SensorBranch+".2"))
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "voltage", res[0].Name)
	assert.Equal(t, oid.SensorBranch+".2", res[0].OID)

	// Branch root: temperature reading echoing the requested OID.
	res, err = d.Execute(context.Background(), dummyJob(models.OpGet, oid.SensorBranch))
	require.NoError(t, err)
	assert.Equal(t, "temperature", res[0].Name)
	assert.Equal(t, oid.SensorBranch, res[0].OID)
}

func TestDummy_getNextIsLexicographic(t *testing.T) {
	d := executor.NewDummy(nil)
	tests := []struct {
		from, want string
	}{
		{oid.SensorBranch, "temperature"},
		{oid.SensorBranch + ".0", "humidity"},
		{oid.SensorBranch + ".0.7", "humidity"},
		{oid.SensorBranch + ".2", "current"},
	}
	for _, tc := range tests {
		res, err := d.Execute(context.Background(), dummyJob(models.OpGetNext, tc.from))
		require.NoError(t, err, tc.from)
		require.Len(t, res, 1)
		assert.Equal(t, tc.want, res[0].Name, "getnext from %s", tc.from)
	}

}

func TestDummy_getNextPastLastSensor(t *testing.T) {
	d := executor.NewDummy(nil)
	for _, from := range []string{oid.SensorBranch + ".3", oid.SensorBranch + ".3.7"} {
		res, err := d.Execute(context.Background(), dummyJob(models.OpGetNext, from))
		require.NoError(t, err, from)
		require.Len(t, res, 1)
		assert.Equal(t, "current", res[0].Name)
		assert.Equal(t, from, res[0].OID)
		assert.True(t, res[0].Dummy)
	}
}

func TestDummy_set(t *testing.T) {
	d := executor.NewDummy(nil)

	v := "42"
	job := dummyJob(models.OpSet, oid.SensorBranch+".1")
	job.SetValue = &v
	res, err := d.Execute(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "dummySet", res[0].Name)
	assert.Equal(t, "Value set to: 42", res[0].Value)
	assert.Equal(t, "OctetString", res[0].Type)
	assert.True(t, res[0].Dummy)

	empty := ""
	job.SetValue = &empty
	_, err = d.Execute(context.Background(), job)
	assert.Equal(t, gwerr.Validation, gwerr.KindOf(err))

	job.SetValue = nil
	_, err = d.Execute(context.Background(), job)
	assert.Equal(t, gwerr.Validation, gwerr.KindOf(err))
}

func TestDummy_outsideBranchIsNotFound(t *testing.T) {
	d := executor.NewDummy(nil)
	v := "x"
	for _, op := range []models.Operation{models.OpGet, models.OpGetNext, models.OpWalk, models.OpSet} {
		job := dummyJob(op, "1.3.6.1.2.1.1.3.0")
		job.SetValue = &v
		_, err := d.Execute(context.Background(), job)
		require.Error(t, err, op)
		assert.Equal(t, gwerr.NotFound, gwerr.KindOf(err), op)
		assert.Equal(t, executor.ErrUnknownOID, err.Error())
	}
}

func TestCompareOIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.3.6.1", "1.3.6.1", 0},
		{"1.3.6.1.2", "1.3.6.1.10", -1},
		{"1.3.6.1.10", "1.3.6.1.2", 1},
		{"1.3.6", "1.3.6.1", -1},
		{".1.3.6.1", "1.3.6.1", 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, executor.CompareOIDs(tc.a, tc.b), "CompareOIDs(%s, %s)", tc.a, tc.b)
	}
}
