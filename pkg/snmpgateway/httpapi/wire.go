package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vpbank/snmp_gateway/models"
)

// snmpRequest is the POST /snmp body.
type snmpRequest struct {
	Operation string                `json:"operation"`
	IP        string                `json:"ip"`
	Port      *flexInt              `json:"port"`
	OID       string                `json:"oid"`
	SetValue  *string               `json:"setValue"`
	Version   string                `json:"version"`
	Community *string               `json:"community"`
	V3        *models.V3Credentials `json:"v3"`
	PageSize  *flexInt              `json:"pageSize"`
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if fl, ferr := strconv.ParseFloat(s, 64); ferr == nil && fl == float64(int(fl)) {
			n = int(fl)
		} else {
			return fmt.Errorf("%q is not an integer", s)
		}
	}
	*f = flexInt(n)
	return nil
}

// toModel converts the wire body, applying the API defaults (port 161,
// community "public", version v2c).
func (r snmpRequest) toModel() (models.Request, error) {
	req := models.Request{
		Operation: models.ParseOperation(r.Operation),
		Address:   strings.TrimSpace(r.IP),
		OID:       strings.TrimSpace(r.OID),
		SetValue:  r.SetValue,
		Version:   models.ParseVersion(r.Version),
		Community: "public",
		V3:        r.V3,
		Port:      161,
	}
	if r.Community != nil {
		req.Community = *r.Community
	}
	if r.Port != nil {
		p := int(*r.Port)
		if p < 1 || p > 65535 {
			return req, fmt.Errorf("port %d out of range", p)
		}
		req.Port = uint16(p)
	}
	if r.PageSize != nil {
		n := int(*r.PageSize)
		req.PageSize = &n
	}
	return req, nil
}
