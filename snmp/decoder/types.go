// Package decoder converts the variable bindings returned by gosnmp into the
// RawResult triples (oid, value, type) that the gateway hands to the response
// normalizer.
package decoder

import (
	"encoding/hex"
	"fmt"
	"math"
	"net"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosnmp/gosnmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// SNMP PDU Type → String
// ─────────────────────────────────────────────────────────────────────────────

// PDUTypeString returns the SNMP type name reported in RawResult.Type.
func PDUTypeString(t gosnmp.Asn1BER) string {
	switch t {
	case gosnmp.Integer:
		return "Integer"
	case gosnmp.BitString:
		return "BitString"
	case gosnmp.OctetString:
		return "OctetString"
	case gosnmp.Null:
		return "Null"
	case gosnmp.ObjectIdentifier:
		return "ObjectIdentifier"
	case gosnmp.ObjectDescription:
		return "ObjectDescription"
	case gosnmp.IPAddress:
		return "IpAddress"
	case gosnmp.Counter32:
		return "Counter32"
	case gosnmp.Gauge32:
		return "Gauge32"
	case gosnmp.TimeTicks:
		return "TimeTicks"
	case gosnmp.Opaque:
		return "Opaque"
	case gosnmp.NsapAddress:
		return "NsapAddress"
	case gosnmp.Counter64:
		return "Counter64"
	case gosnmp.Uinteger32:
		return "Unsigned32"
	case gosnmp.OpaqueFloat:
		return "OpaqueFloat"
	case gosnmp.OpaqueDouble:
		return "OpaqueDouble"
	case gosnmp.NoSuchObject:
		return "NoSuchObject"
	case gosnmp.NoSuchInstance:
		return "NoSuchInstance"
	case gosnmp.EndOfMibView:
		return "EndOfMibView"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
	}
}

// IsSentinel reports whether t is an exception value rather than data.
// Sentinels are kept in get/getnext results so callers can see them.
func IsSentinel(t gosnmp.Asn1BER) bool {
	return t == gosnmp.NoSuchObject || t == gosnmp.NoSuchInstance || t == gosnmp.EndOfMibView
}

// sentinelText is the display value used for exception varbinds.
func sentinelText(t gosnmp.Asn1BER) string {
	switch t {
	case gosnmp.NoSuchObject:
		return "No Such Object currently exists at this OID"
	case gosnmp.NoSuchInstance:
		return "No Such Instance currently exists at this OID"
	case gosnmp.EndOfMibView:
		return "No more variables left in this MIB View"
	default:
		return ""
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Value rendering
// ─────────────────────────────────────────────────────────────────────────────

// RenderValue converts a raw gosnmp value into a JSON-friendly value: int64,
// uint64, float64 or string. Conversion never fails; anything unexpected is
// stringified so a single odd varbind cannot break a response.
func RenderValue(t gosnmp.Asn1BER, v interface{}) interface{} {
	if IsSentinel(t) {
		return sentinelText(t)
	}

	switch t {
	case gosnmp.Null:
		return ""
	case gosnmp.Integer:
		if n, err := toInt64(v); err == nil {
			return n
		}
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32, gosnmp.Counter64:
		if n, err := toUint64(v); err == nil {
			return n
		}
	case gosnmp.OpaqueFloat, gosnmp.OpaqueDouble:
		if f, err := toFloat64(v); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	case gosnmp.OctetString, gosnmp.ObjectDescription, gosnmp.Opaque, gosnmp.BitString:
		return toDisplayString(v)
	case gosnmp.ObjectIdentifier:
		return toOIDString(v)
	case gosnmp.IPAddress:
		return toIPString(v)
	}
	return fallbackString(v)
}

// ─────────────────────────────────────────────────────────────────────────────
// Low-level conversion helpers
// ─────────────────────────────────────────────────────────────────────────────

// toInt64 converts the raw gosnmp value to int64.
// gosnmp returns integers as int / int32 / int64 depending on the PDU.
func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 value %d overflows int64", x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

// toUint64 converts the raw gosnmp value to uint64.
func toUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, fmt.Errorf("negative value %d cannot be converted to uint64", x)
		}
		return uint64(x), nil
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("negative value %d cannot be converted to uint64", x)
		}
		return uint64(x), nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to uint64", v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// toDisplayString renders an octet string as text when it is printable UTF-8
// and as 0x-prefixed hex otherwise. Trailing NULs are stripped first.
func toDisplayString(v interface{}) string {
	var b []byte
	switch x := v.(type) {
	case string:
		b = []byte(x)
	case []byte:
		b = x
	default:
		return fallbackString(v)
	}
	trimmed := strings.TrimRight(string(b), "\x00")
	if isPrintable(trimmed) {
		return trimmed
	}
	return "0x" + hex.EncodeToString(b)
}

// toOIDString returns the dotted-decimal OID without a leading dot.
func toOIDString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimPrefix(x, ".")
	case []byte:
		return strings.TrimPrefix(string(x), ".")
	default:
		return fallbackString(v)
	}
}

// toIPString converts an IpAddress value (4-byte slice or string) to dotted-
// decimal notation, e.g. "192.168.1.1".
func toIPString(v interface{}) string {
	switch x := v.(type) {
	case string:
		if len(x) == 4 {
			return net.IP([]byte(x)).String()
		}
		return x
	case []byte:
		if len(x) == 4 || len(x) == 16 {
			return net.IP(x).String()
		}
		return hex.EncodeToString(x)
	default:
		return fallbackString(v)
	}
}

func fallbackString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return "0x" + hex.EncodeToString(x)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isPrintable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
