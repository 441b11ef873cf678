// Package security turns the version and credentials of an inbound request
// into a per-request security descriptor that can be applied to a
// gosnmp.Handler before connecting.
package security

import (
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
)

// Context is an opaque, immutable security descriptor. It is built per
// request and never cached or shared between requests.
type Context struct {
	version   gosnmp.SnmpVersion
	community string
	msgFlags  gosnmp.SnmpV3MsgFlags
	usm       *gosnmp.UsmSecurityParameters
}

// ─────────────────────────────────────────────────────────────────────────────
// Builder
// ─────────────────────────────────────────────────────────────────────────────

// Build validates the credentials for version and returns the matching
// Context. All failures are gwerr.Validation errors and happen before any
// network activity.
func Build(version models.Version, community string, v3 *models.V3Credentials) (Context, error) {
	switch version {
	case models.V1:
		return Context{version: gosnmp.Version1, community: community}, nil
	case models.V2c:
		return Context{version: gosnmp.Version2c, community: community}, nil
	case models.V3:
		return buildV3(v3)
	default:
		return Context{}, gwerr.Validationf("Unsupported SNMP version %q", string(version))
	}
}

// ValidateV3 checks the internal consistency of a set of USM credentials.
// Protocol names are checked as supplied: any name other than "NONE" or the
// empty string demands its key, even when the name is not recognised.
func ValidateV3(v3 *models.V3Credentials) error {
	if v3 == nil || strings.TrimSpace(v3.User) == "" {
		return gwerr.Validationf("SNMPv3 requires a username.")
	}
	authSet := protoSelected(v3.AuthProto)
	privSet := protoSelected(v3.PrivProto)
	if authSet && v3.AuthKey == "" {
		return gwerr.Validationf("Auth protocol set but no authKey.")
	}
	if privSet && v3.PrivKey == "" {
		return gwerr.Validationf("Priv protocol set but no privKey.")
	}
	if privSet && !authSet {
		return gwerr.Validationf("Priv protocol requires an auth protocol.")
	}
	return nil
}

func buildV3(v3 *models.V3Credentials) (Context, error) {
	if err := ValidateV3(v3); err != nil {
		return Context{}, err
	}

	auth := mapAuthProto(v3.AuthProto)
	priv := mapPrivProto(v3.PrivProto)
	// An unrecognised auth name maps to NoAuth; privacy cannot survive that.
	if priv != gosnmp.NoPriv && auth == gosnmp.NoAuth {
		return Context{}, gwerr.Validationf("Priv protocol requires an auth protocol.")
	}

	params := &gosnmp.UsmSecurityParameters{UserName: v3.User}
	if auth != gosnmp.NoAuth {
		params.AuthenticationProtocol = auth
		params.AuthenticationPassphrase = v3.AuthKey
	} else {
		params.AuthenticationProtocol = gosnmp.NoAuth
	}
	if priv != gosnmp.NoPriv {
		params.PrivacyProtocol = priv
		params.PrivacyPassphrase = v3.PrivKey
	} else {
		params.PrivacyProtocol = gosnmp.NoPriv
	}

	return Context{
		version:  gosnmp.Version3,
		msgFlags: msgFlags(params),
		usm:      params,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

// Version returns the SNMP version the context was built for.
func (c Context) Version() gosnmp.SnmpVersion { return c.version }

// Community returns the community string; empty for v3.
func (c Context) Community() string { return c.community }

// Level returns the USM security level; NoAuthNoPriv for v1/v2c.
func (c Context) Level() gosnmp.SnmpV3MsgFlags { return c.msgFlags }

// SupportsBulk reports whether GetBulk is available for this version.
func (c Context) SupportsBulk() bool { return c.version != gosnmp.Version1 }

// Apply configures h with the version and credentials of c.
func (c Context) Apply(h gosnmp.Handler) {
	h.SetVersion(c.version)
	if c.version != gosnmp.Version3 {
		h.SetCommunity(c.community)
		return
	}
	h.SetSecurityModel(gosnmp.UserSecurityModel)
	h.SetMsgFlags(c.msgFlags)
	// Each Handler gets its own copy; gosnmp mutates USM state on discovery.
	h.SetSecurityParameters(c.usm.Copy())
}

// ─────────────────────────────────────────────────────────────────────────────
// Protocol mapping
// ─────────────────────────────────────────────────────────────────────────────

func protoSelected(name string) bool {
	n := strings.TrimSpace(name)
	return n != "" && !strings.EqualFold(n, "none")
}

func msgFlags(p *gosnmp.UsmSecurityParameters) gosnmp.SnmpV3MsgFlags {
	switch {
	case p.AuthenticationProtocol != gosnmp.NoAuth && p.PrivacyProtocol != gosnmp.NoPriv:
		return gosnmp.AuthPriv
	case p.AuthenticationProtocol != gosnmp.NoAuth:
		return gosnmp.AuthNoPriv
	default:
		return gosnmp.NoAuthNoPriv
	}
}

func mapAuthProto(s string) gosnmp.SnmpV3AuthProtocol {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md5":
		return gosnmp.MD5
	case "sha":
		return gosnmp.SHA
	default:
		return gosnmp.NoAuth
	}
}

func mapPrivProto(s string) gosnmp.SnmpV3PrivProtocol {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aes", "aes128":
		return gosnmp.AES
	default:
		return gosnmp.NoPriv
	}
}
