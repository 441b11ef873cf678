package security_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gosnmp/gosnmp"
	snmpmock "github.com/gosnmp/gosnmp/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpbank/snmp_gateway/models"
	"github.com/vpbank/snmp_gateway/pkg/snmpgateway/gwerr"
	"github.com/vpbank/snmp_gateway/snmp/security"
)

func TestBuild_communityVersions(t *testing.T) {
	tests := []struct {
		version models.Version
		want    gosnmp.SnmpVersion
		bulk    bool
	}{
		{models.V1, gosnmp.Version1, false},
		{models.V2c, gosnmp.Version2c, true},
	}
	for _, tc := range tests {
		t.Run(string(tc.version), func(t *testing.T) {
			ctx, err := security.Build(tc.version, "public", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ctx.Version())
			assert.Equal(t, "public", ctx.Community())
			assert.Equal(t, tc.bulk, ctx.SupportsBulk())
		})
	}
}

func TestBuild_v3Levels(t *testing.T) {
	tests := []struct {
		name string
		v3   models.V3Credentials
		want gosnmp.SnmpV3MsgFlags
	}{
		{
			name: "noAuthNoPriv",
			v3:   models.V3Credentials{User: "monitor"},
			want: gosnmp.NoAuthNoPriv,
		},
		{
			name: "explicit NONE",
			v3:   models.V3Credentials{User: "monitor", AuthProto: "NONE", PrivProto: "none"},
			want: gosnmp.NoAuthNoPriv,
		},
		{
			name: "authNoPriv SHA",
			v3:   models.V3Credentials{User: "monitor", AuthProto: "SHA", AuthKey: "authpass1"},
			want: gosnmp.AuthNoPriv,
		},
		{
			name: "authPriv MD5 AES128",
			v3: models.V3Credentials{
				User: "monitor", AuthProto: "MD5", AuthKey: "authpass1",
				PrivProto: "AES128", PrivKey: "privpass1",
			},
			want: gosnmp.AuthPriv,
		},
		{
			name: "AES alias",
			v3: models.V3Credentials{
				User: "monitor", AuthProto: "sha", AuthKey: "authpass1",
				PrivProto: "aes", PrivKey: "privpass1",
			},
			want: gosnmp.AuthPriv,
		},
		{
			name: "unknown auth maps to none",
			v3:   models.V3Credentials{User: "monitor", AuthProto: "SHA512", AuthKey: "authpass1"},
			want: gosnmp.NoAuthNoPriv,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v3 := tc.v3
			ctx, err := security.Build(models.V3, "", &v3)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ctx.Level())
		})
	}
}

func TestBuild_v3ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		v3      *models.V3Credentials
		message string
	}{
		{"missing credentials", nil, "SNMPv3 requires a username."},
		{"blank user", &models.V3Credentials{User: "  "}, "SNMPv3 requires a username."},
		{
			"SHA without key",
			&models.V3Credentials{User: "u", AuthProto: "SHA"},
			"Auth protocol set but no authKey.",
		},
		{
			"unknown auth name still needs key",
			&models.V3Credentials{User: "u", AuthProto: "SHA256"},
			"Auth protocol set but no authKey.",
		},
		{
			"AES without key",
			&models.V3Credentials{User: "u", AuthProto: "SHA", AuthKey: "k1234567", PrivProto: "AES128"},
			"Priv protocol set but no privKey.",
		},
		{
			"priv without auth",
			&models.V3Credentials{User: "u", PrivProto: "AES128", PrivKey: "p1234567"},
			"Priv protocol requires an auth protocol.",
		},
		{
			"priv with unrecognised auth",
			&models.V3Credentials{
				User: "u", AuthProto: "SHA256", AuthKey: "authpass1",
				PrivProto: "AES128", PrivKey: "privpass1",
			},
			"Priv protocol requires an auth protocol.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := security.Build(models.V3, "", tc.v3)
			require.Error(t, err)
			assert.True(t, gwerr.Is(err, gwerr.Validation))
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestBuild_unknownVersion(t *testing.T) {
	_, err := security.Build(models.Version("v4"), "public", nil)
	require.Error(t, err)
	assert.True(t, gwerr.Is(err, gwerr.Validation))
}

func TestApply_v2c(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := snmpmock.NewMockHandler(ctrl)

	h.EXPECT().SetVersion(gosnmp.Version2c)
	h.EXPECT().SetCommunity("private")

	ctx, err := security.Build(models.V2c, "private", nil)
	require.NoError(t, err)
	ctx.Apply(h)
}

func TestApply_v3AuthPriv(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := snmpmock.NewMockHandler(ctrl)

	var got gosnmp.SnmpV3SecurityParameters
	h.EXPECT().SetVersion(gosnmp.Version3)
	h.EXPECT().SetSecurityModel(gosnmp.UserSecurityModel)
	h.EXPECT().SetMsgFlags(gosnmp.AuthPriv)
	h.EXPECT().SetSecurityParameters(gomock.Any()).Do(func(p gosnmp.SnmpV3SecurityParameters) {
		got = p
	})

	ctx, err := security.Build(models.V3, "", &models.V3Credentials{
		User: "monitor", AuthProto: "SHA", AuthKey: "authpass1",
		PrivProto: "AES128", PrivKey: "privpass1",
	})
	require.NoError(t, err)
	ctx.Apply(h)

	usm, ok := got.(*gosnmp.UsmSecurityParameters)
	require.True(t, ok)
	assert.Equal(t, "monitor", usm.UserName)
	assert.Equal(t, gosnmp.SHA, usm.AuthenticationProtocol)
	assert.Equal(t, "authpass1", usm.AuthenticationPassphrase)
	assert.Equal(t, gosnmp.AES, usm.PrivacyProtocol)
	assert.Equal(t, "privpass1", usm.PrivacyPassphrase)
}

func TestApply_v3EachHandlerGetsOwnParameters(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx, err := security.Build(models.V3, "", &models.V3Credentials{
		User: "monitor", AuthProto: "MD5", AuthKey: "authpass1",
	})
	require.NoError(t, err)

	var got []gosnmp.SnmpV3SecurityParameters
	for i := 0; i < 2; i++ {
		h := snmpmock.NewMockHandler(ctrl)
		h.EXPECT().SetVersion(gosnmp.Version3)
		h.EXPECT().SetSecurityModel(gosnmp.UserSecurityModel)
		h.EXPECT().SetMsgFlags(gosnmp.AuthNoPriv)
		h.EXPECT().SetSecurityParameters(gomock.Any()).Do(func(p gosnmp.SnmpV3SecurityParameters) {
			got = append(got, p)
		})
		ctx.Apply(h)
	}

	require.Len(t, got, 2)
	first, ok := got[0].(*gosnmp.UsmSecurityParameters)
	require.True(t, ok)
	second, ok := got[1].(*gosnmp.UsmSecurityParameters)
	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.Equal(t, "monitor", second.UserName)
	assert.Equal(t, gosnmp.MD5, second.AuthenticationProtocol)

	first.UserName = "mutated"
	assert.Equal(t, "monitor", second.UserName)
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":       "",
		"a":      "*",
		"ab":     "**",
		"public": "p****c",
	}
	for in, want := range tests {
		assert.Equal(t, want, security.Mask(in), "Mask(%q)", in)
	}
}
