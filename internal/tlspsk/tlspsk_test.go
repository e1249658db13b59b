package tlspsk

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfigPinsTLS12(t *testing.T) {
	creds := Credentials{Identity: "0123456789ABCDEF", Key: []byte("pskmaterial")}
	cfg, err := creds.ClientConfig("appliance.local")
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MaxVersion)
	assert.Equal(t, "appliance.local", cfg.ServerName)
	assert.True(t, cfg.InsecureSkipVerify)
}

func TestClientConfigRejectsEmptyIdentity(t *testing.T) {
	_, err := Credentials{}.ClientConfig("appliance.local")
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestClientConfigScopedPerInstance(t *testing.T) {
	a := Credentials{Identity: "aaaa", Key: []byte("keyA")}
	b := Credentials{Identity: "bbbb", Key: []byte("keyB")}

	cfgA, err := a.ClientConfig("a.local")
	require.NoError(t, err)
	cfgB, err := b.ClientConfig("b.local")
	require.NoError(t, err)

	assert.NotEqual(t, cfgA.ServerName, cfgB.ServerName)
}

func TestClientConfigDefaultsCipherSuitesWhenSpecEmpty(t *testing.T) {
	creds := Credentials{Identity: "aaaa", Key: []byte("keyA")}
	cfg, err := creds.ClientConfig("appliance.local")
	require.NoError(t, err)
	assert.Equal(t, preferredCipherSuites, cfg.CipherSuites)
}

func TestClientConfigHonoursCipherSuiteSpec(t *testing.T) {
	creds := Credentials{
		Identity:        "aaaa",
		Key:             []byte("keyA"),
		CipherSuiteSpec: "TLS_RSA_WITH_AES_128_GCM_SHA256:TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
	}
	cfg, err := creds.ClientConfig("appliance.local")
	require.NoError(t, err)
	assert.Equal(t, []uint16{tls.TLS_RSA_WITH_AES_128_GCM_SHA256, tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384}, cfg.CipherSuites)
}

func TestClientConfigFallsBackWhenSpecMatchesNothing(t *testing.T) {
	creds := Credentials{Identity: "aaaa", Key: []byte("keyA"), CipherSuiteSpec: "TLS_NOT_A_REAL_SUITE"}
	cfg, err := creds.ClientConfig("appliance.local")
	require.NoError(t, err)
	assert.Equal(t, preferredCipherSuites, cfg.CipherSuites)
}
