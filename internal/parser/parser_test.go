package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFirewall(t *testing.T) {
	line := "2024-01-15T10:23:45.123Z|action=accept|src=192.168.1.100|dst=10.0.0.50|proto=TCP|src_port=54321|dst_port=443|bytes_sent=1524|rule=web_access"

	rec := Parse(line)
	require.NotNil(t, rec)

	assert.Equal(t, TypeFirewall, rec.LogType)
	assert.Equal(t, "2024-01-15T10:23:45.123Z", rec.Timestamp)
	assert.Equal(t, "2024-01-15T10:23:45.123Z", rec.Fields["timestamp"])
	assert.Equal(t, "accept", rec.Fields["action"])
	assert.Equal(t, "192.168.1.100", rec.Fields["src"])
	assert.Equal(t, "443", rec.Fields["dst_port"])
	assert.Equal(t, "web_access", rec.Fields["rule"])
}

func TestParseFirewallKeepsValuesAsText(t *testing.T) {
	// Leading zeros and unusual tokens survive verbatim.
	rec := Parse("2024-01-15T10:23:45.123Z|src_port=007|bytes_sent=0x1f")
	require.NotNil(t, rec)

	assert.Equal(t, "007", rec.Fields["src_port"])
	assert.Equal(t, "0x1f", rec.Fields["bytes_sent"])
}

func TestParseFirewallRejections(t *testing.T) {
	cases := map[string]string{
		"no pipe":           "2024-01-15T10:23:45.123Z action=accept",
		"no equals":         "2024-01-15T10:23:45.123Z|action|src",
		"too few segments":  "2024-01-15T10:23:45.123Z|action=accept",
		"empty":             "",
		"unstructured text": "hello world this is not a log line",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, Parse(line))
		})
	}
}

func TestParseDNS(t *testing.T) {
	line := "2024-01-15T10:23:45.123Z client 192.168.1.100 query: evil-domain.com IN A + (10.0.0.1) NOERROR"

	rec := Parse(line)
	require.NotNil(t, rec)

	assert.Equal(t, TypeDNS, rec.LogType)
	assert.Equal(t, "2024-01-15T10:23:45.123Z", rec.Timestamp)
	assert.Equal(t, "192.168.1.100", rec.Fields["client_ip"])
	assert.Equal(t, "evil-domain.com", rec.Fields["query_domain"])
	assert.Equal(t, "A", rec.Fields["query_type"])
	assert.Equal(t, "10.0.0.1", rec.Fields["server_ip"])
	assert.Equal(t, "NOERROR", rec.Fields["response_code"])
}

func TestParseDNSMissingToken(t *testing.T) {
	// No "(server_ip)" group: the DNS matcher must not claim it.
	assert.Nil(t, Parse("2024-01-15T10:23:45.123Z client 192.168.1.100 query: evil-domain.com IN A NOERROR"))
}

func TestParseAuth(t *testing.T) {
	line := "2024-01-15T10:23:45.123Z auth-srv01 sshd[12345]: Accepted password for admin from 192.168.1.100 port 54321 ssh2"

	rec := Parse(line)
	require.NotNil(t, rec)

	assert.Equal(t, TypeAuth, rec.LogType)
	assert.Equal(t, "2024-01-15T10:23:45.123Z", rec.Timestamp)
	assert.Equal(t, "auth-srv01", rec.Fields["hostname"])
	assert.Equal(t, "12345", rec.Fields["pid"])
	assert.Equal(t, "Accepted", rec.Fields["status"])
	assert.Equal(t, "password", rec.Fields["auth_method"])
	assert.Equal(t, "admin", rec.Fields["username"])
	assert.Equal(t, "192.168.1.100", rec.Fields["source_ip"])
	assert.Equal(t, "54321", rec.Fields["source_port"])
}

func TestParseAuthFailedStatus(t *testing.T) {
	rec := Parse("2024-01-15T10:23:45.123Z auth-srv02 sshd[999]: Failed publickey for root from 192.168.1.5 port 40000 ssh2")
	require.NotNil(t, rec)
	assert.Equal(t, "Failed", rec.Fields["status"])
}

func TestParseAuthUnknownStatusFallsThrough(t *testing.T) {
	// Only Accepted and Failed are recognized; with no other matcher
	// claiming the line the overall result is unparseable.
	assert.Nil(t, Parse("2024-01-15T10:23:45.123Z auth-srv01 sshd[12345]: Expired password for admin from 192.168.1.100 port 54321 ssh2"))
}

func TestParseDispatchOrder(t *testing.T) {
	// A line carrying both a pipe and a key=value pair is claimed by
	// the firewall matcher even if later tokens resemble other formats.
	rec := Parse("ts|a=1|client 10.0.0.1 query: x IN A + (1.1.1.1) NOERROR")
	require.NotNil(t, rec)
	assert.Equal(t, TypeFirewall, rec.LogType)
}
