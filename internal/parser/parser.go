package parser

import (
	"regexp"
	"strings"
)

// Log types assigned by the matchers.
const (
	TypeFirewall = "firewall"
	TypeDNS      = "dns"
	TypeAuth     = "auth"
)

// ParsedRecord is the result of classifying one raw log line.
// Fields always contains at least "timestamp"; the remaining keys are
// format-specific and intentionally not validated against a schema.
type ParsedRecord struct {
	LogType   string
	Timestamp string
	Fields    map[string]string
}

// Matcher is a single format-specific parsing rule. It returns nil
// when the line does not belong to its format.
type Matcher func(line string) *ParsedRecord

// matchers are tried in a fixed priority order; the first success
// wins. The grammars are mutually exclusive by construction, but the
// order is kept stable for compatibility with the historic behavior.
var matchers = []Matcher{
	parseFirewall,
	parseDNS,
	parseAuth,
}

// Parse classifies a single log line. It returns nil when no matcher
// claims the line.
func Parse(line string) *ParsedRecord {
	for _, m := range matchers {
		if rec := m(line); rec != nil {
			return rec
		}
	}
	return nil
}

// parseFirewall handles the pipe-delimited key=value firewall format,
// e.g. "2024-01-15T10:23:45.123Z|action=accept|src=192.168.1.100|...".
// The first segment is the timestamp; every later segment is split on
// its first "=". Lines without a "|" or "=", or with fewer than three
// segments, are rejected.
func parseFirewall(line string) *ParsedRecord {
	if !strings.Contains(line, "|") || !strings.Contains(line, "=") {
		return nil
	}

	parts := strings.Split(line, "|")
	if len(parts) < 3 {
		return nil
	}

	fields := map[string]string{"timestamp": parts[0]}
	for _, part := range parts[1:] {
		if key, value, ok := strings.Cut(part, "="); ok {
			fields[key] = value
		}
	}

	return &ParsedRecord{
		LogType:   TypeFirewall,
		Timestamp: parts[0],
		Fields:    fields,
	}
}

// dnsPattern matches BIND-style query log lines:
//
//	<ts> client <client_ip> query: <domain> IN <type> + (<server_ip>) <rcode>
//
// Anchored at the start only; trailing text is tolerated.
var dnsPattern = regexp.MustCompile(
	`^(\S+)\s+client\s+(\S+)\s+query:\s+(\S+)\s+IN\s+(\S+)\s+\S+\s+\((\S+)\)\s+(\S+)`)

func parseDNS(line string) *ParsedRecord {
	m := dnsPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	return &ParsedRecord{
		LogType:   TypeDNS,
		Timestamp: m[1],
		Fields: map[string]string{
			"timestamp":     m[1],
			"client_ip":     m[2],
			"query_domain":  m[3],
			"query_type":    m[4],
			"server_ip":     m[5],
			"response_code": m[6],
		},
	}
}

// authPattern matches OpenSSH syslog lines:
//
//	<ts> <host> sshd[<pid>]: <Accepted|Failed> <method> for <user> from <ip> port <port>
//
// Only the literal statuses Accepted and Failed are recognized.
var authPattern = regexp.MustCompile(
	`^(\S+)\s+(\S+)\s+sshd\[(\d+)\]:\s+(Accepted|Failed)\s+(\S+)\s+for\s+(\S+)\s+from\s+(\S+)\s+port\s+(\d+)`)

func parseAuth(line string) *ParsedRecord {
	m := authPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	return &ParsedRecord{
		LogType:   TypeAuth,
		Timestamp: m[1],
		Fields: map[string]string{
			"timestamp":   m[1],
			"hostname":    m[2],
			"pid":         m[3],
			"status":      m[4],
			"auth_method": m[5],
			"username":    m[6],
			"source_ip":   m[7],
			"source_port": m[8],
		},
	}
}
