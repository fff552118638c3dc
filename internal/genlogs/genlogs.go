// Package genlogs writes synthetic security log files in the three
// formats the pipeline understands, so the whole system can be
// exercised without real log sources.
package genlogs

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Options controls how many files and lines are generated.
type Options struct {
	Directory    string
	Files        int
	LinesPerFile int
	Seed         int64
}

var (
	firewallActions = []string{"accept", "drop", "reject"}
	protocols       = []string{"TCP", "UDP", "ICMP"}
	wellKnownPorts  = []int{22, 53, 80, 443, 8080, 8443, 3389, 3306, 5432, 25, 110, 993, 995}
	firewallRules   = []string{"web_access", "dns_allow", "ssh_admin", "block_malware", "default_drop", "vpn_access", "internal_only"}
	domains         = []string{
		"google.com", "github.com", "evil-domain.com", "cdn.example.com",
		"api.internal.local", "malware-c2.bad", "office365.com", "aws.amazon.com",
		"suspicious-site.xyz", "login.microsoftonline.com", "update.service.net",
		"stackoverflow.com", "slack.com", "zoom.us", "dropbox.com",
		"phishing-login.evil", "data-exfil.bad", "legit-saas.com",
	}
	queryTypes = []string{"A", "AAAA", "MX", "CNAME", "TXT", "PTR"}
	// Weighted towards the common case.
	responseCodes = []string{"NOERROR", "NXDOMAIN", "SERVFAIL", "NOERROR", "NOERROR"}
	authStatuses  = []string{"Accepted", "Failed", "Failed", "Accepted", "Accepted"}
	authMethods   = []string{"password", "publickey", "keyboard-interactive"}
	users         = []string{"admin", "root", "jsmith", "adrutin", "deploy-bot", "backup-svc", "unknown", "cjones", "mlee"}
)

type generator struct {
	rng       *rand.Rand
	internal  []string // internal address pool
	external  []string // external address pool
	hostnames []string
}

func newGenerator(seed int64) *generator {
	rng := rand.New(rand.NewSource(seed))

	g := &generator{rng: rng}
	for i := 1; i < 255; i++ {
		g.internal = append(g.internal, fmt.Sprintf("192.168.1.%d", i))
	}
	for i := 0; i < 500; i++ {
		g.external = append(g.external, fmt.Sprintf("10.%d.%d.%d",
			rng.Intn(256), rng.Intn(256), 1+rng.Intn(254)))
	}
	for i := 1; i < 8; i++ {
		g.hostnames = append(g.hostnames, fmt.Sprintf("auth-srv%02d", i))
	}
	return g
}

func (g *generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// timestamp renders an ISO timestamp with millisecond precision,
// walking forward one second per line.
func (g *generator) timestamp(base time.Time, offsetSeconds int) string {
	ts := base.Add(time.Duration(offsetSeconds)*time.Second +
		time.Duration(g.rng.Intn(1000))*time.Millisecond)
	return ts.Format("2006-01-02T15:04:05.000Z")
}

func (g *generator) firewallLine(ts string) string {
	return fmt.Sprintf("%s|action=%s|src=%s|dst=%s|proto=%s|src_port=%d|dst_port=%d|bytes_sent=%d|rule=%s",
		ts, g.pick(firewallActions), g.pick(g.internal), g.pick(g.external),
		g.pick(protocols), 10000+g.rng.Intn(55536), wellKnownPorts[g.rng.Intn(len(wellKnownPorts))],
		64+g.rng.Intn(65472), g.pick(firewallRules))
}

func (g *generator) dnsLine(ts string) string {
	return fmt.Sprintf("%s client %s query: %s IN %s + (%s) %s",
		ts, g.pick(g.internal), g.pick(domains), g.pick(queryTypes),
		g.pick(g.external[:10]), g.pick(responseCodes))
}

func (g *generator) authLine(ts string) string {
	return fmt.Sprintf("%s %s sshd[%d]: %s %s for %s from %s port %d ssh2",
		ts, g.pick(g.hostnames), 1000+g.rng.Intn(64536), g.pick(authStatuses),
		g.pick(authMethods), g.pick(users), g.pick(g.internal), 10000+g.rng.Intn(55536))
}

// line picks a format with a firewall-heavy 50/30/20 split.
func (g *generator) line(ts string) string {
	switch roll := g.rng.Float64(); {
	case roll < 0.5:
		return g.firewallLine(ts)
	case roll < 0.8:
		return g.dnsLine(ts)
	default:
		return g.authLine(ts)
	}
}

// Generate writes the requested log files as logs_0000.log,
// logs_0001.log and so on under the target directory.
func Generate(opts Options, logger *log.Logger) error {
	if opts.Files <= 0 {
		opts.Files = 5
	}
	if opts.LinesPerFile <= 0 {
		opts.LinesPerFile = 10000
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}

	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", opts.Directory, err)
	}

	g := newGenerator(opts.Seed)
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	total := 0

	for fileIdx := 0; fileIdx < opts.Files; fileIdx++ {
		name := fmt.Sprintf("logs_%04d.log", fileIdx)
		logger.Printf("Generating %s (%d lines)...", name, opts.LinesPerFile)

		f, err := os.Create(filepath.Join(opts.Directory, name))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}

		w := bufio.NewWriter(f)
		for lineNum := 0; lineNum < opts.LinesPerFile; lineNum++ {
			offset := fileIdx*opts.LinesPerFile + lineNum
			if _, err := fmt.Fprintln(w, g.line(g.timestamp(base, offset))); err != nil {
				f.Close()
				return fmt.Errorf("failed to write to %s: %w", name, err)
			}
			total++
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("failed to flush %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", name, err)
		}
	}

	logger.Printf("Generated %d files x %d lines = %d total log lines in %s",
		opts.Files, opts.LinesPerFile, total, opts.Directory)
	return nil
}
