// Package utils holds small helpers shared by the source parsers.
package utils

import (
	"bufio"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// DomainFilter restricts web sources to an allow-list of host names and glob patterns.
// An empty filter allows every host.
type DomainFilter struct {
	domains  map[string]bool
	patterns []glob.Glob
	raw      []string
}

// NewDomainFilter builds a filter from host names or URLs. Entries containing * or ? are globs.
func NewDomainFilter(entries []string) *DomainFilter {
	df := &DomainFilter{domains: make(map[string]bool)}
	for _, entry := range entries {
		df.add(entry)
	}
	return df
}

// LoadDomainFilter reads one entry per line from path, skipping blanks and # comments.
// A leading ~/ is expanded to the home directory.
func LoadDomainFilter(path string) (*DomainFilter, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open allowed domains file %s", path)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read allowed domains file %s", path)
	}

	return NewDomainFilter(entries), nil
}

func (df *DomainFilter) add(entry string) {
	host := normalizeHost(entry)
	if host == "" {
		return
	}
	if strings.ContainsAny(host, "*?") {
		if g, err := glob.Compile(host, '.'); err == nil {
			df.patterns = append(df.patterns, g)
			df.raw = append(df.raw, host)
			return
		}
	}
	df.domains[host] = true
}

func normalizeHost(entry string) string {
	s := strings.ToLower(strings.TrimSpace(entry))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	if parsed, err := url.Parse(s); err == nil && parsed.Hostname() != "" {
		return parsed.Hostname()
	}
	s = s[strings.Index(s, "://")+3:]
	if i := strings.IndexAny(s, "/:"); i >= 0 {
		s = s[:i]
	}
	return s
}

// IsEmpty reports whether the filter has no entries
func (df *DomainFilter) IsEmpty() bool {
	return df == nil || (len(df.domains) == 0 && len(df.patterns) == 0)
}

// IsAllowed reports whether the host of rawURL passes the filter. Loopback hosts always pass.
func (df *DomainFilter) IsAllowed(rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}
	host := strings.ToLower(parsed.Hostname())

	if isLoopbackHost(host) || df.IsEmpty() {
		return true, nil
	}
	if df.domains[host] {
		return true, nil
	}
	for _, g := range df.patterns {
		if g.Match(host) {
			return true, nil
		}
	}
	return false, nil
}

// Entries returns the configured hosts and patterns, sorted
func (df *DomainFilter) Entries() []string {
	if df == nil {
		return nil
	}
	out := make([]string, 0, len(df.domains)+len(df.raw))
	for d := range df.domains {
		out = append(out, d)
	}
	out = append(out, df.raw...)
	sort.Strings(out)
	return out
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsUnspecified()
	}
	return false
}
