package domain

import (
	"fmt"
	"strings"
)

const (
	ipv4Loopback = "127.0.0.1"
	ipv6Loopback = "::1"
)

// Root domains get the common subdomains blocked alongside the bare name.
// Deeper names were given explicitly and map to exact entries only.
var rootSubdomains = []string{"www", "m", "mobile", "login", "app", "api"}

// Entry is one hosts-file row inside the managed block.
type Entry struct {
	IP   string
	Host string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s\t%s", e.IP, e.Host)
}

// Expand turns blocked domains into hosts entries, IPv4 and IPv6 per host,
// deduplicated in first-seen order.
func Expand(domains []string) []Entry {
	seen := map[string]struct{}{}
	var entries []Entry
	add := func(host string) {
		if _, ok := seen[host]; ok {
			return
		}
		seen[host] = struct{}{}
		entries = append(entries, Entry{IP: ipv4Loopback, Host: host}, Entry{IP: ipv6Loopback, Host: host})
	}
	for _, d := range domains {
		d = strings.TrimSpace(strings.ToLower(d))
		if d == "" {
			continue
		}
		add(d)
		if strings.Count(d, ".") == 1 {
			for _, sub := range rootSubdomains {
				add(sub + "." + d)
			}
		}
	}
	return entries
}

// Lines renders entries for the managed hosts block.
func Lines(entries []Entry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	return lines
}
