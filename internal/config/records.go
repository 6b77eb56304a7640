package config

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/libdns/libdns"
	"github.com/miekg/dns"
)

// DNSRecord is one desired hostname and its targets. Targets hold either a
// single libdns.CNAME or one or more libdns.Address values, never both.
type DNSRecord struct {
	Name    string
	Targets []libdns.Record
}

// IsAlias reports whether the record is a CNAME.
func (r DNSRecord) IsAlias() bool {
	if len(r.Targets) != 1 {
		return false
	}
	_, ok := r.Targets[0].(libdns.CNAME)
	return ok
}

// NewDNSRecord validates a hostname and its raw target strings. Targets that
// parse as IP literals become addresses, the rest become aliases. Duplicates
// are dropped, keeping the first occurrence.
func NewDNSRecord(name string, rawTargets []string) (DNSRecord, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if err := validateDomainName(name); err != nil {
		return DNSRecord{}, fmt.Errorf("hostname %q: %w", name, err)
	}

	rec := DNSRecord{Name: name}
	seen := make(map[string]bool)
	var addresses, aliases int
	for _, raw := range rawTargets {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		target, err := parseTarget(name, raw)
		if err != nil {
			return DNSRecord{}, fmt.Errorf("hostname %q: %w", name, err)
		}
		rr := target.RR()
		key := rr.Type + " " + strings.ToLower(rr.Data)
		if seen[key] {
			continue
		}
		seen[key] = true

		switch target.(type) {
		case libdns.Address:
			addresses++
		case libdns.CNAME:
			aliases++
		}
		rec.Targets = append(rec.Targets, target)
	}

	switch {
	case len(rec.Targets) == 0:
		return DNSRecord{}, fmt.Errorf("hostname %q: no targets", name)
	case aliases > 0 && addresses > 0:
		return DNSRecord{}, fmt.Errorf("hostname %q: mixes address and CNAME targets", name)
	case aliases > 1:
		return DNSRecord{}, fmt.Errorf("hostname %q: has %d CNAME targets, at most one is allowed", name, aliases)
	}
	return rec, nil
}

func parseTarget(name, raw string) (libdns.Record, error) {
	if ip, err := netip.ParseAddr(raw); err == nil {
		if ip.Zone() != "" {
			return nil, fmt.Errorf("address %q: zoned addresses are not supported", raw)
		}
		return libdns.Address{Name: name, IP: ip.Unmap()}, nil
	}
	if looksNumeric(raw) || strings.Contains(raw, ":") {
		return nil, fmt.Errorf("target %q is not a valid IP address", raw)
	}
	target := strings.TrimSuffix(raw, ".")
	if err := validateDomainName(target); err != nil {
		return nil, fmt.Errorf("target %q: %w", raw, err)
	}
	return libdns.CNAME{Name: name, Target: target}, nil
}

func validateDomainName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if strings.ContainsAny(name, " \t/\\") {
		return fmt.Errorf("invalid characters in domain name")
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return fmt.Errorf("invalid domain name")
	}
	return nil
}

// looksNumeric reports whether s consists only of digits and dots, i.e. an
// attempted but malformed IPv4 literal.
func looksNumeric(s string) bool {
	for _, c := range s {
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// CanonicalName returns the comparison key for a hostname or alias target:
// lower case without the trailing dot.
func CanonicalName(name string) string {
	return strings.TrimSuffix(dns.CanonicalName(strings.TrimSpace(name)), ".")
}
