package mikrotik

import (
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
)

// staticEntry is a /ip/dns/static row as the REST API encodes it. RouterOS
// sends every property as a string.
type staticEntry struct {
	ID       string `json:".id,omitempty"`
	Name     string `json:"name,omitempty"`
	Regexp   string `json:"regexp,omitempty"`
	Type     string `json:"type,omitempty"`
	Address  string `json:"address,omitempty"`
	CNAME    string `json:"cname,omitempty"`
	TTL      string `json:"ttl,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Disabled string `json:"disabled,omitempty"`
	Dynamic  string `json:"dynamic,omitempty"`
}

func (e staticEntry) toRecord() provider.Record {
	r := provider.Record{
		ID:       e.ID,
		Name:     e.Name,
		Type:     e.Type,
		Comment:  e.Comment,
		Disabled: e.Disabled == "true",
		Dynamic:  e.Dynamic == "true",
	}

	switch e.Type {
	case "", "A", "AAAA":
		r.Data = e.Address
		if r.Type == "" {
			r.Type = "A"
			if ip, err := netip.ParseAddr(e.Address); err == nil && ip.Unmap().Is6() {
				r.Type = "AAAA"
			}
		}
	case "CNAME":
		r.Data = e.CNAME
	}

	if e.TTL != "" {
		ttl, err := ParseTTL(e.TTL)
		if err != nil {
			slog.Warn("Ignoring unparsable ttl", "id", e.ID, "ttl", e.TTL, "error", err)
		}
		r.TTL = ttl
	}
	return r
}

// newEntry builds the PUT body for a new entry.
func newEntry(r provider.Record) (staticEntry, error) {
	e := staticEntry{
		Name:    r.Name,
		Comment: r.Comment,
	}
	if r.TTL > 0 {
		e.TTL = FormatTTL(r.TTL)
	}
	switch r.Type {
	case "A":
		e.Address = r.Data
	case "AAAA":
		e.Type = "AAAA"
		e.Address = r.Data
	case "CNAME":
		e.Type = "CNAME"
		e.CNAME = r.Data
	default:
		return staticEntry{}, fmt.Errorf("unsupported record type %q for %s", r.Type, r.Name)
	}
	return e, nil
}

// patchEntry builds the PATCH body that changes an entry's value.
func patchEntry(r provider.Record) (staticEntry, error) {
	switch r.Type {
	case "A", "AAAA":
		return staticEntry{Address: r.Data}, nil
	case "CNAME":
		return staticEntry{CNAME: r.Data}, nil
	}
	return staticEntry{}, fmt.Errorf("unsupported record type %q for %s", r.Type, r.Name)
}
