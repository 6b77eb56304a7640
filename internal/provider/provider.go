package provider

import (
	"context"
	"errors"
	"time"

	"github.com/libdns/libdns"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/config"
)

var (
	// ErrAlreadyExists is returned by CreateRecord when the router already
	// holds an identical entry.
	ErrAlreadyExists = errors.New("entry already exists")
	// ErrNotFound is returned by UpdateRecord and DeleteRecord when the
	// entry id is unknown to the router.
	ErrNotFound = errors.New("entry not found")
)

type Provider interface {
	GetRecords(ctx context.Context) ([]Record, error)
	CreateRecord(ctx context.Context, record Record) (Record, error)
	UpdateRecord(ctx context.Context, record Record) error
	DeleteRecord(ctx context.Context, record Record) error
	Capabilities() Capabilities
}

// Capabilities describes optional provider behaviour.
type Capabilities struct {
	// NativeUpdate is set when an entry's value can be changed in place
	// rather than deleted and re-created.
	NativeUpdate bool
}

type Record struct {
	ID       string
	Name     string
	Type     string
	Data     string
	TTL      time.Duration
	Comment  string
	Disabled bool
	Dynamic  bool
}

// FromLibdns converts a desired target into a provider record.
func FromLibdns(rec libdns.Record) Record {
	rr := rec.RR()
	return Record{
		Name: rr.Name,
		Type: rr.Type,
		Data: rr.Data,
		TTL:  rr.TTL,
	}
}

// Managed reports whether the record is a static A, AAAA or CNAME entry.
// Everything else on the router is left alone.
func (r Record) Managed() bool {
	if r.Dynamic || r.Name == "" {
		return false
	}
	switch r.Type {
	case "A", "AAAA", "CNAME":
		return true
	}
	return false
}

// NameKey is the comparison key of the record's hostname.
func (r Record) NameKey() string {
	return config.CanonicalName(r.Name)
}

// Libdns parses the record into its typed libdns form (libdns.Address,
// libdns.CNAME, ...). Unknown types come back as a libdns.RR.
func (r Record) Libdns() (libdns.Record, error) {
	return libdns.RR{Name: r.Name, TTL: r.TTL, Type: r.Type, Data: r.Data}.Parse()
}

// ValueKey is the comparison key of the record's type and value. Addresses
// are normalised and CNAME targets compared case-insensitively.
func (r Record) ValueKey() string {
	rec, err := r.Libdns()
	if err != nil {
		return r.Type + " " + r.Data
	}
	switch rec := rec.(type) {
	case libdns.Address:
		ip := rec.IP.Unmap()
		if ip.Is4() {
			return "A " + ip.String()
		}
		return "AAAA " + ip.String()
	case libdns.CNAME:
		return "CNAME " + config.CanonicalName(rec.Target)
	}
	return r.Type + " " + r.Data
}

// String renders the record as "name TYPE data" for logs and summaries.
func (r Record) String() string {
	return r.Name + " " + r.Type + " " + r.Data
}
