package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/config"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/metrics"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
)

// fakeRouter keeps static entries in memory and applies changes to them.
type fakeRouter struct {
	records      []provider.Record
	nextID       int
	nativeUpdate bool
	calls        []string

	getErr     error
	createErrs map[string]error // keyed by record data
	updateErrs map[string]error // keyed by id
	deleteErrs map[string]error // keyed by id
}

func newFakeRouter(records ...provider.Record) *fakeRouter {
	f := &fakeRouter{nativeUpdate: true, nextID: 100}
	for i, r := range records {
		if r.ID == "" {
			r.ID = fmt.Sprintf("*%d", i+1)
		}
		f.records = append(f.records, r)
	}
	return f
}

func (f *fakeRouter) GetRecords(ctx context.Context) ([]provider.Record, error) {
	f.calls = append(f.calls, "get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]provider.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeRouter) CreateRecord(ctx context.Context, r provider.Record) (provider.Record, error) {
	f.calls = append(f.calls, "create "+r.Name+" "+r.Data)
	if err := f.createErrs[r.Data]; err != nil {
		return provider.Record{}, err
	}
	f.nextID++
	r.ID = fmt.Sprintf("*%d", f.nextID)
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeRouter) UpdateRecord(ctx context.Context, r provider.Record) error {
	f.calls = append(f.calls, "update "+r.ID+" "+r.Data)
	if err := f.updateErrs[r.ID]; err != nil {
		return err
	}
	for i := range f.records {
		if f.records[i].ID == r.ID {
			f.records[i] = r
			return nil
		}
	}
	return provider.ErrNotFound
}

func (f *fakeRouter) DeleteRecord(ctx context.Context, r provider.Record) error {
	f.calls = append(f.calls, "delete "+r.ID)
	if err := f.deleteErrs[r.ID]; err != nil {
		return err
	}
	for i := range f.records {
		if f.records[i].ID == r.ID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return provider.ErrNotFound
}

func (f *fakeRouter) Capabilities() provider.Capabilities {
	return provider.Capabilities{NativeUpdate: f.nativeUpdate}
}

func desiredRecord(t *testing.T, name string, targets ...string) config.DNSRecord {
	t.Helper()
	rec, err := config.NewDNSRecord(name, targets)
	require.NoError(t, err)
	return rec
}

func aRecord(id, name, ip string) provider.Record {
	return provider.Record{ID: id, Name: name, Type: "A", Data: ip}
}

func aaaaRecord(id, name, ip string) provider.Record {
	return provider.Record{ID: id, Name: name, Type: "AAAA", Data: ip}
}

func cnameRecord(id, name, target string) provider.Record {
	return provider.Record{ID: id, Name: name, Type: "CNAME", Data: target}
}

func testMetrics() *metrics.Metrics {
	return metrics.New(false)
}
