package reconcile

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/config"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
)

func keys(records []provider.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.NameKey()+" "+r.ValueKey())
	}
	return out
}

func TestComputePlan(t *testing.T) {
	tests := []struct {
		name      string
		desired   func(t *testing.T) []config.DNSRecord
		observed  []provider.Record
		opts      Options
		create    []string
		update    []Update
		delete    []string
		unchanged []string
		ignored   []string
	}{
		{
			name: "two addresses against empty router",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{
					desiredRecord(t, "a.lan", "10.0.0.1"),
					desiredRecord(t, "b.lan", "10.0.0.2"),
				}
			},
			create: []string{"a.lan A 10.0.0.1", "b.lan A 10.0.0.2"},
		},
		{
			name: "already in sync",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "a.lan", "10.0.0.1")}
			},
			observed:  []provider.Record{aRecord("*1", "a.lan", "10.0.0.1")},
			unchanged: []string{"a.lan A 10.0.0.1"},
		},
		{
			name: "hostname and alias compare case insensitively",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "Web.LAN", "Host.Example.")}
			},
			observed:  []provider.Record{cnameRecord("*1", "web.lan", "host.example")},
			unchanged: []string{"web.lan CNAME host.example"},
		},
		{
			name: "ipv6 compared by value",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "v6.lan", "2001:0db8:0000::1")}
			},
			observed:  []provider.Record{aaaaRecord("*1", "v6.lan", "2001:db8::1")},
			unchanged: []string{"v6.lan AAAA 2001:db8::1"},
		},
		{
			name: "cname change is an update when patching is allowed",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "web.lan", "new.example")}
			},
			observed: []provider.Record{cnameRecord("*1", "web.lan", "old.example")},
			opts:     Options{NativeUpdate: true},
			update: []Update{{
				From: cnameRecord("*1", "web.lan", "old.example"),
				To:   cnameRecord("*1", "web.lan", "new.example"),
			}},
		},
		{
			name: "cname change is delete and create without patching",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "web.lan", "new.example")}
			},
			observed: []provider.Record{cnameRecord("*1", "web.lan", "old.example")},
			create:   []string{"web.lan CNAME new.example"},
			delete:   []string{"web.lan CNAME old.example"},
		},
		{
			name: "type change is never an update",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "web.lan", "10.0.0.5")}
			},
			observed: []provider.Record{cnameRecord("*1", "web.lan", "old.example")},
			opts:     Options{NativeUpdate: true},
			create:   []string{"web.lan A 10.0.0.5"},
			delete:   []string{"web.lan CNAME old.example"},
		},
		{
			name: "round robin partial change touches only the difference",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "rr.lan", "10.0.0.1", "10.0.0.3")}
			},
			observed: []provider.Record{
				aRecord("*1", "rr.lan", "10.0.0.1"),
				aRecord("*2", "rr.lan", "10.0.0.2"),
			},
			opts:      Options{NativeUpdate: true},
			create:    []string{"rr.lan A 10.0.0.3"},
			delete:    []string{"rr.lan A 10.0.0.2"},
			unchanged: []string{"rr.lan A 10.0.0.1"},
		},
		{
			name: "empty desired deletes every managed entry",
			desired: func(t *testing.T) []config.DNSRecord {
				return nil
			},
			observed: []provider.Record{
				aRecord("*1", "a.lan", "10.0.0.1"),
				aRecord("*2", "b.lan", "10.0.0.2"),
				cnameRecord("*3", "c.lan", "a.lan"),
			},
			delete: []string{"a.lan A 10.0.0.1", "b.lan A 10.0.0.2", "c.lan CNAME a.lan"},
		},
		{
			name: "duplicate observed entries are collapsed",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "a.lan", "10.0.0.1")}
			},
			observed: []provider.Record{
				aRecord("*1", "a.lan", "10.0.0.1"),
				aRecord("*2", "a.lan", "10.0.0.1"),
			},
			delete:    []string{"a.lan A 10.0.0.1"},
			unchanged: []string{"a.lan A 10.0.0.1"},
		},
		{
			name: "unmanaged entries are left alone",
			desired: func(t *testing.T) []config.DNSRecord {
				return nil
			},
			observed: []provider.Record{
				{ID: "*1", Name: "dyn.lan", Type: "A", Data: "10.0.0.9", Dynamic: true},
				{ID: "*2", Name: "mail.lan", Type: "MX", Data: "mx.lan"},
				{ID: "*3", Name: "", Type: "A", Data: "10.0.0.8"},
			},
			ignored: []string{"dyn.lan A 10.0.0.9", "mail.lan MX mx.lan", " A 10.0.0.8"},
		},
		{
			name: "protected hostnames are skipped",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "router.lan", "10.0.0.99")}
			},
			observed: []provider.Record{
				aRecord("*1", "router.lan", "10.0.0.1"),
				aRecord("*2", "gw.lan", "10.0.0.254"),
			},
			opts:    Options{Protected: []string{"Router.lan.", "gw.lan"}},
			ignored: []string{"router.lan A 10.0.0.1", "gw.lan A 10.0.0.254"},
		},
		{
			name: "only owned entries are changed",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "a.lan", "10.0.0.1")}
			},
			observed: []provider.Record{
				{ID: "*1", Name: "a.lan", Type: "A", Data: "10.0.0.7", Comment: "manual"},
				{ID: "*2", Name: "b.lan", Type: "A", Data: "10.0.0.2", Comment: "dns-sync"},
				{ID: "*3", Name: "c.lan", Type: "A", Data: "10.0.0.3"},
			},
			opts:    Options{OwnerComment: "dns-sync"},
			create:  []string{"a.lan A 10.0.0.1"},
			delete:  []string{"b.lan A 10.0.0.2"},
			ignored: []string{"a.lan A 10.0.0.7", "c.lan A 10.0.0.3"},
		},
		{
			name: "disabled entries still count as present",
			desired: func(t *testing.T) []config.DNSRecord {
				return []config.DNSRecord{desiredRecord(t, "a.lan", "10.0.0.1")}
			},
			observed: []provider.Record{
				{ID: "*1", Name: "a.lan", Type: "A", Data: "10.0.0.1", Disabled: true},
			},
			unchanged: []string{"a.lan A 10.0.0.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ComputePlan(tt.desired(t), tt.observed, tt.opts)

			assert.ElementsMatch(t, tt.create, keys(plan.Create), "create")
			assert.ElementsMatch(t, tt.delete, keys(plan.Delete), "delete")
			assert.ElementsMatch(t, tt.unchanged, keys(plan.Unchanged), "unchanged")
			assert.ElementsMatch(t, tt.ignored, keys(plan.Ignored), "ignored")
			if diff := cmp.Diff(tt.update, plan.Update, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputePlanCreatedRecordFields(t *testing.T) {
	desired := []config.DNSRecord{desiredRecord(t, "a.lan", "10.0.0.1")}
	opts := Options{TTL: 12 * time.Hour, OwnerComment: "dns-sync"}

	plan := ComputePlan(desired, nil, opts)

	want := []provider.Record{{
		Name:    "a.lan",
		Type:    "A",
		Data:    "10.0.0.1",
		TTL:     12 * time.Hour,
		Comment: "dns-sync",
	}}
	if diff := cmp.Diff(want, plan.Create); diff != "" {
		t.Errorf("create mismatch (-want +got):\n%s", diff)
	}
}

func TestComputePlanDisjoint(t *testing.T) {
	desired := []config.DNSRecord{
		desiredRecord(t, "a.lan", "10.0.0.1", "10.0.0.2"),
		desiredRecord(t, "b.lan", "host.example"),
		desiredRecord(t, "c.lan", "10.0.0.3"),
		desiredRecord(t, "A.lan", "10.0.0.9"),
	}
	observed := []provider.Record{
		aRecord("*1", "a.lan", "10.0.0.2"),
		aRecord("*2", "a.lan", "10.0.0.5"),
		aRecord("*3", "b.lan", "10.0.0.8"),
		cnameRecord("*4", "c.lan", "other.example"),
		aRecord("*5", "gone.lan", "10.0.0.4"),
	}

	for _, native := range []bool{true, false} {
		plan := ComputePlan(desired, observed, Options{NativeUpdate: native})

		seen := make(map[string]string)
		mark := func(kind, key string) {
			prev, ok := seen[key]
			assert.False(t, ok, "%s planned as both %s and %s", key, prev, kind)
			seen[key] = kind
		}
		for _, k := range keys(plan.Create) {
			mark("create", k)
		}
		for _, k := range keys(plan.Delete) {
			mark("delete", k)
		}
		for _, u := range plan.Update {
			mark("update", u.From.NameKey()+" "+u.From.ValueKey())
			mark("update", u.To.NameKey()+" "+u.To.ValueKey())
		}
		for _, k := range keys(plan.Unchanged) {
			mark("unchanged", k)
		}

		// duplicate desired hostname keeps the first occurrence
		assert.NotContains(t, keys(plan.Create), "a.lan A 10.0.0.9")
	}
}

func TestComputePlanOrder(t *testing.T) {
	desired := []config.DNSRecord{
		desiredRecord(t, "z.lan", "10.0.0.1"),
		desiredRecord(t, "a.lan", "10.0.0.2"),
		desiredRecord(t, "m.lan", "10.0.0.3"),
	}
	plan := ComputePlan(desired, nil, Options{})

	require.Len(t, plan.Create, 3)
	assert.Equal(t, "z.lan", plan.Create[0].Name)
	assert.Equal(t, "a.lan", plan.Create[1].Name)
	assert.Equal(t, "m.lan", plan.Create[2].Name)
}
