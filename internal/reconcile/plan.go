package reconcile

import (
	"log/slog"
	"time"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/config"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
)

type Options struct {
	// NativeUpdate allows a single changed value to be patched in place.
	NativeUpdate bool
	// TTL and OwnerComment are stamped on created entries.
	TTL          time.Duration
	OwnerComment string
	// Protected hostnames are never created, updated or deleted.
	Protected []string
	DryRun    bool
}

// OptionsFromConfig builds plan options from the reconcile section. The ttl is
// parsed by the caller since its format is provider specific.
func OptionsFromConfig(cfg *config.Config, ttl time.Duration) Options {
	return Options{
		NativeUpdate: cfg.Reconcile.UpdatesInPlace(),
		TTL:          ttl,
		OwnerComment: cfg.Reconcile.OwnerComment,
		Protected:    cfg.Reconcile.ProtectedRecords,
		DryRun:       cfg.Reconcile.DryRun,
	}
}

// ComputePlan diffs the desired records against the router's entries.
// Desired hostnames are processed in configuration order, then hostnames
// that only exist on the router in the order the router listed them.
func ComputePlan(desired []config.DNSRecord, observed []provider.Record, opts Options) Plan {
	protected := make(map[string]bool, len(opts.Protected))
	for _, name := range opts.Protected {
		protected[config.CanonicalName(name)] = true
	}

	var plan Plan
	groups := make(map[string][]provider.Record)
	var order []string
	for _, r := range observed {
		if !r.Managed() {
			plan.Ignored = append(plan.Ignored, r)
			continue
		}
		key := r.NameKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	seen := make(map[string]bool, len(desired))
	for _, d := range desired {
		key := config.CanonicalName(d.Name)
		if seen[key] {
			slog.Warn("Skipping duplicate desired hostname", "name", d.Name)
			continue
		}
		seen[key] = true

		if protected[key] {
			slog.Warn("Skipping protected record", "name", d.Name)
			plan.Ignored = append(plan.Ignored, groups[key]...)
			continue
		}
		planHost(&plan, d, groups[key], opts)
	}

	for _, key := range order {
		if seen[key] {
			continue
		}
		if protected[key] {
			slog.Info("Skipping delete protected record", "name", key)
			plan.Ignored = append(plan.Ignored, groups[key]...)
			continue
		}
		for _, r := range groups[key] {
			if !owned(r, opts) {
				plan.Ignored = append(plan.Ignored, r)
				continue
			}
			plan.Delete = append(plan.Delete, r)
		}
	}
	return plan
}

func planHost(plan *Plan, d config.DNSRecord, observed []provider.Record, opts Options) {
	want := make([]provider.Record, 0, len(d.Targets))
	wantKeys := make(map[string]bool, len(d.Targets))
	for _, t := range d.Targets {
		r := provider.FromLibdns(t)
		r.Name = d.Name
		r.TTL = opts.TTL
		r.Comment = opts.OwnerComment
		key := r.ValueKey()
		if wantKeys[key] {
			continue
		}
		wantKeys[key] = true
		want = append(want, r)
	}

	matched := make(map[string]bool, len(want))
	var extra []provider.Record
	for _, r := range observed {
		key := r.ValueKey()
		if wantKeys[key] && !matched[key] {
			matched[key] = true
			plan.Unchanged = append(plan.Unchanged, r)
			continue
		}
		if !owned(r, opts) {
			plan.Ignored = append(plan.Ignored, r)
			continue
		}
		extra = append(extra, r)
	}

	var missing []provider.Record
	for _, r := range want {
		if !matched[r.ValueKey()] {
			missing = append(missing, r)
		}
	}

	if opts.NativeUpdate && len(want) == 1 && len(observed) == 1 &&
		len(missing) == 1 && len(extra) == 1 && missing[0].Type == extra[0].Type {
		to := extra[0]
		to.Data = missing[0].Data
		plan.Update = append(plan.Update, Update{From: extra[0], To: to})
		return
	}

	plan.Delete = append(plan.Delete, extra...)
	plan.Create = append(plan.Create, missing...)
}

// owned reports whether the record may be changed. Without an owner comment
// every managed entry is owned.
func owned(r provider.Record, opts Options) bool {
	return opts.OwnerComment == "" || r.Comment == opts.OwnerComment
}
