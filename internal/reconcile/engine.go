package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/config"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/metrics"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/syncerr"
)

type Engine interface {
	Reconcile(ctx context.Context, desired []config.DNSRecord) (Results, error)
}

type engine struct {
	dnsProvider provider.Provider
	executor    *Executor
	metrics     *metrics.Metrics
	opts        Options
}

func NewEngine(dp provider.Provider, opts Options, metrics *metrics.Metrics) *engine {
	opts.NativeUpdate = opts.NativeUpdate && dp.Capabilities().NativeUpdate
	return &engine{
		dnsProvider: dp,
		executor:    NewExecutor(dp, metrics, opts.DryRun),
		metrics:     metrics,
		opts:        opts,
	}
}

// Reconcile fetches the router's entries, plans and applies the changes.
// The returned error is only set when the router could not be listed;
// per-action failures are in Results.Failures.
func (e *engine) Reconcile(ctx context.Context, desired []config.DNSRecord) (Results, error) {
	observed, err := e.dnsProvider.GetRecords(ctx)
	if err != nil {
		return Results{}, syncerr.New(syncerr.KindConnection, fmt.Errorf("get records: %w", err))
	}
	slog.Info("Got records from router", "count", len(observed))

	e.metrics.SetDNSRecords("desired", len(desired))
	e.metrics.SetDNSRecords("observed", len(observed))

	plan := ComputePlan(desired, observed, e.opts)
	e.recordPlan(plan)
	tracePlan(plan)

	if plan.IsEmpty() {
		slog.Info("No changes, router already in sync")
		return Results{DryRun: e.opts.DryRun}, nil
	}
	return e.executor.Apply(ctx, plan), nil
}

func (e *engine) recordPlan(plan Plan) {
	for _, r := range plan.Create {
		e.metrics.IncDNSOperation("create", r.Type)
	}
	for _, u := range plan.Update {
		e.metrics.IncDNSOperation("update", u.To.Type)
	}
	for _, r := range plan.Delete {
		e.metrics.IncDNSOperation("delete", r.Type)
	}
	for _, r := range plan.Unchanged {
		e.metrics.IncDNSOperation("unchanged", r.Type)
	}
	for _, r := range plan.Ignored {
		e.metrics.IncDNSOperation("skip", r.Type)
	}
}

// tracePlan logs every planned action and untouched entry at debug level.
func tracePlan(plan Plan) {
	for _, r := range plan.Unchanged {
		slog.Debug("Record unchanged", "name", r.Name, "type", r.Type, "before", r.Data, "after", r.Data)
	}
	for _, r := range plan.Ignored {
		slog.Debug("Record not managed, leaving alone", "id", r.ID, "name", r.Name, "type", r.Type, "data", r.Data, "comment", r.Comment)
	}
	for _, r := range plan.Delete {
		slog.Debug("Planned delete", "id", r.ID, "name", r.Name, "type", r.Type, "before", r.Data, "after", "")
	}
	for _, u := range plan.Update {
		slog.Debug("Planned update", "id", u.From.ID, "name", u.From.Name, "type", u.From.Type, "before", u.From.Data, "after", u.To.Data)
	}
	for _, r := range plan.Create {
		slog.Debug("Planned create", "name", r.Name, "type", r.Type, "before", "", "after", r.Data)
	}
}
