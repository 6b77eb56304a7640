package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/metrics"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
)

// Executor applies a Plan one router call at a time. A failed call is
// recorded and the remaining actions still run.
type Executor struct {
	dnsProvider provider.Provider
	metrics     *metrics.Metrics
	dryRun      bool
}

func NewExecutor(dp provider.Provider, metrics *metrics.Metrics, dryRun bool) *Executor {
	return &Executor{
		dnsProvider: dp,
		metrics:     metrics,
		dryRun:      dryRun,
	}
}

// Apply runs deletes, then updates, then creates, so a name losing a CNAME
// is free before its new address is added.
func (x *Executor) Apply(ctx context.Context, plan Plan) Results {
	results := Results{DryRun: x.dryRun}

	if x.dryRun {
		slog.Info("Dry run mode - would delete records", "count", len(plan.Delete))
		slog.Info("Dry run mode - would update records", "count", len(plan.Update))
		slog.Info("Dry run mode - would create records", "count", len(plan.Create))

		results.Deleted = append(results.Deleted, plan.Delete...)
		results.Updated = append(results.Updated, plan.Update...)
		results.Created = append(results.Created, plan.Create...)
		return results
	}

	for _, record := range plan.Delete {
		slog.Debug("Start execute delete from plan", "id", record.ID, "name", record.Name, "type", record.Type, "data", record.Data)
		err := x.dnsProvider.DeleteRecord(ctx, record)
		switch {
		case err == nil:
			results.Deleted = append(results.Deleted, record)
		case errors.Is(err, provider.ErrNotFound):
			slog.Info("DNS record not found for deletion", "id", record.ID, "name", record.Name)
			results.Skipped = append(results.Skipped, record)
		default:
			slog.Error("Failed to delete record", "id", record.ID, "name", record.Name, "error", err)
			results.Failures = append(results.Failures, newFailure("delete", record, err))
		}
	}

	for _, update := range plan.Update {
		slog.Debug("Start execute update from plan", "id", update.From.ID, "name", update.From.Name, "type", update.From.Type, "before", update.From.Data, "after", update.To.Data)
		if err := x.dnsProvider.UpdateRecord(ctx, update.To); err != nil {
			slog.Error("Failed to update record", "id", update.From.ID, "name", update.From.Name, "error", err)
			results.Failures = append(results.Failures, newFailure("update", update.To, err))
			continue
		}
		results.Updated = append(results.Updated, update)
	}

	for _, record := range plan.Create {
		slog.Debug("Start execute create from plan", "name", record.Name, "type", record.Type, "data", record.Data)
		created, err := x.dnsProvider.CreateRecord(ctx, record)
		switch {
		case err == nil:
			if created.ID != "" {
				record.ID = created.ID
			}
			results.Created = append(results.Created, record)
		case errors.Is(err, provider.ErrAlreadyExists):
			slog.Info("DNS record already exists", "name", record.Name, "data", record.Data)
			results.Skipped = append(results.Skipped, record)
		default:
			slog.Error("Failed to create record", "name", record.Name, "error", err)
			results.Failures = append(results.Failures, newFailure("create", record, err))
		}
	}

	if results.HasFailures() {
		slog.Warn("Some router actions failed", "failures", len(results.Failures))
	}
	return results
}
