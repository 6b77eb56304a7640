package reconcile

import (
	"errors"
	"fmt"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/syncerr"
)

// Plan is the set of router changes needed to reach the desired state.
// Create, Update and Delete are disjoint. Unchanged and Ignored are only
// used for tracing.
type Plan struct {
	Create    []provider.Record
	Update    []Update
	Delete    []provider.Record
	Unchanged []provider.Record
	Ignored   []provider.Record
}

// Update changes an existing entry's value in place. To carries From's id.
type Update struct {
	From provider.Record
	To   provider.Record
}

func (p Plan) IsEmpty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

type Results struct {
	DryRun   bool
	Created  []provider.Record
	Updated  []Update
	Deleted  []provider.Record
	Skipped  []provider.Record
	Failures []OperationResult
}

func (r Results) HasFailures() bool {
	return len(r.Failures) > 0
}

// Err joins the failed actions into one action error, or returns nil.
func (r Results) Err() error {
	if !r.HasFailures() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return syncerr.New(syncerr.KindAction, errors.Join(errs...))
}

type OperationResult struct {
	Record provider.Record
	Op     string
	Error  string
	// Err is the action error, wrapped with syncerr.KindAction.
	Err error
}

func newFailure(op string, record provider.Record, err error) OperationResult {
	return OperationResult{
		Record: record,
		Op:     op,
		Error:  err.Error(),
		Err:    syncerr.New(syncerr.KindAction, fmt.Errorf("%s %s: %w", op, record, err)),
	}
}
