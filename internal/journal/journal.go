package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/metrics"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/reconcile"
)

const runPrefix = "run:"

// Journal is an append-only history of synchronization runs. It is never
// read when planning; the router is always the source of truth.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

type Entry struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Router   string        `json:"router"`
	DryRun   bool          `json:"dryRun"`
	Created  []string      `json:"created,omitempty"`
	Updated  []string      `json:"updated,omitempty"`
	Deleted  []string      `json:"deleted,omitempty"`
	Skipped  []string      `json:"skipped,omitempty"`
	Failures []string      `json:"failures,omitempty"`
}

// NewEntry summarises a run's results for the journal.
func NewEntry(start time.Time, duration time.Duration, router string, results reconcile.Results) Entry {
	e := Entry{
		Start:    start,
		Duration: duration,
		Router:   router,
		DryRun:   results.DryRun,
	}
	for _, r := range results.Created {
		e.Created = append(e.Created, r.String())
	}
	for _, u := range results.Updated {
		e.Updated = append(e.Updated, fmt.Sprintf("%s -> %s", u.From, u.To.Data))
	}
	for _, r := range results.Deleted {
		e.Deleted = append(e.Deleted, r.String())
	}
	for _, r := range results.Skipped {
		e.Skipped = append(e.Skipped, r.String())
	}
	for _, f := range results.Failures {
		e.Failures = append(e.Failures, fmt.Sprintf("%s %s: %s", f.Op, f.Record, f.Error))
	}
	return e
}

type badgerJournal struct {
	db      *badger.DB
	metrics *metrics.Metrics
}

func Open(path string, metrics *metrics.Metrics) (Journal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &badgerJournal{db: db, metrics: metrics}, nil
}

// runKey pads the timestamp so lexical key order is time order.
func runKey(t time.Time) []byte {
	return []byte(fmt.Sprintf("%s%020d", runPrefix, t.UnixNano()))
}

func (j *badgerJournal) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		j.metrics.IncJournalRequest("create", false)
		return fmt.Errorf("encode journal entry: %w", err)
	}
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(entry.Start), data)
	})
	j.metrics.IncJournalRequest("create", err == nil)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (j *badgerJournal) Recent(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	if n <= 0 {
		return entries, nil
	}

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// in reverse mode Seek lands on the largest key <= the seek key
		seek := append([]byte(runPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(runPrefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var entry Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
			if len(entries) >= n {
				break
			}
		}
		return nil
	})
	j.metrics.IncJournalRequest("read", err == nil)
	return entries, err
}

func (j *badgerJournal) Close() error {
	return j.db.Close()
}
