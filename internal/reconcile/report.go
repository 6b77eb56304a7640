package reconcile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider"
)

// WriteSummary prints the human readable end-of-run summary.
func WriteSummary(w io.Writer, r Results) error {
	var b strings.Builder
	b.WriteString("\n-- Synchronization Summary --\n")
	if r.DryRun {
		b.WriteString("(dry run, no changes were sent to the router)\n")
	}
	fmt.Fprintf(&b, "Added %d records: %s\n", len(r.Created), joinRecords(r.Created))

	updated := make([]string, 0, len(r.Updated))
	for _, u := range r.Updated {
		updated = append(updated, fmt.Sprintf("%s %s %s -> %s", u.From.Name, u.From.Type, u.From.Data, u.To.Data))
	}
	fmt.Fprintf(&b, "Updated %d records: %s\n", len(r.Updated), strings.Join(updated, ", "))
	fmt.Fprintf(&b, "Deleted %d records: %s\n", len(r.Deleted), joinRecords(r.Deleted))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped %d records: %s\n", len(r.Skipped), joinRecords(r.Skipped))
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "Failed %d actions:\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  %s %s: %s\n", f.Op, f.Record, f.Error)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func joinRecords(records []provider.Record) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ", ")
}

type jsonRecord struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

type jsonUpdate struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Before string `json:"before"`
	After  string `json:"after"`
}

type jsonFailure struct {
	Op     string     `json:"op"`
	Record jsonRecord `json:"record"`
	Error  string     `json:"error"`
}

type jsonSummary struct {
	DryRun  bool          `json:"dryRun"`
	Added   []jsonRecord  `json:"added"`
	Updated []jsonUpdate  `json:"updated"`
	Deleted []jsonRecord  `json:"deleted"`
	Skipped []jsonRecord  `json:"skipped"`
	Failed  []jsonFailure `json:"failed"`
}

// WriteJSON prints the summary as a single JSON document.
func WriteJSON(w io.Writer, r Results) error {
	s := jsonSummary{
		DryRun:  r.DryRun,
		Added:   toJSONRecords(r.Created),
		Updated: make([]jsonUpdate, 0, len(r.Updated)),
		Deleted: toJSONRecords(r.Deleted),
		Skipped: toJSONRecords(r.Skipped),
		Failed:  make([]jsonFailure, 0, len(r.Failures)),
	}
	for _, u := range r.Updated {
		s.Updated = append(s.Updated, jsonUpdate{
			ID:     u.From.ID,
			Name:   u.From.Name,
			Type:   u.From.Type,
			Before: u.From.Data,
			After:  u.To.Data,
		})
	}
	for _, f := range r.Failures {
		s.Failed = append(s.Failed, jsonFailure{Op: f.Op, Record: toJSONRecord(f.Record), Error: f.Error})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func toJSONRecords(records []provider.Record) []jsonRecord {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toJSONRecord(r))
	}
	return out
}

func toJSONRecord(r provider.Record) jsonRecord {
	return jsonRecord{ID: r.ID, Name: r.Name, Type: r.Type, Data: r.Data}
}
