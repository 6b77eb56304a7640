package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	sectionRouter    = "Router"
	sectionRecords   = "DNSRecords"
	sectionReconcile = "Reconcile"
	sectionLog       = "Log"
)

func loadINI(path string) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:        true,
		InsensitiveSections: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration file format: %w", err)
	}

	var cfg Config
	if sec, err := f.GetSection(sectionRouter); err == nil {
		if err := sec.StrictMapTo(&cfg.Router); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", sectionRouter, err)
		}
	}

	if sec, err := f.GetSection(sectionLog); err == nil {
		if err := sec.StrictMapTo(&cfg.Log); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", sectionLog, err)
		}
	}

	if sec, err := f.GetSection(sectionReconcile); err == nil {
		if cfg.Reconcile, err = readReconcile(sec); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", sectionReconcile, err)
		}
	}

	sec, err := f.GetSection(sectionRecords)
	if err != nil {
		return nil, fmt.Errorf("missing required section [%s]", sectionRecords)
	}
	if cfg.Records, err = readRecords(sec); err != nil {
		return nil, fmt.Errorf("section [%s]: %w", sectionRecords, err)
	}
	return &cfg, nil
}

func readReconcile(sec *ini.Section) (Reconcile, error) {
	var r Reconcile
	if sec.HasKey("dry_run") {
		dryRun, err := sec.Key("dry_run").Bool()
		if err != nil {
			return r, fmt.Errorf("dry_run: %w", err)
		}
		r.DryRun = dryRun
	}
	r.TTL = sec.Key("ttl").String()
	r.OwnerComment = sec.Key("owner_comment").String()
	if sec.HasKey("protected_records") {
		r.ProtectedRecords = splitList(sec.Key("protected_records").String())
	}
	if sec.HasKey("in_place_updates") {
		inPlace, err := sec.Key("in_place_updates").Bool()
		if err != nil {
			return r, fmt.Errorf("in_place_updates: %w", err)
		}
		r.InPlaceUpdates = &inPlace
	}
	return r, nil
}

func readRecords(sec *ini.Section) ([]DNSRecord, error) {
	var records []DNSRecord
	names := make(map[string]string)
	for _, key := range sec.Keys() {
		values := key.ValueWithShadows()
		if len(values) > 1 {
			return nil, fmt.Errorf("hostname %q is defined %d times", key.Name(), len(values))
		}
		rec, err := NewDNSRecord(key.Name(), strings.Split(key.String(), ","))
		if err != nil {
			return nil, err
		}
		canonical := CanonicalName(rec.Name)
		if prev, ok := names[canonical]; ok {
			return nil, fmt.Errorf("hostname %q duplicates %q", rec.Name, prev)
		}
		names[canonical] = rec.Name
		records = append(records, rec)
	}
	return records, nil
}
