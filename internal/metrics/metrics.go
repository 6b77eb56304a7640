package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "mikrotik_dns_sync"

type Metrics struct {
	registry        *prometheus.Registry
	syncRuns        *prometheus.CounterVec // total syncs
	syncDuration    prometheus.Histogram   // time to sync
	lastSuccess     prometheus.Gauge       // unix time of last clean run
	dnsOperations   *prometheus.CounterVec // planned dns operations
	dnsRecords      *prometheus.GaugeVec   // desired and observed records
	routerRequests  *prometheus.CounterVec // router api requests
	journalRequests *prometheus.CounterVec // badgerdb journal requests
}

func (m *Metrics) IncSyncRun(success bool) {
	status := boolToResult(success)
	m.syncRuns.WithLabelValues(status).Inc()
	if success {
		m.lastSuccess.SetToCurrentTime()
	}
}

func (m *Metrics) SetSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncDNSOperation(operation, recordType string) {
	if !isValidOperation(operation) || !isValidRecordType(recordType) {
		return
	}
	m.dnsOperations.WithLabelValues(operation, recordType).Inc()
}

func (m *Metrics) SetDNSRecords(source string, count int) {
	if source != "desired" && source != "observed" {
		return
	}
	m.dnsRecords.WithLabelValues(source).Set(float64(count))
}

func (m *Metrics) IncRouterRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.routerRequests.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) IncJournalRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.journalRequests.WithLabelValues(operation, status).Inc()
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push sends all metrics to a Pushgateway under the given job name.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "create", "read", "update", "delete", "skip", "unchanged":
		return true
	}
	return false
}

func isValidRecordType(rt string) bool {
	switch rt {
	case "A", "AAAA", "CNAME":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of synchronization runs",
		}, []string{"status"}),

		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of synchronization runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run without failed actions",
		}),

		dnsOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_operations_total",
			Help:      "Total DNS operations planned by the reconciler",
		}, []string{"operation", "type"}),

		dnsRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dns_records",
			Help:      "Number of desired and observed static DNS records",
		}, []string{"source"}),

		routerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_requests_total",
			Help:      "Total router REST API requests",
		}, []string{"operation", "status"}),

		journalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_requests_total",
			Help:      "Total run journal requests",
		}, []string{"operation", "status"}),
	}

	if register {
		registry.MustRegister(
			m.syncRuns,
			m.syncDuration,
			m.lastSuccess,
			m.dnsOperations,
			m.dnsRecords,
			m.routerRequests,
			m.journalRequests,
		)
	}
	return m
}
