package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/config"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/journal"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/logger"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/metrics"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/provider/mikrotik"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/reconcile"
	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/syncerr"
)

var version = "dev"

const metricsJob = "mikrotik_dns_sync"

type syncFlags struct {
	configPath      string
	address         string
	username        string
	password        string
	debug           bool
	dryRun          bool
	output          string
	journalPath     string
	metricsTextfile string
	metricsPushURL  string
}

type historyFlags struct {
	journalPath string
	limit       int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newApp(sf *syncFlags, hf *historyFlags) (*kingpin.Application, *kingpin.CmdClause, *kingpin.CmdClause) {
	app := kingpin.New("mikrotik-dns-sync", "Synchronize MikroTik static DNS entries with a configuration file.")
	app.Version(version)
	app.HelpFlag.Short('h')

	syncCmd := app.Command("sync", "Reconcile the router's static DNS entries (default).").Default()
	syncCmd.Flag("config", "Path to the configuration file (.ini, .yaml or .yml).").
		Default(config.DefaultPath).Envar("MIKROTIK_DNS_SYNC_CONFIG").StringVar(&sf.configPath)
	syncCmd.Flag("address", "Router address, e.g. 192.168.88.1 or https://router.lan.").
		Envar("MIKROTIK_ADDRESS").StringVar(&sf.address)
	syncCmd.Flag("user", "Router API username.").Envar("MIKROTIK_USER").StringVar(&sf.username)
	syncCmd.Flag("password", "Router API password.").Envar("MIKROTIK_PASS").StringVar(&sf.password)
	syncCmd.Flag("debug", "Enable debug logging.").BoolVar(&sf.debug)
	syncCmd.Flag("dry-run", "Plan and print changes without touching the router.").BoolVar(&sf.dryRun)
	syncCmd.Flag("output", "Summary format.").Default("text").EnumVar(&sf.output, "text", "json")
	syncCmd.Flag("journal", "Path of a run journal to append to.").StringVar(&sf.journalPath)
	syncCmd.Flag("metrics-textfile", "Write metrics to this file for the node exporter textfile collector.").
		StringVar(&sf.metricsTextfile)
	syncCmd.Flag("metrics-push-url", "Push metrics to this Pushgateway.").StringVar(&sf.metricsPushURL)

	historyCmd := app.Command("history", "Print recent runs from the journal.")
	historyCmd.Flag("journal", "Path of the run journal.").Required().StringVar(&hf.journalPath)
	historyCmd.Flag("limit", "Number of runs to print.").Default("10").IntVar(&hf.limit)

	return app, syncCmd, historyCmd
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		sf syncFlags
		hf historyFlags
	)
	app, syncCmd, historyCmd := newApp(&sf, &hf)
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)

	cmd, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "mikrotik-dns-sync: %v\n", err)
		return syncerr.ExitConfig
	}

	switch cmd {
	case historyCmd.FullCommand():
		logger.Configure(stderr, "info", "prod")
		return runHistory(ctx, hf, stdout)
	case syncCmd.FullCommand():
		return runSync(ctx, sf, stdout, stderr)
	}
	return syncerr.ExitConfig
}

func runSync(ctx context.Context, f syncFlags, stdout, stderr io.Writer) int {
	// log at the requested level while the config itself is being read
	bootLevel := "info"
	if f.debug {
		bootLevel = "debug"
	}
	logger.Configure(stderr, bootLevel, "prod")

	cfg, err := config.Load(f.configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return syncerr.ExitCode(err)
	}
	cfg.ApplyOverrides(config.Overrides{
		Address:  f.address,
		Username: f.username,
		Password: f.password,
		Debug:    f.debug,
		DryRun:   f.dryRun,
	})
	logger.Configure(stderr, cfg.Log.Level, cfg.Log.Env)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return syncerr.ExitCode(err)
	}

	ttl, err := mikrotik.ParseTTL(cfg.Reconcile.TTL)
	if err != nil {
		err = syncerr.New(syncerr.KindConfig, fmt.Errorf("reconcile ttl: %w", err))
		slog.Error("Invalid configuration", "error", err)
		return syncerr.ExitCode(err)
	}

	metrics := metrics.New(true)
	defer exportMetrics(ctx, metrics, f)

	client, err := mikrotik.New(cfg.Router, metrics)
	if err != nil {
		slog.Error("Failed to initialize router client", "error", err)
		return syncerr.ExitCode(err)
	}

	var runJournal journal.Journal
	if f.journalPath != "" {
		runJournal, err = journal.Open(f.journalPath, metrics)
		if err != nil {
			slog.Error("Failed to open run journal", "path", f.journalPath, "error", err)
			return syncerr.ExitCode(syncerr.New(syncerr.KindConfig, err))
		}
		defer runJournal.Close()
	}

	engine := reconcile.NewEngine(client, reconcile.OptionsFromConfig(cfg, ttl), metrics)

	slog.Info("Starting sync operation",
		"router", cfg.Router.Address,
		"records", len(cfg.Records),
		"dryRun", cfg.Reconcile.DryRun)
	start := time.Now()
	results, err := engine.Reconcile(ctx, cfg.Records)
	duration := time.Since(start)
	metrics.SetSyncDuration(duration)
	if err != nil {
		metrics.IncSyncRun(false)
		slog.Error("Sync operation failed", "error", err)
		return syncerr.ExitCode(err)
	}
	metrics.IncSyncRun(!results.HasFailures())

	slog.Info("Sync completed",
		"created", len(results.Created),
		"updated", len(results.Updated),
		"deleted", len(results.Deleted),
		"skipped", len(results.Skipped),
		"failed", len(results.Failures),
		"duration", duration)

	if f.output == "json" {
		err = reconcile.WriteJSON(stdout, results)
	} else {
		err = reconcile.WriteSummary(stdout, results)
	}
	if err != nil {
		slog.Error("Failed to write summary", "error", err)
	}

	if runJournal != nil {
		entry := journal.NewEntry(start, duration, cfg.Router.Address, results)
		if err := runJournal.Append(ctx, entry); err != nil {
			slog.Error("Failed to append to run journal", "error", err)
		}
	}

	if err := results.Err(); err != nil {
		slog.Warn("Sync finished with failed actions", "error", err)
		return syncerr.ExitCode(err)
	}
	return syncerr.ExitOK
}

// exportMetrics writes and pushes the run's metrics when asked to. Failures
// are logged and never change the exit code.
func exportMetrics(ctx context.Context, m *metrics.Metrics, f syncFlags) {
	if f.metricsTextfile != "" {
		if err := m.WriteTextfile(f.metricsTextfile); err != nil {
			slog.Error("Failed to write metrics", "path", f.metricsTextfile, "error", err)
		}
	}
	if f.metricsPushURL != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := m.Push(pushCtx, f.metricsPushURL, metricsJob); err != nil {
			slog.Error("Failed to push metrics", "url", f.metricsPushURL, "error", err)
		}
	}
}

func runHistory(ctx context.Context, f historyFlags, stdout io.Writer) int {
	j, err := journal.Open(f.journalPath, metrics.New(true))
	if err != nil {
		slog.Error("Failed to open run journal", "path", f.journalPath, "error", err)
		return syncerr.ExitConfig
	}
	defer j.Close()

	entries, err := j.Recent(ctx, f.limit)
	if err != nil {
		slog.Error("Failed to read run journal", "error", err)
		return syncerr.ExitConfig
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return syncerr.ExitOK
	}
	for _, e := range entries {
		writeHistoryEntry(stdout, e)
	}
	return syncerr.ExitOK
}

func writeHistoryEntry(w io.Writer, e journal.Entry) {
	mode := ""
	if e.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "%s %s%s took %s: %d added, %d updated, %d deleted, %d skipped, %d failed\n",
		e.Start.Local().Format(time.RFC3339), e.Router, mode, e.Duration.Round(time.Millisecond),
		len(e.Created), len(e.Updated), len(e.Deleted), len(e.Skipped), len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(w, "  failed: %s\n", f)
	}
}
