package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/netspeedy/MikroTik-Static-DNS-Synchronizer/internal/syncerr"
)

const (
	DefaultPath     = "config.ini"
	defaultTimeout  = 10 * time.Second
	defaultTTL      = "1d"
	defaultLogLevel = "info"
	defaultLogEnv   = "prod"
)

type Config struct {
	Router    Router      `yaml:"router"`
	Records   []DNSRecord `yaml:"-"`
	Reconcile Reconcile   `yaml:"reconcile"`
	Log       Log         `yaml:"log"`
}

type Router struct {
	Address            string        `yaml:"address" ini:"address"`
	Username           string        `yaml:"username" ini:"username"`
	Password           string        `yaml:"password" ini:"password"`
	Timeout            time.Duration `yaml:"timeout" ini:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify" ini:"insecure_skip_verify"`
}

type Reconcile struct {
	DryRun           bool     `yaml:"dryRun"`
	TTL              string   `yaml:"ttl"`
	ProtectedRecords []string `yaml:"protectedRecords"`
	OwnerComment     string   `yaml:"ownerComment"`
	InPlaceUpdates   *bool    `yaml:"inPlaceUpdates"`
}

// UpdatesInPlace reports whether single-value changes may be patched on the
// router instead of deleted and re-created. Defaults to true.
func (r Reconcile) UpdatesInPlace() bool {
	return r.InPlaceUpdates == nil || *r.InPlaceUpdates
}

type Log struct {
	Level string `yaml:"level" ini:"level"`
	Env   string `yaml:"env" ini:"env"`
}

// Overrides carries values given on the command line or through the
// environment. Empty fields leave the file value in place.
type Overrides struct {
	Address  string
	Username string
	Password string
	Debug    bool
	DryRun   bool
}

// Load reads the configuration file at path. Files ending in .yaml or .yml
// are decoded as YAML, anything else as INI.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, syncerr.Errorf(syncerr.KindConfig, "config file %q not found", path)
		}
		return nil, syncerr.Errorf(syncerr.KindConfig, "stat config file %q: %w", path, err)
	}

	var (
		cfg *Config
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = loadYAML(path)
	default:
		cfg, err = loadINI(path)
	}
	if err != nil {
		return nil, syncerr.New(syncerr.KindConfig, fmt.Errorf("%s: %w", path, err))
	}

	cfg.setDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Router.Timeout == 0 {
		cfg.Router.Timeout = defaultTimeout
	}
	if cfg.Reconcile.TTL == "" {
		cfg.Reconcile.TTL = defaultTTL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}
}

func (cfg *Config) applyEnv() {
	if loglevel := os.Getenv("MIKROTIK_DNS_SYNC_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("MIKROTIK_DNS_SYNC_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
	if owner := os.Getenv("MIKROTIK_DNS_SYNC_OWNER"); owner != "" {
		cfg.Reconcile.OwnerComment = owner
	}
	if protected := os.Getenv("MIKROTIK_DNS_SYNC_PROTECTED_RECORDS"); protected != "" {
		cfg.Reconcile.ProtectedRecords = splitList(protected)
	}
	if dryRun := os.Getenv("MIKROTIK_DNS_SYNC_DRYRUN"); dryRun != "" {
		switch strings.ToLower(dryRun) {
		case "true", "1", "yes":
			cfg.Reconcile.DryRun = true
		case "false", "0", "no":
			cfg.Reconcile.DryRun = false
		default:
			slog.Default().Warn("fail parse dryrun to bool from string", "dryrun", dryRun)
		}
	}
}

// ApplyOverrides replaces file values with non-empty command line values.
func (cfg *Config) ApplyOverrides(o Overrides) {
	if o.Address != "" {
		cfg.Router.Address = o.Address
	}
	if o.Username != "" {
		cfg.Router.Username = o.Username
	}
	if o.Password != "" {
		cfg.Router.Password = o.Password
	}
	if o.Debug {
		cfg.Log.Level = "debug"
	}
	if o.DryRun {
		cfg.Reconcile.DryRun = true
	}
}

// Validate checks that the router can be reached with the resolved settings.
func (cfg *Config) Validate() error {
	var missing []string
	if cfg.Router.Address == "" {
		missing = append(missing, "address")
	}
	if cfg.Router.Username == "" {
		missing = append(missing, "username")
	}
	if cfg.Router.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return syncerr.Errorf(syncerr.KindConfig,
			"router %s must be provided through arguments, environment variables or the config file",
			strings.Join(missing, ", "))
	}
	if len(cfg.Records) == 0 {
		slog.Default().Warn("no dns records configured, every managed router entry will be deleted")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
