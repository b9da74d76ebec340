package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full pipeline configuration.
type Config struct {
	CouchDB CouchDB `toml:"couchdb"`
	DHIS2   DHIS2   `toml:"dhis2"`
	Sync    Sync    `toml:"sync"`
}

// CouchDB configures the change source connection.
type CouchDB struct {
	URL                string `toml:"url"`
	Database           string `toml:"database"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`

	// FeedTimeoutSeconds is the longpoll hold time on the changes feed.
	FeedTimeoutSeconds int `toml:"feed_timeout_seconds"`
}

// Destination names a tracker program and stage pair.
type Destination struct {
	Program string `toml:"program"`
	Stage   string `toml:"stage"`
}

// DHIS2 configures the delivery sink connection and routing targets.
type DHIS2 struct {
	URL                string `toml:"url"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`

	// Resolve maps hostnames to IPs for deployments where the instance
	// name does not resolve from the sync host.
	Resolve map[string]string `toml:"resolve"`

	// OrgUnit is the fallback organisation unit for reports whose
	// community unit carries no tracker identifier.
	OrgUnit string `toml:"org_unit"`

	DeathReview Destination `toml:"death_review"`
	MaternalVA  Destination `toml:"maternal_va"`
	PerinatalVA Destination `toml:"perinatal_va"`
}

// Sync configures pipeline pacing and storage.
type Sync struct {
	// BatchLimit caps one historical view query.
	BatchLimit int `toml:"batch_limit"`

	// PaceMillis is the delay between backfill deliveries, protecting
	// small instances from write bursts.
	PaceMillis int `toml:"pace_millis"`

	// DataDir holds the ledger database. Empty means ~/.tracksync/data.
	DataDir string `toml:"data_dir"`
}

// Pace returns the backfill pacing interval.
func (s Sync) Pace() time.Duration {
	return time.Duration(s.PaceMillis) * time.Millisecond
}

// FeedTimeout returns the changes feed longpoll hold time.
func (c CouchDB) FeedTimeout() time.Duration {
	return time.Duration(c.FeedTimeoutSeconds) * time.Second
}

// DefaultPath returns the standard config file location,
// ~/.tracksync/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tracksync", "config.toml"), nil
}

// Load reads, defaults and validates configuration. An empty path uses
// DefaultPath. Credentials may be supplied or overridden through
// TRACKSYNC_COUCHDB_PASSWORD and TRACKSYNC_DHIS2_PASSWORD so the file
// on disk can omit secrets.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		CouchDB: CouchDB{
			Database:           "medic",
			FeedTimeoutSeconds: 30,
		},
		Sync: Sync{
			BatchLimit: 100,
			PaceMillis: 100,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRACKSYNC_COUCHDB_PASSWORD"); v != "" {
		cfg.CouchDB.Password = v
	}
	if v := os.Getenv("TRACKSYNC_DHIS2_PASSWORD"); v != "" {
		cfg.DHIS2.Password = v
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch {
	case c.CouchDB.URL == "":
		return fmt.Errorf("couchdb.url is required")
	case c.CouchDB.Database == "":
		return fmt.Errorf("couchdb.database is required")
	case c.DHIS2.URL == "":
		return fmt.Errorf("dhis2.url is required")
	case c.DHIS2.OrgUnit == "":
		return fmt.Errorf("dhis2.org_unit is required")
	case c.DHIS2.DeathReview.Program == "" || c.DHIS2.DeathReview.Stage == "":
		return fmt.Errorf("dhis2.death_review program and stage are required")
	case c.DHIS2.MaternalVA.Program == "" || c.DHIS2.MaternalVA.Stage == "":
		return fmt.Errorf("dhis2.maternal_va program and stage are required")
	case c.DHIS2.PerinatalVA.Program == "" || c.DHIS2.PerinatalVA.Stage == "":
		return fmt.Errorf("dhis2.perinatal_va program and stage are required")
	case c.Sync.BatchLimit <= 0:
		return fmt.Errorf("sync.batch_limit must be positive")
	}
	return nil
}
