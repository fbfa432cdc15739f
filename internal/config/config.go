// Package config loads gateway configuration from the environment once at
// startup into an immutable Config value, per spec.md §6's recognized
// environment keys. No config file is read.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SourceID enumerates the twelve registered backends, the federated index
// (bedesten) among them, matching spec.md §1.
type SourceID string

const (
	SourceYargitay   SourceID = "yargitay"
	SourceDanistay   SourceID = "danistay"
	SourceAnayasa    SourceID = "anayasa"
	SourceUyusmazlik SourceID = "uyusmazlik"
	SourceRekabet    SourceID = "rekabet"
	SourceBedesten   SourceID = "bedesten"
	SourceEmsal      SourceID = "emsal"
	SourceSayistay   SourceID = "sayistay"
	SourceKIK        SourceID = "kik"
	SourceKIKLegacy  SourceID = "kik_legacy"
	SourceBDDK       SourceID = "bddk"
	SourceKVKK       SourceID = "kvkk"
)

// AllSources lists every registered backend in a stable order.
var AllSources = []SourceID{
	SourceYargitay, SourceDanistay, SourceAnayasa, SourceUyusmazlik,
	SourceRekabet, SourceBedesten, SourceEmsal, SourceSayistay,
	SourceKIK, SourceKIKLegacy, SourceBDDK, SourceKVKK,
}

// defaultTimeouts implements SPEC_FULL.md §3's per-source default timeout
// table: 30s for JSON-over-HTTP backends, 60s for WebForms backends, 45s for
// browser-driven backends.
var defaultTimeouts = map[SourceID]time.Duration{
	SourceYargitay:   30 * time.Second,
	SourceDanistay:   30 * time.Second,
	SourceAnayasa:    30 * time.Second,
	SourceUyusmazlik: 30 * time.Second,
	SourceRekabet:    30 * time.Second,
	SourceBedesten:   30 * time.Second,
	SourceEmsal:      30 * time.Second,
	SourceSayistay:   60 * time.Second,
	SourceKIK:        30 * time.Second,
	SourceKIKLegacy:  45 * time.Second,
	SourceBDDK:       30 * time.Second,
	SourceKVKK:       30 * time.Second,
}

// Config is the immutable, process-wide gateway configuration.
type Config struct {
	EnableAuth        bool
	AllowedOrigins    []string
	LogDirectory      string
	SourceTimeouts    map[SourceID]time.Duration
	DisabledSources   map[SourceID]bool
	BDDKSearchAPIKey  string
	KVKKSearchAPIKey  string
	BrowserMaxContext int
}

// Load reads configuration from the environment. Unset keys fall back to the
// documented defaults. Viper reads the bare, unprefixed environment keys
// spec.md §6 names, matching the host runtime's existing deployment.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("enable_auth", false)
	v.SetDefault("allowed_origins", "")
	v.SetDefault("log_directory", "")
	v.SetDefault("browser_max_context", 4)

	cfg := Config{
		EnableAuth:        v.GetBool("enable_auth"),
		LogDirectory:      v.GetString("log_directory"),
		SourceTimeouts:    map[SourceID]time.Duration{},
		DisabledSources:   map[SourceID]bool{},
		BDDKSearchAPIKey:  v.GetString("bddk_search_api_key"),
		KVKKSearchAPIKey:  v.GetString("kvkk_search_api_key"),
		BrowserMaxContext: v.GetInt("browser_max_context"),
	}
	if raw := v.GetString("allowed_origins"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	for src, def := range defaultTimeouts {
		key := fmt.Sprintf("%s_timeout_seconds", src)
		if v.IsSet(key) {
			cfg.SourceTimeouts[src] = time.Duration(v.GetInt(key)) * time.Second
		} else {
			cfg.SourceTimeouts[src] = def
		}
		if v.GetBool(fmt.Sprintf("%s_disabled", src)) {
			cfg.DisabledSources[src] = true
		}
	}

	if err := cfg.validateCredentials(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validateCredentials implements §9's design note: the core refuses to start
// if a required backend credential is absent and that backend is not
// disabled by configuration.
func (c Config) validateCredentials() error {
	required := map[SourceID]string{
		SourceBDDK: c.BDDKSearchAPIKey,
		SourceKVKK: c.KVKKSearchAPIKey,
	}
	for src, key := range required {
		if key == "" && !c.DisabledSources[src] {
			return fmt.Errorf("config: missing search API credential for source %q; set the credential or disable the source", src)
		}
	}
	return nil
}

// Timeout returns the configured per-source default deadline, falling back
// to 30s if the source is unknown to the table.
func (c Config) Timeout(src SourceID) time.Duration {
	if d, ok := c.SourceTimeouts[src]; ok {
		return d
	}
	return 30 * time.Second
}
