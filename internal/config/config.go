// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Search      SearchConfig      `mapstructure:"search"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Storage     StorageConfig     `mapstructure:"storage"`
	DB          DBConfig          `mapstructure:"db"`
	PubSub      PubSubConfig      `mapstructure:"pubsub"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SearchConfig governs the provider fan-out.
type SearchConfig struct {
	ResultsPerProvider     int     `mapstructure:"results_per_provider"`
	ProviderTimeoutSeconds int     `mapstructure:"provider_timeout_seconds"`
	PipelineWorkers        int     `mapstructure:"pipeline_workers"`
	ScraperQPS             float64 `mapstructure:"scraper_qps"`
	Locale                 string  `mapstructure:"locale"`
	Country                string  `mapstructure:"country"`
}

// CredentialsConfig holds per-provider API key lists. Keys rotate
// round-robin; a quarantined key recovers after the window elapses.
type CredentialsConfig struct {
	Serper      []string `mapstructure:"serper"`
	GoogleCSE   []string `mapstructure:"google_cse"`
	GoogleCSECx string   `mapstructure:"google_cse_cx"`
	YouTube     []string `mapstructure:"youtube"`
	Apify       []string `mapstructure:"apify"`
}

// ExtractionConfig tunes the content cascade.
type ExtractionConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	JinaBase       string `mapstructure:"jina_base"`
}

// BrowserConfig configures the headless rendering subsystem.
type BrowserConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MaxParallel    int     `mapstructure:"max_parallel"`
	NavTimeoutSec  int     `mapstructure:"nav_timeout_seconds"`
	DomainQPS      float64 `mapstructure:"domain_qps"`
	UserAgent      string  `mapstructure:"user_agent"`
}

// StorageConfig selects where run artifacts land.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalRoot string `mapstructure:"local_root"`
}

// DBConfig controls the run store database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SOCIALHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.results_per_provider", 10)
	v.SetDefault("search.provider_timeout_seconds", 15)
	v.SetDefault("search.pipeline_workers", 3)
	v.SetDefault("search.scraper_qps", 0.5)
	v.SetDefault("search.locale", "pt-BR")
	v.SetDefault("search.country", "br")
	v.SetDefault("extraction.timeout_seconds", 20)
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.max_parallel", 1)
	v.SetDefault("browser.nav_timeout_seconds", 25)
	v.SetDefault("browser.domain_qps", 0.5)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0")
	v.SetDefault("storage.local_root", "artifacts")
	v.SetDefault("db.table", "runs")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. A deployment
// with no API credentials at all cannot search anything and is rejected
// outright.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Search.ResultsPerProvider <= 0 {
		return fmt.Errorf("search.results_per_provider must be > 0")
	}
	if c.Search.ProviderTimeoutSeconds <= 0 {
		return fmt.Errorf("search.provider_timeout_seconds must be > 0")
	}
	if c.Search.PipelineWorkers <= 0 {
		return fmt.Errorf("search.pipeline_workers must be > 0")
	}
	if c.Credentials.Total() == 0 {
		return fmt.Errorf("credentials: at least one API key is required: %w", harvest.ErrNoCredentials)
	}
	if len(c.Credentials.GoogleCSE) > 0 && c.Credentials.GoogleCSECx == "" {
		return fmt.Errorf("credentials.google_cse_cx is required when google_cse keys are set")
	}
	return nil
}

// Total counts configured non-empty API keys across providers.
func (c CredentialsConfig) Total() int {
	n := 0
	for _, list := range [][]string{c.Serper, c.GoogleCSE, c.YouTube, c.Apify} {
		for _, s := range list {
			if s != "" {
				n++
			}
		}
	}
	return n
}

// PoolCredentials expands the config lists into pool entries keyed by
// provider name.
func (c CredentialsConfig) PoolCredentials() map[string][]harvest.Credential {
	out := make(map[string][]harvest.Credential)
	add := func(provider string, secrets []string, extra string) {
		for _, s := range secrets {
			if s == "" {
				continue
			}
			out[provider] = append(out[provider], harvest.Credential{Secret: s, Extra: extra})
		}
	}
	add("serper", c.Serper, "")
	add("google_cse", c.GoogleCSE, c.GoogleCSECx)
	add("youtube", c.YouTube, "")
	add("apify", c.Apify, "")
	return out
}
