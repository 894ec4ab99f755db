package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Fundingwatch FundingwatchConfig `yaml:"fundingwatch"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Source       SourceConfig       `yaml:"source"`
	Watchlist    WatchlistConfig    `yaml:"watchlist"`
	Refresh      RefreshConfig      `yaml:"refresh"`
	Ranking      RankingConfig      `yaml:"ranking"`
	Output       OutputConfig       `yaml:"output"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type FundingwatchConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
	Dashboard string `yaml:"dashboard"`
}

type SourceConfig struct {
	Binance BinanceSourceConfig `yaml:"binance"`
}

type BinanceSourceConfig struct {
	BaseURL           string               `yaml:"base_url"`
	TimeoutMs         int                  `yaml:"timeout_ms"`
	Retries           int                  `yaml:"retries"`
	RequestsPerSecond int                  `yaml:"requests_per_second"`
	Burst             int                  `yaml:"burst"`
	ConnectionPool    ConnectionPoolConfig `yaml:"connection_pool"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns      int `yaml:"max_idle_conns"`
	MaxConnsPerHost   int `yaml:"max_conns_per_host"`
	IdleConnTimeoutMs int `yaml:"idle_conn_timeout_ms"`
}

type WatchlistConfig struct {
	Pairs        []string `yaml:"pairs"`
	PairsFile    string   `yaml:"pairs_file"`
	DefaultPairs bool     `yaml:"default_pairs"`
}

type RefreshConfig struct {
	IntervalMs int `yaml:"interval_ms"`
	// RankEvery refreshes the ranked lists every N cycles; the watch-list
	// refreshes every cycle.
	RankEvery int `yaml:"rank_every"`
}

type RankingConfig struct {
	TopN        int    `yaml:"top_n"`
	QuoteFilter string `yaml:"quote_filter"`
}

type OutputConfig struct {
	Color bool `yaml:"color"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// defaultPairs are prepended to the watch-list unless default_pairs is false.
var defaultPairs = []string{"ETHUSDT", "BTCUSDT"}

func (b BinanceSourceConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

func (c ConnectionPoolConfig) IdleConnTimeout() time.Duration {
	if c.IdleConnTimeoutMs <= 0 {
		return 90 * time.Second
	}
	return time.Duration(c.IdleConnTimeoutMs) * time.Millisecond
}

func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMs) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Watchlist: WatchlistConfig{DefaultPairs: true},
		Refresh:   RefreshConfig{RankEvery: 1},
		Ranking:   RankingConfig{TopN: 5, QuoteFilter: "USDT"},
		Output:    OutputConfig{Color: true},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if v := os.Getenv("FUNDINGWATCH_BASE_URL"); v != "" {
		config.Source.Binance.BaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("FUNDINGWATCH_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			config.Refresh.IntervalMs = ms
		}
	}
	if v := os.Getenv("FUNDINGWATCH_TOP_N"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			config.Ranking.TopN = n
		}
	}
	if v := os.Getenv("AWS_REGION"); v != "" && config.Metrics.CloudWatch.Region == "" {
		config.Metrics.CloudWatch.Region = strings.TrimSpace(v)
	}

	if err := config.ResolveWatchlist(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// ResolveWatchlist merges the pairs file into the configured pairs,
// normalises symbols and prepends the default pairs. The resulting order is
// the order the "My Pairs Information" table renders in.
func (c *Config) ResolveWatchlist() error {
	pairs := make([]string, 0, len(c.Watchlist.Pairs))
	for _, p := range c.Watchlist.Pairs {
		if s := normalizeSymbol(p); s != "" {
			pairs = append(pairs, s)
		}
	}

	if c.Watchlist.PairsFile != "" {
		data, err := os.ReadFile(c.Watchlist.PairsFile)
		if err != nil {
			return fmt.Errorf("failed to read pairs file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if s := normalizeSymbol(line); s != "" {
				pairs = append(pairs, s)
			}
		}
	}

	sort.Strings(pairs)
	pairs = dedupe(pairs)

	if c.Watchlist.DefaultPairs {
		for _, def := range defaultPairs {
			if !contains(pairs, def) {
				pairs = append([]string{def}, pairs...)
			}
		}
	}

	c.Watchlist.Pairs = pairs
	return nil
}

// ValidationError reports a configuration value that makes startup
// impossible. Callers treat it as fatal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validate re-checks the config after the caller has mutated it, e.g. when
// command-line pairs replace the configured watch-list.
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(cfg *Config) error {
	if cfg.Fundingwatch.Name == "" {
		return &ValidationError{Field: "fundingwatch.name", Reason: "is required"}
	}
	if cfg.Fundingwatch.Version == "" {
		return &ValidationError{Field: "fundingwatch.version", Reason: "is required"}
	}

	if len(cfg.Watchlist.Pairs) == 0 {
		return &ValidationError{Field: "watchlist.pairs", Reason: "must not be empty"}
	}
	for _, p := range cfg.Watchlist.Pairs {
		if !isValidSymbol(p) {
			return &ValidationError{Field: "watchlist.pairs", Reason: fmt.Sprintf("contains invalid symbol '%s'", p)}
		}
	}

	if cfg.Refresh.IntervalMs <= 0 {
		return &ValidationError{Field: "refresh.interval_ms", Reason: "must be greater than 0"}
	}
	if cfg.Refresh.RankEvery <= 0 {
		return &ValidationError{Field: "refresh.rank_every", Reason: "must be greater than 0"}
	}

	if cfg.Ranking.TopN <= 0 {
		return &ValidationError{Field: "ranking.top_n", Reason: "must be greater than 0"}
	}

	if cfg.Source.Binance.Retries < 0 {
		return &ValidationError{Field: "source.binance.retries", Reason: "must not be negative"}
	}

	return nil
}

var symbolRegexp = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

func isValidSymbol(s string) bool {
	return symbolRegexp.MatchString(s)
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}
