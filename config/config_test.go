package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTempConfig creates a minimal configuration file required for
// LoadConfig and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

const minimalYAML = `fundingwatch:
  name: "TestApp"
  version: "1.0"
refresh:
  interval_ms: 1000
watchlist:
  pairs: ["solusdt"]
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Fundingwatch.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Fundingwatch.Name)
	}
	if cfg.Ranking.TopN != 5 {
		t.Errorf("expected default top_n 5, got %d", cfg.Ranking.TopN)
	}
	if cfg.Refresh.RankEvery != 1 {
		t.Errorf("expected default rank_every 1, got %d", cfg.Refresh.RankEvery)
	}
}

func TestWatchlistDefaultsAndOrder(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if len(cfg.Watchlist.Pairs) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Watchlist.Pairs)
	}
	for i, p := range want {
		if cfg.Watchlist.Pairs[i] != p {
			t.Fatalf("expected %v, got %v", want, cfg.Watchlist.Pairs)
		}
	}
}

func TestWatchlistNoDefaults(t *testing.T) {
	path := writeTempConfig(t, `fundingwatch:
  name: "TestApp"
  version: "1.0"
refresh:
  interval_ms: 1000
watchlist:
  pairs: ["XRPUSDT", "ADAUSDT", "XRPUSDT"]
  default_pairs: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := []string{"ADAUSDT", "XRPUSDT"}
	if len(cfg.Watchlist.Pairs) != 2 || cfg.Watchlist.Pairs[0] != want[0] || cfg.Watchlist.Pairs[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, cfg.Watchlist.Pairs)
	}
}

func TestWatchlistPairsFile(t *testing.T) {
	dir := t.TempDir()
	pairsPath := filepath.Join(dir, "pairs.txt")
	if err := os.WriteFile(pairsPath, []byte("dogeusdt\n  ltcusdt \n\n"), 0o644); err != nil {
		t.Fatalf("write pairs file: %v", err)
	}

	path := writeTempConfig(t, `fundingwatch:
  name: "TestApp"
  version: "1.0"
refresh:
  interval_ms: 1000
watchlist:
  pairs_file: "`+pairsPath+`"
  default_pairs: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := []string{"DOGEUSDT", "LTCUSDT"}
	if len(cfg.Watchlist.Pairs) != 2 || cfg.Watchlist.Pairs[0] != want[0] || cfg.Watchlist.Pairs[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, cfg.Watchlist.Pairs)
	}
}

func TestValidationFailures(t *testing.T) {
	cases := map[string]string{
		"missing name": `fundingwatch:
  version: "1.0"
refresh:
  interval_ms: 1000
`,
		"zero interval": `fundingwatch:
  name: "TestApp"
  version: "1.0"
refresh:
  interval_ms: 0
`,
		"bad top_n": `fundingwatch:
  name: "TestApp"
  version: "1.0"
refresh:
  interval_ms: 1000
ranking:
  top_n: 0
`,
		"negative retries": `fundingwatch:
  name: "TestApp"
  version: "1.0"
refresh:
  interval_ms: 1000
source:
  binance:
    retries: -1
`,
		"bad symbol": `fundingwatch:
  name: "TestApp"
  version: "1.0"
refresh:
  interval_ms: 1000
watchlist:
  pairs: ["not a symbol!"]
`,
	}

	for name, content := range cases {
		path := writeTempConfig(t, content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FUNDINGWATCH_TOP_N", "3")
	t.Setenv("FUNDINGWATCH_INTERVAL_MS", "2500")

	path := writeTempConfig(t, minimalYAML)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Ranking.TopN != 3 {
		t.Errorf("expected top_n override 3, got %d", cfg.Ranking.TopN)
	}
	if cfg.Refresh.IntervalMs != 2500 {
		t.Errorf("expected interval override 2500, got %d", cfg.Refresh.IntervalMs)
	}
}
