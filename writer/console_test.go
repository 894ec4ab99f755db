package writer

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"fundingwatch/logger"
	"fundingwatch/models"
	"fundingwatch/processor"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func fixtureSnapshots(t *testing.T, nextFunding time.Time) []models.PairSnapshot {
	t.Helper()
	return processor.Join(
		[]models.TickerRecord{
			{Symbol: "BTCUSDT", Price: dec(t, "26428.20")},
			{Symbol: "ETHUSDT", Price: dec(t, "1622.02")},
		},
		[]models.StatsRecord{
			{Symbol: "BTCUSDT", PriceChangePercent: dec(t, "-0.172")},
			{Symbol: "ETHUSDT", PriceChangePercent: dec(t, "-0.239")},
		},
		[]models.FundingRecord{
			{Symbol: "BTCUSDT", FundingRate: dec(t, "0.0007"), NextFundingTime: nextFunding},
			{Symbol: "ETHUSDT", FundingRate: dec(t, "-0.0034"), NextFundingTime: nextFunding},
		},
	)
}

const (
	header = "  Pair     | Price      | % Funding  | % 24h Change\n"
	btcRow = "BTCUSDT    | 26428.20   | 0.07       | -0.172    \n"
	ethRow = "ETHUSDT    | 1622.02    | -0.34      | -0.239    \n"
)

func TestRenderEndToEnd(t *testing.T) {
	now := time.Date(2023, 8, 28, 4, 21, 39, 0, time.UTC)
	snapshots := fixtureSnapshots(t, now.Add(13101*time.Second))
	rankings := processor.BuildRankings(snapshots, "USDT", 5)

	var buf bytes.Buffer
	w := NewConsoleWriter(&buf, false)
	if err := w.Render([]string{"BTCUSDT", "ETHUSDT"}, snapshots, rankings, now); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "\n--- My Pairs Information ---\n" + header + btcRow + ethRow +
		"\n--- Top shorted pairs ---\n" + header + ethRow + btcRow +
		"\n--- Top longed pairs ---\n" + header + btcRow + ethRow +
		"\n--- Top Gainers ---\n" + header + btcRow + ethRow +
		"\n--- Top Losers ---\n" + header + ethRow + btcRow +
		"\nFunding countdown: 03:38:21\n"

	if buf.String() != want {
		t.Errorf("unexpected render output:\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestRenderWatchlistOrderPreserved(t *testing.T) {
	now := time.Date(2023, 8, 28, 4, 0, 0, 0, time.UTC)
	snapshots := fixtureSnapshots(t, now.Add(time.Hour))

	var buf bytes.Buffer
	w := NewConsoleWriter(&buf, false)
	if err := w.Render([]string{"ETHUSDT", "BTCUSDT"}, snapshots, processor.Rankings{}, now); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	if strings.Index(out, "ETHUSDT") > strings.Index(out, "BTCUSDT") {
		t.Error("watch-list order was not preserved")
	}
}

func TestRenderMissingWatchlistPair(t *testing.T) {
	now := time.Date(2023, 8, 28, 4, 0, 0, 0, time.UTC)
	snapshots := fixtureSnapshots(t, now.Add(time.Hour))

	var buf bytes.Buffer
	w := NewConsoleWriter(&buf, false)
	if err := w.Render([]string{"BTCUSDT", "GONEUSDT"}, snapshots, processor.Rankings{}, now); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "GONEUSDT   | N/A        | N/A        | N/A       \n"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected N/A row %q in output:\n%s", want, buf.String())
	}
}

func TestRenderIdempotent(t *testing.T) {
	now := time.Date(2023, 8, 28, 4, 21, 39, 0, time.UTC)
	snapshots := fixtureSnapshots(t, now.Add(13101*time.Second))
	rankings := processor.BuildRankings(snapshots, "USDT", 5)

	var first, second bytes.Buffer
	if err := NewConsoleWriter(&first, false).Render([]string{"BTCUSDT"}, snapshots, rankings, now); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := NewConsoleWriter(&second, false).Render([]string{"BTCUSDT"}, snapshots, rankings, now); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("rendering the same inputs twice produced different bytes")
	}
}

func TestRenderColorCodes(t *testing.T) {
	now := time.Date(2023, 8, 28, 4, 0, 0, 0, time.UTC)
	snapshots := fixtureSnapshots(t, now.Add(time.Hour))

	var buf bytes.Buffer
	w := NewConsoleWriter(&buf, true)
	if err := w.Render([]string{"BTCUSDT"}, snapshots, processor.Rankings{}, now); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// Both fixture pairs are down on the day.
	if !strings.Contains(buf.String(), colorRed) {
		t.Error("expected red colour code for negative 24h change")
	}
	if !strings.Contains(buf.String(), colorReset) {
		t.Error("expected colour reset code")
	}
}

func TestRenderLogsSummary(t *testing.T) {
	log := logger.GetLogger()
	var logBuf bytes.Buffer
	log.SetOutput(&logBuf)
	log.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		log.SetOutput(os.Stdout)
		log.SetLevel(logrus.InfoLevel)
	})

	now := time.Date(2023, 8, 28, 4, 0, 0, 0, time.UTC)
	snapshots := fixtureSnapshots(t, now.Add(time.Hour))

	var buf bytes.Buffer
	if err := NewConsoleWriter(&buf, false).Render([]string{"BTCUSDT"}, snapshots, processor.Rankings{}, now); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(logBuf.String(), "rendered console tables") {
		t.Errorf("expected render summary log entry, got:\n%s", logBuf.String())
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"26428.20", "26428.20"},
		{"1622.02", "1622.02"},
		{"0.07380000", "0.07380000"},
		{"26428", "26428"},
		{"1.5", "1.5"},
	}
	for _, c := range cases {
		if got := formatPrice(dec(t, c.in)); got != c.want {
			t.Errorf("formatPrice(%s) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	cases := []struct {
		in     string
		places int32
		want   string
	}{
		{"0.07000000", 4, "0.07"},
		{"-0.34000000", 4, "-0.34"},
		{"0.12345678", 4, "0.1235"},
		{"-0.0000001", 4, "0"},
		{"12", 3, "12"},
	}
	for _, c := range cases {
		if got := formatPct(dec(t, c.in), c.places); got != c.want {
			t.Errorf("formatPct(%s, %d) = %q, want %q", c.in, c.places, got, c.want)
		}
	}
}
