package processor

import (
	"testing"
	"time"

	"fundingwatch/models"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestJoinDropsPartialSymbols(t *testing.T) {
	t1 := time.Date(2023, 8, 28, 8, 0, 0, 0, time.UTC)

	tickers := []models.TickerRecord{
		{Symbol: "BTCUSDT", Price: dec(t, "26428.20")},
		{Symbol: "FOOUSDT", Price: dec(t, "1.00")},
	}
	stats := []models.StatsRecord{
		{Symbol: "BTCUSDT", PriceChangePercent: dec(t, "-0.172")},
		{Symbol: "FOOUSDT", PriceChangePercent: dec(t, "2.5")},
	}
	funding := []models.FundingRecord{
		{Symbol: "BTCUSDT", FundingRate: dec(t, "0.0007"), NextFundingTime: t1},
	}

	snapshots := Join(tickers, stats, funding)
	if len(snapshots) != 1 {
		t.Fatalf("expected FOOUSDT to be dropped, got %d snapshots", len(snapshots))
	}
	got := snapshots[0]
	if got.Symbol != "BTCUSDT" {
		t.Errorf("unexpected symbol %s", got.Symbol)
	}
	if got.FundingRatePct.String() != "0.07" {
		t.Errorf("expected funding pct 0.07, got %s", got.FundingRatePct)
	}
	if !got.NextFundingTime.Equal(t1) {
		t.Errorf("unexpected next funding time %v", got.NextFundingTime)
	}
}

func TestJoinLastWriteWinsOnDuplicates(t *testing.T) {
	tickers := []models.TickerRecord{
		{Symbol: "ETHUSDT", Price: dec(t, "1600.00")},
		{Symbol: "ETHUSDT", Price: dec(t, "1622.02")},
	}
	stats := []models.StatsRecord{{Symbol: "ETHUSDT", PriceChangePercent: dec(t, "-0.239")}}
	funding := []models.FundingRecord{{Symbol: "ETHUSDT", FundingRate: dec(t, "-0.0034")}}

	snapshots := Join(tickers, stats, funding)
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].Price.String() != "1622.02" {
		t.Errorf("expected last duplicate to win, got price %s", snapshots[0].Price)
	}
}

func TestJoinDeterministicOrder(t *testing.T) {
	tickers := []models.TickerRecord{
		{Symbol: "ETHUSDT", Price: dec(t, "1622.02")},
		{Symbol: "BTCUSDT", Price: dec(t, "26428.20")},
	}
	stats := []models.StatsRecord{
		{Symbol: "BTCUSDT", PriceChangePercent: dec(t, "-0.172")},
		{Symbol: "ETHUSDT", PriceChangePercent: dec(t, "-0.239")},
	}
	funding := []models.FundingRecord{
		{Symbol: "ETHUSDT", FundingRate: dec(t, "-0.0034")},
		{Symbol: "BTCUSDT", FundingRate: dec(t, "0.0007")},
	}

	first := Join(tickers, stats, funding)
	second := Join(tickers, stats, funding)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 snapshots, got %d and %d", len(first), len(second))
	}
	if first[0].Symbol != "BTCUSDT" || first[1].Symbol != "ETHUSDT" {
		t.Errorf("expected symbol-sorted output, got %s, %s", first[0].Symbol, first[1].Symbol)
	}
	for i := range first {
		if first[i].Symbol != second[i].Symbol || !first[i].Price.Equal(second[i].Price) {
			t.Errorf("join is not deterministic at index %d", i)
		}
	}
}

func TestJoinEmptySources(t *testing.T) {
	if got := Join(nil, nil, nil); len(got) != 0 {
		t.Errorf("expected empty join, got %d", len(got))
	}
}
