package processor

import (
	"sort"

	"fundingwatch/models"
)

// Join builds symbol keyed lookups over the three record sets and emits one
// PairSnapshot per symbol present in all of them. Symbols missing from any
// source are dropped. When a source lists a symbol twice the last row wins.
// Output is sorted by symbol so identical inputs always join identically.
func Join(tickers []models.TickerRecord, stats []models.StatsRecord, funding []models.FundingRecord) []models.PairSnapshot {
	prices := make(map[string]models.TickerRecord, len(tickers))
	for _, t := range tickers {
		prices[t.Symbol] = t
	}

	changes := make(map[string]models.StatsRecord, len(stats))
	for _, s := range stats {
		changes[s.Symbol] = s
	}

	rates := make(map[string]models.FundingRecord, len(funding))
	for _, f := range funding {
		rates[f.Symbol] = f
	}

	snapshots := make([]models.PairSnapshot, 0, len(prices))
	for symbol, ticker := range prices {
		stat, ok := changes[symbol]
		if !ok {
			continue
		}
		rate, ok := rates[symbol]
		if !ok {
			continue
		}
		snapshots = append(snapshots, models.PairSnapshot{
			Symbol:          symbol,
			Price:           ticker.Price,
			FundingRatePct:  rate.FundingRate.Mul(percentFactor),
			Change24hPct:    stat.PriceChangePercent,
			NextFundingTime: rate.NextFundingTime,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Symbol < snapshots[j].Symbol
	})
	return snapshots
}

// JoinSnapshot is a convenience over Join for a whole fetched snapshot.
func JoinSnapshot(snap models.MarketSnapshot) []models.PairSnapshot {
	return Join(snap.Tickers, snap.Stats, snap.Funding)
}
