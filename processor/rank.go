package processor

import (
	"sort"
	"strings"

	"fundingwatch/models"

	"github.com/shopspring/decimal"
)

// percentFactor converts a raw funding rate into a percentage.
var percentFactor = decimal.NewFromInt(100)

// RankKey selects the snapshot field a ranking sorts on.
type RankKey string

// RankOrder selects the sort direction.
type RankOrder string

const (
	RankByFunding   RankKey = "funding"
	RankByChange24h RankKey = "change24h"

	Ascending  RankOrder = "asc"
	Descending RankOrder = "desc"
)

// Rankings holds the four ranked lists rendered each cycle.
type Rankings struct {
	TopShorted []models.PairSnapshot
	TopLonged  []models.PairSnapshot
	TopGainers []models.PairSnapshot
	TopLosers  []models.PairSnapshot
}

// TopN returns at most n snapshots ordered by the requested key and
// direction. Ties on the key are broken by symbol ascending so the order is
// total. The input slice is not modified.
func TopN(snapshots []models.PairSnapshot, key RankKey, order RankOrder, n int) []models.PairSnapshot {
	if n <= 0 {
		return nil
	}

	sorted := make([]models.PairSnapshot, len(snapshots))
	copy(sorted, snapshots)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		cmp := rankValue(a, key).Cmp(rankValue(b, key))
		if cmp == 0 {
			return a.Symbol < b.Symbol
		}
		if order == Descending {
			return cmp > 0
		}
		return cmp < 0
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// FilterQuote keeps only snapshots whose symbol ends in the given quote
// asset. An empty quote keeps everything.
func FilterQuote(snapshots []models.PairSnapshot, quote string) []models.PairSnapshot {
	if quote == "" {
		return snapshots
	}
	filtered := make([]models.PairSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if strings.HasSuffix(s.Symbol, quote) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// BuildRankings produces the four ranked lists from a joined snapshot set,
// restricted to the configured quote asset.
func BuildRankings(snapshots []models.PairSnapshot, quote string, topN int) Rankings {
	candidates := FilterQuote(snapshots, quote)
	return Rankings{
		TopShorted: TopN(candidates, RankByFunding, Ascending, topN),
		TopLonged:  TopN(candidates, RankByFunding, Descending, topN),
		TopGainers: TopN(candidates, RankByChange24h, Descending, topN),
		TopLosers:  TopN(candidates, RankByChange24h, Ascending, topN),
	}
}

func rankValue(s models.PairSnapshot, key RankKey) decimal.Decimal {
	if key == RankByChange24h {
		return s.Change24hPct
	}
	return s.FundingRatePct
}
