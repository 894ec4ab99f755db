package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickerRecord is a single last-price entry from the futures ticker endpoint.
// Price keeps the exchange's own decimal representation.
type TickerRecord struct {
	Symbol string
	Price  decimal.Decimal
}

// StatsRecord is a single row from the 24hr ticker statistics endpoint.
type StatsRecord struct {
	Symbol             string
	PriceChangePercent decimal.Decimal
}

// FundingRecord is a single row from the premium-index endpoint.
// FundingRate is the raw rate as reported, not a percentage.
type FundingRecord struct {
	Symbol          string
	FundingRate     decimal.Decimal
	NextFundingTime time.Time
}

// MarketSnapshot holds the result of one fetch cycle across all three
// endpoints. It is discarded after rendering.
type MarketSnapshot struct {
	Tickers []TickerRecord
	Stats   []StatsRecord
	Funding []FundingRecord
	Fetched time.Time
}

// PairSnapshot is the per-symbol join of ticker, stats and funding data.
// FundingRatePct is the funding rate multiplied by 100.
type PairSnapshot struct {
	Symbol          string
	Price           decimal.Decimal
	FundingRatePct  decimal.Decimal
	Change24hPct    decimal.Decimal
	NextFundingTime time.Time
}
