package binance

import (
	"context"
	"net/http"
	"sync"
	"time"

	appconfig "fundingwatch/config"
	"fundingwatch/logger"
	"fundingwatch/models"

	futures "github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	endpointTickerPrice  = "ticker_price"
	endpointTicker24h    = "ticker_24hr"
	endpointPremiumIndex = "premium_index"
)

// Binance_Market_Reader fetches full-market price, 24h statistics and
// premium-index data from Binance futures REST endpoints. One instance is
// created at startup and reused across cycles.
type Binance_Market_Reader struct {
	config  *appconfig.Config
	client  *futures.Client
	limiter *rate.Limiter
	retries int
	log     *logger.Log
}

// Binance_Market_NewReader creates a reader using the binance-go futures
// client over a pooled HTTP transport.
func Binance_Market_NewReader(cfg *appconfig.Config) *Binance_Market_Reader {
	log := logger.GetLogger()
	src := cfg.Source.Binance

	transport := &http.Transport{
		MaxIdleConns:        src.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: src.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     src.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     src.ConnectionPool.IdleConnTimeout(),
		DisableCompression:  false,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   src.Timeout(),
	}

	client := futures.NewClient("", "")
	client.HTTPClient = httpClient
	if src.BaseURL != "" {
		client.SetApiEndpoint(src.BaseURL)
	}

	rps := src.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	burst := src.Burst
	if burst <= 0 {
		burst = rps
	}

	reader := &Binance_Market_Reader{
		config:  cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		retries: src.Retries,
		log:     log,
	}

	log.WithComponent("binance_reader").WithFields(logger.Fields{
		"base_url":           src.BaseURL,
		"timeout":            src.Timeout().String(),
		"retries":            src.Retries,
		"max_conns_per_host": src.ConnectionPool.MaxConnsPerHost,
	}).Info("binance market reader initialized")

	return reader
}

// Binance_Market_FetchAll issues the three full-market GETs concurrently and
// returns once all have completed. A failure on any endpoint fails the whole
// snapshot; the caller decides whether to skip the cycle.
func (r *Binance_Market_Reader) Binance_Market_FetchAll(ctx context.Context) (models.MarketSnapshot, error) {
	var (
		wg      sync.WaitGroup
		tickers []models.TickerRecord
		stats   []models.StatsRecord
		funding []models.FundingRecord
		errs    [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		tickers, errs[0] = r.fetchTickers(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, errs[1] = r.fetchStats(ctx)
	}()
	go func() {
		defer wg.Done()
		funding, errs[2] = r.fetchFunding(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return models.MarketSnapshot{}, err
		}
	}

	return models.MarketSnapshot{
		Tickers: tickers,
		Stats:   stats,
		Funding: funding,
		Fetched: time.Now().UTC(),
	}, nil
}

func (r *Binance_Market_Reader) fetchTickers(ctx context.Context) ([]models.TickerRecord, error) {
	var rows []*futures.SymbolPrice
	err := r.withRetry(ctx, endpointTickerPrice, func() error {
		var err error
		rows, err = r.client.NewListPricesService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]models.TickerRecord, 0, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			r.logDroppedRow(endpointTickerPrice, row.Symbol, err)
			continue
		}
		records = append(records, models.TickerRecord{Symbol: row.Symbol, Price: price})
	}

	logger.IncrementFetch(endpointTickerPrice, len(records))
	return records, nil
}

func (r *Binance_Market_Reader) fetchStats(ctx context.Context) ([]models.StatsRecord, error) {
	var rows []*futures.PriceChangeStats
	err := r.withRetry(ctx, endpointTicker24h, func() error {
		var err error
		rows, err = r.client.NewListPriceChangeStatsService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]models.StatsRecord, 0, len(rows))
	for _, row := range rows {
		change, err := decimal.NewFromString(row.PriceChangePercent)
		if err != nil {
			r.logDroppedRow(endpointTicker24h, row.Symbol, err)
			continue
		}
		records = append(records, models.StatsRecord{Symbol: row.Symbol, PriceChangePercent: change})
	}

	logger.IncrementFetch(endpointTicker24h, len(records))
	return records, nil
}

func (r *Binance_Market_Reader) fetchFunding(ctx context.Context) ([]models.FundingRecord, error) {
	var rows []*futures.PremiumIndex
	err := r.withRetry(ctx, endpointPremiumIndex, func() error {
		var err error
		rows, err = r.client.NewPremiumIndexService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]models.FundingRecord, 0, len(rows))
	for _, row := range rows {
		fundingRate, err := decimal.NewFromString(row.LastFundingRate)
		if err != nil {
			r.logDroppedRow(endpointPremiumIndex, row.Symbol, err)
			continue
		}
		record := models.FundingRecord{Symbol: row.Symbol, FundingRate: fundingRate}
		if row.NextFundingTime > 0 {
			record.NextFundingTime = time.UnixMilli(row.NextFundingTime).UTC()
		}
		records = append(records, record)
	}

	logger.IncrementFetch(endpointPremiumIndex, len(records))
	return records, nil
}

// withRetry runs fn through the rate limiter, retrying up to the configured
// attempt count. The next scheduled cycle remains the real retry mechanism;
// this only papers over transient blips within one cycle.
func (r *Binance_Market_Reader) withRetry(ctx context.Context, endpoint string, fn func() error) error {
	attempts := r.retries + 1

	var err error
	for i := 0; i < attempts; i++ {
		if err = r.limiter.Wait(ctx); err != nil {
			return classifyError(endpoint, err)
		}
		if err = fn(); err == nil {
			return nil
		}

		if i+1 < attempts {
			r.log.WithComponent("binance_reader").WithError(err).WithFields(logger.Fields{
				"endpoint": endpoint,
				"attempt":  i + 1,
			}).Warn("fetch failed, retrying")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return classifyError(endpoint, ctx.Err())
			}
		}
	}

	return classifyError(endpoint, err)
}

func (r *Binance_Market_Reader) logDroppedRow(endpoint, symbol string, err error) {
	r.log.WithComponent("binance_reader").WithError(err).WithFields(logger.Fields{
		"endpoint": endpoint,
		"symbol":   symbol,
	}).Debug("dropping row with unparseable value")
}
