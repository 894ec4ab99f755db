package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	appconfig "fundingwatch/config"
	"fundingwatch/logger"
	"fundingwatch/models"
	"fundingwatch/processor"
	"fundingwatch/writer"
)

// Fetcher is the fetch boundary the monitor drives each cycle. It is
// satisfied by the binance market reader.
type Fetcher interface {
	Binance_Market_FetchAll(ctx context.Context) (models.MarketSnapshot, error)
}

// Monitor drives the fetch, join, rank, render cycle on a fixed interval.
// It alternates between fetching and sleeping until its context is
// cancelled; a failed fetch skips the render and waits for the next tick.
type Monitor struct {
	config  *appconfig.Config
	fetcher Fetcher
	console *writer.ConsoleWriter
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log

	cycle    int
	rankings processor.Rankings

	// now is swapped out in tests for deterministic countdowns.
	now func() time.Time
}

// NewMonitor creates a monitor over the given fetcher and console writer.
func NewMonitor(cfg *appconfig.Config, fetcher Fetcher, console *writer.ConsoleWriter) *Monitor {
	return &Monitor{
		config:  cfg,
		fetcher: fetcher,
		console: console,
		wg:      &sync.WaitGroup{},
		log:     logger.GetLogger(),
		now:     time.Now,
	}
}

// Start begins the refresh loop. The first cycle runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("monitor already running")
	}
	m.running = true
	m.ctx = ctx
	m.mu.Unlock()

	m.log.WithComponent("monitor").WithFields(logger.Fields{
		"interval":   m.config.Refresh.Interval().String(),
		"rank_every": m.config.Refresh.RankEvery,
		"watchlist":  m.config.Watchlist.Pairs,
	}).Info("starting monitor")

	m.wg.Add(1)
	go m.run()
	return nil
}

// Stop waits for the loop goroutine to exit. The caller is expected to have
// cancelled the context passed to Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.log.WithComponent("monitor").Info("stopping monitor")
	m.wg.Wait()
	m.log.WithComponent("monitor").Info("monitor stopped")
}

func (m *Monitor) run() {
	defer m.wg.Done()

	m.runCycle()

	ticker := time.NewTicker(m.config.Refresh.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.runCycle()
		}
	}
}

// runCycle performs one fetch, join, rank, render pass. Fetch failures are
// logged and the render is skipped; the next tick is the retry. Skipped
// cycles do not count towards the rank_every cadence.
func (m *Monitor) runCycle() {
	start := m.now()
	log := m.log.WithComponent("monitor")

	snap, err := m.fetcher.Binance_Market_FetchAll(m.ctx)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("fetch failed, skipping cycle")
		logger.IncrementCycleSkipped()
		return
	}

	snapshots := processor.JoinSnapshot(snap)

	if m.cycle%m.config.Refresh.RankEvery == 0 {
		m.rankings = processor.BuildRankings(snapshots, m.config.Ranking.QuoteFilter, m.config.Ranking.TopN)
	}
	m.cycle++

	if err := m.console.Render(m.config.Watchlist.Pairs, snapshots, m.rankings, m.now()); err != nil {
		log.WithError(err).Error("render failed")
		return
	}

	logger.IncrementCycleCompleted()
	logger.LogPerformanceEntry(log, "monitor", "cycle", m.now().Sub(start), logger.Fields{
		"pairs": len(snapshots),
	})
}
