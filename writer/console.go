package writer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"fundingwatch/logger"
	"fundingwatch/models"
	"fundingwatch/processor"

	"github.com/shopspring/decimal"
)

const (
	colorGreen = "\033[92m"
	colorRed   = "\033[91m"
	colorReset = "\033[0m"

	titleMyPairs    = "My Pairs Information"
	titleTopShorted = "Top shorted pairs"
	titleTopLonged  = "Top longed pairs"
	titleTopGainers = "Top Gainers"
	titleTopLosers  = "Top Losers"
)

// ConsoleWriter renders fixed-width market tables to a destination writer.
// Rendering the same inputs twice yields byte-identical output.
type ConsoleWriter struct {
	out   io.Writer
	color bool
	log   *logger.Log
}

// NewConsoleWriter creates a console writer. Colouring is optional so output
// captured to files or tests stays plain.
func NewConsoleWriter(out io.Writer, color bool) *ConsoleWriter {
	return &ConsoleWriter{
		out:   out,
		color: color,
		log:   logger.GetLogger(),
	}
}

// Render writes the watch-list section, the four ranked sections and the
// funding countdown line. Watch-list rows keep the configured order; pairs
// missing from the snapshot set render as N/A rows rather than disappearing.
func (w *ConsoleWriter) Render(watchlist []string, snapshots []models.PairSnapshot, rankings processor.Rankings, now time.Time) error {
	bySymbol := make(map[string]models.PairSnapshot, len(snapshots))
	for _, s := range snapshots {
		bySymbol[s.Symbol] = s
	}

	var buf bytes.Buffer

	w.renderSection(&buf, titleMyPairs, w.watchlistRows(watchlist, bySymbol))
	w.renderSection(&buf, titleTopShorted, w.snapshotRows(rankings.TopShorted))
	w.renderSection(&buf, titleTopLonged, w.snapshotRows(rankings.TopLonged))
	w.renderSection(&buf, titleTopGainers, w.snapshotRows(rankings.TopGainers))
	w.renderSection(&buf, titleTopLosers, w.snapshotRows(rankings.TopLosers))

	countdown := FormatCountdown(NextFunding(snapshots, now).Sub(now))
	fmt.Fprintf(&buf, "\nFunding countdown: %s\n", countdown)

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write console output: %w", err)
	}

	w.log.WithComponent("console_writer").WithFields(logger.Fields{
		"watchlist": len(watchlist),
		"pairs":     len(snapshots),
		"bytes":     buf.Len(),
	}).Debug("rendered console tables")
	return nil
}

type row struct {
	pair     string
	price    string
	funding  string
	change   string
	coloured bool
	positive bool
}

func (w *ConsoleWriter) watchlistRows(watchlist []string, bySymbol map[string]models.PairSnapshot) []row {
	rows := make([]row, 0, len(watchlist))
	for _, pair := range watchlist {
		snap, ok := bySymbol[pair]
		if !ok {
			rows = append(rows, row{pair: pair, price: "N/A", funding: "N/A", change: "N/A"})
			continue
		}
		rows = append(rows, snapshotRow(snap))
	}
	return rows
}

func (w *ConsoleWriter) snapshotRows(snapshots []models.PairSnapshot) []row {
	rows := make([]row, 0, len(snapshots))
	for _, snap := range snapshots {
		rows = append(rows, snapshotRow(snap))
	}
	return rows
}

func snapshotRow(snap models.PairSnapshot) row {
	return row{
		pair:     snap.Symbol,
		price:    formatPrice(snap.Price),
		funding:  formatPct(snap.FundingRatePct, 4),
		change:   formatPct(snap.Change24hPct, 3),
		coloured: true,
		positive: snap.Change24hPct.Sign() >= 0,
	}
}

func (w *ConsoleWriter) renderSection(buf *bytes.Buffer, title string, rows []row) {
	fmt.Fprintf(buf, "\n--- %s ---\n", title)
	fmt.Fprintf(buf, "  %-8s | %-10s | %-10s | %-10s\n", "Pair", "Price", "% Funding", "% 24h Change")

	for _, r := range rows {
		line := fmt.Sprintf("%-10s | %-10s | %-10s | %-10s", r.pair, r.price, r.funding, r.change)
		if w.color && r.coloured {
			code := colorRed
			if r.positive {
				code = colorGreen
			}
			line = code + line + colorReset
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

// formatPrice renders a price with the exponent the exchange sent, so
// "26428.20" stays "26428.20" instead of collapsing to "26428.2".
func formatPrice(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// formatPct rounds to the given decimal places and trims trailing zeros so
// the column reads like the exchange quotes it.
func formatPct(d decimal.Decimal, places int32) string {
	s := d.Round(places).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
