package writer

import (
	"fmt"
	"time"

	"fundingwatch/models"
)

// fundingIntervalHours is the Binance perpetual settlement spacing: funding
// exchanges hands at 00:00, 08:00 and 16:00 UTC.
const fundingIntervalHours = 8

// NextFunding returns the settlement the countdown targets: the earliest
// NextFundingTime still ahead of now across the snapshot set, or the next
// scheduled UTC slot when no snapshot carries one.
func NextFunding(snapshots []models.PairSnapshot, now time.Time) time.Time {
	var next time.Time
	for _, s := range snapshots {
		t := s.NextFundingTime
		if t.IsZero() || t.Before(now) {
			continue
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	if next.IsZero() {
		return NextScheduledFunding(now)
	}
	return next
}

// NextScheduledFunding computes the next of the fixed UTC funding slots
// after now.
func NextScheduledFunding(now time.Time) time.Time {
	now = now.UTC()
	slot := now.Truncate(time.Hour)
	hour := slot.Hour() - slot.Hour()%fundingIntervalHours
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC).
		Add(fundingIntervalHours * time.Hour)
	return next
}

// FormatCountdown renders a duration as HH:MM:SS, floored to the second and
// clamped to zero when the settlement is already due.
func FormatCountdown(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
