package ui

import (
	"fmt"
	"time"
)

// etaRefreshInterval bounds how often the remaining-time estimate changes so
// it does not flicker with every completed frame.
const etaRefreshInterval = 2 * time.Second

// etaTracker estimates the time remaining from the completions observed
// since the anchor: remaining = elapsed * (total-done)/done.
type etaTracker struct {
	start time.Time
	at    time.Time
	value string
}

// anchor marks the start of the observation window and clears any estimate.
func (e *etaTracker) anchor(now time.Time) {
	e.start = now
	e.at = now
	e.value = ""
}

// update returns the current estimate, recomputing it when the refresh
// window has passed. It returns "" until enough history exists.
func (e *etaTracker) update(now time.Time, done, total int) string {
	if e.start.IsZero() || done < 1 || total < 1 {
		return e.value
	}
	elapsed := now.Sub(e.start)
	if elapsed < etaRefreshInterval {
		return e.value
	}
	if e.value != "" && now.Sub(e.at) < etaRefreshInterval {
		return e.value
	}
	remaining := time.Duration(float64(elapsed) * float64(total-done) / float64(done))
	e.value = formatMMSS(remaining)
	e.at = now
	return e.value
}

// formatMMSS renders a duration as zero-padded minutes and seconds.
func formatMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
