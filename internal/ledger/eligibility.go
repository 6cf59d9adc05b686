package ledger

import (
	"fmt"
	"time"
)

// DefaultWindow is how long after creation a transaction may still be deleted.
const DefaultWindow = 30 * time.Minute

// ExpiredDisplay is shown instead of a countdown once deletion is no longer possible.
const ExpiredDisplay = "Expired"

const minOpacity = 0.3

// State is the deletion eligibility of one record at one instant.
type State struct {
	RemainingSeconds int64
	Display          string
	Eligible         bool
	// Opacity fades from 1.0 toward 0.3 as the window runs out. Presentation only.
	Opacity float64
	// Err is a *TimestampError when the creation timestamp could not be read.
	Err error
}

// Evaluate computes the eligibility of a record created at created, as seen at now.
// now is taken in zone and truncated to whole seconds so every viewer computes the
// same countdown. The result depends only on its arguments.
func Evaluate(now time.Time, zone *time.Location, created RawTimestamp, window time.Duration) State {
	createdAt, err := created.Seconds()
	if err != nil {
		return State{Display: ExpiredDisplay, Opacity: minOpacity, Err: err}
	}
	if zone == nil {
		zone = time.UTC
	}
	if window <= 0 {
		window = DefaultWindow
	}

	nowSeconds := now.In(zone).Unix()
	windowSeconds := int64(window / time.Second)
	elapsed := nowSeconds - createdAt
	remaining := windowSeconds - elapsed

	if remaining <= 0 {
		return State{RemainingSeconds: remaining, Display: ExpiredDisplay, Opacity: minOpacity}
	}

	return State{
		RemainingSeconds: remaining,
		Display:          FormatRemaining(remaining),
		Eligible:         true,
		Opacity:          fade(elapsed, windowSeconds),
	}
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int64) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func fade(elapsed, window int64) float64 {
	opacity := 1 - float64(elapsed)/float64(window)*(1-minOpacity)
	switch {
	case opacity > 1:
		return 1
	case opacity < minOpacity:
		return minOpacity
	}
	return opacity
}

// WallClock renders now as a 12-hour clock in zone, e.g. "3:04 PM".
func WallClock(now time.Time, zone *time.Location) string {
	if zone == nil {
		zone = time.UTC
	}
	return now.In(zone).Format("3:04 PM")
}
