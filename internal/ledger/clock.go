package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Countdown pairs a record id with its eligibility at one tick.
type Countdown struct {
	ID string
	State
}

// Clock tracks the creation timestamps of known records and evaluates their
// deletion eligibility against an injectable time source.
// Once a record is seen as expired it stays expired for the life of the Clock.
// Clock is not safe for concurrent use.
type Clock struct {
	now    func() time.Time
	zone   *time.Location
	window time.Duration
	log    zerolog.Logger

	order   []string
	created map[string]RawTimestamp
	expired map[string]bool
	// reported holds ids whose bad timestamp was already logged.
	reported map[string]bool
}

// NewClock creates a clock. A nil now defaults to time.Now and a nil zone to UTC.
func NewClock(now func() time.Time, zone *time.Location, window time.Duration, log zerolog.Logger) *Clock {
	if now == nil {
		now = time.Now
	}
	if zone == nil {
		zone = time.UTC
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Clock{
		now:      now,
		zone:     zone,
		window:   window,
		log:      log,
		created:  make(map[string]RawTimestamp),
		expired:  make(map[string]bool),
		reported: make(map[string]bool),
	}
}

// Now returns the current instant of the clock's time source.
func (c *Clock) Now() time.Time {
	return c.now()
}

// Zone returns the canonical timezone.
func (c *Clock) Zone() *time.Location {
	return c.zone
}

// Window returns the deletion window length.
func (c *Clock) Window() time.Duration {
	return c.window
}

// Track starts evaluating rec. Tracking the same id twice keeps the first timestamp.
func (c *Clock) Track(rec Record) {
	if _, ok := c.created[rec.ID]; ok {
		return
	}
	c.created[rec.ID] = rec.Created
	c.order = append(c.order, rec.ID)
}

// Untrack stops evaluating id.
func (c *Clock) Untrack(id string) {
	if _, ok := c.created[id]; !ok {
		return
	}
	delete(c.created, id)
	delete(c.expired, id)
	delete(c.reported, id)
	for i, tracked := range c.order {
		if tracked == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of tracked records.
func (c *Clock) Len() int {
	return len(c.order)
}

// State evaluates id at the current instant.
func (c *Clock) State(id string) (State, bool) {
	return c.StateAt(id, c.now())
}

// StateAt evaluates id at now.
func (c *Clock) StateAt(id string, now time.Time) (State, bool) {
	created, ok := c.created[id]
	if !ok {
		return State{}, false
	}

	st := Evaluate(now, c.zone, created, c.window)
	if st.Err != nil && !c.reported[id] {
		c.reported[id] = true
		c.log.Error().Err(st.Err).Str("transaction_id", id).Msg("Invalid created timestamp, treating as expired")
	}

	if c.expired[id] {
		st.Eligible = false
		st.Display = ExpiredDisplay
		st.Opacity = minOpacity
		return st, true
	}
	if !st.Eligible {
		c.expired[id] = true
	}
	return st, true
}

// Tick evaluates every tracked record at the current instant, in tracking order.
func (c *Clock) Tick() []Countdown {
	now := c.now()
	out := make([]Countdown, 0, len(c.order))
	for _, id := range c.order {
		st, _ := c.StateAt(id, now)
		out = append(out, Countdown{ID: id, State: st})
	}
	return out
}

// Run calls fn with a fresh Tick immediately and then on every interval until ctx
// is done. fn runs on the caller's goroutine, so it may use the Clock freely.
func (c *Clock) Run(ctx context.Context, every time.Duration, fn func([]Countdown)) error {
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	fn(c.Tick())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(c.Tick())
		}
	}
}
