package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Page.
type Options struct {
	// Now is the time source; nil means time.Now.
	Now func() time.Time
	// Zone is the canonical timezone for countdowns and the wall clock.
	Zone *time.Location
	// Window is the deletion window; zero means DefaultWindow.
	Window time.Duration

	Deleter  Deleter
	Tokens   TokenSource
	Notifier Notifier
	Log      zerolog.Logger
}

// Page is the dashboard controller. It owns the registry and hands read-only
// snapshots to the clock, the report and the detail overlay.
// A Page is not safe for concurrent use.
type Page struct {
	registry *Registry
	clock    *Clock
	detail   *Detail
	workflow *Workflow
	notifier Notifier
	log      zerolog.Logger

	skipped int
}

// NewPage decodes the row blobs and starts tracking every decoded record.
// Blobs that fail to decode are logged and skipped.
func NewPage(blobs [][]byte, opts Options) *Page {
	records := make([]Record, 0, len(blobs))
	skipped := 0
	for i, blob := range blobs {
		rec, err := DecodeRecord(blob)
		if err != nil {
			skipped++
			opts.Log.Warn().Err(err).Int("row", i).Msg("Skipping malformed row")
			continue
		}
		records = append(records, rec)
	}

	registry := NewRegistry(records)
	clock := NewClock(opts.Now, opts.Zone, opts.Window, opts.Log)
	for _, rec := range registry.All() {
		clock.Track(rec)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFuncs{}
	}

	return &Page{
		registry: registry,
		clock:    clock,
		detail:   &Detail{},
		workflow: NewWorkflow(registry, clock, opts.Deleter, opts.Tokens, notifier, opts.Log),
		notifier: notifier,
		log:      opts.Log,
		skipped:  skipped,
	}
}

// Registry returns the page's registry.
func (p *Page) Registry() *Registry { return p.registry }

// Clock returns the page's eligibility clock.
func (p *Page) Clock() *Clock { return p.clock }

// Detail returns the detail overlay.
func (p *Page) Detail() *Detail { return p.detail }

// Workflow returns the deletion workflow.
func (p *Page) Workflow() *Workflow { return p.workflow }

// Skipped returns how many rows failed to decode at load.
func (p *Page) Skipped() int { return p.skipped }

// SetNameFilter applies a name filter.
func (p *Page) SetNameFilter(s string) {
	p.registry.SetNameFilter(s)
}

// SetMonthFilter applies a YYYY-MM month filter, or clears it for "".
func (p *Page) SetMonthFilter(s string) error {
	if err := p.registry.SetMonthFilter(s); err != nil {
		p.log.Warn().Err(err).Msg("Ignoring month filter")
		return err
	}
	return nil
}

// Tick evaluates every tracked record now.
func (p *Page) Tick() []Countdown {
	return p.clock.Tick()
}

// WallClock renders the header clock.
func (p *Page) WallClock() string {
	return WallClock(p.clock.Now(), p.clock.Zone())
}

// ShowDetail opens the detail overlay for id.
func (p *Page) ShowDetail(id string) error {
	rec, ok := p.registry.Get(id)
	if !ok {
		return fmt.Errorf("ShowDetail: %w: %s", ErrNotFound, id)
	}
	p.detail.Show(rec)
	return nil
}

// ReportInput returns the visible records in display order and the active month filter.
func (p *Page) ReportInput() ([]Record, *YearMonth) {
	visible := p.registry.Visible()
	if ym, ok := p.registry.MonthFilter(); ok {
		return visible, &ym
	}
	return visible, nil
}

// NotifyError surfaces err as an error notice. Known conditions get their
// dedicated texts.
func (p *Page) NotifyError(err error) {
	msg := err.Error()
	var overdraft *OverdraftError
	switch {
	case errors.As(err, &overdraft):
		msg = overdraft.Error()
	case errors.Is(err, ErrEmptyEntry):
		msg = MsgEmptyEntry
	case errors.Is(err, ErrExpired):
		msg = MsgDeleteExpired
	}
	p.notifier.Notify(Notice{Kind: NoticeError, Message: msg})
}
