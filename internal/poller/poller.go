// Package poller runs the periodic refresh cycle: resolve configured
// calendars, query each for holiday events in its two-day window, and push
// the resulting node states to the ISY.
package poller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firstone/holidays-google-poly/internal/gcal"
	xlog "github.com/firstone/holidays-google-poly/internal/log"
	"github.com/firstone/holidays-google-poly/internal/metrics"
	"github.com/firstone/holidays-google-poly/internal/nodes"
)

// maxParallelCalendars bounds concurrent Google API queries in one cycle.
const maxParallelCalendars = 4

// Status is the result of the most recent refresh cycle.
type Status struct {
	LastRun   time.Time `json:"last_run"`
	Calendars int       `json:"calendars"`
	Holidays  int       `json:"holidays"`
	Errors    []string  `json:"errors,omitempty"`
}

// Poller drives refresh cycles at a fixed interval. A cycle failure is
// recorded and logged but never stops the loop.
type Poller struct {
	api      gcal.API
	nodes    *nodes.Manager
	interval time.Duration
	clock    func() time.Time

	kick chan struct{}

	mu        sync.Mutex
	calendars []string
	resolved  map[string]gcal.Calendar
	dirty     bool
	status    Status
}

// New creates a poller over the given calendar API and node manager.
func New(api gcal.API, mgr *nodes.Manager, calendars []string, interval time.Duration) *Poller {
	return &Poller{
		api:       api,
		nodes:     mgr,
		interval:  interval,
		clock:     time.Now,
		kick:      make(chan struct{}, 1),
		calendars: append([]string(nil), calendars...),
		dirty:     true,
	}
}

// Run blocks until ctx is cancelled, refreshing immediately and then on
// every tick or manual kick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.cycle(ctx)
		case <-p.kick:
			p.cycle(ctx)
		}
	}
}

// Refresh requests an immediate cycle. Non-blocking; coalesces with a
// pending request.
func (p *Poller) Refresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// SetCalendars replaces the configured calendar list (config reload) and
// schedules a cycle with a fresh calendar-list resolution.
func (p *Poller) SetCalendars(calendars []string) {
	p.mu.Lock()
	p.calendars = append([]string(nil), calendars...)
	p.dirty = true
	p.mu.Unlock()
	p.Refresh()
}

// Status returns the result of the most recent cycle.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	s.Errors = append([]string(nil), p.status.Errors...)
	return s
}

// Available returns the calendar names discovered on the account during the
// last resolution, sorted.
func (p *Poller) Available() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.resolved))
	for _, cal := range p.resolved {
		out = append(out, cal.Summary)
	}
	sort.Strings(out)
	return out
}

func (p *Poller) cycle(ctx context.Context) {
	logger := xlog.WithComponent("poller")
	start := p.clock()

	p.mu.Lock()
	names := append([]string(nil), p.calendars...)
	needResolve := p.dirty || p.resolved == nil
	resolved := p.resolved
	p.mu.Unlock()

	var errs []string
	if needResolve {
		fresh, err := p.api.Calendars(ctx)
		if err != nil {
			metrics.IncGoogleError()
			logger.Error().Err(err).Str("event", "refresh.resolve_failed").
				Msg("error refreshing calendars")
			p.finish(start, names, 0, []string{err.Error()}, "failure")
			return
		}
		resolved = fresh
		if err := p.nodes.Sync(ctx, names); err != nil {
			metrics.IncISYError()
			logger.Error().Err(err).Str("event", "refresh.sync_failed").
				Msg("error syncing nodes")
			p.finish(start, names, 0, []string{err.Error()}, "failure")
			return
		}
		p.mu.Lock()
		p.resolved = resolved
		p.dirty = false
		p.mu.Unlock()
	}

	var (
		resMu    sync.Mutex
		holidays int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCalendars)
	for _, pair := range p.nodes.Pairs() {
		pair := pair
		g.Go(func() error {
			if err := p.refreshPair(gctx, pair, resolved, &holidays, &resMu); err != nil {
				resMu.Lock()
				errs = append(errs, err.Error())
				resMu.Unlock()
				logger.Error().Err(err).Str("event", "refresh.calendar_failed").
					Str("calendar", pair.Calendar).Msg("error refreshing calendar")
			}
			return nil
		})
	}
	_ = g.Wait()

	outcome := "success"
	if len(errs) > 0 {
		outcome = "partial"
	}
	p.finish(start, names, holidays, errs, outcome)

	logger.Debug().Str("event", "refresh.done").
		Int("calendars", len(names)).
		Int("holidays", holidays).
		Int("errors", len(errs)).
		Msg("refresh cycle complete")
}

// refreshPair refreshes one calendar's today/tomorrow nodes.
func (p *Poller) refreshPair(ctx context.Context, pair *nodes.Pair, resolved map[string]gcal.Calendar, holidays *int, resMu *sync.Mutex) error {
	cal, ok := resolved[gcal.NormalizeName(pair.Calendar)]
	if !ok {
		return fmt.Errorf("cannot find configured calendar name %q", pair.Calendar)
	}

	w, err := gcal.DayWindow(p.clock(), cal.TimeZone)
	if err != nil {
		return err
	}
	if err := pair.Today.SetDate(ctx, w.Today); err != nil {
		metrics.IncISYError()
		return err
	}
	if err := pair.Tomorrow.SetDate(ctx, w.Tomorrow); err != nil {
		metrics.IncISYError()
		return err
	}

	events, err := p.api.Events(ctx, cal.ID, w.Today, w.End)
	if err != nil {
		metrics.IncGoogleError()
		return err
	}
	for _, ev := range events {
		if !gcal.IsHoliday(ev) {
			continue
		}
		if gcal.StartsOn(ev, w.Today) {
			pair.Today.MarkHoliday()
		} else {
			pair.Tomorrow.MarkHoliday()
		}
	}

	todayState, err := pair.Today.Flush(ctx)
	if err != nil {
		metrics.IncISYError()
		return err
	}
	metrics.SetHolidayState(pair.Calendar, "today", todayState)

	tomorrowState, err := pair.Tomorrow.Flush(ctx)
	if err != nil {
		metrics.IncISYError()
		return err
	}
	metrics.SetHolidayState(pair.Calendar, "tomorrow", tomorrowState)

	resMu.Lock()
	if todayState {
		*holidays++
	}
	if tomorrowState {
		*holidays++
	}
	resMu.Unlock()
	return nil
}

func (p *Poller) finish(start time.Time, names []string, holidays int, errs []string, outcome string) {
	metrics.ObserveRefresh(outcome, p.clock().Sub(start).Seconds())
	p.mu.Lock()
	p.status = Status{
		LastRun:   start,
		Calendars: len(names),
		Holidays:  holidays,
		Errors:    errs,
	}
	p.mu.Unlock()
}
