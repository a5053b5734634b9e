package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"pricewatch/internal/catalog"
	"pricewatch/internal/ratelimit"
	"pricewatch/internal/resource"
)

// PriceSource fetches the reference price and the per-currency quotes in one request
type PriceSource interface {
	Fetch(ctx context.Context, currencies []string) (float64, map[string]float64, error)
}

// ResourceFetcher downloads a batch of resources and never fails as a whole
type ResourceFetcher interface {
	FetchBatch(ctx context.Context, items []resource.Item) map[string][]byte
}

// Listener receives every published state. It is called from the
// coordinator's event loop and must not block.
type Listener func(ViewState)

type triggerEvent struct {
	source ratelimit.Trigger
}

type priceEvent struct {
	cycle  uint64
	usd    float64
	quotes map[string]float64
	err    error
}

type resourceEvent struct {
	cycle     uint64
	resources map[string][]byte
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger used for cycle diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithLimiter throttles triggers before they start a cycle
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(c *Coordinator) { c.limiter = limiter }
}

// WithListener registers a function called with each new state
func WithListener(l Listener) Option {
	return func(c *Coordinator) { c.listeners = append(c.listeners, l) }
}

// WithSkipOverlappingTicks makes timer ticks that arrive while a cycle is
// still loading do nothing, instead of superseding that cycle
func WithSkipOverlappingTicks(skip bool) Option {
	return func(c *Coordinator) { c.skipOverlappingTicks = skip }
}

// WithClock overrides the time source used for ViewState.UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator owns the view state. It starts a price fetch and a resource
// batch for every cycle and folds their completions into one state from a
// single event loop.
type Coordinator struct {
	prices    PriceSource
	resources ResourceFetcher
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	listeners []Listener
	now       func() time.Time

	skipOverlappingTicks bool

	currencies []string
	items      []resource.Item

	machine *machine
	current atomic.Pointer[ViewState]
	events  chan any
	done    chan struct{}
	running atomic.Bool
	workers conc.WaitGroup
}

// New creates a new Coordinator for the given catalog
func New(cat catalog.Catalog, prices PriceSource, resources ResourceFetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		prices:    prices,
		resources: resources,
		logger:    slog.Default(),
		now:       time.Now,
		events:    make(chan any, 16),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.currencies = cat.Currencies()
	c.items = lo.Map(cat, func(e catalog.CountryEntry, _ int) resource.Item {
		return resource.Item{Key: e.ResourceKey, URL: e.ResourceURL}
	})
	c.machine = newMachine(cat, c.now)

	initial := c.machine.snapshot()
	c.current.Store(&initial)

	return c
}

// Run starts the first cycle and then processes triggers and completions
// until ctx is cancelled. It returns ctx.Err() after waiting for in-flight
// fetches to observe the cancellation. Run may only be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("coordinator is already running")
	}
	defer func() {
		close(c.done)
		c.workers.Wait()
	}()

	c.startCycle(ctx, ratelimit.TriggerBoot)

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("coordinator stopping", "cycle", c.machine.cycle)
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

// Refetch requests a new cycle on behalf of the user
func (c *Coordinator) Refetch() {
	c.send(triggerEvent{source: ratelimit.TriggerManual})
}

// Tick requests a new cycle on behalf of the auto-refresh timer
func (c *Coordinator) Tick() {
	c.send(triggerEvent{source: ratelimit.TriggerTimer})
}

// Snapshot returns the most recently published state
func (c *Coordinator) Snapshot() ViewState {
	return *c.current.Load()
}

// send queues an event for the loop, giving up once the loop has stopped
func (c *Coordinator) send(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Coordinator) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case triggerEvent:
		if !c.limiter.Allow(ev.source) {
			c.logger.Debug("refresh trigger throttled", "trigger", ev.source)
			return
		}
		if ev.source == ratelimit.TriggerTimer && c.skipOverlappingTicks && c.machine.loading() {
			c.logger.Debug("skipping tick while cycle is loading", "cycle", c.machine.cycle)
			return
		}
		c.startCycle(ctx, ev.source)

	case priceEvent:
		if !c.machine.applyPrice(ev) {
			c.logger.Debug("discarding stale price result", "cycle", ev.cycle, "current_cycle", c.machine.cycle)
			return
		}
		if ev.err != nil {
			c.logger.Error("price fetch failed", "cycle", ev.cycle, "error", ev.err)
		}
		c.publish()

	case resourceEvent:
		if !c.machine.applyResources(ev) {
			c.logger.Debug("discarding stale resource batch", "cycle", ev.cycle, "current_cycle", c.machine.cycle)
			return
		}
		c.publish()
	}
}

// startCycle resets the state for a new cycle and launches both fetches
func (c *Coordinator) startCycle(ctx context.Context, source ratelimit.Trigger) {
	cycle := c.machine.trigger()
	c.logger.Info("starting refresh cycle", "cycle", cycle, "trigger", source)
	c.publish()

	c.workers.Go(func() {
		usd, quotes, err := c.fetchPrices(ctx)
		c.send(priceEvent{cycle: cycle, usd: usd, quotes: quotes, err: err})
	})

	c.workers.Go(func() {
		c.send(resourceEvent{cycle: cycle, resources: c.resources.FetchBatch(ctx, c.items)})
	})
}

// fetchPrices calls the price source, reporting a panic as an ordinary error
// so the cycle still settles
func (c *Coordinator) fetchPrices(ctx context.Context) (usd float64, quotes map[string]float64, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		usd, quotes, err = c.prices.Fetch(ctx, c.currencies)
	})
	if r := pc.Recovered(); r != nil {
		return 0, nil, fmt.Errorf("price source panicked: %w", r.AsError())
	}
	return usd, quotes, err
}

// publish makes the machine's current state visible to readers and listeners
func (c *Coordinator) publish() {
	snapshot := c.machine.snapshot()
	c.current.Store(&snapshot)

	for _, l := range c.listeners {
		l(snapshot)
	}
}
