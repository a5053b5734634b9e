package coordinator

import (
	"maps"
	"time"

	"github.com/samber/lo"

	"pricewatch/internal/catalog"
)

// Status is the coarse state of the current refresh cycle
type Status int

const (
	// StatusLoading means the current cycle has not yet incorporated both its price and resource results
	StatusLoading Status = iota
	// StatusReady means the current cycle settled with fresh prices
	StatusReady
	// StatusError means the current cycle settled with a failed price fetch
	StatusError
)

// String returns a human-readable status name
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Quote pairs a catalog entry with its latest price. A zero price means unknown.
type Quote struct {
	Entry catalog.CountryEntry
	Price float64
}

// ViewState is everything the presentation layer renders. Values handed out
// by the coordinator are snapshots and must be treated as read-only.
type ViewState struct {
	PriceUSD  float64
	Quotes    []Quote
	Resources map[string][]byte
	Status    Status
	// Message is the error shown when Status is StatusError
	Message string
	// Cycle identifies the refresh cycle this state belongs to
	Cycle uint64
	// UpdatedAt is when prices were last successfully incorporated
	UpdatedAt time.Time
}

// machine is the single-owner reducer behind the coordinator. It is not safe
// for concurrent use; the coordinator only touches it from its event loop.
type machine struct {
	catalog catalog.Catalog
	now     func() time.Time

	state ViewState
	cycle uint64

	priceDone     bool
	resourcesDone bool
	priceErr      error
}

func newMachine(cat catalog.Catalog, now func() time.Time) *machine {
	return &machine{
		catalog: cat,
		now:     now,
		state: ViewState{
			Quotes:    buildQuotes(cat, nil),
			Resources: make(map[string][]byte),
			Status:    StatusLoading,
		},
	}
}

// trigger starts a new cycle and returns its id. Any outstanding results of
// earlier cycles become stale.
func (m *machine) trigger() uint64 {
	m.cycle++
	m.priceDone = false
	m.resourcesDone = false
	m.priceErr = nil

	m.state.Cycle = m.cycle
	m.state.Status = StatusLoading
	m.state.Message = ""
	m.state.Resources = make(map[string][]byte)

	return m.cycle
}

// loading reports whether the current cycle is still in flight
func (m *machine) loading() bool {
	return m.state.Status == StatusLoading
}

// applyPrice incorporates a price result. It returns false when the result
// is stale or a duplicate and was discarded.
func (m *machine) applyPrice(ev priceEvent) bool {
	if ev.cycle != m.cycle || m.priceDone {
		return false
	}
	m.priceDone = true

	if ev.err != nil {
		// Previous quotes stay visible underneath the error.
		m.priceErr = ev.err
	} else {
		m.state.PriceUSD = ev.usd
		m.state.Quotes = buildQuotes(m.catalog, ev.quotes)
		m.state.UpdatedAt = m.now()
	}

	m.settle()
	return true
}

// applyResources merges a resource batch into the current cycle. It returns
// false when the batch is stale or a duplicate and was discarded.
func (m *machine) applyResources(ev resourceEvent) bool {
	if ev.cycle != m.cycle || m.resourcesDone {
		return false
	}
	m.resourcesDone = true

	for key, data := range ev.resources {
		m.state.Resources[key] = data
	}

	m.settle()
	return true
}

// settle leaves Loading once both halves of the current cycle are in
func (m *machine) settle() {
	if !m.priceDone || !m.resourcesDone {
		return
	}

	if m.priceErr != nil {
		m.state.Status = StatusError
		m.state.Message = "failed to fetch prices: " + m.priceErr.Error()
		return
	}

	m.state.Status = StatusReady
	m.state.Message = ""
}

// snapshot returns a copy that stays valid while the machine keeps mutating.
// Quotes is replaced wholesale on every update, so sharing the slice is safe.
func (m *machine) snapshot() ViewState {
	s := m.state
	s.Resources = maps.Clone(m.state.Resources)
	return s
}

// buildQuotes walks the full catalog, so the result always has one quote per entry
func buildQuotes(cat catalog.Catalog, prices map[string]float64) []Quote {
	return lo.Map(cat, func(e catalog.CountryEntry, _ int) Quote {
		return Quote{Entry: e, Price: prices[e.Currency]}
	})
}
