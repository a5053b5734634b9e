// Package ui is the terminal dashboard.
package ui

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"pricewatch/internal/config"
	"pricewatch/internal/coordinator"
	"pricewatch/internal/view"
)

// Refetcher requests a new refresh cycle
type Refetcher interface {
	Refetch()
}

// Dashboard holds the widgets of the running application
type Dashboard struct {
	App       *tview.Application
	Grid      *tview.Grid
	MainTable *tview.Table
	Header    *tview.TextView
	Status    *tview.TextView
	Footer    *tview.TextView

	refetch  Refetcher
	theme    Theme
	settings config.Settings
	logger   *slog.Logger

	latest  atomic.Pointer[coordinator.ViewState]
	pending chan struct{}
}

// NewDashboard builds the widget tree. Nothing is drawn until Run.
func NewDashboard(refetch Refetcher, settings config.Settings, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dashboard{
		App:       tview.NewApplication(),
		MainTable: tview.NewTable(),
		Header:    tview.NewTextView(),
		Status:    tview.NewTextView(),
		Footer:    tview.NewTextView(),
		refetch:   refetch,
		theme:     ThemeFor(settings.Theme),
		settings:  settings,
		logger:    logger,
		pending:   make(chan struct{}, 1),
	}

	d.Header.SetTextAlign(tview.AlignCenter)
	d.Header.SetTextColor(d.theme.Accent)
	d.Header.SetBackgroundColor(d.theme.Background)

	d.Status.SetTextAlign(tview.AlignCenter)
	d.Status.SetBackgroundColor(d.theme.Background)

	d.Footer.SetTextColor(d.theme.Muted)
	d.Footer.SetBackgroundColor(d.theme.Background)
	d.Footer.SetText(d.footerText())

	d.MainTable.SetFixed(1, 0)
	d.MainTable.SetSelectable(true, false)
	d.MainTable.SetBackgroundColor(d.theme.Background)
	d.MainTable.SetBorder(true)
	d.MainTable.SetBorderColor(d.theme.Muted)
	d.MainTable.SetTitle(" Prices ")

	d.Grid = tview.NewGrid().
		SetRows(1, 1, 0, 1).
		SetColumns(0).
		AddItem(d.Header, 0, 0, 1, 1, 0, 0, false).
		AddItem(d.Status, 1, 0, 1, 1, 0, 0, false).
		AddItem(d.MainTable, 2, 0, 1, 1, 0, 0, true).
		AddItem(d.Footer, 3, 0, 1, 1, 0, 0, false)
	d.Grid.SetBackgroundColor(d.theme.Background)

	d.App.SetRoot(d.Grid, true).SetInputCapture(d.handleKey)

	return d
}

// Run blocks until the user quits or Stop is called
func (d *Dashboard) Run() error {
	done := make(chan struct{})
	defer close(done)
	go d.forwardUpdates(done)

	return d.App.Run()
}

// Stop ends Run
func (d *Dashboard) Stop() {
	d.App.Stop()
}

// Update records state as the one to draw next and returns immediately. It
// is safe to call from any goroutine, before Run, and after Run returned.
// Consecutive updates arriving faster than the screen redraws are coalesced.
func (d *Dashboard) Update(state coordinator.ViewState) {
	d.latest.Store(&state)
	select {
	case d.pending <- struct{}{}:
	default:
	}
}

// forwardUpdates hands recorded states to the tview loop until done is
// closed. QueueUpdateDraw waits for the loop, so it only ever runs here and
// never on a caller of Update. If the loop dies mid-handoff this goroutine
// stays parked; nothing waits for it.
func (d *Dashboard) forwardUpdates(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-d.pending:
			d.App.QueueUpdateDraw(func() {
				if state := d.latest.Load(); state != nil {
					d.render(*state)
				}
			})
		}
	}
}

func (d *Dashboard) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 'r', 'R':
		d.logger.Debug("manual refetch requested")
		// Refetch waits for room in the coordinator's event queue; keep
		// the tview loop free while it does.
		go d.refetch.Refetch()
		return nil
	case 'q', 'Q':
		d.App.Stop()
		return nil
	}
	return event
}

func (d *Dashboard) render(state coordinator.ViewState) {
	d.Header.SetText(view.Headline(state))

	d.Status.SetText(view.StatusLine(state))
	switch state.Status {
	case coordinator.StatusError:
		d.Status.SetTextColor(d.theme.Error)
	case coordinator.StatusLoading:
		d.Status.SetTextColor(d.theme.Muted)
	default:
		d.Status.SetTextColor(d.theme.Text)
	}

	d.renderTable(state)
}

func (d *Dashboard) renderTable(state coordinator.ViewState) {
	d.MainTable.Clear()

	for col, title := range []string{"Flag", "Country", "Currency", "Price"} {
		d.MainTable.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(d.theme.Accent).
			SetSelectable(false).
			SetExpansion(1))
	}

	for i, row := range view.Rows(state) {
		r := i + 1

		flag := tview.NewTableCell("□").SetTextColor(d.theme.Muted)
		if row.HasFlag {
			flag = tview.NewTableCell("■").SetTextColor(d.theme.Accent)
		}
		d.MainTable.SetCell(r, 0, flag)
		d.MainTable.SetCell(r, 1, tview.NewTableCell(row.Country).SetTextColor(d.theme.Text).SetExpansion(1))
		d.MainTable.SetCell(r, 2, tview.NewTableCell(row.Currency).SetTextColor(d.theme.Text).SetExpansion(1))
		d.MainTable.SetCell(r, 3, tview.NewTableCell(row.Price).
			SetTextColor(d.theme.Text).
			SetAlign(tview.AlignRight).
			SetExpansion(1))
	}
}

func (d *Dashboard) footerText() string {
	refresh := "auto refresh off"
	if d.settings.AutoRefreshEnabled {
		refresh = fmt.Sprintf("auto refresh every %s", d.settings.AutoRefreshInterval)
	}
	return fmt.Sprintf(" r: refetch  q: quit  |  %s  |  theme %s", refresh, d.settings.Theme)
}
