// Package monitor renders a terminal dashboard for a running reactor
// by polling its control-plane /stats endpoint (internal/control).
// New relative to the teacher, added to give gizak/termui/v3 — present
// in the teacher's go.mod but unexercised by any retrieved file — a
// concrete home (SPEC_FULL §2.4/§3).
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// Snapshot mirrors internal/control's statsDTO wire shape. Duplicated
// rather than imported so this package never needs to depend on
// internal/control's HTTP plumbing, only its JSON contract.
type Snapshot struct {
	Selectables  int    `json:"selectables"`
	TimerTasks   int    `json:"timer_tasks"`
	QueueLength  int    `json:"queue_length"`
	LastEvent    string `json:"last_event"`
	YieldPending bool   `json:"yield_pending"`
}

// Fetcher retrieves one stats snapshot from a control server.
type Fetcher struct {
	client  *http.Client
	statsURL string
}

// NewFetcher builds a Fetcher that polls statsURL (the control
// server's "http://host:port/stats" endpoint).
func NewFetcher(statsURL string) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: 2 * time.Second}, statsURL: statsURL}
}

// Fetch retrieves and decodes one snapshot.
func (f *Fetcher) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.statsURL, nil)
	if err != nil {
		return Snapshot{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Dashboard is a termui terminal view of a reactor's live stats.
type Dashboard struct {
	fetcher  *Fetcher
	interval time.Duration

	header     *widgets.Paragraph
	queueGauge *widgets.Gauge
	info       *widgets.List
}

// NewDashboard builds a Dashboard polling fetcher every interval.
func NewDashboard(fetcher *Fetcher, interval time.Duration) *Dashboard {
	header := widgets.NewParagraph()
	header.Title = "go-reactor monitor"
	header.SetRect(0, 0, 60, 3)

	gauge := widgets.NewGauge()
	gauge.Title = "queue length (capped display at 100)"
	gauge.SetRect(0, 3, 60, 6)

	info := widgets.NewList()
	info.Title = "reactor state"
	info.SetRect(0, 6, 60, 12)

	return &Dashboard{
		fetcher:    fetcher,
		interval:   interval,
		header:     header,
		queueGauge: gauge,
		info:       info,
	}
}

// Run initializes the terminal UI and polls until ctx is cancelled or
// the user presses q/Ctrl-C. Grounded on termui's own documented
// Init/PollEvents/Render event loop — no retrieved example in this
// corpus exercises the library (see DESIGN.md), so this loop follows
// the widget package's public API directly rather than an in-pack
// pattern.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("monitor: init terminal ui: %w", err)
	}
	defer ui.Close()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	d.render(Snapshot{LastEvent: "waiting for first sample"})

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			}
		case <-ticker.C:
			snap, err := d.fetcher.Fetch(ctx)
			if err != nil {
				d.header.Text = fmt.Sprintf("error: %v", err)
				ui.Render(d.header)
				continue
			}
			d.render(snap)
		}
	}
}

func (d *Dashboard) render(snap Snapshot) {
	d.header.Text = fmt.Sprintf("last event: %s\nyield pending: %v", snap.LastEvent, snap.YieldPending)

	pct := snap.QueueLength
	if pct > 100 {
		pct = 100
	}
	d.queueGauge.Percent = pct

	d.info.Rows = []string{
		fmt.Sprintf("selectables: %d", snap.Selectables),
		fmt.Sprintf("timer tasks: %d", snap.TimerTasks),
		fmt.Sprintf("queue length: %d", snap.QueueLength),
	}

	ui.Render(d.header, d.queueGauge, d.info)
}
