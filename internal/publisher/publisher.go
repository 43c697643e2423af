// Package publisher holds the latest multiplexer measurement for the
// query API. The watcher goroutine is the only writer; any number of
// HTTP handlers read concurrently.
package publisher

import (
	"sync"

	"github.com/warwick-one-metre/rg11d/internal/measurement"
)

type Publisher struct {
	mu     sync.RWMutex
	latest measurement.Measurement
	valid  bool
}

func New() *Publisher {
	return &Publisher{}
}

// Update replaces the slot with m. Last value wins; there is no history.
func (p *Publisher) Update(m measurement.Measurement) {
	p.mu.Lock()
	p.latest = m
	p.valid = true
	p.mu.Unlock()
}

// Latest returns the current measurement and whether one is present.
// A cleared or never-written slot reports false.
func (p *Publisher) Latest() (measurement.Measurement, bool) {
	p.mu.RLock()
	m, ok := p.latest, p.valid
	p.mu.RUnlock()
	return m, ok
}

// Clear resets the slot to the no-data state. Called on every reconnect
// so readings from a previous session are never attributed to a new one.
func (p *Publisher) Clear() {
	p.mu.Lock()
	p.latest = measurement.Measurement{}
	p.valid = false
	p.mu.Unlock()
}
