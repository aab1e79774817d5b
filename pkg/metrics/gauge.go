package metrics

import "sync/atomic"

// Gauge holds the latest value of a level, such as the number of open drag
// sessions.
type Gauge struct {
	name  string
	value atomic.Int64
	peak  atomic.Int64
}

func newGauge(name string) *Gauge {
	return &Gauge{name: name}
}

// Set stores v.
func (g *Gauge) Set(v int64) {
	g.value.Store(v)
	g.raisePeak(v)
}

// Add adjusts the value by delta.
func (g *Gauge) Add(delta int64) {
	g.raisePeak(g.value.Add(delta))
}

func (g *Gauge) raisePeak(v int64) {
	for {
		old := g.peak.Load()
		if v <= old || g.peak.CompareAndSwap(old, v) {
			break
		}
	}
}

// Load returns the current value.
func (g *Gauge) Load() int64 { return g.value.Load() }

// Peak returns the highest value seen since the last reset.
func (g *Gauge) Peak() int64 { return g.peak.Load() }

// Name returns the gauge name.
func (g *Gauge) Name() string { return g.name }

// GaugeStats is a snapshot of a Gauge.
type GaugeStats struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Peak  int64  `json:"peak"`
}

// Stats snapshots the gauge.
func (g *Gauge) Stats() GaugeStats {
	return GaugeStats{Name: g.name, Value: g.Load(), Peak: g.Peak()}
}

func (g *Gauge) reset() {
	g.value.Store(0)
	g.peak.Store(0)
}

// DragSessions counts open drag sessions across all registries.
var DragSessions = newGauge("drag_sessions")

// AllGauges returns every registered gauge.
func AllGauges() []*Gauge {
	return []*Gauge{DragSessions}
}
