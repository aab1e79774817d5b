package metrics

import (
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("count = %d, want 2", s.Count)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 {
		t.Errorf("stats = %+v", s)
	}

	m.Reset()
	if m.Count() != 0 || m.Stats().MaxMs != 0 {
		t.Errorf("reset left samples: %+v", m.Stats())
	}
}

func TestTimerDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	if m.Count() != 0 {
		t.Errorf("disabled timer recorded %d samples", m.Count())
	}
}

func TestGauge(t *testing.T) {
	g := newGauge("g")
	g.Add(1)
	g.Add(1)
	g.Add(-1)
	if g.Load() != 1 {
		t.Errorf("value = %d, want 1", g.Load())
	}
	if g.Peak() != 2 {
		t.Errorf("peak = %d, want 2", g.Peak())
	}
	g.Set(5)
	if s := g.Stats(); s.Value != 5 || s.Peak != 5 {
		t.Errorf("stats = %+v", s)
	}
	g.reset()
	if g.Load() != 0 || g.Peak() != 0 {
		t.Error("reset did not clear gauge")
	}
}
