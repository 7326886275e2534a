package measure

import (
	"sort"
	"sync"
	"time"
)

// DefaultMeasure is a Measure safe for concurrent use.
type DefaultMeasure struct {
	mu    sync.RWMutex
	steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		steps: make(map[string]Metric),
	}
}

// AddMetric registers a metric for the step name, replacing any previous one.
func (m *DefaultMeasure) AddMetric(name string, concurrent int) Metric {
	if concurrent < 1 {
		concurrent = 1
	}
	mt := &DefaultMetric{
		allTransports: make(map[string]*TransportInfo),
		concurrent:    concurrent,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[name] = mt

	return mt
}

// GetMetric returns nil for an unknown step.
func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.steps[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Metric, len(m.steps))
	for name, mt := range m.steps {
		out[name] = mt
	}

	return out
}

// StepSummary is a snapshot of a step metric.
type StepSummary struct {
	Name      string
	Count     int64
	Average   time.Duration
	Total     time.Duration
	Transport map[string]time.Duration
}

// Summarize returns a snapshot of every metric of m, sorted by step name.
func Summarize(m Measure) []StepSummary {
	all := m.AllMetrics()
	out := make([]StepSummary, 0, len(all))
	for name, mt := range all {
		out = append(out, StepSummary{
			Name:      name,
			Count:     mt.Count(),
			Average:   mt.AVGDuration(),
			Total:     mt.GetTotalDuration(),
			Transport: mt.AVGTransportDuration(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}

var _ Measure = (*DefaultMeasure)(nil)
