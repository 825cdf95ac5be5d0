package observability

import (
	"fmt"
	"time"
)

// Metrics summarizes inventory builds recorded in the event log.
type Metrics struct {
	Builds          int            `json:"builds" yaml:"builds"`
	BuildFailures   int            `json:"build_failures" yaml:"build_failures"`
	BuildsByRoot    map[string]int `json:"builds_by_root" yaml:"builds_by_root"`
	LastSubtasks    int            `json:"last_subtask_count" yaml:"last_subtask_count"`
	AvgBuildMillis  float64        `json:"avg_build_ms" yaml:"avg_build_ms"`
	MaxBuildMillis  int64          `json:"max_build_ms" yaml:"max_build_ms"`
	LastBuildFailed bool           `json:"last_build_failed" yaml:"last_build_failed"`
	LastError       string         `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	EventCount      int            `json:"event_count" yaml:"event_count"`
	OldestEvent     *time.Time     `json:"oldest_event,omitempty" yaml:"oldest_event,omitempty"`
	NewestEvent     *time.Time     `json:"newest_event,omitempty" yaml:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event at or after since.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		BuildsByRoot: make(map[string]int),
		EventCount:   len(events),
	}

	var totalMillis int64
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case EventInventoryBuilt:
			m.Builds++
			m.BuildsByRoot[event.Root()]++
			m.LastSubtasks = intField(event.Data, "count")
			ms := int64(intField(event.Data, "duration_ms"))
			totalMillis += ms
			if ms > m.MaxBuildMillis {
				m.MaxBuildMillis = ms
			}
			m.LastBuildFailed = false
			m.LastError = ""
		case EventInventoryBuildFailed:
			m.BuildFailures++
			m.LastBuildFailed = true
			m.LastError, _ = event.Data["error"].(string)
		}
	}

	if m.Builds > 0 {
		m.AvgBuildMillis = float64(totalMillis) / float64(m.Builds)
	}
	return m, nil
}

// intField reads a numeric field from decoded JSON data, where numbers
// arrive as float64, or from in-memory data holding ints.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
