package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert is a triggered inventory health condition.
type Alert struct {
	ID          string        `json:"id" yaml:"id"`
	Root        string        `json:"root" yaml:"root"`
	Condition   string        `json:"condition" yaml:"condition"`
	Severity    AlertSeverity `json:"severity" yaml:"severity"`
	Message     string        `json:"message" yaml:"message"`
	TriggeredAt time.Time     `json:"triggered_at" yaml:"triggered_at"`
}

// AlertThresholds configures when alerts fire. A zero threshold disables
// its check.
type AlertThresholds struct {
	// FailureStreak fires when a root's most recent builds all failed.
	FailureStreak int `yaml:"failure_streak" mapstructure:"failure_streak" json:"failure_streak"`
	// StaleHours fires when a root has not built successfully for this long.
	StaleHours int `yaml:"stale_hours" mapstructure:"stale_hours" json:"stale_hours"`
	// SlowBuildMillis fires when the latest build of a root took longer.
	SlowBuildMillis int64 `yaml:"slow_build_ms" mapstructure:"slow_build_ms" json:"slow_build_ms"`
}

// DefaultAlertThresholds returns the thresholds used when none are configured.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		FailureStreak:   1,
		StaleHours:      24 * 7,
		SlowBuildMillis: 5000,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine over eventLog.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// rootHistory is the build history of one inventory root.
type rootHistory struct {
	streak      int // consecutive failures at the end of the log
	lastSuccess time.Time
	lastMillis  int64
	lastError   string
}

// Evaluate checks every root seen in the log. Alerts are ordered by root
// then by condition.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}

	histories := make(map[string]*rootHistory)
	for _, event := range events {
		if event.Type != EventInventoryBuilt && event.Type != EventInventoryBuildFailed {
			continue
		}
		h := histories[event.Root()]
		if h == nil {
			h = &rootHistory{}
			histories[event.Root()] = h
		}
		if event.Type == EventInventoryBuildFailed {
			h.streak++
			h.lastError, _ = event.Data["error"].(string)
			continue
		}
		h.streak = 0
		h.lastSuccess = event.Time
		h.lastMillis = int64(intField(event.Data, "duration_ms"))
	}

	roots := make([]string, 0, len(histories))
	for root := range histories {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	now := ae.now()
	var alerts []Alert
	for _, root := range roots {
		alerts = append(alerts, ae.checkRoot(root, histories[root], now)...)
	}
	return alerts, nil
}

func (ae *alertEngine) checkRoot(root string, h *rootHistory, now time.Time) []Alert {
	var alerts []Alert

	if n := ae.thresholds.FailureStreak; n > 0 && h.streak >= n {
		alerts = append(alerts, Alert{
			ID:          "build-failing-" + root,
			Root:        root,
			Condition:   "build_failing",
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("inventory %s failed its last %d build(s): %s", root, h.streak, h.lastError),
			TriggeredAt: now,
		})
	}

	if hours := ae.thresholds.StaleHours; hours > 0 && !h.lastSuccess.IsZero() {
		if now.Sub(h.lastSuccess) > time.Duration(hours)*time.Hour {
			alerts = append(alerts, Alert{
				ID:          "build-stale-" + root,
				Root:        root,
				Condition:   "build_stale",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("inventory %s has not built successfully for more than %d hours", root, hours),
				TriggeredAt: now,
			})
		}
	}

	if limit := ae.thresholds.SlowBuildMillis; limit > 0 && h.streak == 0 && h.lastMillis > limit {
		alerts = append(alerts, Alert{
			ID:          "build-slow-" + root,
			Root:        root,
			Condition:   "build_slow",
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("inventory %s took %dms to build, over the %dms limit", root, h.lastMillis, limit),
			TriggeredAt: now,
		})
	}

	return alerts
}
