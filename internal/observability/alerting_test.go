package observability

import (
	"testing"
	"time"
)

func newTestEngine(log EventLog, thresholds AlertThresholds, now time.Time) AlertEngine {
	return &alertEngine{
		eventLog:   log,
		thresholds: thresholds,
		now:        func() time.Time { return now },
	}
}

func conditions(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Condition
	}
	return out
}

func TestAlertEngine_NoEvents(t *testing.T) {
	alerts, err := NewAlertEngine(newTestLog(t), DefaultAlertThresholds()).Evaluate()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %v", alerts)
	}
}

func TestAlertEngine_BuildFailing(t *testing.T) {
	log := newTestLog(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		built(now.Add(-2*time.Hour), "/etl", 5, 10),
		failed(now.Add(-time.Hour), "/etl", "incorrect folder structure"),
		failed(now.Add(-30*time.Minute), "/etl", "incorrect folder structure"),
	)

	alerts, err := newTestEngine(log, AlertThresholds{FailureStreak: 2}, now).Evaluate()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %v", conditions(alerts))
	}
	a := alerts[0]
	if a.Condition != "build_failing" || a.Severity != SeverityHigh || a.ID != "build-failing-/etl" || a.Root != "/etl" {
		t.Errorf("unexpected alert %+v", a)
	}

	alerts, _ = newTestEngine(log, AlertThresholds{FailureStreak: 3}, now).Evaluate()
	if len(alerts) != 0 {
		t.Errorf("streak of 2 should not trip a threshold of 3, got %v", conditions(alerts))
	}
}

func TestAlertEngine_RecoveryClearsFailure(t *testing.T) {
	log := newTestLog(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		failed(now.Add(-time.Hour), "/etl", "boom"),
		built(now.Add(-time.Minute), "/etl", 5, 10),
	)

	alerts, err := newTestEngine(log, DefaultAlertThresholds(), now).Evaluate()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts after recovery, got %v", conditions(alerts))
	}
}

func TestAlertEngine_Stale(t *testing.T) {
	log := newTestLog(t)
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	writeEvents(t, log, built(now.Add(-72*time.Hour), "/etl", 5, 10))

	alerts, err := newTestEngine(log, AlertThresholds{StaleHours: 48}, now).Evaluate()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Condition != "build_stale" || alerts[0].Severity != SeverityMedium {
		t.Errorf("alerts = %v", conditions(alerts))
	}
}

func TestAlertEngine_SlowBuild(t *testing.T) {
	log := newTestLog(t)
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		built(now.Add(-time.Minute), "/fast", 5, 100),
		built(now.Add(-time.Minute), "/slow", 5, 9000),
	)

	alerts, err := newTestEngine(log, AlertThresholds{SlowBuildMillis: 5000}, now).Evaluate()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != "build-slow-/slow" || alerts[0].Severity != SeverityLow {
		t.Errorf("alerts = %+v", alerts)
	}
}

func TestAlertEngine_OrderedByRoot(t *testing.T) {
	log := newTestLog(t)
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		failed(now, "/z", "boom"),
		failed(now, "/a", "boom"),
		failed(now, "/m", "boom"),
	)

	alerts, err := newTestEngine(log, DefaultAlertThresholds(), now).Evaluate()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	want := []string{"build-failing-/a", "build-failing-/m", "build-failing-/z"}
	if len(alerts) != len(want) {
		t.Fatalf("got %d alerts, want %d", len(alerts), len(want))
	}
	for i, id := range want {
		if alerts[i].ID != id {
			t.Errorf("alerts[%d].ID = %q, want %q", i, alerts[i].ID, id)
		}
	}
}

func TestAlertEngine_ZeroThresholdsDisableChecks(t *testing.T) {
	log := newTestLog(t)
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		built(now.Add(-1000*time.Hour), "/etl", 5, 99999),
		failed(now, "/other", "boom"),
	)

	alerts, err := newTestEngine(log, AlertThresholds{}, now).Evaluate()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts with zero thresholds, got %v", conditions(alerts))
	}
}
