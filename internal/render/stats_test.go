package render

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(100, false)
	stats.Record(200, false)
	stats.Record(300, false)
	stats.Record(400, false)
	stats.Record(500, true)

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Failures != 1 {
		t.Fatalf("expected failures=1, got %d", snap.Failures)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(100, false)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(200, false)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(-10, false)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

type stubOracle struct {
	artifact *Artifact
	err      error
}

func (s *stubOracle) Render(ctx context.Context, in Input) (*Artifact, error) {
	return s.artifact, s.err
}

func TestInstrumentRecordsOutcomes(t *testing.T) {
	stats := NewStats(time.Hour)
	ok := Instrument(&stubOracle{artifact: &Artifact{Pages: []Page{{Index: 1}}}}, stats)
	if _, err := ok.Render(context.Background(), Input{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failing := Instrument(&stubOracle{err: errors.New("boom")}, stats)
	if _, err := failing.Render(context.Background(), Input{}); err == nil {
		t.Fatal("expected error to pass through")
	}

	snap := stats.Snapshot()
	if snap.Count != 2 {
		t.Errorf("expected 2 recorded calls, got %d", snap.Count)
	}
	if snap.Failures != 1 {
		t.Errorf("expected 1 recorded failure, got %d", snap.Failures)
	}
}
