package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.SessionStarted()
	rec.SessionStarted()
	rec.ObserveTurn("collecting:email")
	rec.SessionEnded("keyword")
	rec.ObserveQuestions(SourceFallback, "timeout", 4, 50*time.Millisecond)
	rec.ObserveStore("redis", "save", StatusError, time.Millisecond)

	if got := testutil.ToFloat64(rec.sessionsStarted); got != 2 {
		t.Fatalf("expected 2 started sessions, got %v", got)
	}
	if got := testutil.ToFloat64(rec.turnsTotal.WithLabelValues("collecting:email")); got != 1 {
		t.Fatalf("expected 1 turn, got %v", got)
	}
	if got := testutil.ToFloat64(rec.sessionsEnded.WithLabelValues("keyword")); got != 1 {
		t.Fatalf("expected 1 ended session, got %v", got)
	}
	if got := testutil.ToFloat64(rec.questionsTotal.WithLabelValues(SourceFallback, "timeout")); got != 4 {
		t.Fatalf("expected 4 fallback questions, got %v", got)
	}
	if got := testutil.ToFloat64(rec.storeOpsTotal.WithLabelValues("redis", "save", StatusError)); got != 1 {
		t.Fatalf("expected 1 failed save, got %v", got)
	}

	count, err := testutil.GatherAndCount(reg, "screening_store_operation_duration_seconds")
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 store duration series, got %d", count)
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(Nop); !ok {
		t.Fatal("expected Nop for nil recorder")
	}

	rec := NewPrometheusRecorder(prometheus.NewRegistry())
	if OrNop(rec) != rec {
		t.Fatal("expected recorder to be returned unchanged")
	}
}
