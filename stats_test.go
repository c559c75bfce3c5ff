package main

import (
	"strings"
	"testing"
	"time"

	"hark/recorder"
	"hark/session"
	"hark/transcriber"
)

func TestPercentiles(t *testing.T) {
	var recs []TranscriptionRecord
	for i := 1; i <= 10; i++ {
		recs = append(recs, TranscriptionRecord{TotalMs: float64(i * 100), AudioS: float64(i)})
	}
	p := percentiles(recs)
	want := [5]float64{100, 500, 900, 900, 1000}
	if p.TotalMs != want {
		t.Errorf("TotalMs = %v, want %v", p.TotalMs, want)
	}
	if p.AudioS[0] != 1 || p.AudioS[4] != 10 {
		t.Errorf("AudioS = %v", p.AudioS)
	}
}

func TestPercentilesEmpty(t *testing.T) {
	if p := percentiles(nil); p != (PercentileStats{}) {
		t.Errorf("got %+v, want zero", p)
	}
	var s sessionStats
	if s.table() != "" {
		t.Error("table should be empty without records")
	}
}

func TestRecordFor(t *testing.T) {
	r := recordFor(session.Result{
		Info:    recorder.Info{Size: 64044, Duration: 2 * time.Second},
		Metrics: &transcriber.NetworkMetrics{TTFB: 300 * time.Millisecond, Total: 450 * time.Millisecond},
	})
	if r.AudioS != 2 || r.FileBytes != 64044 || r.TTFBMs != 300 || r.TotalMs != 450 {
		t.Errorf("record = %+v", r)
	}

	var s sessionStats
	s.add(r)
	if table := s.table(); !strings.Contains(table, "p50") || !strings.Contains(table, "450") {
		t.Errorf("table = %q", table)
	}
}
