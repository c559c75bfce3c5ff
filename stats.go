package main

import (
	"fmt"
	"sort"
	"sync"

	"hark/session"
)

type TranscriptionRecord struct {
	AudioS    float64
	FileBytes int64
	TTFBMs    float64
	TotalMs   float64
}

// PercentileStats holds min, p50, p90, p95, max per column.
type PercentileStats struct {
	TotalMs [5]float64
	TTFBMs  [5]float64
	AudioS  [5]float64
}

type sessionStats struct {
	mu      sync.Mutex
	records []TranscriptionRecord
	pct     PercentileStats
}

func recordFor(r session.Result) TranscriptionRecord {
	rec := TranscriptionRecord{
		AudioS:    r.Info.Duration.Seconds(),
		FileBytes: r.Info.Size,
	}
	if m := r.Metrics; m != nil {
		rec.TTFBMs = float64(m.TTFB.Milliseconds())
		rec.TotalMs = float64(m.Total.Milliseconds())
	}
	return rec
}

func (s *sessionStats) add(r TranscriptionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	s.pct = percentiles(s.records)
}

func (s *sessionStats) snapshot() (int, PercentileStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), s.pct
}

func percentiles(records []TranscriptionRecord) PercentileStats {
	n := len(records)
	if n == 0 {
		return PercentileStats{}
	}

	extract := func(fn func(TranscriptionRecord) float64) []float64 {
		vals := make([]float64, n)
		for i, r := range records {
			vals[i] = fn(r)
		}
		sort.Float64s(vals)
		return vals
	}

	percentile := func(sorted []float64, p float64) float64 {
		idx := int(float64(len(sorted)-1) * p)
		return sorted[idx]
	}

	calc := func(sorted []float64) [5]float64 {
		return [5]float64{
			sorted[0],
			percentile(sorted, 0.50),
			percentile(sorted, 0.90),
			percentile(sorted, 0.95),
			sorted[len(sorted)-1],
		}
	}

	return PercentileStats{
		TotalMs: calc(extract(func(r TranscriptionRecord) float64 { return r.TotalMs })),
		TTFBMs:  calc(extract(func(r TranscriptionRecord) float64 { return r.TTFBMs })),
		AudioS:  calc(extract(func(r TranscriptionRecord) float64 { return r.AudioS })),
	}
}

func (s *sessionStats) table() string {
	n, p := s.snapshot()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(
		"        %5s %5s %5s %5s %5s\n"+
			"total   %5.0f %5.0f %5.0f %5.0f %5.0f\n"+
			"ttfb    %5.0f %5.0f %5.0f %5.0f %5.0f\n"+
			"audio   %4.1fs %4.1fs %4.1fs %4.1fs %4.1fs",
		"min", "p50", "p90", "p95", "max",
		p.TotalMs[0], p.TotalMs[1], p.TotalMs[2], p.TotalMs[3], p.TotalMs[4],
		p.TTFBMs[0], p.TTFBMs[1], p.TTFBMs[2], p.TTFBMs[3], p.TTFBMs[4],
		p.AudioS[0], p.AudioS[1], p.AudioS[2], p.AudioS[3], p.AudioS[4],
	)
}
