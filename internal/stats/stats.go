// Package stats keeps rolling aggregates of pagination passes.
package stats

import (
	"slices"
	"sync"
	"time"
)

type pass struct {
	at       time.Time
	duration int64 // ms
	pages    int
	stale    bool
}

// Snapshot aggregates the passes inside the window.
type Snapshot struct {
	Passes    int     `json:"passes"`
	Discarded int     `json:"discarded"` // superseded before they could publish
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
	AvgPages  float64 `json:"avg_pages"`
	MaxPages  int     `json:"max_pages"`
}

// Pagination records pass latencies within a rolling window.
type Pagination struct {
	mu     sync.Mutex
	passes []pass
	window time.Duration
}

// NewPagination returns a recorder; a non-positive window means one hour.
func NewPagination(window time.Duration) *Pagination {
	if window <= 0 {
		window = time.Hour
	}
	return &Pagination{passes: make([]pass, 0, 256), window: window}
}

// Record adds a published pass.
func (s *Pagination) Record(d time.Duration, pages int) {
	s.add(pass{duration: max(d.Milliseconds(), 0), pages: max(pages, 0)})
}

// RecordStale adds a pass whose result was discarded because a newer
// layout request superseded it.
func (s *Pagination) RecordStale(d time.Duration) {
	s.add(pass{duration: max(d.Milliseconds(), 0), stale: true})
}

func (s *Pagination) add(p pass) {
	p.at = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(p.at)
	s.passes = append(s.passes, p)
}

// Snapshot returns the current aggregate. Latency percentiles cover
// published and discarded passes alike; page counts only published ones.
func (s *Pagination) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())
	if len(s.passes) == 0 {
		return Snapshot{}
	}

	var snap Snapshot
	durations := make([]int64, 0, len(s.passes))
	var sum int64
	pages, published := 0, 0
	for _, p := range s.passes {
		durations = append(durations, p.duration)
		sum += p.duration
		if p.stale {
			snap.Discarded++
			continue
		}
		published++
		pages += p.pages
		snap.MaxPages = max(snap.MaxPages, p.pages)
	}
	slices.Sort(durations)

	snap.Passes = len(durations)
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(sum) / float64(len(durations))
	snap.P50Ms = percentile(durations, 50)
	snap.P95Ms = percentile(durations, 95)
	snap.P99Ms = percentile(durations, 99)
	if published > 0 {
		snap.AvgPages = float64(pages) / float64(published)
	}
	return snap
}

func (s *Pagination) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.passes = slices.DeleteFunc(s.passes, func(p pass) bool { return p.at.Before(cutoff) })
}

// percentile interpolates linearly between closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	idx := float64(len(sorted)-1) * pct / 100
	lo := int(idx)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	w := idx - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*w
}
