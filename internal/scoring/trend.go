package scoring

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brandpulse/brandpulse/internal/domain"
)

const (
	// maxTrendPoints bounds per-brand history regardless of window size.
	maxTrendPoints = 500
	minTrendPoints = 3

	fastSlopeThreshold = 0.05
	slowSlopeThreshold = 0.01
)

type trendPoint struct {
	at    time.Time
	score float64
}

// trendTracker keeps a bounded, time-windowed score history per brand.
// It is shared by concurrent batch workers and guarded by a mutex.
type trendTracker struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	histories map[string][]trendPoint
}

func newTrendTracker(clock clockwork.Clock) *trendTracker {
	return &trendTracker{
		clock:     clock,
		histories: make(map[string][]trendPoint),
	}
}

// analyze appends the score, prunes points outside the window, and fits a
// linear slope over elapsed seconds when at least three points remain.
func (t *trendTracker) analyze(brand string, score float64, windowHours float64) domain.TrendDirection {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	cutoff := now.Add(-time.Duration(windowHours * float64(time.Hour)))

	history := t.histories[brand]
	pruned := history[:0]
	for _, p := range history {
		if p.at.After(cutoff) {
			pruned = append(pruned, p)
		}
	}
	pruned = append(pruned, trendPoint{at: now, score: score})
	if len(pruned) > maxTrendPoints {
		pruned = pruned[len(pruned)-maxTrendPoints:]
	}
	t.histories[brand] = pruned

	if len(pruned) < minTrendPoints {
		return domain.TrendStable
	}

	slope := fitSlope(pruned)
	switch {
	case slope > fastSlopeThreshold:
		return domain.TrendRisingFast
	case slope > slowSlopeThreshold:
		return domain.TrendRising
	case slope < -fastSlopeThreshold:
		return domain.TrendDecliningFast
	case slope < -slowSlopeThreshold:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

// fitSlope is an ordinary least-squares slope of score over seconds elapsed
// since the first point.
func fitSlope(points []trendPoint) float64 {
	n := float64(len(points))
	t0 := points[0].at

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		x := p.at.Sub(t0).Seconds()
		sumX += x
		sumY += p.score
		sumXY += x * p.score
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
