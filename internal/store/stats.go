package store

import (
	"math"
	"sync"
)

// CategoryBreakdown carries the per-aspect averages shown on a movie page.
type CategoryBreakdown struct {
	Story     float64 `json:"story"`
	Direction float64 `json:"direction"`
	Acting    float64 `json:"acting"`
	Music     float64 `json:"music"`
	Visuals   float64 `json:"visuals"`
}

type MovieStats struct {
	Average      float64           `json:"average"`
	Count        int               `json:"count"`
	Distribution [10]int           `json:"distribution"`
	Breakdown    CategoryBreakdown `json:"breakdown"`
}

// ComputeMovieStats folds a set of published reviews into display statistics.
// An empty set yields all zeros, which is a defined result, not an error.
// The average is left unrounded; rounding is the presentation layer's job.
// Each category is averaged independently over the reviews that scored it, so
// a review that skipped "story" still counts toward "acting". Category means
// are rounded to one decimal.
func ComputeMovieStats(reviews []Review) *MovieStats {
	stats := &MovieStats{Count: len(reviews)}
	if len(reviews) == 0 {
		return stats
	}

	sums := make(map[string]int, len(Categories))
	counts := make(map[string]int, len(Categories))

	total := 0
	for _, r := range reviews {
		total += r.Rating
		if r.Rating >= 1 && r.Rating <= 10 {
			stats.Distribution[r.Rating-1]++
		}
		for key, score := range r.CategoryScores {
			sums[key] += score
			counts[key]++
		}
	}

	stats.Average = float64(total) / float64(len(reviews))
	stats.Breakdown = CategoryBreakdown{
		Story:     categoryMean(sums, counts, "story"),
		Direction: categoryMean(sums, counts, "direction"),
		Acting:    categoryMean(sums, counts, "acting"),
		Music:     categoryMean(sums, counts, "music"),
		Visuals:   categoryMean(sums, counts, "visuals"),
	}
	return stats
}

func categoryMean(sums, counts map[string]int, key string) float64 {
	n := counts[key]
	if n == 0 {
		return 0
	}
	return math.Round(float64(sums[key])/float64(n)*10) / 10
}

// StatsCache memoizes per-movie statistics. Any write that changes a review's
// rating, category scores, or status for a movie must call Invalidate for
// that movie; Invalidate is idempotent and safe to call redundantly.
//
// Fills are guarded by a per-movie epoch so invalidation always wins: a
// reader that missed, computed from a pre-write snapshot, and stores after a
// concurrent Invalidate would otherwise pin the stale aggregate until the
// next write. SetIfCurrent discards any fill whose epoch is no longer
// current.
type StatsCache struct {
	mu      sync.RWMutex
	byMovie map[string]*MovieStats
	epoch   map[string]uint64
}

func NewStatsCache() *StatsCache {
	return &StatsCache{
		byMovie: make(map[string]*MovieStats),
		epoch:   make(map[string]uint64),
	}
}

func (c *StatsCache) Get(movieID string) (*MovieStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats, ok := c.byMovie[movieID]
	return stats, ok
}

// Epoch returns the generation token a fill must present to SetIfCurrent.
// Read it before computing the statistics, not after.
func (c *StatsCache) Epoch(movieID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch[movieID]
}

// SetIfCurrent stores the stats computed under the given epoch. Stats from a
// fill that started before the movie's last invalidation are dropped.
func (c *StatsCache) SetIfCurrent(movieID string, epoch uint64, stats *MovieStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch[movieID] != epoch {
		return
	}
	c.byMovie[movieID] = stats
}

func (c *StatsCache) Invalidate(movieID string) {
	c.mu.Lock()
	delete(c.byMovie, movieID)
	c.epoch[movieID]++
	c.mu.Unlock()
}
