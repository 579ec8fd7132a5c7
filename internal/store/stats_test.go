package store

import (
	"sync"
	"testing"
)

func TestComputeMovieStats(t *testing.T) {
	reviews := []Review{
		{Rating: 8, CategoryScores: map[string]int{"story": 7}},
		{Rating: 6},
		{Rating: 10, CategoryScores: map[string]int{"story": 9}},
	}

	stats := ComputeMovieStats(reviews)

	if stats.Count != 3 {
		t.Fatalf("expected count 3, got %d", stats.Count)
	}
	if stats.Average != 8.0 {
		t.Fatalf("expected average 8.0, got %v", stats.Average)
	}

	wantBuckets := map[int]int{7: 1, 5: 1, 9: 1} // rating k lands in bucket k-1
	for i, got := range stats.Distribution {
		if got != wantBuckets[i] {
			t.Errorf("distribution[%d]: expected %d, got %d", i, wantBuckets[i], got)
		}
	}

	// Mean of 7 and 9, ignoring the review that skipped the category.
	if stats.Breakdown.Story != 8.0 {
		t.Errorf("breakdown.story: expected 8.0, got %v", stats.Breakdown.Story)
	}
	if stats.Breakdown.Acting != 0 || stats.Breakdown.Music != 0 {
		t.Errorf("categories with no contributors should be 0: %+v", stats.Breakdown)
	}
}

func TestComputeMovieStatsIndependentCategories(t *testing.T) {
	reviews := []Review{
		{Rating: 7, CategoryScores: map[string]int{"acting": 7}},
		{Rating: 8, CategoryScores: map[string]int{"story": 5, "acting": 8}},
		{Rating: 9, CategoryScores: map[string]int{"acting": 7}},
	}

	stats := ComputeMovieStats(reviews)

	if stats.Breakdown.Story != 5.0 {
		t.Errorf("story should average only its contributor: got %v", stats.Breakdown.Story)
	}
	// (7+8+7)/3 = 7.333..., rounded to one decimal.
	if stats.Breakdown.Acting != 7.3 {
		t.Errorf("acting: expected 7.3, got %v", stats.Breakdown.Acting)
	}
}

func TestComputeMovieStatsEmpty(t *testing.T) {
	stats := ComputeMovieStats(nil)

	if stats.Count != 0 || stats.Average != 0 {
		t.Fatalf("empty set should yield zeros, got %+v", stats)
	}
	for i, n := range stats.Distribution {
		if n != 0 {
			t.Fatalf("distribution[%d] should be 0, got %d", i, n)
		}
	}
	if stats.Breakdown != (CategoryBreakdown{}) {
		t.Fatalf("breakdown should be all zeros, got %+v", stats.Breakdown)
	}
}

func TestStatsCacheInvalidateIdempotent(t *testing.T) {
	cache := NewStatsCache()
	cache.SetIfCurrent("m1", cache.Epoch("m1"), &MovieStats{Count: 3})

	if _, ok := cache.Get("m1"); !ok {
		t.Fatal("expected cache hit after fill")
	}

	cache.Invalidate("m1")
	cache.Invalidate("m1") // redundant invalidation must be safe

	if _, ok := cache.Get("m1"); ok {
		t.Fatal("expected cache miss after Invalidate")
	}
}

// A fill that started before a write's invalidation must lose to it, even
// when its store lands last. Otherwise a pre-write aggregate stays cached
// until the next write for that movie.
func TestStatsCacheDiscardsFillAfterInvalidation(t *testing.T) {
	cache := NewStatsCache()

	epoch := cache.Epoch("m1") // reader misses and starts computing
	cache.Invalidate("m1")     // a concurrent write commits meanwhile

	cache.SetIfCurrent("m1", epoch, &MovieStats{Count: 0})
	if _, ok := cache.Get("m1"); ok {
		t.Fatal("fill from before the invalidation must be discarded")
	}

	// A fill started after the write is accepted as usual.
	epoch = cache.Epoch("m1")
	cache.SetIfCurrent("m1", epoch, &MovieStats{Count: 2})
	stats, ok := cache.Get("m1")
	if !ok || stats.Count != 2 {
		t.Fatalf("expected fresh fill to be cached, got %+v (hit=%v)", stats, ok)
	}
}

func TestStatsCacheConcurrentAccess(t *testing.T) {
	cache := NewStatsCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.SetIfCurrent("m1", cache.Epoch("m1"), &MovieStats{Count: 1})
			cache.Get("m1")
			cache.Invalidate("m1")
		}()
	}
	wg.Wait()
}
