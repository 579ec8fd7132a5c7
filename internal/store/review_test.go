package store

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func validContent() string {
	return strings.Repeat("a great movie, honestly ", 4) // 96 chars
}

func TestReviewValidate(t *testing.T) {
	base := func() *Review {
		return &Review{
			MovieID:    "m1",
			ReviewerID: "u1",
			Rating:     8,
			Content:    validContent(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *Review)
		wantErr error
	}{
		{"valid", func(r *Review) {}, nil},
		{"rating too low", func(r *Review) { r.Rating = 0 }, ErrInvalidRating},
		{"rating too high", func(r *Review) { r.Rating = 11 }, ErrInvalidRating},
		{"content too short", func(r *Review) { r.Content = strings.Repeat("x", 49) }, ErrInvalidContent},
		{"content too long", func(r *Review) { r.Content = strings.Repeat("x", 5001) }, ErrInvalidContent},
		{"title too long", func(r *Review) { r.Title = strings.Repeat("t", 201) }, ErrInvalidTitle},
		{"unknown category", func(r *Review) { r.CategoryScores = map[string]int{"plot": 5} }, ErrInvalidCategory},
		{"category score too high", func(r *Review) { r.CategoryScores = map[string]int{"story": 11} }, ErrInvalidCategory},
		{"category score negative", func(r *Review) { r.CategoryScores = map[string]int{"music": -1} }, ErrInvalidCategory},
		{"partial categories ok", func(r *Review) { r.CategoryScores = map[string]int{"story": 7, "acting": 0} }, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := base()
			tc.mutate(r)
			err := r.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]ReviewStatus{
		{StatusPending, StatusPublished},
		{StatusPending, StatusHidden},
		{StatusPublished, StatusHidden},
		{StatusPublished, StatusDeleted},
		{StatusHidden, StatusPublished},
		{StatusHidden, StatusDeleted},
	}
	for _, edge := range allowed {
		if err := canTransition(edge[0], edge[1]); err != nil {
			t.Errorf("transition %s -> %s should be allowed, got %v", edge[0], edge[1], err)
		}
	}

	for _, to := range []ReviewStatus{StatusPending, StatusPublished, StatusHidden, StatusDeleted} {
		if err := canTransition(StatusDeleted, to); !errors.Is(err, ErrTerminalState) {
			t.Errorf("transition deleted -> %s: expected ErrTerminalState, got %v", to, err)
		}
	}

	if err := canTransition(StatusPublished, StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("published -> pending: expected ErrInvalidTransition, got %v", err)
	}
	if err := canTransition(StatusPending, StatusDeleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> deleted: expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyToggleLikeThenUnlike(t *testing.T) {
	liked, disliked, state := applyToggle(nil, nil, "u1", false)
	if state != ReactionLiked || !slices.Contains(liked, "u1") {
		t.Fatalf("first toggle should like: state=%s liked=%v", state, liked)
	}

	liked, disliked, state = applyToggle(liked, disliked, "u1", false)
	if state != ReactionNeutral || slices.Contains(liked, "u1") {
		t.Fatalf("second toggle should return to neutral: state=%s liked=%v", state, liked)
	}
	if len(disliked) != 0 {
		t.Fatalf("unlike must not touch dislikes: %v", disliked)
	}
}

func TestApplyToggleSwitchSides(t *testing.T) {
	liked, disliked, _ := applyToggle(nil, nil, "u1", false)

	liked, disliked, state := applyToggle(liked, disliked, "u1", true)
	if state != ReactionDisliked {
		t.Fatalf("expected disliked state, got %s", state)
	}
	if slices.Contains(liked, "u1") {
		t.Fatalf("actor must leave likedBy when disliking: %v", liked)
	}
	if !slices.Contains(disliked, "u1") {
		t.Fatalf("actor must be in dislikedBy: %v", disliked)
	}
}

func TestReactionHelpfulScore(t *testing.T) {
	r := reactionFor([]string{"a", "b", "c"}, []string{"d"}, ReactionLiked)
	if r.HelpfulScore != 2 {
		t.Fatalf("expected helpful score 2, got %d", r.HelpfulScore)
	}
	if r.Likes != 3 || r.Dislikes != 1 {
		t.Fatalf("unexpected counts: %+v", r)
	}
}

func TestApplyEditHistory(t *testing.T) {
	now := time.Now()
	r := &Review{Content: "A" + validContent()}
	first := r.Content

	if !r.applyEdit("B"+validContent(), now) {
		t.Fatal("expected first edit to apply")
	}
	if !r.applyEdit(first, now.Add(time.Minute)) {
		t.Fatal("expected second edit to apply")
	}

	// Re-submitting identical content must not pollute the history.
	before := r.UpdatedAt
	if r.applyEdit(first, now.Add(2*time.Minute)) {
		t.Fatal("identical content should be a no-op")
	}
	if r.UpdatedAt != before {
		t.Fatal("no-op edit must not touch UpdatedAt")
	}

	if len(r.EditHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(r.EditHistory))
	}
	if r.EditHistory[0].Content != "A"+validContent() {
		t.Fatalf("first entry should capture original content")
	}
	if r.EditHistory[1].Content != "B"+validContent() {
		t.Fatalf("second entry should capture intermediate content")
	}
	if !r.IsEdited {
		t.Fatal("IsEdited should be set")
	}
}

// casRecord emulates the conditional UPDATE the store issues: the write only
// lands if nobody bumped the version since the read.
type casRecord struct {
	mu       sync.Mutex
	liked    []string
	disliked []string
	version  int64
}

func (rec *casRecord) read() ([]string, []string, int64) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return slices.Clone(rec.liked), slices.Clone(rec.disliked), rec.version
}

func (rec *casRecord) compareAndSwap(liked, disliked []string, expected int64) bool {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.version != expected {
		return false
	}
	rec.liked, rec.disliked, rec.version = liked, disliked, expected+1
	return true
}

func TestConcurrentTogglesKeepSetsConsistent(t *testing.T) {
	rec := &casRecord{}

	const actors = 40
	var wg sync.WaitGroup
	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			actor := string(rune('a' + n%26)) + "-" + strings.Repeat("x", n/26)
			dislike := n%3 == 0
			for {
				liked, disliked, version := rec.read()
				newLiked, newDisliked, _ := applyToggle(liked, disliked, actor, dislike)
				if rec.compareAndSwap(newLiked, newDisliked, version) {
					return
				}
			}
		}(i)
	}
	wg.Wait()

	liked, disliked, _ := rec.read()

	for _, id := range liked {
		if slices.Contains(disliked, id) {
			t.Fatalf("actor %s appears in both sets", id)
		}
	}
	total := len(liked) + len(disliked)
	if total != actors {
		t.Fatalf("expected %d reactions, got %d (lost update?)", actors, total)
	}

	r := reactionFor(liked, disliked, ReactionNeutral)
	if r.HelpfulScore != len(liked)-len(disliked) {
		t.Fatalf("helpful score out of sync: %+v", r)
	}
}

// Hidden and pending reviews must never leak through a public listing, even
// though the reviewer's own surface may include them.
func TestFilterPublished(t *testing.T) {
	reviews := []Review{
		{ID: "r1", Status: StatusPublished},
		{ID: "r2", Status: StatusHidden},
		{ID: "r3", Status: StatusPending},
		{ID: "r4", Status: StatusPublished},
	}

	got := FilterPublished(reviews)

	if len(got) != 2 {
		t.Fatalf("expected 2 published reviews, got %d", len(got))
	}
	for _, r := range got {
		if r.Status != StatusPublished {
			t.Errorf("review %s with status %s leaked through the filter", r.ID, r.Status)
		}
	}
	if got[0].ID != "r1" || got[1].ID != "r4" {
		t.Errorf("filter must preserve order: %+v", got)
	}
}
