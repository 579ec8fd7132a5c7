package store

import (
	"fmt"
	"slices"
	"time"
)

type ReviewStatus string

const (
	StatusPending   ReviewStatus = "pending"
	StatusPublished ReviewStatus = "published"
	StatusHidden    ReviewStatus = "hidden"
	StatusDeleted   ReviewStatus = "deleted"
)

const (
	MinContentLen        = 50
	MaxContentLen        = 5000
	MaxTitleLen          = 200
	MaxCommentContentLen = 1000
)

// Categories is the fixed set of per-aspect rating keys a reviewer may score.
var Categories = []string{"story", "direction", "acting", "music", "visuals"}

type EditEntry struct {
	Content  string    `json:"content"`
	EditedAt time.Time `json:"edited_at"`
}

type Review struct {
	ID              string         `json:"id"`
	Seq             int64          `json:"-"` // internal serial, feeds share codes
	MovieID         string         `json:"movie_id"`
	ReviewerID      string         `json:"reviewer_id"`
	Rating          int            `json:"rating"`
	Title           string         `json:"title,omitempty"`
	Content         string         `json:"content"`
	CategoryScores  map[string]int `json:"category_scores,omitempty"`
	IsSpoiler       bool           `json:"is_spoiler"`
	IsEdited        bool           `json:"is_edited"`
	Status          ReviewStatus   `json:"status"`
	ModerationNotes string         `json:"-"`
	EditHistory     []EditEntry    `json:"edit_history,omitempty"`
	LikedBy         []string       `json:"liked_by"`
	DislikedBy      []string       `json:"disliked_by"`
	HelpfulScore    int            `json:"helpful_score"`
	Screenshots     []string       `json:"screenshots,omitempty"`
	ViewCount       int64          `json:"view_count"`
	ShareCount      int64          `json:"share_count"`
	Version         int64          `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	LikedBy   []string  `json:"liked_by"`
	Status    string    `json:"status"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	CommentStatusPublished = "published"
	CommentStatusDeleted   = "deleted"
)

// Validate checks the field constraints of a new review before it reaches the
// database. The (movie, reviewer) uniqueness is not checked here; that race
// belongs to the unique index.
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, r.Rating)
	}
	if n := len([]rune(r.Title)); n > MaxTitleLen {
		return fmt.Errorf("%w: got %d characters", ErrInvalidTitle, n)
	}
	if n := len([]rune(r.Content)); n < MinContentLen || n > MaxContentLen {
		return fmt.Errorf("%w: got %d characters, want %d-%d", ErrInvalidContent, n, MinContentLen, MaxContentLen)
	}
	for key, score := range r.CategoryScores {
		if !slices.Contains(Categories, key) {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidCategory, key)
		}
		if score < 0 || score > 10 {
			return fmt.Errorf("%w: %s=%d, want 0-10", ErrInvalidCategory, key, score)
		}
	}
	return nil
}

func validateContentEdit(content string) error {
	if n := len([]rune(content)); n < MinContentLen || n > MaxContentLen {
		return fmt.Errorf("%w: got %d characters, want %d-%d", ErrInvalidContent, n, MinContentLen, MaxContentLen)
	}
	return nil
}

func validateCommentContent(content string) error {
	n := len([]rune(content))
	if n == 0 || n > MaxCommentContentLen {
		return fmt.Errorf("%w: got %d characters, want 1-%d", ErrInvalidContent, n, MaxCommentContentLen)
	}
	return nil
}

// canTransition encodes the review status machine. deleted is terminal;
// everything else may only move along the listed edges.
func canTransition(from, to ReviewStatus) error {
	if from == StatusDeleted {
		return ErrTerminalState
	}
	allowed := map[ReviewStatus][]ReviewStatus{
		StatusPending:   {StatusPublished, StatusHidden},
		StatusPublished: {StatusHidden, StatusDeleted},
		StatusHidden:    {StatusPublished, StatusDeleted},
	}
	if slices.Contains(allowed[from], to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// FilterPublished keeps only the reviews visible on public read paths.
// Hidden and pending reviews are for their author and moderators.
func FilterPublished(reviews []Review) []Review {
	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Status == StatusPublished {
			out = append(out, r)
		}
	}
	return out
}

// redact blanks the text of a deleted comment. The tombstone keeps its id and
// position so client references stay stable, but the content is gone.
func (c *Comment) redact() {
	if c.Status == CommentStatusDeleted {
		c.Content = ""
	}
}

// applyEdit replaces the review content, recording the previous text in the
// edit history. Re-submitting identical content is a no-op so that client
// retries do not pollute the history; it returns false in that case.
func (r *Review) applyEdit(newContent string, now time.Time) bool {
	if newContent == r.Content {
		return false
	}
	r.EditHistory = append(r.EditHistory, EditEntry{Content: r.Content, EditedAt: now})
	r.Content = newContent
	r.IsEdited = true
	r.UpdatedAt = now
	return true
}

type ReactionState string

const (
	ReactionLiked    ReactionState = "liked"
	ReactionDisliked ReactionState = "disliked"
	ReactionNeutral  ReactionState = "neutral"
)

// Reaction is what a toggle returns: the counts after the mutation plus the
// actor's resulting membership.
type Reaction struct {
	Likes        int           `json:"likes"`
	Dislikes     int           `json:"dislikes"`
	HelpfulScore int           `json:"helpful_score"`
	State        ReactionState `json:"state"`
}

// applyToggle computes the new liked/disliked sets after one actor toggles.
// The sets stay disjoint: switching sides removes the actor from the opposite
// set in the same step, and toggling an existing membership removes it.
func applyToggle(liked, disliked []string, actorID string, dislike bool) (newLiked, newDisliked []string, state ReactionState) {
	target, opposite := liked, disliked
	if dislike {
		target, opposite = disliked, liked
	}

	state = ReactionNeutral
	if slices.Contains(target, actorID) {
		target = remove(target, actorID)
	} else {
		target = append(slices.Clone(target), actorID)
		opposite = remove(opposite, actorID)
		if dislike {
			state = ReactionDisliked
		} else {
			state = ReactionLiked
		}
	}

	if dislike {
		return opposite, target, state
	}
	return target, opposite, state
}

func remove(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func reactionFor(liked, disliked []string, state ReactionState) *Reaction {
	return &Reaction{
		Likes:        len(liked),
		Dislikes:     len(disliked),
		HelpfulScore: len(liked) - len(disliked),
		State:        state,
	}
}
