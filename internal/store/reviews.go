package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Partial unique index over active reviews; a second Create for the same
// (movie, reviewer) pair loses the race at the database, not in application
// code.
const uniqueActiveReviewConstraint = "reviews_movie_reviewer_active_key"

const maxToggleAttempts = 3

const reviewColumns = `
	id, seq, movie_id, reviewer_id, rating, title, content, category_scores,
	is_spoiler, is_edited, status, moderation_notes, edit_history,
	liked_by, disliked_by, helpful_score, screenshots,
	view_count, share_count, version, created_at, updated_at
`

type ReviewStore struct {
	db    *pgxpool.Pool
	stats *StatsCache
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner, r *Review) error {
	return row.Scan(
		&r.ID,
		&r.Seq,
		&r.MovieID,
		&r.ReviewerID,
		&r.Rating,
		&r.Title,
		&r.Content,
		&r.CategoryScores,
		&r.IsSpoiler,
		&r.IsEdited,
		&r.Status,
		&r.ModerationNotes,
		&r.EditHistory,
		&r.LikedBy,
		&r.DislikedBy,
		&r.HelpfulScore,
		&r.Screenshots,
		&r.ViewCount,
		&r.ShareCount,
		&r.Version,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

func (s *ReviewStore) Create(ctx context.Context, review *Review) error {
	if err := review.Validate(); err != nil {
		return err
	}

	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.Status == "" {
		review.Status = StatusPublished
	}
	if review.CategoryScores == nil {
		review.CategoryScores = map[string]int{}
	}

	query := `
		INSERT INTO reviews (
			id, movie_id, reviewer_id, rating, title, content,
			category_scores, is_spoiler, status,
			edit_history, liked_by, disliked_by, screenshots
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '[]'::jsonb, '{}', '{}', '{}')
		RETURNING seq, version, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		review.ID,
		review.MovieID,
		review.ReviewerID,
		review.Rating,
		review.Title,
		review.Content,
		review.CategoryScores,
		review.IsSpoiler,
		review.Status,
	).Scan(&review.Seq, &review.Version, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uniqueActiveReviewConstraint {
			return ErrDuplicateReview
		}
		return err
	}

	s.stats.Invalidate(review.MovieID)
	return nil
}

func (s *ReviewStore) GetByID(ctx context.Context, reviewID string) (*Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var review Review
	if err := scanReview(s.db.QueryRow(ctx, query, reviewID), &review); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (s *ReviewStore) GetByMovie(ctx context.Context, movieID string) ([]Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE movie_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, movieID, StatusPublished)
}

// GetByReviewer returns the reviewer's non-deleted reviews, hidden and
// pending included. Public callers must narrow the result with
// FilterPublished; only the reviewer themselves and moderation surfaces may
// see the rest.
func (s *ReviewStore) GetByReviewer(ctx context.Context, reviewerID string) ([]Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE reviewer_id = $1 AND status <> $2
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, reviewerID, StatusDeleted)
}

func (s *ReviewStore) list(ctx context.Context, query string, args ...any) ([]Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		if err := scanReview(rows, &review); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// Edit replaces the review content on behalf of its author, appending the
// previous text to the edit history. The row is locked for the duration of
// the transaction so concurrent edits serialize. Submitting unchanged content
// is a no-op.
func (s *ReviewStore) Edit(ctx context.Context, reviewID, editorID, newContent string) (*Review, error) {
	if err := validateContentEdit(newContent); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var review Review
	err := withTx(s.db, ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`
		if err := scanReview(tx.QueryRow(ctx, query, reviewID), &review); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if review.ReviewerID != editorID {
			return ErrNotAuthor
		}

		if !review.applyEdit(newContent, time.Now().UTC()) {
			return nil
		}

		update := `
			UPDATE reviews
			SET content = $1, is_edited = true, edit_history = $2,
			    updated_at = $3, version = version + 1
			WHERE id = $4
		`
		_, err := tx.Exec(ctx, update, review.Content, review.EditHistory, review.UpdatedAt, review.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// SetStatus moves a review along the moderation state machine. Moderator
// capability is asserted by the caller; this layer only enforces the legal
// transitions. Notes are recorded verbatim.
func (s *ReviewStore) SetStatus(ctx context.Context, reviewID string, next ReviewStatus, notes string) (*Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var review Review
	err := withTx(s.db, ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`
		if err := scanReview(tx.QueryRow(ctx, query, reviewID), &review); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if err := canTransition(review.Status, next); err != nil {
			return err
		}

		review.Status = next
		review.ModerationNotes = notes
		review.UpdatedAt = time.Now().UTC()

		update := `
			UPDATE reviews
			SET status = $1, moderation_notes = $2, updated_at = $3, version = version + 1
			WHERE id = $4
		`
		_, err := tx.Exec(ctx, update, review.Status, review.ModerationNotes, review.UpdatedAt, review.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.stats.Invalidate(review.MovieID)
	return &review, nil
}

func (s *ReviewStore) ToggleLike(ctx context.Context, reviewID, actorID string) (*Reaction, error) {
	return s.toggle(ctx, reviewID, actorID, false)
}

func (s *ReviewStore) ToggleDislike(ctx context.Context, reviewID, actorID string) (*Reaction, error) {
	return s.toggle(ctx, reviewID, actorID, true)
}

// toggle runs the like/dislike state machine as a compare-and-swap on the row
// version: read the sets, compute the new membership, and write back only if
// nobody else committed in between. Both sets and the helpful score land in
// one UPDATE, so a cancelled attempt leaves either the old state or the new
// one, never a half-applied mutation.
func (s *ReviewStore) toggle(ctx context.Context, reviewID, actorID string, dislike bool) (*Reaction, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		var (
			liked, disliked []string
			version         int64
		)
		read := `SELECT liked_by, disliked_by, version FROM reviews WHERE id = $1`
		err := s.db.QueryRow(ctx, read, reviewID).Scan(&liked, &disliked, &version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		newLiked, newDisliked, state := applyToggle(liked, disliked, actorID, dislike)

		write := `
			UPDATE reviews
			SET liked_by = $1, disliked_by = $2, helpful_score = $3,
			    updated_at = now(), version = version + 1
			WHERE id = $4 AND version = $5
		`
		tag, err := s.db.Exec(ctx, write,
			newLiked, newDisliked, len(newLiked)-len(newDisliked), reviewID, version)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 1 {
			return reactionFor(newLiked, newDisliked, state), nil
		}

		// Lost the race; back off briefly before rereading.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 5 * time.Millisecond):
		}
	}

	return nil, ErrConcurrentModification
}

func (s *ReviewStore) IncrementViews(ctx context.Context, reviewID string) error {
	query := `UPDATE reviews SET view_count = view_count + 1 WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, reviewID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReviewStore) IncrementShares(ctx context.Context, reviewID string) (int64, int64, error) {
	query := `
		UPDATE reviews SET share_count = share_count + 1
		WHERE id = $1
		RETURNING seq, share_count
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var seq, shares int64
	if err := s.db.QueryRow(ctx, query, reviewID).Scan(&seq, &shares); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}
	return seq, shares, nil
}

// AddScreenshots appends uploaded image URLs to the author's review.
func (s *ReviewStore) AddScreenshots(ctx context.Context, reviewID, authorID string, urls []string) (*Review, error) {
	query := `
		UPDATE reviews
		SET screenshots = screenshots || $3, updated_at = now(), version = version + 1
		WHERE id = $1 AND reviewer_id = $2
		RETURNING ` + reviewColumns

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var review Review
	err := scanReview(s.db.QueryRow(ctx, query, reviewID, authorID, urls), &review)
	if err == nil {
		return &review, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Distinguish a missing review from somebody else's.
	if _, err := s.GetByID(ctx, reviewID); err != nil {
		return nil, err
	}
	return nil, ErrNotAuthor
}

// GetMovieStats serves the aggregate a movie page renders. Results are cached
// per movie; Create and SetStatus invalidate. The fold itself is pure, see
// ComputeMovieStats.
func (s *ReviewStore) GetMovieStats(ctx context.Context, movieID string) (*MovieStats, error) {
	if stats, ok := s.stats.Get(movieID); ok {
		return stats, nil
	}

	// Capture the epoch before querying so a write that commits while we
	// compute invalidates this fill instead of being shadowed by it.
	epoch := s.stats.Epoch(movieID)

	query := `
		SELECT rating, category_scores
		FROM reviews
		WHERE movie_id = $1 AND status = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, movieID, StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		if err := rows.Scan(&review.Rating, &review.CategoryScores); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := ComputeMovieStats(reviews)
	s.stats.SetIfCurrent(movieID, epoch, stats)
	return stats, nil
}
