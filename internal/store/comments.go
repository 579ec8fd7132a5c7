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

type CommentStore struct {
	db *pgxpool.Pool
}

// Add appends a published comment to a review. Comments are never edited;
// moderation soft-deletes them in place so ordering and ids stay stable for
// clients holding references.
func (s *CommentStore) Add(ctx context.Context, reviewID, authorID, content string) (*Comment, error) {
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:       uuid.NewString(),
		ReviewID: reviewID,
		AuthorID: authorID,
		Content:  content,
		LikedBy:  []string{},
		Status:   CommentStatusPublished,
	}

	query := `
		INSERT INTO review_comments (id, review_id, author_id, content, liked_by, status)
		VALUES ($1, $2, $3, $4, '{}', $5)
		RETURNING version, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		comment.ID,
		comment.ReviewID,
		comment.AuthorID,
		comment.Content,
		comment.Status,
	).Scan(&comment.Version, &comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// FK violation: the review does not exist.
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}

// ListByReview returns the review's comments in stable order, deleted ones
// included as blank-content tombstones.
func (s *CommentStore) ListByReview(ctx context.Context, reviewID string) ([]Comment, error) {
	query := `
		SELECT id, review_id, author_id, content, liked_by, status, version, created_at
		FROM review_comments
		WHERE review_id = $1
		ORDER BY created_at ASC, id ASC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Content, &c.LikedBy, &c.Status, &c.Version, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		c.redact()
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// SoftDelete flips a comment to deleted. Deleting an already deleted comment
// is a no-op, so moderation retries are safe.
func (s *CommentStore) SoftDelete(ctx context.Context, commentID string) error {
	query := `UPDATE review_comments SET status = $1 WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, CommentStatusDeleted, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike adds or removes the actor from a comment's likes with the same
// version-stamp compare-and-swap as review toggles. Comments have no dislike
// counterpart.
func (s *CommentStore) ToggleLike(ctx context.Context, commentID, actorID string) (*Reaction, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		var (
			liked   []string
			version int64
		)
		read := `SELECT liked_by, version FROM review_comments WHERE id = $1 AND status = $2`
		err := s.db.QueryRow(ctx, read, commentID, CommentStatusPublished).Scan(&liked, &version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		newLiked, _, state := applyToggle(liked, nil, actorID, false)

		write := `
			UPDATE review_comments
			SET liked_by = $1, version = version + 1
			WHERE id = $2 AND version = $3
		`
		tag, err := s.db.Exec(ctx, write, newLiked, commentID, version)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 1 {
			return reactionFor(newLiked, nil, state), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 5 * time.Millisecond):
		}
	}

	return nil, ErrConcurrentModification
}
