package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound               = errors.New("resource not found")
	ErrDuplicateReview        = errors.New("a review for this movie by this reviewer already exists")
	ErrNotAuthor              = errors.New("actor is not the author of this review")
	ErrNotAuthorized          = errors.New("actor is not allowed to perform this action")
	ErrTerminalState          = errors.New("review is deleted and cannot change status")
	ErrInvalidTransition      = errors.New("status transition is not allowed")
	ErrConcurrentModification = errors.New("review was modified concurrently, retries exhausted")

	ErrInvalidRating   = errors.New("rating must be an integer between 1 and 10")
	ErrInvalidTitle    = errors.New("title must be at most 200 characters")
	ErrInvalidContent  = errors.New("content length is out of bounds")
	ErrInvalidCategory = errors.New("invalid category score")

	QueryTimeoutDuration = time.Second * 5
)

// IsValidationErr reports whether err belongs to the input-validation family,
// so the HTTP layer can map the whole group to a 400.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrInvalidTitle) ||
		errors.Is(err, ErrInvalidContent) ||
		errors.Is(err, ErrInvalidCategory)
}

type Storage struct {
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(context.Context, string) (*Review, error)
		GetByMovie(context.Context, string) ([]Review, error)
		GetByReviewer(context.Context, string) ([]Review, error)
		Edit(ctx context.Context, reviewID, editorID, newContent string) (*Review, error)
		SetStatus(ctx context.Context, reviewID string, next ReviewStatus, notes string) (*Review, error)
		ToggleLike(ctx context.Context, reviewID, actorID string) (*Reaction, error)
		ToggleDislike(ctx context.Context, reviewID, actorID string) (*Reaction, error)
		IncrementViews(ctx context.Context, reviewID string) error
		IncrementShares(ctx context.Context, reviewID string) (seq int64, shares int64, err error)
		AddScreenshots(ctx context.Context, reviewID, authorID string, urls []string) (*Review, error)
		GetMovieStats(ctx context.Context, movieID string) (*MovieStats, error)
	}
	Comments interface {
		Add(ctx context.Context, reviewID, authorID, content string) (*Comment, error)
		ListByReview(ctx context.Context, reviewID string) ([]Comment, error)
		SoftDelete(ctx context.Context, commentID string) error
		ToggleLike(ctx context.Context, commentID, actorID string) (*Reaction, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	cache := NewStatsCache()
	return Storage{
		Reviews:  &ReviewStore{db: db, stats: cache},
		Comments: &CommentStore{db: db},
	}
}

func withTx(db *pgxpool.Pool, ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
