package main

import (
	"errors"
	"net/http"

	"kino/internal/store"

	"github.com/go-chi/chi/v5"
)

type createReviewPayload struct {
	Rating         int            `json:"rating" validate:"required,min=1,max=10"`
	Title          string         `json:"title" validate:"omitempty,max=200"`
	Content        string         `json:"content" validate:"required,min=50,max=5000"`
	CategoryScores map[string]int `json:"category_scores" validate:"omitempty,dive,keys,oneof=story direction acting music visuals,endkeys,min=0,max=10"`
	IsSpoiler      bool           `json:"is_spoiler"`
}

func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")
	if movieID == "" {
		app.badRequestResponse(w, r, errors.New("missing movie ID"))
		return
	}

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := getPrincipalFromContext(r)

	status := store.StatusPublished
	if app.config.premoderation {
		status = store.StatusPending
	}

	review := &store.Review{
		MovieID:        movieID,
		ReviewerID:     p.ID,
		Rating:         payload.Rating,
		Title:          payload.Title,
		Content:        payload.Content,
		CategoryScores: payload.CategoryScores,
		IsSpoiler:      payload.IsSpoiler,
		Status:         status,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateReview):
			app.conflictResponse(w, r, err)
		case store.IsValidationErr(err):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusCreated, review)
}

func (app *application) getMovieReviewsHandler(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")

	reviews, err := app.store.Reviews.GetByMovie(r.Context(), movieID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, reviews)
}

func (app *application) getReviewerReviewsHandler(w http.ResponseWriter, r *http.Request) {
	reviewerID := chi.URLParam(r, "reviewerID")

	reviews, err := app.store.Reviews.GetByReviewer(r.Context(), reviewerID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Anyone can call this; hidden and pending reviews stay off the wire.
	app.jsonResponse(w, http.StatusOK, store.FilterPublished(reviews))
}

func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.internalServerError(w, r, err)
		}
		return
	}

	// Hidden and deleted reviews are invisible on the public read path.
	if review.Status != store.StatusPublished {
		app.notFoundResponse(w, r, store.ErrNotFound)
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

type updateReviewPayload struct {
	Content string `json:"content" validate:"required,min=50,max=5000"`
}

func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	var payload updateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := getPrincipalFromContext(r)

	review, err := app.store.Reviews.Edit(r.Context(), reviewID, p.ID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrNotAuthor):
			app.forbiddenResponse(w, r, err)
		case store.IsValidationErr(err):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

type setStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending published hidden deleted"`
	Notes  string `json:"notes" validate:"omitempty,max=1000"`
}

func (app *application) setReviewStatusHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	var payload setStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.SetStatus(r.Context(), reviewID, store.ReviewStatus(payload.Status), payload.Notes)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrTerminalState):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrInvalidTransition):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}
