package main

import (
	"context"
	"errors"
	"net/http"

	"kino/internal/store"

	"github.com/go-chi/chi/v5"
)

func (app *application) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	app.toggleReaction(w, r, app.store.Reviews.ToggleLike)
}

func (app *application) toggleDislikeHandler(w http.ResponseWriter, r *http.Request) {
	app.toggleReaction(w, r, app.store.Reviews.ToggleDislike)
}

func (app *application) toggleReaction(
	w http.ResponseWriter,
	r *http.Request,
	toggle func(ctx context.Context, reviewID, actorID string) (*store.Reaction, error),
) {
	reviewID := chi.URLParam(r, "reviewID")
	p := getPrincipalFromContext(r)

	reaction, err := toggle(r.Context(), reviewID, p.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrConcurrentModification):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, reaction)
}

// registerViewHandler bumps the view counter. The display layer fires these
// without a principal, so the endpoint is public.
func (app *application) registerViewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	if err := app.store.Reviews.IncrementViews(r.Context(), reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) shareReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	seq, shares, err := app.store.Reviews.IncrementShares(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.internalServerError(w, r, err)
		}
		return
	}

	code, err := app.shareCodes.Encode(seq)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]any{
		"share_count": shares,
		"share_code":  code,
	}

	app.jsonResponse(w, http.StatusOK, response)
}
