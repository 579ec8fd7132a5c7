package main

import (
	"errors"
	"net/http"

	"kino/internal/store"

	"github.com/go-chi/chi/v5"
)

type addCommentPayload struct {
	Content string `json:"content" validate:"required,max=1000"`
}

func (app *application) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	var payload addCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := getPrincipalFromContext(r)

	comment, err := app.store.Comments.Add(r.Context(), reviewID, p.ID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case store.IsValidationErr(err):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusCreated, comment)
}

func (app *application) getCommentsHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	comments, err := app.store.Comments.ListByReview(r.Context(), reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, comments)
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "commentID")

	if err := app.store.Comments.SoftDelete(r.Context(), commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}

func (app *application) toggleCommentLikeHandler(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "commentID")
	p := getPrincipalFromContext(r)

	reaction, err := app.store.Comments.ToggleLike(r.Context(), commentID, p.ID)
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
