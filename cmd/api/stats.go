package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// getMovieStatsHandler serves the aggregate the movie detail page renders:
// average rating, a 1-10 histogram, and per-category means over published
// reviews. A movie with no reviews gets all zeros back.
func (app *application) getMovieStatsHandler(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")

	stats, err := app.store.Reviews.GetMovieStats(r.Context(), movieID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, stats)
}
