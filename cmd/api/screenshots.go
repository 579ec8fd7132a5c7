package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"kino/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

const maxScreenshots = 5

// uploadScreenshotsHandler accepts multipart image uploads from the review's
// author, pushes them to Cloudinary, and appends the secure URLs to the
// review.
func (app *application) uploadScreenshotsHandler(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")
	p := getPrincipalFromContext(r)

	const maxBytes = 15 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	files := r.MultipartForm.File["screenshots"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, errors.New("no screenshots supplied"))
		return
	}
	if len(files) > maxScreenshots {
		app.badRequestResponse(w, r, fmt.Errorf("maximum %d screenshots allowed", maxScreenshots))
		return
	}

	var urls []string
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("open file: %w", err))
			return
		}

		url, err := app.uploadScreenshotToCloudinary(r.Context(), file)
		file.Close()
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		urls = append(urls, url)
	}

	review, err := app.store.Reviews.AddScreenshots(r.Context(), reviewID, p.ID, urls)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrNotAuthor):
			app.forbiddenResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

func (app *application) uploadScreenshotToCloudinary(ctx context.Context, file io.Reader) (string, error) {
	resp, err := app.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: "reviews"})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}
