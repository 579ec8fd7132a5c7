package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kino/internal/auth"
	"kino/internal/ratelimiter"
	"kino/internal/sharecode"
	"kino/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	authenticator auth.Authenticator
	rateLimiter   *ratelimiter.FixedWindowRateLimiter
	shareCodes    *sharecode.Generator
}

type config struct {
	addr          string
	db            dbConfig
	env           string
	apiURL        string
	auth          authConfig
	rateLimiter   ratelimiter.Config
	premoderation bool
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Every persistence call inherits this deadline through the request context.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/movies/{movieID}", func(r chi.Router) {
			r.Get("/reviews", app.getMovieReviewsHandler)
			r.Get("/stats", app.getMovieStatsHandler)
			r.With(app.AuthTokenMiddleware).Post("/reviews", app.createReviewHandler)
		})

		r.Get("/reviewers/{reviewerID}/reviews", app.getReviewerReviewsHandler)

		r.Route("/reviews/{reviewID}", func(r chi.Router) {
			r.Get("/", app.getReviewHandler)
			r.Get("/comments", app.getCommentsHandler)

			// Read/share events arrive from the display layer without a principal.
			r.Post("/view", app.registerViewHandler)
			r.Post("/share", app.shareReviewHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Patch("/", app.updateReviewHandler)
				r.Post("/like", app.toggleLikeHandler)
				r.Post("/dislike", app.toggleDislikeHandler)
				r.Post("/screenshots", app.uploadScreenshotsHandler)
				r.Post("/comments", app.addCommentHandler)
				r.Post("/comments/{commentID}/like", app.toggleCommentLikeHandler)

				r.With(app.RequireModerator).Put("/status", app.setReviewStatusHandler)
				r.With(app.RequireModerator).Delete("/comments/{commentID}", app.deleteCommentHandler)
			})
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
