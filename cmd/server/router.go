package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shabelingo/shabelingo-api/internal/api"
	apiMiddleware "github.com/shabelingo/shabelingo-api/internal/api/middleware"
	"github.com/shabelingo/shabelingo-api/internal/api/shared"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	memoHandler := api.NewMemoHandler(app.memoService, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.UserIdentity)

		// Memo endpoints
		r.Post("/memos", memoHandler.CreateMemo)
		r.Get("/memos", memoHandler.ListMemos)
		r.Get("/memos/{id}", memoHandler.GetMemo)
		r.Patch("/memos/{id}", memoHandler.UpdateMemo)
		r.Delete("/memos/{id}", memoHandler.DeleteMemo)

		// Review endpoints
		r.Post("/memos/{id}/review", reviewHandler.SubmitGrade)
		r.Post("/memos/{id}/pronunciation", reviewHandler.SubmitPronunciation)
		r.Get("/review/daily", reviewHandler.DailySession)
		r.Get("/review/random", reviewHandler.RandomSession)
	})

	r.Get("/health", api.HealthHandler(app.storage.pinger()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
