package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/portrait-generator/internal/api"
	apiMiddleware "github.com/phrazzld/portrait-generator/internal/api/middleware"
	"github.com/phrazzld/portrait-generator/internal/api/shared"
)

const jobsPath = "/api/v1/jobs"

// setupRouter creates the router with every route and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	// A nil *Ledger must not reach the handler as a non-nil interface.
	var history api.HistoryReader
	if app.ledger != nil {
		history = app.ledger
	}
	portraits := api.NewPortraitHandler(app.generator, app.store, history, app.logger)
	jobs := api.NewJobHandler(app.bus, app.taskRunner, jobsPath, app.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/portraits", portraits.Routes)
		r.Route("/jobs", jobs.Routes)
		r.Get("/model", func(w http.ResponseWriter, r *http.Request) {
			shared.RespondWithJSON(w, r, http.StatusOK, app.gemini.ModelInfo())
		})
	})

	r.Method(http.MethodGet, "/health", newHealthHandler(app.config, app.store, app.db))

	return r
}
