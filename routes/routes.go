package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-poll/app"
	"github.com/mbolis/quick-poll/httpx"
	"github.com/mbolis/quick-poll/log"
	"github.com/mbolis/quick-poll/routes/middlewares"
	"github.com/mbolis/quick-poll/serializer"
)

const idPattern = `/{id:[0-9]+}`

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
		chimw.GetHead,
	)
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Detail(w, r, http.StatusNotFound, "Not found.")
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Detail(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
	})

	root.Get("/healthz", Health(app))

	root.Route("/auth", func(r chi.Router) {
		r.Post("/login", Login(app))
		r.Post("/refresh", Refresh(app))
		r.With(middlewares.Authenticate(app.TokenSecret), middlewares.RequireAuthenticated).
			Post("/logout", Logout(app))
	})

	root.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticate(app.TokenSecret), middlewares.IsAuthenticatedOrReadOnly)

		r.Get("/", APIRoot(app))
		r.Options("/", describe("Api Root", http.MethodGet))

		// CRUD survey
		r.Route("/Encuesta", func(r chi.Router) {
			r.Options("/", describe("Encuesta List", http.MethodGet, http.MethodPost))
			r.Get("/", ListSurveys(app))
			r.Post("/", CreateSurvey(app))
			r.Route(idPattern, func(r chi.Router) {
				r.Options("/", describe("Encuesta Instance", http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete))
				r.Get("/", GetSurveyById(app))
				r.Put("/", UpdateSurvey(app))
				r.Patch("/", UpdateSurvey(app))
				r.Delete("/", DeleteSurvey(app))
			})
		})

		// CRUD option
		r.Route("/Opcion", func(r chi.Router) {
			r.Options("/", describe("Opcion List", http.MethodGet, http.MethodPost))
			r.Get("/", ListOptions(app))
			r.Post("/", CreateOption(app))
			r.Route(idPattern, func(r chi.Router) {
				r.Options("/", describe("Opcion Instance", http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete))
				r.Get("/", GetOptionById(app))
				r.Put("/", UpdateOption(app))
				r.Patch("/", UpdateOption(app))
				r.Delete("/", DeleteOption(app))
			})
		})
	})

	return root
}

// APIRoot lists the resource collections.
func APIRoot(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := serializer.LinkerFor(r, app.BaseURL)
		render.JSON(w, r, map[string]string{
			"Encuesta": link.SurveysURL(),
			"Opcion":   link.OptionsURL(),
		})
	}
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := app.PingContext(ctx); err != nil {
			log.WithCode("db.ping").Warn(err)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "degraded"})
			return
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
