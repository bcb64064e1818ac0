package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-poll/app"
	"github.com/mbolis/quick-poll/httpx"
	"github.com/mbolis/quick-poll/model"
	"github.com/mbolis/quick-poll/serializer"
)

func ListOptions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := serializer.LinkerFor(r, app.BaseURL)

		page, paginated := pageParams(r)
		options, err := app.Options.List(r.Context(), page)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_options", err)
			return
		}

		if !paginated {
			render.JSON(w, r, link.OptionList(options))
			return
		}

		count, err := app.Options.Count(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_options.count", err)
			return
		}
		renderPage(w, r, link.OptionsURL(), page, count, link.OptionList(options))
	}
}

func CreateOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := serializer.Object(r.Body)
		if err != nil {
			badRequest(w, r, "request.parse_body", err)
			return
		}
		in, err := serializer.DecodeOption(body)
		if err != nil {
			badRequest(w, r, "request.validate_option", err)
			return
		}

		option := model.Option{}
		in.Apply(&option)

		option, err = app.Options.Create(r.Context(), option)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_option", err)
			return
		}

		link := serializer.LinkerFor(r, app.BaseURL)
		w.Header().Set("Location", link.OptionURL(option.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, link.Option(option))
	}
}

func GetOptionById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionId, ok := idParam(r)
		if !ok {
			httpx.LogNotFound(w, r, "get_option", chi.URLParam(r, "id"))
			return
		}

		option, err := app.Options.Get(r.Context(), optionId)
		if isNotFound(err) {
			httpx.LogNotFound(w, r, "get_option", optionId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_option", err)
			return
		}

		render.JSON(w, r, serializer.LinkerFor(r, app.BaseURL).Option(option))
	}
}

// UpdateOption serves both PUT and PATCH: only the fields present in the
// body change.
func UpdateOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionId, ok := idParam(r)
		if !ok {
			httpx.LogNotFound(w, r, "update_option", chi.URLParam(r, "id"))
			return
		}

		_, err := app.Options.Get(r.Context(), optionId)
		if isNotFound(err) {
			httpx.LogNotFound(w, r, "update_option", optionId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_option.get", err)
			return
		}

		body, err := serializer.Object(r.Body)
		if err != nil {
			badRequest(w, r, "request.parse_body", err)
			return
		}
		in, err := serializer.DecodeOption(body)
		if err != nil {
			badRequest(w, r, "request.validate_option", err)
			return
		}

		option, err := app.Options.Update(r.Context(), optionId, in.Apply)
		if isNotFound(err) {
			httpx.LogNotFound(w, r, "update_option", optionId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_option", err)
			return
		}

		render.JSON(w, r, serializer.LinkerFor(r, app.BaseURL).Option(option))
	}
}

func DeleteOption(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionId, ok := idParam(r)
		if !ok {
			httpx.LogNotFound(w, r, "delete_option", chi.URLParam(r, "id"))
			return
		}

		err := app.Options.Delete(r.Context(), optionId)
		if isNotFound(err) {
			httpx.LogNotFound(w, r, "delete_option", optionId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_option", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
