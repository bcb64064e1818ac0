package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-poll/app"
	"github.com/mbolis/quick-poll/database"
	"github.com/mbolis/quick-poll/httpx"
	"github.com/mbolis/quick-poll/model"
	"github.com/mbolis/quick-poll/serializer"
)

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := serializer.LinkerFor(r, app.BaseURL)

		page, paginated := pageParams(r)
		surveys, err := app.Surveys.List(r.Context(), page)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_surveys", err)
			return
		}

		if !paginated {
			render.JSON(w, r, link.SurveyList(surveys))
			return
		}

		count, err := app.Surveys.Count(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_surveys.count", err)
			return
		}
		renderPage(w, r, link.SurveysURL(), page, count, link.SurveyList(surveys))
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := serializer.Object(r.Body)
		if err != nil {
			badRequest(w, r, "request.parse_body", err)
			return
		}
		in, err := serializer.DecodeSurvey(body)
		if err != nil {
			badRequest(w, r, "request.validate_survey", err)
			return
		}

		survey := model.Survey{OptionIDs: []int64{}}
		in.Apply(&survey)

		survey, err = app.Surveys.Create(r.Context(), survey)
		if err != nil {
			surveyWriteError(w, r, "db.insert_survey", survey.ID, err)
			return
		}

		link := serializer.LinkerFor(r, app.BaseURL)
		w.Header().Set("Location", link.SurveyURL(survey.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, link.Survey(survey))
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(r)
		if !ok {
			httpx.LogNotFound(w, r, "get_survey", chi.URLParam(r, "id"))
			return
		}

		survey, err := app.Surveys.Get(r.Context(), surveyId)
		if isNotFound(err) {
			httpx.LogNotFound(w, r, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		render.JSON(w, r, serializer.LinkerFor(r, app.BaseURL).Survey(survey))
	}
}

// UpdateSurvey serves both PUT and PATCH. A present "opciones" replaces the
// whole option set; an absent one leaves it as is. The body is merged into
// the stored survey inside the write transaction.
func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(r)
		if !ok {
			httpx.LogNotFound(w, r, "update_survey", chi.URLParam(r, "id"))
			return
		}

		_, err := app.Surveys.Get(r.Context(), surveyId)
		if isNotFound(err) {
			httpx.LogNotFound(w, r, "update_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_survey.get", err)
			return
		}

		body, err := serializer.Object(r.Body)
		if err != nil {
			badRequest(w, r, "request.parse_body", err)
			return
		}
		in, err := serializer.DecodeSurvey(body)
		if err != nil {
			badRequest(w, r, "request.validate_survey", err)
			return
		}

		survey, err := app.Surveys.Update(r.Context(), surveyId, in.Apply)
		if err != nil {
			surveyWriteError(w, r, "db.update_survey", surveyId, err)
			return
		}

		render.JSON(w, r, serializer.LinkerFor(r, app.BaseURL).Survey(survey))
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(r)
		if !ok {
			httpx.LogNotFound(w, r, "delete_survey", chi.URLParam(r, "id"))
			return
		}

		err := app.Surveys.Delete(r.Context(), surveyId)
		if isNotFound(err) {
			httpx.LogNotFound(w, r, "delete_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func surveyWriteError(w http.ResponseWriter, r *http.Request, code string, surveyId int64, err error) {
	var unknown *database.UnknownOptionsError
	switch {
	case errors.As(err, &unknown):
		errs := serializer.Errors{}
		for range unknown.IDs {
			errs.Add("opciones", serializer.MsgNoSuchOption)
		}
		httpx.LogInvalid(w, r, code+".options", errs)
	case isNotFound(err):
		httpx.LogNotFound(w, r, code, surveyId)
	default:
		httpx.LogInternalError(w, r, code, err)
	}
}
