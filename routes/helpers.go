package routes

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-poll/database"
	"github.com/mbolis/quick-poll/httpx"
	"github.com/mbolis/quick-poll/log"
	"github.com/mbolis/quick-poll/serializer"
)

const maxPageSize = 1000

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// badRequest renders a body decoding failure: field errors as a field map,
// anything else as a detail message.
func badRequest(w http.ResponseWriter, r *http.Request, code string, err error) {
	var errs serializer.Errors
	if errors.As(err, &errs) {
		httpx.LogInvalid(w, r, code, errs)
		return
	}
	httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
}

// pageParams reads ?limit=&offset=. ok is false when the list is not paginated.
func pageParams(r *http.Request) (page database.Page, ok bool) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		return page, false
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return database.Page{Limit: limit, Offset: offset}, true
}

// renderPage wraps results in a count/next/previous envelope.
func renderPage(w http.ResponseWriter, r *http.Request, collection string, page database.Page, count int, results any) {
	env := serializer.Page{Count: count, Results: results}

	if page.Offset+page.Limit < count {
		next := pageURL(r, collection, page.Limit, page.Offset+page.Limit)
		env.Next = &next
	}
	if page.Offset > 0 {
		prevOffset := page.Offset - page.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := pageURL(r, collection, page.Limit, prevOffset)
		env.Previous = &prev
	}

	render.JSON(w, r, env)
}

func pageURL(r *http.Request, collection string, limit, offset int) string {
	q := url.Values{}
	for k, v := range r.URL.Query() {
		q[k] = v
	}
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	return collection + "?" + q.Encode()
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// describe answers OPTIONS for a resource: the methods it takes in the
// Allow header and a short description as the body.
func describe(name string, methods ...string) http.HandlerFunc {
	allowed := strings.Join(append(methods, http.MethodHead, http.MethodOptions), ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowed)
		render.JSON(w, r, map[string]any{
			"name":    name,
			"renders": []string{"application/json"},
			"parses":  []string{"application/json"},
		})
	}
}
