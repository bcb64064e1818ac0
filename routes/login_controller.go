package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/quick-poll/app"
	"github.com/mbolis/quick-poll/httpx"
	"github.com/mbolis/quick-poll/log"
	"github.com/mbolis/quick-poll/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login trades HTTP basic credentials for a bearer and a refresh token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="api"`)
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth", "Authentication credentials were not provided.")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		req := formRequest(r, body)

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		if resp.Status() != http.StatusOK {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "login.credentials", "Invalid username/password.")
			return
		}
		log.WithCode("login").Infof("%s logged in", user)
		resp.Flush(w)
	}
}

// Refresh trades a refresh token, sent as "Authorization: Refresh <token>",
// for a new token pair. Each refresh token works once.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token", "Authentication credentials were not provided.")
			return
		}

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		}
		req := formRequest(r, body)

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		if resp.Status() != http.StatusOK {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.grant", "Invalid token.")
			return
		}
		resp.Flush(w)
	}
}

// Logout revokes every refresh token of the caller. Bearer tokens already
// handed out stay valid until they expire.
func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middlewares.CallerFrom(r.Context())

		n, err := app.Accounts.RevokeTokens(r.Context(), caller.Username)
		if err != nil {
			httpx.LogInternalError(w, r, "db.revoke_tokens", err)
			return
		}
		log.WithCode("logout").Infof("%s logged out, %d refresh tokens revoked", caller.Username, n)

		w.WriteHeader(http.StatusNoContent)
	}
}

// formRequest rewrites r into the urlencoded token request the bearer server reads.
func formRequest(r *http.Request, body url.Values) *http.Request {
	encoded := body.Encode()
	req := r.Clone(r.Context())
	req.Method = http.MethodPost
	req.Body = io.NopCloser(strings.NewReader(encoded))
	req.ContentLength = int64(len(encoded))
	req.Form, req.PostForm = nil, nil
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(encoded)))
	req.Header.Del("authorization")
	return req
}
