package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-poll/httpx"
	"github.com/mbolis/quick-poll/log"
)

const wwwAuthenticate = `Bearer realm="api"`

// Caller is who sent the request, as far as Authenticate could tell.
type Caller struct {
	Authenticated bool
	Username      string
}

type callerKey struct{}

func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

func withCaller(r *http.Request, c Caller) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), callerKey{}, c))
}

// Authenticate tags every request with its Caller. Requests without an
// Authorization header go through as anonymous; a bearer token that does not
// verify is rejected with 401.
func Authenticate(secret string) func(http.Handler) http.Handler {
	authorize := oauth.Authorize(secret, nil)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, withCaller(r, Caller{}))
				return
			}

			// oauth writes its own rejection; keep it off the wire so the
			// client sees the same error shape as everywhere else
			rejected := httpx.NewResponseBuffer()
			verified := false
			authorize(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				verified = true
				credential, _ := r.Context().Value(oauth.CredentialContext).(string)
				next.ServeHTTP(w, withCaller(r, Caller{Authenticated: true, Username: credential}))
			})).ServeHTTP(rejected, r)

			if !verified {
				log.WithCode("auth.bearer").Debugf("%d %s", rejected.Status(), rejected.Body())
				w.Header().Set("WWW-Authenticate", wwwAuthenticate)
				httpx.Detail(w, r, http.StatusUnauthorized, "Invalid token.")
			}
		})
	}
}

// IsAuthenticatedOrReadOnly lets safe methods through and requires an
// authenticated Caller for everything else.
func IsAuthenticatedOrReadOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		RequireAuthenticated(next).ServeHTTP(w, r)
	})
}

func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFrom(r.Context()).Authenticated {
			w.Header().Set("WWW-Authenticate", wwwAuthenticate)
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.anonymous", "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
