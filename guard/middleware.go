package guard

import (
	"net/http"

	"github.com/jonwraymond/tokenops/oautherr"
)

// Middleware returns net/http middleware that serves next only for requests
// presenting a token that grants scopes. Failures are rendered as OAuth2
// error responses. Responses to requests authorized through the
// access_token query parameter carry Cache-Control: private.
func (g *Guard) Middleware(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := g.RequireScope(r, scopes...)
			if err != nil {
				_ = oautherr.From(err).Write(w)
				return
			}
			if fromQuery(r) {
				w.Header().Set("Cache-Control", "private")
			}
			next.ServeHTTP(w, r.WithContext(WithAccess(r.Context(), tok)))
		})
	}
}

// Middleware is Guard.Middleware on the process-wide storage singleton.
func Middleware(scopes ...string) func(http.Handler) http.Handler {
	return defaultGuard.Middleware(scopes...)
}
