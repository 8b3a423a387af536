package middleware

import (
	"net/http"
	"strings"

	"github.com/jhyun-dev/sessiongate"
)

// Attach resolves the session for each request and places the session, the
// client context, and the page context into the request context. Paths that
// contain a dot are passed through untouched; those are static asset
// requests and do not need session state.
func Attach(core *sessiongate.Core) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAssetPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			var cookieValue string
			if c, err := r.Cookie(core.CookieName()); err == nil {
				cookieValue = c.Value
			}

			res, err := core.Resolve(r.Context(), sessiongate.ResolveInput{
				RemoteAddr:  r.RemoteAddr,
				Header:      r.Header,
				CookieValue: cookieValue,
			})
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if res.IsNew {
				http.SetCookie(w, &http.Cookie{
					Name:     core.CookieName(),
					Value:    res.CookieValue,
					Path:     "/",
					MaxAge:   int(core.SessionTTL().Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			page := core.PageContext(res.Session, res.Client)
			page.URL = page.Domain + r.URL.RequestURI()

			ctx := sessiongate.WithSession(r.Context(), res.Session)
			ctx = sessiongate.WithClientContext(ctx, res.Client)
			ctx = sessiongate.WithPageContext(ctx, page)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isAssetPath(path string) bool {
	return strings.Contains(path, ".")
}
