package handler

import (
	"net/http"

	"github.com/YannKr/overmark/internal/auth"
)

// requireAPIAuth checks the bearer token against the configured bcrypt
// hash. Without a configured hash the API is open.
func (h *Handler) requireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Cfg.APITokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok || !auth.CheckToken(h.Cfg.APITokenHash, token) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="overmark"`)
			renderJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing API token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
