package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"qadash/internal/domain"
	"qadash/internal/session"
)

// Principal is the authenticated user of a request.
type Principal struct {
	User      domain.User
	Source    string
	SessionID string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func principalFromRequest(ctx context.Context) (Principal, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.User.ID != "" {
		return p, nil
	}
	return Principal{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// sessionFromCookie resolves the browser session of r, if any.
func (h *handler) sessionFromCookie(r *http.Request) (string, *session.Store, bool) {
	c, err := r.Cookie(h.CookieName)
	if err != nil || c.Value == "" {
		return "", nil, false
	}
	s, ok := h.Sessions.Get(c.Value)
	if !ok {
		return "", nil, false
	}
	return c.Value, s, true
}

// cookiePrincipal returns the logged-in user of the browser session.
func (h *handler) cookiePrincipal(r *http.Request) (Principal, bool) {
	id, s, ok := h.sessionFromCookie(r)
	if !ok {
		return Principal{}, false
	}
	u, ok := s.CurrentUser()
	if !ok {
		return Principal{}, false
	}
	return Principal{User: u, Source: "session", SessionID: id}, true
}

func isPublicAPIPath(basePath, p string) bool {
	switch p {
	case path.Join(basePath, "health"),
		path.Join(basePath, "auth/login"),
		path.Join(basePath, "openapi.json"),
		path.Join(basePath, "docs"):
		return true
	}
	return false
}

// apiAuth authenticates API requests with a bearer token or the session
// cookie. Paths outside the API base path pass through untouched.
func (h *handler) apiAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.HasPrefix(req.URL.Path, h.BasePath) || isPublicAPIPath(h.BasePath, req.URL.Path) {
			next.ServeHTTP(w, req)
			return
		}
		if authz := strings.TrimSpace(req.Header.Get("Authorization")); authz != "" {
			token, ok := bearerToken(authz)
			if !ok {
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
				return
			}
			u, err := h.Tokens.Parse(token)
			if err != nil {
				h.Logger.Debug("rejected bearer token", "error", err)
				respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
				return
			}
			next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), Principal{User: u, Source: "jwt"})))
			return
		}
		if p, ok := h.cookiePrincipal(req); ok {
			next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), p)))
			return
		}
		respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
	})
}

// requireUser guards the views: requests without a logged-in session are
// sent to the login screen.
func (h *handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.cookiePrincipal(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func (h *handler) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
