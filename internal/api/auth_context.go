package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/galeriaarte/galeria-server/internal/auth"
	"github.com/galeriaarte/galeria-server/internal/logger"
)

// Preloader fills the stores once a user is known. *service.Preloader
// implements it.
type Preloader interface {
	Ensure(ctx context.Context, user *auth.User) error
	Loaded() bool
}

// RequireUser returns the authenticated user from context.
// Returns 401 if not authenticated.
func RequireUser(ctx context.Context) (*auth.User, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// bearerToken returns the request's access token. EventSource clients
// cannot set headers, so the access_token query parameter is accepted too.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// authMiddleware validates bearer tokens and stores the user in context.
// A missing or invalid token continues without a user; handlers that need
// one reject the request. The first authenticated request preloads the
// stores.
func authMiddleware(verifier *auth.Verifier, preloader Preloader, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := verifier.Verify(token)
			if err != nil {
				log.Debug("rejected access token", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithUser(r.Context(), user)
			if preloader != nil && !preloader.Loaded() {
				if err := preloader.Ensure(ctx, user); err != nil {
					log.WithError(err).Warn("store preload failed", "user_id", user.ID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
