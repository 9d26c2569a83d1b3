package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/liondadev/sprite-toolkit/server/pages"
)

type contextKey string

const (
	AuthenticatedUserAPIKeyContextKey contextKey = "sprites::api_key"
	AuthenticatedUserContextKey       contextKey = "sprites::authenticated_user"
)

// AnonymousUser owns everything uploaded to an instance without api keys.
const AnonymousUser = "anonymous"

// preHandleAuthentication sets the context with the key AuthenticatedUserContextKey to be either the
// name of the authenticated user, or an empty string if the user isn't authenticated. Instances
// without configured users authenticate everyone as AnonymousUser.
func (s *Server) preHandleAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Open() {
			ctx := context.WithValue(r.Context(), AuthenticatedUserAPIKeyContextKey, "")
			ctx = context.WithValue(ctx, AuthenticatedUserContextKey, AnonymousUser)
			next.ServeHTTP(w, r.WithContext(ctx))

			return
		}

		var apiKey string
		// check header
		h := r.Header.Get("X-Server-Api-Key")
		if h != "" {
			apiKey = h
		}

		// check cookie - for the frontend
		cook, err := r.Cookie("sprites_api_key")
		if err == nil {
			apiKey = cook.Value
		}

		user, ok := s.cfg.Users[apiKey]
		if !ok {
			ctx := context.WithValue(r.Context(), AuthenticatedUserAPIKeyContextKey, "")
			ctx = context.WithValue(ctx, AuthenticatedUserContextKey, "")
			next.ServeHTTP(w, r.WithContext(ctx))

			return
		}

		ctx := context.WithValue(r.Context(), AuthenticatedUserAPIKeyContextKey, apiKey)
		ctx = context.WithValue(ctx, AuthenticatedUserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) preHandleRequireAuthentication(next http.Handler) http.Handler {
	return HandlerWithError(func(w http.ResponseWriter, r *http.Request) error {
		username := r.Context().Value(AuthenticatedUserContextKey)
		if username == nil {
			return errors.New("attempted to require authentication when the prehandleauthentication middleware isn't called")
		}

		if username == "" {
			return PublicError{http.StatusUnauthorized, "This page requires authentication."}
		}

		next.ServeHTTP(w, r)

		return nil
	})
}

// preHandleBasePath hands the configured base path to the pages rendered for r.
func (s *Server) preHandleBasePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(pages.WithBasePath(r.Context(), s.cfg.BasePath)))
	})
}

// userFromContext returns the name set by preHandleAuthentication.
func userFromContext(r *http.Request) string {
	userName, ok := r.Context().Value(AuthenticatedUserContextKey).(string)
	if !ok {
		panic("user in middleware but not in context key?")
	}

	return userName
}
