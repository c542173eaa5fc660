package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"zakatdesk/pkg/types"

	"github.com/sirupsen/logrus"
)

type contextKey string

const contextKeyActor contextKey = "actor"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		elapsed := time.Since(started)
		s.metrics.ObserveRequest(r.Method, rw.statusCode, elapsed)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("http request")
	})
}

// sessionToken reads the bearer token, falling back to the session cookie.
func (s *Service) sessionToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", errors.New("malformed authorization header")
		}
		return strings.TrimSpace(token), nil
	}

	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return "", err
	}

	var token string
	if err := s.cookie.Decode(s.config.CookieName, cookie.Value, &token); err != nil {
		return "", err
	}
	return token, nil
}

// RequireAuth verifies the caller's token and stores the actor on the
// request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := s.sessionToken(r)
		if err != nil {
			s.logger.WithError(err).Debug("no usable access token")
			s.writeMessage(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		actor, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.logger.WithError(err).Info("failed to authenticate request")
			s.writeMessage(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"actor_id": actor.ID,
			"role":     actor.Role,
		}).Debug("authenticated actor")

		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromContext(r.Context())
		if !ok || !actor.Role.IsAdmin() {
			s.writeError(w, r, types.ErrPermissionDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func actorFromContext(ctx context.Context) (types.Actor, bool) {
	actor, ok := ctx.Value(contextKeyActor).(types.Actor)
	return actor, ok
}
