package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/monitoring"
	"github.com/myron98980/halloween-party-app/internal/session"
)

// TokenVerifier checks a bearer token and resolves the staff identity
// behind it.
type TokenVerifier interface {
	Verify(token string) (session.Identity, error)
}

type identityCtxKey struct{}

func contextWithIdentity(ctx context.Context, identity session.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext returns the authenticated staff identity, if any.
func IdentityFromContext(ctx context.Context) (session.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(session.Identity)
	return identity, ok
}

// Authenticate requires a valid bearer token and stores the resolved
// identity in the request context.
func Authenticate(next http.Handler, verifier TokenVerifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid session token")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithIdentity(r.Context(), identity)))
	})
}

// RequestObserver logs each request and counts it by method, route
// template and status. Registered as mux middleware so the matched
// route template keeps metric cardinality bounded.
func RequestObserver(logger *logrus.Logger, metrics *monitoring.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if template, err := route.GetPathTemplate(); err == nil {
					path = template
				}
			}

			if metrics != nil {
				metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			}
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Info("request handled")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
