package middleware

import (
	"blogpress/internal/telemetry"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuth lets through requests carrying the bearer token matching the
// bcrypt hash. Every checked request takes at least floor, so a miss is not
// faster than a hit. An empty hash locks the routes.
func AdminAuth(hash string, floor time.Duration, metrics *telemetry.Metrics, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ok := checkBearer(hash, r.Header.Get("Authorization"))

			elapsed := time.Since(start)
			metrics.AuthWorkDuration.Record(r.Context(), elapsed.Seconds())

			if remaining := floor - elapsed; remaining > 0 {
				timer := time.NewTimer(remaining)
				defer timer.Stop()

				select {
				case <-r.Context().Done():
					return
				case <-timer.C:
				}
			}

			if !ok {
				LoggerFrom(r.Context(), logger).Warn("401 unauthorised", "path", r.URL.Path, "remote", r.RemoteAddr)
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				writeError(w, http.StatusUnauthorized, "unauthorised")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkBearer(hash, header string) bool {
	scheme, token, found := strings.Cut(header, " ")
	if hash == "" || !found || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
