package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vedran77/projectdesk/internal/auth"
	"github.com/vedran77/projectdesk/internal/domain"
	"github.com/vedran77/projectdesk/internal/metrics"
	"github.com/vedran77/projectdesk/internal/transport/http/middleware"
	"github.com/vedran77/projectdesk/internal/transport/ws"
	"go.uber.org/zap"
)

// RouterDeps is everything the HTTP surface is assembled from. Metrics,
// Registry, RateLimiter, Hub and HealthCheck are optional.
type RouterDeps struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Projects *ProjectHandler

	Issuer      *auth.Issuer
	Log         *zap.Logger
	CORSOrigins []string

	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	RateLimiter *middleware.RateLimiter
	Hub         *ws.Hub
	HealthCheck func(ctx context.Context) error
}

func NewRouter(d RouterDeps) http.Handler {
	authed := middleware.Auth(d.Issuer, d.Log)
	admin := middleware.Chain(authed, middleware.RequireRole(domain.RoleAdmin))

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", health(d.HealthCheck))
	if d.Registry != nil {
		mux.Handle("GET /metrics", metrics.Handler(d.Registry))
	}
	mux.Handle("POST /auth/register",
		middleware.RateLimit(d.RateLimiter, d.Log)(http.HandlerFunc(d.Auth.Register)))

	// Protected - Users
	mux.Handle("GET /users", admin(http.HandlerFunc(d.Users.List)))
	mux.Handle("GET /users/{id}", authed(http.HandlerFunc(d.Users.Get)))
	mux.Handle("PATCH /users/{id}", authed(http.HandlerFunc(d.Users.Update)))

	// Protected - Projects
	mux.Handle("GET /projects", admin(http.HandlerFunc(d.Projects.List)))
	mux.Handle("PATCH /projects/{id}/assign", admin(http.HandlerFunc(d.Projects.Assign)))
	mux.Handle("DELETE /projects/{id}", admin(http.HandlerFunc(d.Projects.Delete)))

	// WebSocket
	if d.Hub != nil {
		mux.HandleFunc("GET /ws", ws.ServeWS(d.Hub, d.Issuer, d.CORSOrigins, d.Log))
	}

	chain := []func(http.Handler) http.Handler{
		middleware.Recover(d.Log),
		middleware.Logging(d.Log),
	}
	if d.Metrics != nil {
		chain = append(chain, d.Metrics.Middleware)
	}
	chain = append(chain, middleware.CORS(d.CORSOrigins))

	return middleware.Chain(chain...)(mux)
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
