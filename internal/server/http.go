package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/auth"
	"github.com/mapstreak/geoquiz/internal/config"
	"github.com/mapstreak/geoquiz/internal/session"
)

// Handlers bundles the route handlers the HTTP server mounts. Any field
// may be nil while a subsystem is disabled; its routes are then skipped.
type Handlers struct {
	Auth        *auth.HTTPHandlers
	Session     *session.HTTPHandlers
	PlayWS      http.HandlerFunc
	Leaderboard http.HandlerFunc
}

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, authSvc *auth.Service, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if h.Auth != nil {
		mux.HandleFunc("POST /v1/auth/register", h.Auth.Register)
		mux.HandleFunc("POST /v1/auth/login", h.Auth.Login)
		mux.HandleFunc("POST /v1/auth/guest", h.Auth.CreateGuest)
		mux.HandleFunc("POST /v1/auth/convert", h.Auth.ConvertGuest)
		mux.HandleFunc("POST /v1/auth/refresh", h.Auth.RefreshToken)
		mux.HandleFunc("POST /v1/auth/forgot-password", h.Auth.ForgotPassword)
		mux.HandleFunc("POST /v1/auth/reset-password", h.Auth.ResetPassword)
		mux.HandleFunc("GET /v1/oauth/{provider}/start", h.Auth.OAuthStart)
		mux.HandleFunc("GET /v1/oauth/{provider}/callback", h.Auth.OAuthCallback)
		mux.Handle("GET /v1/users/me", auth.RequireAuth(http.HandlerFunc(h.Auth.GetMe)))
	}

	if h.Session != nil {
		mux.Handle("POST /v1/sessions", auth.RequireAuth(http.HandlerFunc(h.Session.Start)))
		mux.Handle("GET /v1/sessions/current", auth.RequireAuth(http.HandlerFunc(h.Session.Current)))
		mux.Handle("GET /v1/sessions/{id}", auth.RequireAuth(http.HandlerFunc(h.Session.Get)))
		mux.Handle("POST /v1/sessions/{id}/next", auth.RequireAuth(http.HandlerFunc(h.Session.Next)))
		mux.Handle("POST /v1/sessions/{id}/answer", auth.RequireAuth(http.HandlerFunc(h.Session.Submit)))
		mux.Handle("POST /v1/sessions/{id}/restart", auth.RequireAuth(http.HandlerFunc(h.Session.Restart)))
		mux.Handle("POST /v1/sessions/{id}/reset", auth.RequireAuth(http.HandlerFunc(h.Session.Reset)))
		mux.Handle("GET /v1/sessions/{id}/summary", auth.RequireAuth(http.HandlerFunc(h.Session.Summary)))
	}

	if h.Leaderboard != nil {
		mux.HandleFunc("GET /v1/leaderboards/", h.Leaderboard)
	}

	// The play channel authenticates via its token query parameter, so it
	// sits outside the bearer middleware.
	if h.PlayWS != nil {
		mux.HandleFunc("GET /ws/play", h.PlayWS)
	}

	var handler http.Handler = mux
	handler = auth.Middleware(authSvc, logger)(handler)
	handler = corsMiddleware(cfg.CORS)(handler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}

// corsMiddleware answers preflight requests and stamps CORS headers on
// responses to allowed origins.
func corsMiddleware(cfg config.CORS) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
