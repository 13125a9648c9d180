package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/auth"
	"github.com/mapstreak/geoquiz/internal/auth/jwt"
	"github.com/mapstreak/geoquiz/internal/config"
	"github.com/mapstreak/geoquiz/internal/dataset"
	"github.com/mapstreak/geoquiz/internal/db/repository"
	"github.com/mapstreak/geoquiz/internal/engine"
	"github.com/mapstreak/geoquiz/internal/leaderboard"
	"github.com/mapstreak/geoquiz/internal/logging"
	"github.com/mapstreak/geoquiz/internal/server"
	"github.com/mapstreak/geoquiz/internal/session"
	ws "github.com/mapstreak/geoquiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server)
// and the background workers that keep leaderboards and the dataset
// fresh.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	lbBroadcaster  *leaderboard.Broadcaster
	snapshotWorker *leaderboard.SnapshotWorker
	datasetWorker  *dataset.RefreshWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis, the question engine
// and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	leaderboardRepo := repository.NewLeaderboardRepository(pool)

	if cfg.Security.QuestionHMACSecret == "" {
		return nil, fmt.Errorf("QUESTION_HMAC_SECRET must be configured")
	}
	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}

	var emailSvc *auth.EmailService
	if cfg.SMTP.Host != "" {
		emailSvc = auth.NewEmailService(auth.EmailConfig{
			SMTPHost:     cfg.SMTP.Host,
			SMTPPort:     cfg.SMTP.Port,
			SMTPUsername: cfg.SMTP.Username,
			SMTPPassword: cfg.SMTP.Password,
			FromEmail:    cfg.SMTP.FromEmail,
			ResetBaseURL: cfg.SMTP.ResetBaseURL,
		}, logger)
	} else {
		logger.Warn().Msg("SMTP not configured; password reset mail disabled")
	}

	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
			Issuer:        cfg.Name,
		},
		Redis:    redisClient,
		EmailSvc: emailSvc,
	}, logger)

	var oauthSvc *auth.OAuthService
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		redirectURL := cfg.OAuth.GoogleRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/v1/oauth/google/callback", cfg.HTTPAddr)
		}
		oauthSvc = auth.NewOAuthService(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, redirectURL, logger)
	} else {
		logger.Warn().Msg("OAuth not configured; social sign-in disabled")
	}

	authHandlers := auth.NewHTTPHandlers(authSvc, oauthSvc, logger)

	// The engine needs a dataset snapshot before it can serve anything,
	// so the first load is part of the bootstrap and a failure is fatal.
	payloadCache := dataset.NewCache(redisClient, cfg.Dataset.CacheTTL)
	var datasetClient *dataset.Client
	if cfg.Dataset.BaseURL != "" {
		datasetClient = dataset.NewClient(cfg.Dataset.BaseURL, &http.Client{Timeout: cfg.Dataset.HTTPTimeout})
	}
	loader := dataset.NewLoader(dataset.Config{
		Dir:           cfg.Dataset.Dir,
		CountriesFile: cfg.Dataset.CountriesFile,
		BordersFile:   cfg.Dataset.BordersFile,
		RiversFile:    cfg.Dataset.RiversFile,
	}, payloadCache, datasetClient, logger)

	data, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info().
		Int64("version", data.Version).
		Int("countries", data.Catalog.Len()).
		Msg("dataset loaded")

	eng := engine.New(data, engine.Config{Mode: engine.ScoreMode(cfg.Game.ScoreMode)})

	stateMgr := session.NewStateManager(redisClient, cfg.Game.SessionStateTTL, logger)
	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN: cfg.Leaderboard.SnapshotTopN,
	})

	sessionSvc := session.NewService(eng, stateMgr, sessionRepo, leaderboardSvc, session.ServiceOptions{
		HMACSecret: []byte(cfg.Security.QuestionHMACSecret),
	}, logger)
	sessionHandlers := session.NewHTTPHandlers(sessionSvc, logger)

	wsHub := ws.NewHub(logger)
	playWS := session.NewWSHandler(sessionSvc, wsHub, authSvc, logger)

	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, "", logger)
	lbHTTPHandler := leaderboard.NewHTTPHandler(leaderboardSvc, leaderboardRepo, logger)
	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(leaderboardSvc, leaderboardRepo, interval, cfg.Leaderboard.SnapshotTopN, logger)
	}

	datasetWorker := dataset.NewRefreshWorker(loader, eng, cfg.Dataset.RefreshInterval, 0, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, server.Handlers{
		Auth:        authHandlers,
		Session:     sessionHandlers,
		PlayWS:      playWS.HandleWebSocket,
		Leaderboard: lbHTTPHandler.HandleGet,
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		lbBroadcaster:  lbBroadcaster,
		snapshotWorker: snapshotWorker,
		datasetWorker:  datasetWorker,
		bgCancels:      make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	if a.datasetWorker != nil {
		a.datasetWorker.Stop()
	}
	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}

	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
		}()
	}

	if a.datasetWorker != nil {
		go a.datasetWorker.Run()
	}
}
