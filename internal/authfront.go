package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paceline/auth-front/internal/config"
	"github.com/paceline/auth-front/internal/crypto"
	"github.com/paceline/auth-front/internal/jobs"
	"github.com/paceline/auth-front/internal/log"
	"github.com/paceline/auth-front/internal/oauth"
	"github.com/paceline/auth-front/internal/server"
	"github.com/paceline/auth-front/internal/storage"
	"github.com/paceline/auth-front/internal/upstream"
	"github.com/paceline/auth-front/internal/urlutil"
)

const sessionMaxAge = 24 * time.Hour

// AuthFront is the complete authorization server application
type AuthFront struct {
	config     config.Config
	httpServer *server.HTTPServer
	cleanup    *storage.CleanupManager
	storage    storage.Storage
	queue      jobs.Queue
}

// NewAuthFront creates the application with all dependencies built
func NewAuthFront(ctx context.Context, cfg config.Config) (*AuthFront, error) {
	log.LogInfoWithFields("authfront", "Building authorization server", map[string]any{
		"baseURL": cfg.Server.BaseURL,
		"storage": cfg.Storage.Backend,
		"queue":   cfg.Jobs.Queue,
	})

	store, err := setupStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	issuer, err := oauth.NewTokenIssuer([]byte(cfg.OAuth.JWTSecret), cfg.OAuth.AccessTokenTTL.Std())
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	sessionKey, err := crypto.DeriveKey([]byte(cfg.OAuth.JWTSecret), "auth-front/session")
	if err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	sessions := server.NewSessionManager(sessionKey, sessionMaxAge)

	provider := upstream.NewStravaProvider(upstream.StravaConfig{
		ClientID:     cfg.Upstream.ClientID,
		ClientSecret: string(cfg.Upstream.ClientSecret),
		RedirectURL:  urlutil.MustJoinPath(cfg.Server.BaseURL, "/oauth/callback"),
		Scopes:       cfg.Upstream.Scopes,
	})

	engine := oauth.NewEngine(oauth.EngineConfig{
		Store:    store,
		Upstream: provider,
		Issuer:   issuer,
	})

	queue, err := setupQueue(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup job queue: %w", err)
	}
	jobService := jobs.NewService(store, queue)

	mux := buildHTTPHandler(cfg, engine, issuer, sessions, jobService)
	httpServer := server.NewHTTPServer(mux, cfg.Server.Addr)
	cleanup := storage.NewCleanupManager(store, cfg.OAuth.CleanupInterval.Std())

	return &AuthFront{
		config:     cfg,
		httpServer: httpServer,
		cleanup:    cleanup,
		storage:    store,
		queue:      queue,
	}, nil
}

// Run starts the application and blocks until shutdown
func (a *AuthFront) Run() error {
	log.LogInfoWithFields("authfront", "Starting authorization server", map[string]any{
		"addr": a.config.Server.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.cleanup.Start(ctx)

	errChan := make(chan error, 1)
	go func() {
		if err := a.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("authfront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("authfront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	case <-ctx.Done():
		shutdownReason = "context cancelled"
	}

	log.LogInfoWithFields("authfront", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": "30s",
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("authfront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	a.cleanup.Stop()

	if err := a.queue.Close(); err != nil {
		log.LogWarnWithFields("authfront", "Job queue close error", map[string]any{
			"error": err.Error(),
		})
	}
	if err := a.storage.Close(); err != nil {
		log.LogWarnWithFields("authfront", "Storage close error", map[string]any{
			"error": err.Error(),
		})
	}

	log.LogInfoWithFields("authfront", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}

// setupStorage creates the storage backend from configuration
func setupStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	if cfg.Storage.Backend == "firestore" {
		log.LogInfoWithFields("storage", "Using Firestore storage", map[string]any{
			"project":    cfg.Storage.GCPProject,
			"database":   cfg.Storage.FirestoreDatabase,
			"collection": cfg.Storage.FirestoreCollection,
		})
		return storage.NewFirestoreStorage(
			ctx,
			cfg.Storage.GCPProject,
			cfg.Storage.FirestoreDatabase,
			cfg.Storage.FirestoreCollection,
			cfg.OAuth.RecordTTL.Std(),
		)
	}

	log.LogInfoWithFields("storage", "Using in-memory storage", map[string]any{})
	return storage.NewMemoryStorage(cfg.OAuth.RecordTTL.Std()), nil
}

// setupQueue creates the job work queue from configuration
func setupQueue(ctx context.Context, cfg config.Config) (jobs.Queue, error) {
	if cfg.Jobs.Queue == "redis" {
		log.LogInfoWithFields("jobs", "Using Redis work queue", map[string]any{
			"addr": cfg.Jobs.RedisAddr,
			"db":   cfg.Jobs.RedisDB,
		})
		return jobs.NewRedisQueue(ctx, cfg.Jobs.RedisAddr, string(cfg.Jobs.RedisPassword), cfg.Jobs.RedisDB, cfg.Jobs.RedisKey)
	}

	log.LogInfoWithFields("jobs", "Using in-memory work queue", map[string]any{})
	return jobs.NewMemoryQueue(), nil
}

// buildHTTPHandler creates the route table with per-group middleware
func buildHTTPHandler(cfg config.Config, engine *oauth.Engine, issuer *oauth.TokenIssuer, sessions *server.SessionManager, jobService *jobs.Service) http.Handler {
	mux := http.NewServeMux()

	metadata := oauth.NewServerMetadata(cfg.Server.BaseURL)
	resourceMetadata := oauth.NewProtectedResourceMetadata(cfg.Server.ResourceURL, cfg.Server.BaseURL)
	resourceMetadataURL := urlutil.MustJoinPath(cfg.Server.BaseURL, "/.well-known/oauth-protected-resource")

	corsMiddleware := server.NewCORSMiddleware(cfg.Server.AllowedOrigins)
	oauthLogger := server.NewLoggerMiddleware("oauth")
	jobsLogger := server.NewLoggerMiddleware("jobs")
	oauthRecover := server.NewRecoverMiddleware("oauth")
	jobsRecover := server.NewRecoverMiddleware("jobs")

	mux.Handle("/health", server.NewHealthHandler())

	oauthMiddleware := []server.MiddlewareFunc{
		corsMiddleware,
		oauthLogger,
		oauthRecover,
	}

	authHandlers := server.NewAuthHandlers(engine, sessions, metadata, resourceMetadata)
	mux.Handle("/.well-known/oauth-authorization-server", server.ChainMiddleware(http.HandlerFunc(authHandlers.MetadataHandler), oauthMiddleware...))
	mux.Handle("/.well-known/oauth-protected-resource", server.ChainMiddleware(http.HandlerFunc(authHandlers.ProtectedResourceMetadataHandler), oauthMiddleware...))
	mux.Handle("/oauth/register", server.ChainMiddleware(http.HandlerFunc(authHandlers.RegisterHandler), oauthMiddleware...))
	mux.Handle("/oauth/authorize", server.ChainMiddleware(http.HandlerFunc(authHandlers.AuthorizeHandler), oauthMiddleware...))
	mux.Handle("/oauth/callback", server.ChainMiddleware(http.HandlerFunc(authHandlers.CallbackHandler), oauthMiddleware...))
	mux.Handle("/oauth/token", server.ChainMiddleware(http.HandlerFunc(authHandlers.TokenHandler), oauthMiddleware...))

	jobsMiddleware := []server.MiddlewareFunc{
		corsMiddleware,
		jobsLogger,
		server.NewBearerAuthMiddleware(issuer, resourceMetadataURL),
		jobsRecover,
	}

	jobHandlers := server.NewJobHandlers(jobService)
	mux.Handle("POST /jobs", server.ChainMiddleware(http.HandlerFunc(jobHandlers.CreateHandler), jobsMiddleware...))
	mux.Handle("GET /jobs", server.ChainMiddleware(http.HandlerFunc(jobHandlers.ListHandler), jobsMiddleware...))
	mux.Handle("GET /jobs/{id}", server.ChainMiddleware(http.HandlerFunc(jobHandlers.GetHandler), jobsMiddleware...))

	log.LogInfoWithFields("server", "Authorization server initialized", nil)
	return mux
}
