package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pet-profile-service/internal/adapters/auth/introspect"
	"pet-profile-service/internal/adapters/auth/jwtauth"
	"pet-profile-service/internal/adapters/auth/oidc"
	"pet-profile-service/internal/adapters/directory/userprofile"
	"pet-profile-service/internal/adapters/storage"
	"pet-profile-service/internal/config"
	"pet-profile-service/internal/middleware"
	"pet-profile-service/internal/platform/logger"
	"pet-profile-service/internal/ports/auth"
	"pet-profile-service/internal/ports/directory"
	"pet-profile-service/internal/router"

	"github.com/redis/go-redis/v9"
)

func runServer(ctx context.Context, envFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn("storage close failed", map[string]any{"err": err})
		}
	}()
	log.Info("storage ready", map[string]any{"driver": store.Driver})

	users, err := buildDirectory(cfg.Directory, log)
	if err != nil {
		return fmt.Errorf("user directory: %w", err)
	}

	verifier, err := buildVerifier(ctx, cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if verifier == nil {
		log.Warn("auth in dev mode: callers are identified by header", map[string]any{"header": middleware.DebugUserHeader})
	}

	limiter, closeLimiter := buildRateLimit(cfg.RateLimit, log)
	defer closeLimiter()

	h := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Pets:         store.Pets,
		Directory:    users,
		Logger:       log,
		RateLimit:    limiter,
		Ready:        store,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", map[string]any{"timeout": cfg.Server.ShutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildDirectory(cfg config.DirectoryConfig, log logger.Logger) (directory.UserDirectory, error) {
	if cfg.AllowAll {
		log.Warn("user directory disabled: every owner is accepted", nil)
		return userprofile.AllowAll{}, nil
	}

	client, err := userprofile.NewClient(cfg.Config)
	if err != nil {
		return nil, err
	}
	if !client.IsConfigured() {
		// Sin URL el create falla con 500; el resto de las rutas funciona.
		log.Warn("USER_SERVICE_URL not set: pet creation will fail", nil)
		return nil, nil
	}
	return client, nil
}

func buildVerifier(ctx context.Context, cfg config.AuthConfig) (auth.AuthVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeJWT:
		return jwtauth.NewVerifier(cfg.JWT), nil
	case config.AuthModeOIDC:
		v, err := oidc.NewVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.AuthModeIntrospect:
		v, err := introspect.NewVerifier(cfg.Introspect)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, nil
	}
}

func buildRateLimit(cfg config.RateLimitConfig, log logger.Logger) (func(http.Handler) http.Handler, func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}

	if cfg.RedisAddr == "" {
		log.Info("rate limit enabled (in-memory)", map[string]any{"rps": cfg.RPS, "burst": cfg.Burst})
		return middleware.RateLimit(cfg.RPS, cfg.Burst), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	log.Info("rate limit enabled (redis)", map[string]any{"addr": cfg.RedisAddr, "window": cfg.Window.String()})
	return middleware.RedisRateLimit(client, cfg.RPS, cfg.Burst, cfg.Window, log), func() { _ = client.Close() }
}
