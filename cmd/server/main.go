// Command server runs the videotube backend: session authentication, user
// profiles, and the video catalogue over HTTP.
//
// Every flag can also be set through a VIDEOTUBE_-prefixed environment
// variable; flags win when both are present.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Vishal-jatia/youtube-backend/internal/api"
	"github.com/Vishal-jatia/youtube-backend/internal/auth"
	"github.com/Vishal-jatia/youtube-backend/internal/observability/logging"
	"github.com/Vishal-jatia/youtube-backend/internal/server"
	"github.com/Vishal-jatia/youtube-backend/internal/stats"
	"github.com/Vishal-jatia/youtube-backend/internal/storage"
)

const envPrefix = "VIDEOTUBE_"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr          = flag.String("addr", "", "listen address (default :8080)")
		logLevel      = flag.String("log-level", "", "log level: debug, info, warn, error")
		logFormat     = flag.String("log-format", "", "log format: json or text")
		storageDriver = flag.String("storage", "", "storage driver: json or postgres")
		dataFile      = flag.String("data-file", "", "path to the JSON datastore file")
		postgresDSN   = flag.String("postgres-dsn", "", "Postgres connection string")
		redisAddr     = flag.String("redis-addr", "", "Redis address for the view counter (optional)")
		cookieSecure  = flag.String("cookie-secure", "", "cookie Secure attribute: auto or always")
		accessTTL     = flag.Duration("access-ttl", 0, "access token lifetime (default 24h)")
		refreshTTL    = flag.Duration("refresh-ttl", 0, "refresh token lifetime (default 240h)")
	)
	flag.Parse()

	logger := logging.Init(logging.Config{
		Level:  firstNonEmpty(*logLevel, os.Getenv(envPrefix+"LOG_LEVEL")),
		Format: firstNonEmpty(*logFormat, os.Getenv(envPrefix+"LOG_FORMAT")),
	})

	tokenCfg, err := buildTokenConfig(*accessTTL, *refreshTTL)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenManager(tokenCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, *storageDriver, *dataFile, *postgresDSN)
	if err != nil {
		return err
	}
	defer cleanup()

	authService := auth.NewService(store, tokens)

	handlerOpts := []api.HandlerOption{api.WithLogger(logging.WithComponent(logger, "api"))}
	if redis := firstNonEmpty(*redisAddr, os.Getenv(envPrefix+"REDIS_ADDR")); redis != "" {
		counter, err := stats.NewRedisViewCounter(stats.RedisConfig{
			Addr:     redis,
			Password: os.Getenv(envPrefix + "REDIS_PASSWORD"),
		})
		if err != nil {
			return fmt.Errorf("redis view counter: %w", err)
		}
		defer counter.Close()
		handlerOpts = append(handlerOpts, api.WithViewCounter(counter))
		logger.Info("view counter backed by redis", "addr", redis)
	}
	if mode := firstNonEmpty(*cookieSecure, os.Getenv(envPrefix+"COOKIE_SECURE")); strings.EqualFold(mode, "always") {
		handlerOpts = append(handlerOpts, api.WithCookiePolicy(api.CookiePolicy{
			SameSite:   http.SameSiteStrictMode,
			SecureMode: api.CookieSecureAlways,
		}))
	}
	handler := api.NewHandler(store, authService, tokens, handlerOpts...)

	serverCfg := server.DefaultConfig()
	serverCfg.Addr = firstNonEmpty(*addr, os.Getenv(envPrefix+"ADDR"), serverCfg.Addr)
	srv := server.New(serverCfg, handler, logging.WithComponent(logger, "http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func buildTokenConfig(accessTTL, refreshTTL time.Duration) (auth.TokenConfig, error) {
	accessSecret := os.Getenv(envPrefix + "ACCESS_TOKEN_SECRET")
	refreshSecret := os.Getenv(envPrefix + "REFRESH_TOKEN_SECRET")
	if accessSecret == "" || refreshSecret == "" {
		return auth.TokenConfig{}, errors.New(envPrefix + "ACCESS_TOKEN_SECRET and " + envPrefix + "REFRESH_TOKEN_SECRET must be set")
	}
	if accessTTL <= 0 {
		accessTTL = envDuration(envPrefix+"ACCESS_TOKEN_TTL", 24*time.Hour)
	}
	if refreshTTL <= 0 {
		refreshTTL = envDuration(envPrefix+"REFRESH_TOKEN_TTL", 240*time.Hour)
	}
	return auth.TokenConfig{
		AccessSecret:  []byte(accessSecret),
		AccessTTL:     accessTTL,
		RefreshSecret: []byte(refreshSecret),
		RefreshTTL:    refreshTTL,
	}, nil
}

func buildStore(ctx context.Context, driver, dataFile, dsn string) (storage.Repository, func(), error) {
	driver = strings.ToLower(firstNonEmpty(driver, os.Getenv(envPrefix+"STORAGE_DRIVER"), "json"))
	switch driver {
	case "json":
		path := firstNonEmpty(dataFile, os.Getenv(envPrefix+"DATA_FILE"), "videotube.json")
		store, err := storage.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("json store: %w", err)
		}
		return store, func() {}, nil
	case "postgres":
		dsn = firstNonEmpty(dsn, os.Getenv(envPrefix+"POSTGRES_DSN"))
		if dsn == "" {
			return nil, nil, errors.New("postgres driver selected but no DSN configured")
		}
		store, err := storage.NewPostgresStore(ctx, storage.PostgresConfig{DSN: dsn, ApplicationName: "videotube"})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return store, func() { store.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
