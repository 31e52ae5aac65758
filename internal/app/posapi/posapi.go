package posapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/cache"
	"github.com/magabrotheeeer/pos-store/internal/config"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/health"
	"github.com/magabrotheeeer/pos-store/internal/lib/jwt"
	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
	"github.com/magabrotheeeer/pos-store/internal/migrations"
	authservice "github.com/magabrotheeeer/pos-store/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/pos-store/internal/services/catalog"
	profileservice "github.com/magabrotheeeer/pos-store/internal/services/profile"
	salesservice "github.com/magabrotheeeer/pos-store/internal/services/sales"
	subscriptionservice "github.com/magabrotheeeer/pos-store/internal/services/subscription"
	"github.com/magabrotheeeer/pos-store/internal/storage"
)

// App HTTP API магазина.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
}

// New подключает хранилище и кэш, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "posapi.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	policy := authz.NewPolicy(db, nil)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	svc := Services{
		Auth:         authservice.NewAuthService(db, jwtMaker, nil, logger),
		Profile:      profileservice.NewProfileService(db, policy),
		Subscription: subscriptionservice.NewSubscriptionService(db, policy, logger),
		Catalog:      catalogservice.NewCatalogService(db, cacheRedis, policy, logger),
		Sales:        salesservice.NewSalesService(db, policy, logger),
		Health: map[string]health.Check{
			"postgres": db.DB.PingContext,
			"redis": func(ctx context.Context) error {
				return cacheRedis.DB.Ping(ctx).Err()
			},
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.RateLimit, svc)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
