// Package posapi собирает HTTP API магазина: маршруты, зависимости и сервер.
package posapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/pos-store/internal/config"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/auth/account"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/category"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/health"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/product"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/profile"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/sale"
	"github.com/magabrotheeeer/pos-store/internal/http/handlers/subscription"
	"github.com/magabrotheeeer/pos-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// AuthService регистрация, вход, проверка токена и удаление учётной записи.
type AuthService interface {
	register.Service
	login.Service
	account.Service
	middlewarectx.Service
}

// CatalogService категории и товары.
type CatalogService interface {
	category.Service
	product.Service
}

// Services зависимости обработчиков.
type Services struct {
	Auth         AuthService
	Profile      profile.Service
	Subscription subscription.Service
	Catalog      CatalogService
	Sales        sale.Service
	Health       map[string]health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, limits config.RateLimit, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	categories := category.New(logger, svc.Catalog)
	products := product.New(logger, svc.Catalog)
	sales := sale.New(logger, svc.Sales)
	profiles := profile.New(logger, svc.Profile)
	subscriptions := subscription.New(logger, svc.Subscription)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limits.RPS, limits.Burst))

			r.Get("/profile", profiles.Get)
			r.Put("/profile", profiles.Update)
			r.Delete("/account", account.New(logger, svc.Auth).ServeHTTP)
			r.Get("/subscription", subscriptions.Get)

			r.Post("/categories", categories.Create)
			r.Get("/categories", categories.List)
			r.Get("/categories/{id}", categories.Get)
			r.Put("/categories/{id}", categories.Update)
			r.Delete("/categories/{id}", categories.Delete)

			r.Post("/products", products.Create)
			r.Get("/products", products.List)
			r.Get("/products/{id}", products.Get)
			r.Put("/products/{id}", products.Update)
			r.Delete("/products/{id}", products.Delete)

			r.Post("/sales", sales.Create)
			r.Get("/sales", sales.List)
			r.Get("/sales/{id}", sales.Get)
			r.Post("/sales/{id}/items", sales.AddItem)
			r.Get("/sales/{id}/items", sales.ListItems)
			r.Get("/sale-items/{id}", sales.GetItem)
			r.Put("/sale-items/{id}", sales.UpdateItem)
			r.Delete("/sale-items/{id}", sales.DeleteItem)

			// Системный путь изменения подписок
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Put("/admin/subscriptions/{user_id}", subscriptions.Set)
			})
		})
	})

	r.Handle("/health", health.New(logger, svc.Health))
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
