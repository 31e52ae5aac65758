// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов,
// ограничения частоты запросов и проверки роли.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст UUID пользователя и роль для дальнейшего
// использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/http/response"
	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID: ключ для UUID пользователя в контексте
	UserUID Key = "user_uid"
	// Role: ключ для роли пользователя в контексте
	Role Key = "role"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет UUID пользователя и роль в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := authService.ValidateToken(r.Context(), tokenStr)
			if err != nil || user == nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := WithUser(r.Context(), user.UUID, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser кладёт UUID пользователя и роль в контекст.
func WithUser(ctx context.Context, userUID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, UserUID, userUID)
	return context.WithValue(ctx, Role, role)
}

// ActorFrom возвращает субъекта запроса. ok == false, если запрос не прошёл JWTMiddleware.
func ActorFrom(r *http.Request) (authz.Actor, bool) {
	id, ok := r.Context().Value(UserUID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return authz.Actor{}, false
	}
	return authz.User(id), true
}

// Actor возвращает субъекта запроса либо отвечает 401, если его нет в контексте.
func Actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	actor, ok := ActorFrom(r)
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
	}
	return actor, ok
}
