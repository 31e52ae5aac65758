// Package subscription реализует чтение собственной подписки и административную
// смену её состояния.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-store/internal/http/request"
	"github.com/magabrotheeeer/pos-store/internal/http/response"
	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
	"github.com/magabrotheeeer/pos-store/internal/models"
	subscriptionservice "github.com/magabrotheeeer/pos-store/internal/services/subscription"
)

// Service операции над подписками.
type Service interface {
	Get(ctx context.Context, actor authz.Actor) (*models.Subscription, error)
	SetStatus(ctx context.Context, actor authz.Actor, userID uuid.UUID, req models.DummySubscriptionUpdate) (*models.Subscription, error)
}

// Handler обрабатывает /subscription и /admin/subscriptions/{user_id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Get godoc
// @Summary Подписка пользователя
// @Tags Subscription
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /subscription [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.Get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}

	sub, err := h.service.Get(r.Context(), actor)
	if err != nil {
		log.Error("failed to get subscription", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(sub))
}

// Set godoc
// @Summary Смена состояния подписки
// @Description Административный путь: выполняется от имени системного субъекта.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param user_id path string true "UUID пользователя"
// @Param request body models.DummySubscriptionUpdate true "Статус, срок и план"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/subscriptions/{user_id} [put]
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.Set"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := request.UUIDParam(r, "user_id")
	if err != nil {
		log.Error("failed to decode user_id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user_id"))
		return
	}

	var req models.DummySubscriptionUpdate
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	sub, err := h.service.SetStatus(r.Context(), authz.System, userID, req)
	if err != nil {
		log.Error("failed to set subscription", sl.Err(err))
		if errors.Is(err, subscriptionservice.ErrInvalidExpiration) {
			response.Invalid(w, r, subscriptionservice.ErrInvalidExpiration)
			return
		}
		response.ServiceError(w, r, err)
		return
	}

	log.Info("subscription set",
		slog.String("user_id", userID.String()),
		slog.String("status", sub.Status),
	)
	render.JSON(w, r, response.StatusOKWithData(sub))
}
