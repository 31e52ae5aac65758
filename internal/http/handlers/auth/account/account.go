// Package account реализует удаление учётной записи вместе со всеми данными пользователя.
package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-store/internal/http/response"
	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
)

// Service удаление учётной записи субъекта.
type Service interface {
	DeleteAccount(ctx context.Context, actor authz.Actor) error
}

// Handler обрабатывает DELETE /account.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление учётной записи
// @Description Удаляет учётную запись и каскадно все данные пользователя.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /account [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.account"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), actor); err != nil {
		log.Error("failed to delete account", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}

	log.Info("account deleted", slog.String("user_uid", actor.UserUID.String()))
	render.JSON(w, r, response.OK())
}
