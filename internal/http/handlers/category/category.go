// Package category реализует HTTP-обработчики категорий каталога.
package category

import (
	"context"
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
)

// Service операции над категориями.
type Service interface {
	CreateCategory(ctx context.Context, actor authz.Actor, req models.DummyCategory) (*models.Category, error)
	GetCategory(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context, actor authz.Actor) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummyCategory) (*models.Category, error)
	DeleteCategory(ctx context.Context, actor authz.Actor, id uuid.UUID) error
}

// Handler обрабатывает /categories.
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

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// decode читает и валидирует тело запроса; при ошибке ответ уже записан.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req *models.DummyCategory) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	id, err := request.UUIDParam(r, "id")
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// Create godoc
// @Summary Создание категории
// @Tags Categories
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyCategory true "Категория"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /categories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.category.Create")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	var req models.DummyCategory
	if !h.decode(w, r, log, &req) {
		return
	}

	c, err := h.service.CreateCategory(r.Context(), actor, req)
	if err != nil {
		log.Error("failed to create category", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("category created", slog.String("id", c.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(c))
}

// List godoc
// @Summary Категории пользователя
// @Tags Categories
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.category.List")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}

	list, err := h.service.ListCategories(r.Context(), actor)
	if err != nil {
		log.Error("failed to list categories", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Get godoc
// @Summary Категория по id
// @Tags Categories
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID категории"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /categories/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.category.Get")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	id, ok := pathID(w, r, log)
	if !ok {
		return
	}

	c, err := h.service.GetCategory(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to get category", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(c))
}

// Update godoc
// @Summary Изменение категории
// @Tags Categories
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID категории"
// @Param request body models.DummyCategory true "Категория"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /categories/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.category.Update")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	id, ok := pathID(w, r, log)
	if !ok {
		return
	}
	var req models.DummyCategory
	if !h.decode(w, r, log, &req) {
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), actor, id, req)
	if err != nil {
		log.Error("failed to update category", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("category updated", slog.String("id", id.String()))
	render.JSON(w, r, response.StatusOKWithData(c))
}

// Delete godoc
// @Summary Удаление категории
// @Description Товары категории остаются без категории.
// @Tags Categories
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID категории"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /categories/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.category.Delete")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	id, ok := pathID(w, r, log)
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), actor, id); err != nil {
		log.Error("failed to delete category", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("category deleted", slog.String("id", id.String()))
	render.JSON(w, r, response.OK())
}
