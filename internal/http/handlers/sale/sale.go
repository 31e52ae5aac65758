// Package sale реализует HTTP-обработчики продаж и их позиций.
// Регистрация продажи проходит шлюз подписки; при отказе возвращается 402.
package sale

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

// Service операции над продажами и позициями.
type Service interface {
	CreateSale(ctx context.Context, actor authz.Actor, req models.DummySale) (*models.Sale, error)
	GetSale(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, actor authz.Actor, limit, offset int) ([]*models.Sale, error)

	AddItem(ctx context.Context, actor authz.Actor, saleID uuid.UUID, req models.DummySaleItem) (*models.SaleItem, error)
	ListItems(ctx context.Context, actor authz.Actor, saleID uuid.UUID) ([]*models.SaleItem, error)
	GetItem(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.SaleItem, error)
	UpdateItem(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummySaleItem) (*models.SaleItem, error)
	DeleteItem(ctx context.Context, actor authz.Actor, id uuid.UUID) error
}

// Handler обрабатывает /sales и /sale-items.
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

// begin общая часть всех обработчиков: логгер с op и request_id и субъект запроса.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, authz.Actor, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
	}
	return log, actor, ok
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
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
// @Summary Регистрация продажи
// @Description Создаёт продажу вместе с позициями. Требуется действующая подписка.
// @Tags Sales
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummySale true "Продажа"
// @Success 201 {object} response.Response
// @Failure 402 {object} response.ErrorResponse "Подписка неактивна или истекла"
// @Failure 404 {object} response.ErrorResponse "Товар позиции не найден"
// @Failure 422 {object} response.ErrorResponse
// @Router /sales [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.Create")
	if !ok {
		return
	}
	var req models.DummySale
	if !h.decode(w, r, log, &req) {
		return
	}

	s, err := h.service.CreateSale(r.Context(), actor, req)
	if err != nil {
		status := response.ServiceError(w, r, err)
		log.Error("failed to create sale", sl.Err(err), slog.Int("status", status))
		return
	}
	log.Info("sale created", slog.String("id", s.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(s))
}

// List godoc
// @Summary Продажи пользователя
// @Description Новые первыми. Размер страницы по умолчанию 50, не более 500.
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /sales [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.List")
	if !ok {
		return
	}
	limit, err := request.IntQuery(r, "limit", 0)
	if err != nil {
		log.Error("bad limit", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit"))
		return
	}
	offset, err := request.IntQuery(r, "offset", 0)
	if err != nil {
		log.Error("bad offset", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid offset"))
		return
	}

	list, err := h.service.ListSales(r.Context(), actor, limit, offset)
	if err != nil {
		log.Error("failed to list sales", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Get godoc
// @Summary Продажа с позициями
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID продажи"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /sales/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.Get")
	if !ok {
		return
	}
	id, ok := pathID(w, r, log)
	if !ok {
		return
	}

	s, err := h.service.GetSale(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to get sale", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(s))
}

// AddItem godoc
// @Summary Добавление позиции в продажу
// @Tags Sales
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID продажи"
// @Param request body models.DummySaleItem true "Позиция"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /sales/{id}/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.AddItem")
	if !ok {
		return
	}
	saleID, ok := pathID(w, r, log)
	if !ok {
		return
	}
	var req models.DummySaleItem
	if !h.decode(w, r, log, &req) {
		return
	}

	it, err := h.service.AddItem(r.Context(), actor, saleID, req)
	if err != nil {
		log.Error("failed to add sale item", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("sale item added", slog.String("id", it.ID.String()), slog.String("sale_id", saleID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(it))
}

// ListItems godoc
// @Summary Позиции продажи
// @Description Для чужой продажи возвращается пустой список.
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID продажи"
// @Success 200 {object} response.Response
// @Router /sales/{id}/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.ListItems")
	if !ok {
		return
	}
	saleID, ok := pathID(w, r, log)
	if !ok {
		return
	}

	items, err := h.service.ListItems(r.Context(), actor, saleID)
	if err != nil {
		log.Error("failed to list sale items", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(items))
}

// GetItem godoc
// @Summary Позиция продажи
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID позиции"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /sale-items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.GetItem")
	if !ok {
		return
	}
	id, ok := pathID(w, r, log)
	if !ok {
		return
	}

	it, err := h.service.GetItem(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to get sale item", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(it))
}

// UpdateItem godoc
// @Summary Изменение позиции продажи
// @Tags Sales
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID позиции"
// @Param request body models.DummySaleItem true "Позиция"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /sale-items/{id} [put]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.UpdateItem")
	if !ok {
		return
	}
	id, ok := pathID(w, r, log)
	if !ok {
		return
	}
	var req models.DummySaleItem
	if !h.decode(w, r, log, &req) {
		return
	}

	it, err := h.service.UpdateItem(r.Context(), actor, id, req)
	if err != nil {
		log.Error("failed to update sale item", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("sale item updated", slog.String("id", id.String()))
	render.JSON(w, r, response.StatusOKWithData(it))
}

// DeleteItem godoc
// @Summary Удаление позиции продажи
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID позиции"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /sale-items/{id} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	log, actor, ok := h.begin(w, r, "handlers.sale.DeleteItem")
	if !ok {
		return
	}
	id, ok := pathID(w, r, log)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), actor, id); err != nil {
		log.Error("failed to delete sale item", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("sale item deleted", slog.String("id", id.String()))
	render.JSON(w, r, response.OK())
}
