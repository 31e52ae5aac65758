// Package product реализует HTTP-обработчики товаров каталога.
package product

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

// Service операции над товарами.
type Service interface {
	CreateProduct(ctx context.Context, actor authz.Actor, req models.DummyProduct) (*models.Product, error)
	GetProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, actor authz.Actor, f models.ProductFilter) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummyProduct) (*models.Product, error)
	DeleteProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) error
}

// Handler обрабатывает /products.
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

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req *models.DummyProduct) bool {
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

func badRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	log.Error("bad request", sl.Err(err))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(msg))
}

// Create godoc
// @Summary Создание товара
// @Description Штрихкод уникален в пределах каталога пользователя.
// @Tags Products
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyProduct true "Товар"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Категория не найдена"
// @Failure 409 {object} response.ErrorResponse "Штрихкод уже занят"
// @Failure 422 {object} response.ErrorResponse
// @Router /products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.product.Create")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	var req models.DummyProduct
	if !h.decode(w, r, log, &req) {
		return
	}

	p, err := h.service.CreateProduct(r.Context(), actor, req)
	if err != nil {
		log.Error("failed to create product", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("product created", slog.String("id", p.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(p))
}

// List godoc
// @Summary Товары пользователя
// @Tags Products
// @Produce  json
// @Security BearerAuth
// @Param category_id query string false "UUID категории"
// @Param barcode query string false "Штрихкод"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.product.List")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}

	var f models.ProductFilter
	var err error
	if f.CategoryID, err = request.UUIDQuery(r, "category_id"); err != nil {
		badRequest(w, r, log, err, "invalid category_id")
		return
	}
	if barcode := r.URL.Query().Get("barcode"); barcode != "" {
		f.Barcode = &barcode
	}
	if f.Limit, err = request.IntQuery(r, "limit", 0); err != nil {
		badRequest(w, r, log, err, "invalid limit")
		return
	}
	if f.Offset, err = request.IntQuery(r, "offset", 0); err != nil {
		badRequest(w, r, log, err, "invalid offset")
		return
	}

	list, err := h.service.ListProducts(r.Context(), actor, f)
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Get godoc
// @Summary Товар по id
// @Tags Products
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID товара"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.product.Get")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	id, err := request.UUIDParam(r, "id")
	if err != nil {
		badRequest(w, r, log, err, "invalid id")
		return
	}

	p, err := h.service.GetProduct(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to get product", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

// Update godoc
// @Summary Изменение товара
// @Description Заменяет все поля товара; не переданные поля получают значения по умолчанию.
// @Tags Products
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID товара"
// @Param request body models.DummyProduct true "Товар"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /products/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.product.Update")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	id, err := request.UUIDParam(r, "id")
	if err != nil {
		badRequest(w, r, log, err, "invalid id")
		return
	}
	var req models.DummyProduct
	if !h.decode(w, r, log, &req) {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), actor, id, req)
	if err != nil {
		log.Error("failed to update product", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("product updated", slog.String("id", id.String()))
	render.JSON(w, r, response.StatusOKWithData(p))
}

// Delete godoc
// @Summary Удаление товара
// @Description Позиции прошлых продаж сохраняются без ссылки на товар.
// @Tags Products
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UUID товара"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /products/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.product.Delete")

	actor, ok := middlewarectx.Actor(w, r)
	if !ok {
		log.Error("user not found in context")
		return
	}
	id, err := request.UUIDParam(r, "id")
	if err != nil {
		badRequest(w, r, log, err, "invalid id")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), actor, id); err != nil {
		log.Error("failed to delete product", sl.Err(err))
		response.ServiceError(w, r, err)
		return
	}
	log.Info("product deleted", slog.String("id", id.String()))
	render.JSON(w, r, response.OK())
}
