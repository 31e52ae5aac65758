package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-store/internal/models"
	"github.com/magabrotheeeer/pos-store/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateProduct(ctx context.Context, actor authz.Actor, req models.DummyProduct) (*models.Product, error) {
	args := m.Called(ctx, actor, req)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *ServiceMock) GetProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, actor, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *ServiceMock) ListProducts(ctx context.Context, actor authz.Actor, f models.ProductFilter) ([]*models.Product, error) {
	args := m.Called(ctx, actor, f)
	list, _ := args.Get(0).([]*models.Product)
	return list, args.Error(1)
}

func (m *ServiceMock) UpdateProduct(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummyProduct) (*models.Product, error) {
	args := m.Called(ctx, actor, id, req)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *ServiceMock) DeleteProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func newRequest(method, target, body, id string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middlewarectx.WithUser(req.Context(), alice, models.RoleUser)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestProductHandler_Create(t *testing.T) {
	barcode := "7591001"

	tests := []struct {
		name       string
		body       string
		setup      func(*ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: `{"name":"Malta","barcode":"7591001","price_usd":"1.50"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateProduct", mock.Anything, authz.User(alice), mock.MatchedBy(func(req models.DummyProduct) bool {
					return req.Name == "Malta" && *req.Barcode == barcode && req.PriceUSD.Equal(decimal.RequireFromString("1.50"))
				})).Return(&models.Product{ID: uuid.New(), UserID: alice, Name: "Malta", Barcode: &barcode, MinStock: models.DefaultMinStock}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"min_stock":5`,
		},
		{
			name: "duplicate barcode",
			body: `{"name":"Malta","barcode":"7591001"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateProduct", mock.Anything, authz.User(alice), mock.Anything).
					Return(nil, fmt.Errorf("services.CreateProduct: %w", &storage.ConstraintError{Code: "23505", Constraint: "products_user_id_barcode_key"})).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"error":"constraint violated: products_user_id_barcode_key"`,
		},
		{
			name: "foreign category",
			body: `{"name":"Malta","category_id":"22222222-2222-2222-2222-222222222222"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateProduct", mock.Anything, authz.User(alice), mock.Anything).
					Return(nil, fmt.Errorf("services.CreateProduct: %w", authz.ErrNotFound)).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"error":"not found"`,
		},
		{
			name: "price with three decimals",
			body: `{"name":"Malta","price_usd":"1.505"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateProduct", mock.Anything, authz.User(alice), mock.Anything).
					Return(nil, fmt.Errorf("services.CreateProduct: %w", models.ErrInvalidAmount)).Once()
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   models.ErrInvalidAmount.Error(),
		},
		{
			name:       "negative stock",
			body:       `{"name":"Malta","stock":-1}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field Stock is too small`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).Create(rec, newRequest(http.MethodPost, "/products", tt.body, ""))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_List(t *testing.T) {
	categoryID := uuid.New()
	barcode := "7591001"

	tests := []struct {
		name       string
		target     string
		filter     *models.ProductFilter
		wantStatus int
	}{
		{name: "no filter", target: "/products", filter: &models.ProductFilter{}, wantStatus: http.StatusOK},
		{
			name:       "by category",
			target:     "/products?category_id=" + categoryID.String() + "&limit=10&offset=20",
			filter:     &models.ProductFilter{CategoryID: &categoryID, Limit: 10, Offset: 20},
			wantStatus: http.StatusOK,
		},
		{name: "by barcode", target: "/products?barcode=7591001", filter: &models.ProductFilter{Barcode: &barcode}, wantStatus: http.StatusOK},
		{name: "bad category", target: "/products?category_id=drinks", wantStatus: http.StatusBadRequest},
		{name: "bad limit", target: "/products?limit=-5", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.filter != nil {
				svc.On("ListProducts", mock.Anything, authz.User(alice), *tt.filter).Return([]*models.Product{}, nil).Once()
			}
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).List(rec, newRequest(http.MethodGet, tt.target, "", ""))

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_GetUpdateDelete(t *testing.T) {
	id := uuid.New()
	svc := new(ServiceMock)
	svc.On("GetProduct", mock.Anything, authz.User(alice), id).
		Return(&models.Product{ID: id, UserID: alice, Name: "Malta"}, nil).Once()
	svc.On("UpdateProduct", mock.Anything, authz.User(alice), id, models.DummyProduct{Name: "Malta Light"}).
		Return(&models.Product{ID: id, UserID: alice, Name: "Malta Light"}, nil).Once()
	svc.On("DeleteProduct", mock.Anything, authz.User(alice), id).
		Return(fmt.Errorf("services.DeleteProduct: %w", errors.New("db down"))).Once()
	h := New(newNoopLogger(), svc)

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/products/"+id.String(), "", id.String()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Malta"`)

	rec = httptest.NewRecorder()
	h.Update(rec, newRequest(http.MethodPut, "/products/"+id.String(), `{"name":"Malta Light"}`, id.String()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Malta Light"`)

	rec = httptest.NewRecorder()
	h.Delete(rec, newRequest(http.MethodDelete, "/products/"+id.String(), "", id.String()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	svc.AssertExpectations(t)
}
