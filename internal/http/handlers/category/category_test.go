package category

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateCategory(ctx context.Context, actor authz.Actor, req models.DummyCategory) (*models.Category, error) {
	args := m.Called(ctx, actor, req)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *ServiceMock) GetCategory(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, actor, id)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *ServiceMock) ListCategories(ctx context.Context, actor authz.Actor) ([]*models.Category, error) {
	args := m.Called(ctx, actor)
	list, _ := args.Get(0).([]*models.Category)
	return list, args.Error(1)
}

func (m *ServiceMock) UpdateCategory(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummyCategory) (*models.Category, error) {
	args := m.Called(ctx, actor, id, req)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *ServiceMock) DeleteCategory(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
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

func TestCategoryHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "default colour",
			body: `{"name":"Drinks"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateCategory", mock.Anything, authz.User(alice), models.DummyCategory{Name: "Drinks"}).
					Return(&models.Category{ID: uuid.New(), UserID: alice, Name: "Drinks", Color: models.DefaultCategoryColor}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"color":"#3b82f6"`,
		},
		{
			name:       "missing name",
			body:       `{"color":"#ffffff"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field Name is a required field`,
		},
		{
			name:       "bad colour",
			body:       `{"name":"Drinks","color":"blue"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field Color must be a hex color`,
		},
		{
			name:       "bad json",
			body:       `name=Drinks`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"invalid request body"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).Create(rec, newRequest(http.MethodPost, "/categories", tt.body, ""))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestCategoryHandler_List(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ListCategories", mock.Anything, authz.User(alice)).
		Return([]*models.Category{{Name: "Drinks"}, {Name: "Snacks"}}, nil).Once()
	rec := httptest.NewRecorder()

	New(newNoopLogger(), svc).List(rec, newRequest(http.MethodGet, "/categories", "", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Snacks"`)
	svc.AssertExpectations(t)
}

func TestCategoryHandler_ForeignRowIsNotFound(t *testing.T) {
	id := uuid.New()
	denied := fmt.Errorf("services.GetCategory: %w", authz.ErrNotFound)

	svc := new(ServiceMock)
	svc.On("GetCategory", mock.Anything, authz.User(alice), id).Return(nil, denied).Once()
	svc.On("UpdateCategory", mock.Anything, authz.User(alice), id, models.DummyCategory{Name: "x"}).Return(nil, denied).Once()
	svc.On("DeleteCategory", mock.Anything, authz.User(alice), id).Return(denied).Once()
	h := New(newNoopLogger(), svc)

	calls := []struct {
		name string
		fn   http.HandlerFunc
		req  *http.Request
	}{
		{"get", h.Get, newRequest(http.MethodGet, "/categories/"+id.String(), "", id.String())},
		{"update", h.Update, newRequest(http.MethodPut, "/categories/"+id.String(), `{"name":"x"}`, id.String())},
		{"delete", h.Delete, newRequest(http.MethodDelete, "/categories/"+id.String(), "", id.String())},
	}
	for _, c := range calls {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c.fn(rec, c.req)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"status":"Error","error":"not found"}`, rec.Body.String())
		})
	}
	svc.AssertExpectations(t)
}

func TestCategoryHandler_Delete(t *testing.T) {
	id := uuid.New()
	svc := new(ServiceMock)
	svc.On("DeleteCategory", mock.Anything, authz.User(alice), id).Return(nil).Once()
	rec := httptest.NewRecorder()

	New(newNoopLogger(), svc).Delete(rec, newRequest(http.MethodDelete, "/categories/"+id.String(), "", id.String()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestCategoryHandler_BadID(t *testing.T) {
	svc := new(ServiceMock)
	rec := httptest.NewRecorder()

	New(newNoopLogger(), svc).Get(rec, newRequest(http.MethodGet, "/categories/1", "", "1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "GetCategory", mock.Anything, mock.Anything, mock.Anything)
}
