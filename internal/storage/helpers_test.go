package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/pos-store/internal/migrations"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// TestDataFactory создаёт тестовые данные через методы хранилища.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser регистрирует пользователя с профилем и пробной подпиской.
func (f *TestDataFactory) CreateUser(t *testing.T, email string) uuid.UUID {
	t.Helper()
	id, err := f.storage.ProvisionUser(context.Background(), models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
	}, models.DefaultProfileName, time.Now().Add(models.TrialPeriod))
	require.NoError(t, err)
	return id
}

// CreateCategory создаёт категорию владельца.
func (f *TestDataFactory) CreateCategory(t *testing.T, owner uuid.UUID, name string) *models.Category {
	t.Helper()
	c := &models.Category{UserID: owner, Name: name, Color: models.DefaultCategoryColor}
	require.NoError(t, f.storage.CreateCategory(context.Background(), c))
	return c
}

// CreateProduct создаёт товар владельца.
func (f *TestDataFactory) CreateProduct(t *testing.T, owner uuid.UUID, categoryID *uuid.UUID, name string, barcode *string) *models.Product {
	t.Helper()
	p := &models.Product{
		UserID:     owner,
		CategoryID: categoryID,
		Name:       name,
		Barcode:    barcode,
		PriceUSD:   decimal.RequireFromString("9.99"),
		Stock:      10,
		MinStock:   models.DefaultMinStock,
	}
	require.NoError(t, f.storage.CreateProduct(context.Background(), p))
	return p
}

// CreateSale создаёт продажу владельца с одной позицией на каждый товар.
func (f *TestDataFactory) CreateSale(t *testing.T, owner uuid.UUID, products ...*models.Product) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		UserID:        owner,
		TotalUSD:      decimal.Zero,
		ExchangeRate:  decimal.RequireFromString("36.50"),
		PaymentMethod: models.PaymentCash,
	}
	for _, p := range products {
		id := p.ID
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID:      &id,
			Quantity:       1,
			PriceAtSaleUSD: p.PriceUSD,
		})
		sale.TotalUSD = sale.TotalUSD.Add(p.PriceUSD)
	}
	require.NoError(t, f.storage.CreateSale(context.Background(), sale))
	return sale
}

// TestVerification содержит общие проверки состояния БД.
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создаёт новый объект для проверки результатов.
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// CountRows возвращает число строк таблицы, удовлетворяющих условию.
func (v *TestVerification) CountRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var count int
	require.NoError(t, v.storage.DB.QueryRow(query, args...).Scan(&count))
	return count
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "Failed to create storage")

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to apply migrations")

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}

func ptr[T any](v T) *T {
	return &v
}
