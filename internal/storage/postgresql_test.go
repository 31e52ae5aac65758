package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pos-store/internal/models"
)

func TestProvisionUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	trialEnd := time.Now().Add(models.TrialPeriod).UTC().Truncate(time.Second)
	id, err := storage.ProvisionUser(ctx, models.User{
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         models.RoleUser,
	}, models.DefaultProfileName, trialEnd)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	profile, err := storage.GetProfile(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, models.DefaultProfileName, *profile.FullName)

	sub, err := storage.SubscriptionByUser(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.SubscriptionTest, sub.Status)
	assert.Equal(t, models.DefaultPlan, sub.Plan)
	assert.WithinDuration(t, trialEnd, sub.ExpirationDate, time.Second)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := storage.ProvisionUser(ctx, models.User{
			Email:        "alice@example.com",
			PasswordHash: "hash",
			Role:         models.RoleUser,
		}, models.DefaultProfileName, trialEnd)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConstraint))
	})

	t.Run("failure leaves nothing behind", func(t *testing.T) {
		_, err := storage.DB.Exec(`ALTER TABLE subscriptions ADD CONSTRAINT block_basic CHECK (plan <> 'basic')`)
		require.NoError(t, err)
		defer func() {
			_, _ = storage.DB.Exec(`ALTER TABLE subscriptions DROP CONSTRAINT block_basic`)
		}()

		_, err = storage.ProvisionUser(ctx, models.User{
			Email:        "broken@example.com",
			PasswordHash: "hash",
			Role:         models.RoleUser,
		}, models.DefaultProfileName, trialEnd)
		require.Error(t, err)

		var ce *ConstraintError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "block_basic", ce.Constraint)

		v := NewTestVerification(storage)
		assert.Zero(t, v.CountRows(t, `SELECT COUNT(*) FROM users WHERE email = $1`, "broken@example.com"))
		assert.Equal(t, 1, v.CountRows(t, `SELECT COUNT(*) FROM profiles`))
		assert.Equal(t, 1, v.CountRows(t, `SELECT COUNT(*) FROM subscriptions`))
	})
}

func TestProducts_BarcodeUniquePerOwner(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	bob := f.CreateUser(t, "bob@example.com")

	f.CreateProduct(t, alice, nil, "Coffee", ptr("7501234567890"))

	dup := &models.Product{UserID: alice, Name: "Coffee 2", Barcode: ptr("7501234567890")}
	err := storage.CreateProduct(ctx, dup)
	require.Error(t, err)
	var ce *ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "products_user_id_barcode_key", ce.Constraint)

	// Тот же штрихкод у другого владельца допустим.
	f.CreateProduct(t, bob, nil, "Coffee", ptr("7501234567890"))

	// Товары без штрихкода не конфликтуют.
	f.CreateProduct(t, alice, nil, "Loose tea", nil)
	f.CreateProduct(t, alice, nil, "Loose sugar", nil)

	found, err := storage.ListProducts(ctx, alice, models.ProductFilter{Barcode: ptr("7501234567890")})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Coffee", found[0].Name)
}

func TestProducts_OwnerScopedQueries(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	bob := f.CreateUser(t, "bob@example.com")

	drinks := f.CreateCategory(t, alice, "Drinks")
	cola := f.CreateProduct(t, alice, &drinks.ID, "Cola", nil)
	f.CreateProduct(t, alice, nil, "Bread", nil)
	f.CreateProduct(t, bob, nil, "Milk", nil)

	list, err := storage.ListProducts(ctx, alice, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = storage.ListProducts(ctx, alice, models.ProductFilter{CategoryID: &drinks.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cola.ID, list[0].ID)

	list, err = storage.ListProducts(ctx, alice, models.ProductFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Cola", list[0].Name)

	hijack := *cola
	hijack.UserID = bob
	hijack.Name = "Stolen"
	err = storage.UpdateProduct(ctx, &hijack)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = storage.DeleteProduct(ctx, cola.ID, bob)
	assert.True(t, errors.Is(err, ErrNotFound))

	owner, found, err := storage.ProductOwner(ctx, cola.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, alice, owner)

	_, found, err = storage.ProductOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCategories_DeleteDetachesProducts(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	bob := f.CreateUser(t, "bob@example.com")
	drinks := f.CreateCategory(t, alice, "Drinks")
	cola := f.CreateProduct(t, alice, &drinks.ID, "Cola", nil)

	err := storage.DeleteCategory(ctx, drinks.ID, bob)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, storage.DeleteCategory(ctx, drinks.ID, alice))

	got, err := storage.GetProduct(ctx, cola.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestSales_CreateWithItems(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	cola := f.CreateProduct(t, alice, nil, "Cola", nil)
	bread := f.CreateProduct(t, alice, nil, "Bread", nil)

	sale := f.CreateSale(t, alice, cola, bread)
	require.NotEqual(t, uuid.Nil, sale.ID)

	got, err := storage.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("19.98").Equal(got.TotalUSD))
	assert.True(t, decimal.RequireFromString("36.50").Equal(got.ExchangeRate))
	assert.Equal(t, models.PaymentCash, got.PaymentMethod)

	items, err := storage.ListSaleItems(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	owner, found, err := storage.SaleOwner(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, alice, owner)

	t.Run("invalid item rolls back sale", func(t *testing.T) {
		bad := &models.Sale{
			UserID:        alice,
			TotalUSD:      decimal.RequireFromString("1.00"),
			ExchangeRate:  decimal.RequireFromString("1.00"),
			PaymentMethod: models.PaymentZelle,
			Items:         []models.SaleItem{{Quantity: 0, PriceAtSaleUSD: decimal.Zero}},
		}
		err := storage.CreateSale(ctx, bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConstraint))

		sales, err := storage.ListSales(ctx, alice, 50, 0)
		require.NoError(t, err)
		assert.Len(t, sales, 1)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		bad := &models.Sale{
			UserID:        alice,
			TotalUSD:      decimal.Zero,
			ExchangeRate:  decimal.Zero,
			PaymentMethod: "barter",
		}
		err := storage.CreateSale(ctx, bad)
		assert.True(t, errors.Is(err, ErrConstraint))
	})

	t.Run("negative total", func(t *testing.T) {
		bad := &models.Sale{
			UserID:        alice,
			TotalUSD:      decimal.RequireFromString("-1"),
			ExchangeRate:  decimal.Zero,
			PaymentMethod: models.PaymentCash,
		}
		err := storage.CreateSale(ctx, bad)
		assert.True(t, errors.Is(err, ErrConstraint))
	})
}

func TestSales_CreateRechecksSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	cola := f.CreateProduct(t, alice, nil, "Cola", nil)

	// Подписка истекла уже после проверки политики.
	require.NoError(t, storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: alice, Status: models.SubscriptionExpired, ExpirationDate: time.Now().Add(time.Hour), Plan: models.DefaultPlan,
	}))

	sale := &models.Sale{
		UserID:        alice,
		TotalUSD:      decimal.RequireFromString("9.99"),
		ExchangeRate:  decimal.RequireFromString("1.00"),
		PaymentMethod: models.PaymentCash,
		Items:         []models.SaleItem{{ProductID: &cola.ID, Quantity: 1, PriceAtSaleUSD: decimal.RequireFromString("9.99")}},
	}
	err := storage.CreateSale(ctx, sale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubscriptionInactive))

	require.NoError(t, storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: alice, Status: models.SubscriptionActive, ExpirationDate: time.Now().Add(-time.Minute), Plan: models.DefaultPlan,
	}))
	err = storage.CreateSale(ctx, sale)
	assert.True(t, errors.Is(err, ErrSubscriptionInactive))

	sales, err := storage.ListSales(ctx, alice, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, sales)

	require.NoError(t, storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: alice, Status: models.SubscriptionActive, ExpirationDate: time.Now().Add(time.Hour), Plan: models.DefaultPlan,
	}))
	require.NoError(t, storage.CreateSale(ctx, sale))
}

func TestSaleItems_ProductDeleteKeepsHistory(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	cola := f.CreateProduct(t, alice, nil, "Cola", nil)
	sale := f.CreateSale(t, alice, cola)

	require.NoError(t, storage.DeleteProduct(ctx, cola.ID, alice))

	items, err := storage.ListSaleItems(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ProductID)
	assert.True(t, cola.PriceUSD.Equal(items[0].PriceAtSaleUSD))
}

func TestSaleItems_CRUD(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	cola := f.CreateProduct(t, alice, nil, "Cola", nil)
	sale := f.CreateSale(t, alice)

	item := &models.SaleItem{SaleID: sale.ID, ProductID: &cola.ID, Quantity: 2, PriceAtSaleUSD: cola.PriceUSD}
	require.NoError(t, storage.CreateSaleItem(ctx, item))

	item.Quantity = 3
	require.NoError(t, storage.UpdateSaleItem(ctx, item))

	got, err := storage.GetSaleItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	require.NoError(t, storage.DeleteSaleItem(ctx, item.ID))
	_, err = storage.GetSaleItem(ctx, item.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteUser_Cascades(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	bob := f.CreateUser(t, "bob@example.com")
	drinks := f.CreateCategory(t, alice, "Drinks")
	cola := f.CreateProduct(t, alice, &drinks.ID, "Cola", nil)
	f.CreateSale(t, alice, cola)
	f.CreateProduct(t, bob, nil, "Milk", nil)

	require.NoError(t, storage.DeleteUser(ctx, alice))

	v := NewTestVerification(storage)
	for _, q := range []string{
		`SELECT COUNT(*) FROM profiles WHERE id = $1`,
		`SELECT COUNT(*) FROM categories WHERE user_id = $1`,
		`SELECT COUNT(*) FROM products WHERE user_id = $1`,
		`SELECT COUNT(*) FROM sales WHERE user_id = $1`,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`,
	} {
		assert.Zero(t, v.CountRows(t, q, alice), q)
	}
	assert.Zero(t, v.CountRows(t, `SELECT COUNT(*) FROM sale_items`))
	assert.Equal(t, 1, v.CountRows(t, `SELECT COUNT(*) FROM products WHERE user_id = $1`, bob))

	err := storage.DeleteUser(ctx, alice)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSubscriptions_Lifecycle(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	sub, err := storage.SubscriptionByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, sub)

	now := time.Now().UTC().Truncate(time.Second)
	alice := f.CreateUser(t, "alice@example.com")
	bob := f.CreateUser(t, "bob@example.com")
	carol := f.CreateUser(t, "carol@example.com")

	require.NoError(t, storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: alice, Status: models.SubscriptionActive, ExpirationDate: now.Add(-time.Minute), Plan: "pro",
	}))
	require.NoError(t, storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: bob, Status: models.SubscriptionTest, ExpirationDate: now.Add(2 * time.Hour), Plan: models.DefaultPlan,
	}))

	expiring, err := storage.ClaimExpiring(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, bob, expiring[0].UserID)
	assert.Equal(t, "bob@example.com", expiring[0].Email)

	// Следующий проход через час видит тот же срок: напоминание не повторяется.
	later := now.Add(time.Hour)
	expiring, err = storage.ClaimExpiring(ctx, later, later.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expiring)

	// Новый срок снимает отметку.
	require.NoError(t, storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: bob, Status: models.SubscriptionTest, ExpirationDate: now.Add(3 * time.Hour), Plan: models.DefaultPlan,
	}))
	expiring, err = storage.ClaimExpiring(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, bob, expiring[0].UserID)

	expired, err := storage.ExpireDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, alice, expired[0].UserID)
	assert.Equal(t, models.SubscriptionExpired, expired[0].Status)
	assert.Equal(t, "alice@example.com", expired[0].Email)

	// Повторный проход ничего не меняет.
	expired, err = storage.ExpireDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)

	sub, err = storage.SubscriptionByUser(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionTest, sub.Status)

	err = storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: uuid.New(), Status: models.SubscriptionActive, ExpirationDate: now, Plan: "pro",
	})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = storage.UpdateSubscription(ctx, &models.Subscription{
		UserID: carol, Status: "paused", ExpirationDate: now, Plan: "pro",
	})
	assert.True(t, errors.Is(err, ErrConstraint))
}

func TestProfiles_Update(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	f := NewTestDataFactory(storage)
	ctx := context.Background()

	alice := f.CreateUser(t, "alice@example.com")
	p, err := storage.GetProfile(ctx, alice)
	require.NoError(t, err)

	p.FullName = ptr("Alice Doe")
	p.Phone = ptr("+58 412 0000000")
	require.NoError(t, storage.UpdateProfile(ctx, p))

	got, err := storage.GetProfile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice Doe", *got.FullName)
	assert.Equal(t, "+58 412 0000000", *got.Phone)
	assert.Nil(t, got.Address)

	err = storage.UpdateProfile(ctx, &models.Profile{ID: uuid.New()})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCheckDatabaseReady(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	require.NoError(t, CheckDatabaseReady(context.Background(), storage))
}
