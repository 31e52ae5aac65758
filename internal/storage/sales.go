package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/models"
)

const (
	saleColumns     = `id, user_id, total_usd, exchange_rate, payment_method, is_credit, client_name, created_at`
	saleItemColumns = `id, sale_id, product_id, quantity, price_at_sale_usd`
)

func scanSale(row interface{ Scan(...any) error }) (*models.Sale, error) {
	s := &models.Sale{}
	if err := row.Scan(&s.ID, &s.UserID, &s.TotalUSD, &s.ExchangeRate, &s.PaymentMethod,
		&s.IsCredit, &s.ClientName, &s.CreatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func scanSaleItem(row interface{ Scan(...any) error }) (*models.SaleItem, error) {
	it := &models.SaleItem{}
	if err := row.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.PriceAtSaleUSD); err != nil {
		return nil, err
	}
	return it, nil
}

// CreateSale сохраняет продажу и её позиции в одной транзакции.
// Идентификаторы и время создания записываются в переданные структуры.
// Если подписка владельца не действует на момент вставки, возвращается ErrSubscriptionInactive.
func (s *Storage) CreateSale(ctx context.Context, sale *models.Sale) error {
	const op = "storage.CreateSale"

	return s.InTx(ctx, func(tx *sql.Tx) error {
		// Подписка блокируется до конца транзакции: смена статуса или срока
		// не может проскочить между проверкой и вставкой.
		sub := &models.Subscription{UserID: sale.UserID}
		err := tx.QueryRowContext(ctx,
			`SELECT status, expiration_date FROM subscriptions WHERE user_id = $1 FOR SHARE`,
			sale.UserID).Scan(&sub.Status, &sub.ExpirationDate)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return wrap(op, err)
		}
		if err != nil || !sub.AllowsSales(time.Now()) {
			return fmt.Errorf("%s: %w", op, ErrSubscriptionInactive)
		}

		if err := tx.QueryRowContext(ctx,
			`INSERT INTO sales (user_id, total_usd, exchange_rate, payment_method, is_credit, client_name)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at`,
			sale.UserID, sale.TotalUSD, sale.ExchangeRate, sale.PaymentMethod, sale.IsCredit, sale.ClientName).
			Scan(&sale.ID, &sale.CreatedAt); err != nil {
			return wrap(op, err)
		}

		for i := range sale.Items {
			sale.Items[i].SaleID = sale.ID
			if err := insertSaleItem(ctx, tx, &sale.Items[i]); err != nil {
				return wrap(op, err)
			}
		}
		return nil
	})
}

func insertSaleItem(ctx context.Context, q querier, it *models.SaleItem) error {
	return q.QueryRowContext(ctx,
		`INSERT INTO sale_items (sale_id, product_id, quantity, price_at_sale_usd)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		it.SaleID, it.ProductID, it.Quantity, it.PriceAtSaleUSD).Scan(&it.ID)
}

// GetSale возвращает продажу по ID без позиций.
func (s *Storage) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	const op = "storage.GetSale"

	sale, err := scanSale(s.DB.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return sale, nil
}

// ListSales возвращает продажи владельца, новые первыми.
func (s *Storage) ListSales(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*models.Sale, error) {
	const op = "storage.ListSales"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+saleColumns+` FROM sales
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`, owner, limit, offset)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// SaleOwner возвращает владельца продажи.
func (s *Storage) SaleOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	return s.ownerOf(ctx, "storage.SaleOwner", `SELECT user_id FROM sales WHERE id = $1`, id)
}

// CreateSaleItem добавляет позицию к существующей продаже.
func (s *Storage) CreateSaleItem(ctx context.Context, it *models.SaleItem) error {
	const op = "storage.CreateSaleItem"

	if err := insertSaleItem(ctx, s.DB, it); err != nil {
		return wrap(op, err)
	}
	return nil
}

// GetSaleItem возвращает позицию по ID.
func (s *Storage) GetSaleItem(ctx context.Context, id uuid.UUID) (*models.SaleItem, error) {
	const op = "storage.GetSaleItem"

	it, err := scanSaleItem(s.DB.QueryRowContext(ctx,
		`SELECT `+saleItemColumns+` FROM sale_items WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return it, nil
}

// ListSaleItems возвращает позиции продажи.
func (s *Storage) ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]*models.SaleItem, error) {
	const op = "storage.ListSaleItems"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SaleItem
	for rows.Next() {
		it, err := scanSaleItem(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateSaleItem меняет товар, количество и цену позиции. Продажа позиции не меняется.
func (s *Storage) UpdateSaleItem(ctx context.Context, it *models.SaleItem) error {
	const op = "storage.UpdateSaleItem"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE sale_items
		 SET product_id = $1, quantity = $2, price_at_sale_usd = $3
		 WHERE id = $4 AND sale_id = $5`,
		it.ProductID, it.Quantity, it.PriceAtSaleUSD, it.ID, it.SaleID)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeleteSaleItem удаляет позицию.
func (s *Storage) DeleteSaleItem(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteSaleItem"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM sale_items WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}
