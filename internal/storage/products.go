package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/models"
)

const productColumns = `id, user_id, category_id, name, barcode, price_usd, stock, min_stock, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.UserID, &p.CategoryID, &p.Name, &p.Barcode,
		&p.PriceUSD, &p.Stock, &p.MinStock, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProduct вставляет товар. Повтор штрихкода у того же владельца
// возвращает ConstraintError с именем products_user_id_barcode_key.
func (s *Storage) CreateProduct(ctx context.Context, p *models.Product) error {
	const op = "storage.CreateProduct"

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO products (user_id, category_id, name, barcode, price_usd, stock, min_stock)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		p.UserID, p.CategoryID, p.Name, p.Barcode, p.PriceUSD, p.Stock, p.MinStock).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

// GetProduct возвращает товар по ID без учёта владельца.
func (s *Storage) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	const op = "storage.GetProduct"

	p, err := scanProduct(s.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// ListProducts возвращает товары владельца с необязательными фильтрами.
func (s *Storage) ListProducts(ctx context.Context, owner uuid.UUID, f models.ProductFilter) ([]*models.Product, error) {
	const op = "storage.ListProducts"

	conditions := []string{"user_id = $1"}
	args := []any{owner}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Barcode != nil {
		args = append(args, *f.Barcode)
		conditions = append(conditions, fmt.Sprintf("barcode = $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY name, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateProduct обновляет товар владельца.
func (s *Storage) UpdateProduct(ctx context.Context, p *models.Product) error {
	const op = "storage.UpdateProduct"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE products
		 SET category_id = $1, name = $2, barcode = $3, price_usd = $4, stock = $5, min_stock = $6
		 WHERE id = $7 AND user_id = $8`,
		p.CategoryID, p.Name, p.Barcode, p.PriceUSD, p.Stock, p.MinStock, p.ID, p.UserID)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeleteProduct удаляет товар владельца. Позиции продаж сохраняются
// с обнулённой ссылкой на товар.
func (s *Storage) DeleteProduct(ctx context.Context, id, owner uuid.UUID) error {
	const op = "storage.DeleteProduct"

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// ProductOwner возвращает владельца товара.
func (s *Storage) ProductOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	return s.ownerOf(ctx, "storage.ProductOwner", `SELECT user_id FROM products WHERE id = $1`, id)
}
