package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/models"
)

const categoryColumns = `id, user_id, name, color, created_at`

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	c := &models.Category{}
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCategory вставляет категорию и заполняет ID и дату создания.
func (s *Storage) CreateCategory(ctx context.Context, c *models.Category) error {
	const op = "storage.CreateCategory"

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO categories (user_id, name, color)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.UserID, c.Name, c.Color).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

// GetCategory возвращает категорию по ID без учёта владельца;
// решение о доступе принимает политика.
func (s *Storage) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	const op = "storage.GetCategory"

	c, err := scanCategory(s.DB.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// ListCategories возвращает категории владельца, отсортированные по имени.
func (s *Storage) ListCategories(ctx context.Context, owner uuid.UUID) ([]*models.Category, error) {
	const op = "storage.ListCategories"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+categoryColumns+`
		 FROM categories
		 WHERE user_id = $1
		 ORDER BY name, id`, owner)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateCategory обновляет имя и цвет категории владельца.
func (s *Storage) UpdateCategory(ctx context.Context, c *models.Category) error {
	const op = "storage.UpdateCategory"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE categories
		 SET name = $1, color = $2
		 WHERE id = $3 AND user_id = $4`,
		c.Name, c.Color, c.ID, c.UserID)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeleteCategory удаляет категорию владельца. Ссылки товаров обнуляются БД.
func (s *Storage) DeleteCategory(ctx context.Context, id, owner uuid.UUID) error {
	const op = "storage.DeleteCategory"

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// CategoryOwner возвращает владельца категории.
func (s *Storage) CategoryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	return s.ownerOf(ctx, "storage.CategoryOwner", `SELECT user_id FROM categories WHERE id = $1`, id)
}

func (s *Storage) ownerOf(ctx context.Context, op, query string, id uuid.UUID) (uuid.UUID, bool, error) {
	var owner uuid.UUID
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&owner)
	if err != nil {
		err = classify(err)
		if err == ErrNotFound {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, wrap(op, err)
	}
	return owner, true, nil
}
