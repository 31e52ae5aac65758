package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/models"
)

// GetProfile возвращает профиль по ID пользователя.
func (s *Storage) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	const op = "storage.GetProfile"

	p := &models.Profile{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, full_name, phone, address, created_at
		 FROM profiles
		 WHERE id = $1`, id).
		Scan(&p.ID, &p.FullName, &p.Phone, &p.Address, &p.CreatedAt)
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// UpdateProfile обновляет изменяемые поля профиля.
func (s *Storage) UpdateProfile(ctx context.Context, p *models.Profile) error {
	const op = "storage.UpdateProfile"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE profiles
		 SET full_name = $1, phone = $2, address = $3
		 WHERE id = $4`,
		p.FullName, p.Phone, p.Address, p.ID)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}
