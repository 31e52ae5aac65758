package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/models"
)

// ProvisionUser создаёт учётную запись вместе с профилем и пробной подпиской
// в одной транзакции. Если любая из вставок не удалась, не сохраняется ничего.
func (s *Storage) ProvisionUser(ctx context.Context, user models.User, profileName string, trialEnd time.Time) (uuid.UUID, error) {
	const op = "storage.ProvisionUser"

	var newID uuid.UUID
	err := s.InTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO users (email, password_hash, role)
			 VALUES ($1, $2, $3)
			 RETURNING uid`,
			user.Email, user.PasswordHash, user.Role).Scan(&newID); err != nil {
			return wrap(op, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, full_name) VALUES ($1, $2)`,
			newID, profileName); err != nil {
			return wrap(op, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (user_id, status, expiration_date, plan)
			 VALUES ($1, $2, $3, $4)`,
			newID, models.SubscriptionTest, trialEnd, models.DefaultPlan); err != nil {
			return wrap(op, err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return newID, nil
}

// GetUserByEmail возвращает учётную запись по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	u := &models.User{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT uid, email, password_hash, role, created_at
		 FROM users
		 WHERE email = $1`, email).
		Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUser возвращает учётную запись по UID.
func (s *Storage) GetUser(ctx context.Context, userUID uuid.UUID) (*models.User, error) {
	const op = "storage.GetUser"

	u := &models.User{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT uid, email, password_hash, role, created_at
		 FROM users
		 WHERE uid = $1`, userUID).
		Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// DeleteUser удаляет учётную запись. Профиль, каталог, продажи с позициями
// и подписка удаляются каскадно средствами БД.
func (s *Storage) DeleteUser(ctx context.Context, userUID uuid.UUID) error {
	const op = "storage.DeleteUser"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
	if err != nil {
		return wrap(op, err)
	}
	if err := affected(res); err != nil {
		return wrap(op, err)
	}
	return nil
}
