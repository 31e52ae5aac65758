package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/models"
)

const subscriptionColumns = `id, user_id, status, expiration_date, plan, created_at`

// SubscriptionByUser возвращает подписку пользователя или nil, если её нет.
// Значение всегда читается из БД.
func (s *Storage) SubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	const op = "storage.SubscriptionByUser"

	sub := &models.Subscription{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID).
		Scan(&sub.ID, &sub.UserID, &sub.Status, &sub.ExpirationDate, &sub.Plan, &sub.CreatedAt)
	if err != nil {
		err = classify(err)
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return sub, nil
}

// UpdateSubscription меняет статус, срок и план подписки пользователя.
// Используется только системным путём.
func (s *Storage) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.UpdateSubscription"

	err := s.DB.QueryRowContext(ctx,
		`UPDATE subscriptions
		 SET status = $1, expiration_date = $2, plan = $3
		 WHERE user_id = $4
		 RETURNING id, created_at`,
		sub.Status, sub.ExpirationDate, sub.Plan, sub.UserID).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

// ExpireDue переводит в expired все действующие подписки со сроком не позже now
// и возвращает изменённые строки с email владельца.
func (s *Storage) ExpireDue(ctx context.Context, now time.Time) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ExpireDue"

	rows, err := s.DB.QueryContext(ctx,
		`UPDATE subscriptions s
		 SET status = 'expired'
		 FROM users u
		 WHERE s.user_id = u.uid
		   AND s.status IN ('active', 'test')
		   AND s.expiration_date <= $1
		 RETURNING s.id, s.user_id, s.status, s.expiration_date, s.plan, s.created_at, u.email`, now)
	if err != nil {
		return nil, wrap(op, err)
	}
	return scanSubscriptionInfos(op, rows)
}

// ClaimExpiring отмечает и возвращает действующие подписки, истекающие в интервале
// (now, until], о текущем сроке которых владелец ещё не предупреждён.
// Повторный вызов для того же срока ничего не возвращает.
func (s *Storage) ClaimExpiring(ctx context.Context, now, until time.Time) ([]*models.SubscriptionInfo, error) {
	const op = "storage.ClaimExpiring"

	rows, err := s.DB.QueryContext(ctx,
		`UPDATE subscriptions s
		 SET reminded_for = s.expiration_date
		 FROM users u
		 WHERE s.user_id = u.uid
		   AND s.status IN ('active', 'test')
		   AND s.expiration_date > $1
		   AND s.expiration_date <= $2
		   AND s.reminded_for IS DISTINCT FROM s.expiration_date
		 RETURNING s.id, s.user_id, s.status, s.expiration_date, s.plan, s.created_at, u.email`, now, until)
	if err != nil {
		return nil, wrap(op, err)
	}
	return scanSubscriptionInfos(op, rows)
}

func scanSubscriptionInfos(op string, rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close() error
}) ([]*models.SubscriptionInfo, error) {
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionInfo
	for rows.Next() {
		si := &models.SubscriptionInfo{}
		if err := rows.Scan(&si.ID, &si.UserID, &si.Status, &si.ExpirationDate,
			&si.Plan, &si.CreatedAt, &si.Email); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, si)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}
