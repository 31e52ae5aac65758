// Package services содержит жизненный цикл подписки магазина. Пользователь
// может только читать свою подписку; изменения выполняются системным путём.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/lib/metrics"
	"github.com/magabrotheeeer/pos-store/internal/models"
	"github.com/magabrotheeeer/pos-store/internal/storage"
)

// ErrInvalidExpiration не задан срок действия подписки.
var ErrInvalidExpiration = errors.New("expiration_date is required")

// SubscriptionRepository операции хранилища над подписками.
type SubscriptionRepository interface {
	// SubscriptionByUser возвращает подписку пользователя или nil.
	SubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	// UpdateSubscription меняет статус, срок и план.
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	// ExpireDue переводит истёкшие подписки в expired.
	ExpireDue(ctx context.Context, now time.Time) ([]*models.SubscriptionInfo, error)
	// ClaimExpiring отмечает и возвращает подписки, истекающие в интервале (now, until],
	// о текущем сроке которых ещё не предупреждали.
	ClaimExpiring(ctx context.Context, now, until time.Time) ([]*models.SubscriptionInfo, error)
}

// SubscriptionService чтение и системные изменения подписок.
type SubscriptionService struct {
	repo   SubscriptionRepository
	policy authz.Authorizer
	log    *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, policy authz.Authorizer, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:   repo,
		policy: policy,
		log:    log,
	}
}

// Get возвращает подписку субъекта.
func (s *SubscriptionService) Get(ctx context.Context, actor authz.Actor) (*models.Subscription, error) {
	const op = "services.GetSubscription"

	sub, err := s.repo.SubscriptionByUser(ctx, actor.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpRead, authz.EntitySubscription, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// SetStatus меняет подписку пользователя userID. Пустой план оставляет текущий.
// Пользовательские субъекты получают отказ.
func (s *SubscriptionService) SetStatus(ctx context.Context, actor authz.Actor, userID uuid.UUID, req models.DummySubscriptionUpdate) (*models.Subscription, error) {
	const op = "services.SetStatus"

	if req.ExpirationDate.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidExpiration)
	}
	sub, err := s.repo.SubscriptionByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntitySubscription, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub.Status = req.Status
	sub.ExpirationDate = req.ExpirationDate
	if req.Plan != "" {
		sub.Plan = req.Plan
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription updated",
		slog.String("user_id", userID.String()),
		slog.String("status", sub.Status),
		slog.Time("expiration_date", sub.ExpirationDate),
	)
	return sub, nil
}

// ExpireDue переводит в expired все подписки, срок которых наступил к now.
func (s *SubscriptionService) ExpireDue(ctx context.Context, actor authz.Actor, now time.Time) ([]*models.SubscriptionInfo, error) {
	const op = "services.ExpireDue"

	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntitySubscription, &models.Subscription{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	expired, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SubscriptionsExpired.Add(float64(len(expired)))
	return expired, nil
}

// ClaimExpiring возвращает подписки, истекающие в течение window после now,
// по которым напоминание ещё не отправлялось. Каждый срок выдаётся один раз.
func (s *SubscriptionService) ClaimExpiring(ctx context.Context, actor authz.Actor, now time.Time, window time.Duration) ([]*models.SubscriptionInfo, error) {
	const op = "services.ClaimExpiring"

	// Пустая строка не принадлежит ни одному пользователю: пройдёт только системный субъект.
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntitySubscription, &models.Subscription{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err := s.repo.ClaimExpiring(ctx, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
