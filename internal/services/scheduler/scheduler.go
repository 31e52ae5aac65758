// Package services содержит планировщик жизненного цикла подписок:
// периодически переводит истёкшие подписки в expired и публикует события.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// Lifecycle системные операции над подписками.
type Lifecycle interface {
	ExpireDue(ctx context.Context, actor authz.Actor, now time.Time) ([]*models.SubscriptionInfo, error)
	ClaimExpiring(ctx context.Context, actor authz.Actor, now time.Time, window time.Duration) ([]*models.SubscriptionInfo, error)
}

// Publisher публикует событие с ключом маршрутизации.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// SchedulerService выполняет проходы по подпискам от имени системного субъекта.
type SchedulerService struct {
	subs     Lifecycle
	pub      Publisher
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// interval период проходов, window горизонт напоминаний об окончании срока.
func NewSchedulerService(subs Lifecycle, pub Publisher, interval, window time.Duration, now func() time.Time, log *slog.Logger) *SchedulerService {
	if now == nil {
		now = time.Now
	}
	return &SchedulerService{
		subs:     subs,
		pub:      pub,
		interval: interval,
		window:   window,
		now:      now,
		log:      log,
	}
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep один проход: истёкшие подписки и напоминания.
// Возвращает число опубликованных событий.
func (s *SchedulerService) Sweep(ctx context.Context) int {
	now := s.now()
	return s.expire(ctx, now) + s.remind(ctx, now)
}

func (s *SchedulerService) expire(ctx context.Context, now time.Time) int {
	expired, err := s.subs.ExpireDue(ctx, authz.System, now)
	if err != nil {
		s.log.Error("failed to expire subscriptions", sl.Err(err))
		return 0
	}
	if len(expired) == 0 {
		s.log.Debug("no expired subscriptions found")
		return 0
	}
	s.log.Info("subscriptions expired", slog.Int("count", len(expired)))
	return s.publish(models.EventSubscriptionExpired, expired)
}

func (s *SchedulerService) remind(ctx context.Context, now time.Time) int {
	expiring, err := s.subs.ClaimExpiring(ctx, authz.System, now, s.window)
	if err != nil {
		s.log.Error("failed to claim expiring subscriptions", sl.Err(err))
		return 0
	}
	if len(expiring) == 0 {
		return 0
	}
	s.log.Info("found expiring subscriptions", slog.Int("count", len(expiring)))
	return s.publish(models.EventSubscriptionExpiring, expiring)
}

func (s *SchedulerService) publish(eventType string, list []*models.SubscriptionInfo) int {
	published := 0
	for _, info := range list {
		event := models.SubscriptionEvent{
			Type:           eventType,
			UserID:         info.UserID,
			Email:          info.Email,
			Status:         info.Status,
			Plan:           info.Plan,
			ExpirationDate: info.ExpirationDate,
		}
		if err := s.pub.Publish(eventType, event); err != nil {
			s.log.Error("failed to publish message",
				slog.String("type", eventType),
				slog.String("user_id", info.UserID.String()),
				sl.Err(err),
			)
			continue
		}
		published++
	}
	return published
}
