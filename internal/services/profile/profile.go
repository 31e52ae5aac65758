// Package services содержит бизнес-логику профиля пользователя.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// ProfileRepository операции хранилища над профилями.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
}

// ProfileService чтение и изменение собственного профиля.
type ProfileService struct {
	repo   ProfileRepository
	policy authz.Authorizer
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(repo ProfileRepository, policy authz.Authorizer) *ProfileService {
	return &ProfileService{repo: repo, policy: policy}
}

// Get возвращает профиль субъекта.
func (s *ProfileService) Get(ctx context.Context, actor authz.Actor) (*models.Profile, error) {
	const op = "services.GetProfile"

	p, err := s.repo.GetProfile(ctx, actor.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpRead, authz.EntityProfile, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Update меняет заданные поля профиля субъекта; nil оставляет поле без изменений.
func (s *ProfileService) Update(ctx context.Context, actor authz.Actor, req models.DummyProfile) (*models.Profile, error) {
	const op = "services.UpdateProfile"

	p, err := s.repo.GetProfile(ctx, actor.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntityProfile, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.FullName != nil {
		p.FullName = req.FullName
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.Address != nil {
		p.Address = req.Address
	}
	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
