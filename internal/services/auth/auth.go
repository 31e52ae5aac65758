// Package services содержит регистрацию, вход и удаление учётных записей.
// Регистрация создаёт профиль и пробную подписку в одной транзакции с учётной записью.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/lib/jwt"
	"github.com/magabrotheeeer/pos-store/internal/lib/metrics"
	"github.com/magabrotheeeer/pos-store/internal/lib/password"
	"github.com/magabrotheeeer/pos-store/internal/models"
	"github.com/magabrotheeeer/pos-store/internal/storage"
)

// ErrInvalidCredentials неверный email или пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с учётными записями.
type UserRepository interface {
	// ProvisionUser атомарно создаёт учётную запись, профиль и подписку.
	ProvisionUser(ctx context.Context, user models.User, profileName string, trialEnd time.Time) (uuid.UUID, error)
	// GetUserByEmail возвращает учётную запись по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// DeleteUser удаляет учётную запись вместе со всеми данными пользователя.
	DeleteUser(ctx context.Context, userUID uuid.UUID) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	now      func() time.Time
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService. nil now означает time.Now.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, now func() time.Time, log *slog.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		now:      now,
		log:      log,
	}
}

// Register создаёт пользователя с ролью user, профилем по умолчанию
// и пробной подпиской на TrialPeriod.
func (s *AuthService) Register(ctx context.Context, email, rawPassword string) (uuid.UUID, error) {
	const op = "services.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        normalizeEmail(email),
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}
	trialEnd := s.now().UTC().Add(models.TrialPeriod)

	id, err := s.users.ProvisionUser(ctx, user, models.DefaultProfileName, trialEnd)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.UsersProvisioned.Inc()
	s.log.Info("user provisioned", slog.String("user_uid", id.String()), slog.Time("trial_end", trialEnd))
	return id, nil
}

// Login проверяет пароль и выпускает токен доступа.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken проверяет токен и возвращает субъекта и его роль.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, error) {
	const op = "services.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.User{UUID: claims.UserUID, Role: claims.Role}, nil
}

// DeleteAccount удаляет учётную запись субъекта. Все данные пользователя
// удаляются каскадно.
func (s *AuthService) DeleteAccount(ctx context.Context, actor authz.Actor) error {
	const op = "services.DeleteAccount"

	if actor.UserUID == uuid.Nil {
		return fmt.Errorf("%s: %w", op, authz.ErrNotFound)
	}
	if err := s.users.DeleteUser(ctx, actor.UserUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("user_uid", actor.UserUID.String()))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
